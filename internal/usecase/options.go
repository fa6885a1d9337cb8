package usecase

import (
	"log/slog"

	"groundqa/internal/adapter/cache"
	"groundqa/internal/adapter/chunker"
	"groundqa/internal/adapter/generator"
)

type options struct {
	logger       *slog.Logger
	workers      int
	chunkSize    int
	chunkOverlap int
	textCache    *cache.TextCache
	retryPolicy  generator.RetryPolicy
	maxCitations int
	storeText    bool
}

func defaultOptions() options {
	return options{
		logger:       slog.Default(),
		workers:      4,
		chunkSize:    chunker.DefaultSize,
		chunkOverlap: chunker.DefaultOverlap,
		retryPolicy:  generator.DefaultRetryPolicy(),
		maxCitations: DefaultMaxCitations,
		storeText:    true,
	}
}

// Option configures a use case. Options that do not apply to a given use
// case are ignored by it.
type Option func(*options)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithWorkers sets how many documents are acquired and chunked concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithChunking sets the window size and overlap in runes.
func WithChunking(size, overlap int) Option {
	return func(o *options) {
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

// WithTextCache sets the cache consulted before extracting document text.
func WithTextCache(c *cache.TextCache) Option {
	return func(o *options) {
		o.textCache = c
	}
}

// WithRetryPolicy sets the retry policy used for generator calls.
func WithRetryPolicy(p generator.RetryPolicy) Option {
	return func(o *options) {
		o.retryPolicy = p
	}
}

// WithMaxCitations bounds the number of citations in an answer.
func WithMaxCitations(n int) Option {
	return func(o *options) {
		o.maxCitations = n
	}
}

// WithStoreText controls whether ingested text is kept in the store.
func WithStoreText(keep bool) Option {
	return func(o *options) {
		o.storeText = keep
	}
}

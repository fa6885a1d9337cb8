package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"groundqa/config"
	"groundqa/internal/adapter/analyzer"
	"groundqa/internal/adapter/cache"
	"groundqa/internal/adapter/chunker"
	"groundqa/internal/adapter/retriever"
	"groundqa/internal/domain"
	"groundqa/internal/port"
)

// RetrieveUseCase turns a question into ranked evidence chunks.
type RetrieveUseCase struct {
	selector  *CandidateSelector
	extractor port.TextExtractor
	chunker   port.Chunker
	keywords  *analyzer.KeywordExtractor
	textCache *cache.TextCache
	pool      *ants.Pool
	logger    *slog.Logger
}

// NewRetrieveUseCase creates a new retrieve use case. extractor may be nil
// when every document carries its own text.
func NewRetrieveUseCase(store port.DocumentStore, extractor port.TextExtractor, opts ...Option) (*RetrieveUseCase, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	pool, err := ants.NewPool(o.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	keywords := analyzer.NewKeywordExtractor()
	return &RetrieveUseCase{
		selector:  NewCandidateSelector(store, keywords, o.logger),
		extractor: extractor,
		chunker:   chunker.NewWindowChunker(o.chunkSize, o.chunkOverlap),
		keywords:  keywords,
		textCache: o.textCache,
		pool:      pool,
		logger:    o.logger,
	}, nil
}

// RetrieveChunks returns at most topK chunks ordered by score, then by
// discovery order (candidate order, then chunk index). An empty result
// means there is not enough evidence.
func (u *RetrieveUseCase) RetrieveChunks(ctx context.Context, question string, docLimit, topK int, explicitDocID string) []domain.Chunk {
	docLimit = config.ClampDocLimit(docLimit)
	topK = config.ClampTopK(topK)

	candidates := u.selector.Select(ctx, question, docLimit, explicitDocID)
	if len(candidates) == 0 {
		return nil
	}

	keywords := u.keywords.Extract(question)

	// Each candidate writes only its own slot so the merged order does not
	// depend on which worker finishes first.
	perDoc := make([][]domain.Chunk, len(candidates))
	var wg sync.WaitGroup
	for i, doc := range candidates {
		i, doc := i, doc
		wg.Add(1)
		task := func() {
			defer wg.Done()
			perDoc[i] = u.chunkDocument(ctx, doc, keywords)
		}
		if err := u.pool.Submit(task); err != nil {
			u.logger.Debug("worker pool unavailable, processing inline", "err", err)
			task()
		}
	}
	wg.Wait()

	var all []domain.Chunk
	for _, chunks := range perDoc {
		all = append(all, chunks...)
	}

	return retriever.Rank(all, topK)
}

// chunkDocument acquires, chunks and scores one document. Failures are
// logged and yield no chunks.
func (u *RetrieveUseCase) chunkDocument(ctx context.Context, doc domain.Document, keywords []string) (chunks []domain.Chunk) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("document processing panicked, skipping", "doc_id", doc.ID, "panic", r)
			chunks = nil
		}
	}()

	text, err := u.acquireText(ctx, doc)
	if err != nil {
		u.logger.Warn("skipping document", "doc_id", doc.ID, "name", doc.Name, "err", err)
		return nil
	}

	chunks = u.chunker.Chunk(doc, text)
	retriever.ScoreChunks(chunks, keywords)
	return chunks
}

// acquireText returns the normalized text of doc: stored text first, then
// the text cache, then the extractor.
func (u *RetrieveUseCase) acquireText(ctx context.Context, doc domain.Document) (string, error) {
	if doc.Text != "" {
		if text := analyzer.Normalize(doc.Text); text != "" {
			return text, nil
		}
	}

	if u.textCache != nil {
		if text, ok := u.textCache.Get(doc.ID); ok {
			return text, nil
		}
	}

	if u.extractor == nil {
		return "", fmt.Errorf("%w: %s", ErrNoText, doc.ID)
	}

	extraction, err := u.extractor.ExtractText(ctx, doc.Path, doc.MimeType)
	if err != nil {
		return "", fmt.Errorf("extraction failed: %w", err)
	}

	text := analyzer.Normalize(extraction.Text)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, doc.ID)
	}

	if u.textCache != nil {
		u.textCache.Put(doc.ID, text)
	}
	return text, nil
}

// Release releases the worker pool.
func (u *RetrieveUseCase) Release() {
	if u.pool != nil {
		u.pool.Release()
	}
}

// ScoredChunkResult is a simplified result for CLI output.
type ScoredChunkResult struct {
	ChunkID   string  `json:"chunk_id"`
	DocID     string  `json:"doc_id"`
	DocName   string  `json:"doc_name"`
	StartChar int     `json:"start_char"`
	EndChar   int     `json:"end_char"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
}

// ToResults converts chunks for display.
func ToResults(chunks []domain.Chunk) []ScoredChunkResult {
	results := make([]ScoredChunkResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, ScoredChunkResult{
			ChunkID:   c.ID,
			DocID:     c.DocID,
			DocName:   c.DocName,
			StartChar: c.StartChar,
			EndChar:   c.EndChar,
			Score:     c.Score,
			Text:      c.Text,
		})
	}
	return results
}

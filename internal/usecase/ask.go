package usecase

import (
	"context"
	"log/slog"

	"groundqa/internal/adapter/generator"
	"groundqa/internal/domain"
	"groundqa/internal/port"
)

// AnswerStatus describes how an answer was produced.
type AnswerStatus string

const (
	StatusAnswered             AnswerStatus = "answered"
	StatusUnparsed             AnswerStatus = "unparsed"
	StatusGeneratorFailed      AnswerStatus = "generator_failed"
	StatusInsufficientEvidence AnswerStatus = "insufficient_evidence"
)

// InsufficientEvidenceText is the answer given when retrieval finds nothing.
const InsufficientEvidenceText = "Not enough information in the provided documents to answer this question."

// GeneratorFailedText is the answer given when the generator cannot be reached.
const GeneratorFailedText = "The answer could not be generated. The most relevant excerpts are cited below."

// AskRequest is a question plus retrieval parameters. Zero values take
// the configured defaults.
type AskRequest struct {
	Question string
	DocLimit int
	TopK     int
	DocID    string
}

// Answer is the result of Ask. Citations always reference Chunks.
type Answer struct {
	Text       string            `json:"answer"`
	Citations  []domain.Citation `json:"citations"`
	Confidence *float64          `json:"confidence,omitempty"`
	Chunks     []domain.Chunk    `json:"chunks"`
	Status     AnswerStatus      `json:"status"`
	Model      string            `json:"model,omitempty"`
}

// AskUseCase runs retrieval, generation and citation validation.
type AskUseCase struct {
	retriever    port.Retriever
	generator    port.Generator
	policy       generator.RetryPolicy
	maxCitations int
	topK         int
	docLimit     int
	logger       *slog.Logger
}

// NewAskUseCase creates a new ask use case. topK and docLimit are the
// defaults applied when a request leaves them at zero.
func NewAskUseCase(retriever port.Retriever, gen port.Generator, topK, docLimit int, opts ...Option) (*AskUseCase, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if gen == nil {
		return nil, ErrGeneratorRequired
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &AskUseCase{
		retriever:    retriever,
		generator:    gen,
		policy:       o.retryPolicy,
		maxCitations: o.maxCitations,
		topK:         topK,
		docLimit:     docLimit,
		logger:       o.logger,
	}, nil
}

// Ask answers req.Question. It never fails: generator errors and
// malformed output degrade the answer, and citations fall back to the top
// retrieved chunks.
func (u *AskUseCase) Ask(ctx context.Context, req AskRequest) Answer {
	topK := req.TopK
	if topK == 0 {
		topK = u.topK
	}
	docLimit := req.DocLimit
	if docLimit == 0 {
		docLimit = u.docLimit
	}

	chunks := u.retriever.RetrieveChunks(ctx, req.Question, docLimit, topK, req.DocID)
	if len(chunks) == 0 {
		return Answer{
			Text:      InsufficientEvidenceText,
			Citations: []domain.Citation{},
			Chunks:    []domain.Chunk{},
			Status:    StatusInsufficientEvidence,
		}
	}

	answer := Answer{Chunks: chunks, Model: u.generator.ModelName()}

	var raw string
	err := generator.Do(ctx, u.policy, func(ctx context.Context) error {
		var genErr error
		raw, genErr = u.generator.Generate(ctx, req.Question, chunks)
		return genErr
	})
	if err != nil {
		u.logger.Warn("generator failed, answering with retrieved evidence", "err", err)
		answer.Text = GeneratorFailedText
		answer.Citations = FallbackCitations(chunks, u.maxCitations)
		answer.Status = StatusGeneratorFailed
		return answer
	}

	switch out := generator.ParseOutput(raw).(type) {
	case generator.Parsed:
		answer.Text = out.Answer
		answer.Confidence = out.Confidence
		answer.Citations = BuildCitations(out.Citations, chunks, u.maxCitations)
		answer.Status = StatusAnswered
	case generator.Unparsed:
		u.logger.Debug("generator output was not JSON", "len", len(out.Raw))
		answer.Text = out.Raw
		answer.Citations = BuildCitations(nil, chunks, u.maxCitations)
		answer.Status = StatusUnparsed
	}

	return answer
}

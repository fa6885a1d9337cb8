package port

import (
	"context"

	"groundqa/internal/domain"
)

// Retriever returns ranked evidence for a question. An empty result means
// there was not enough evidence; it is never an error.
type Retriever interface {
	RetrieveChunks(ctx context.Context, question string, docLimit, topK int, explicitDocID string) []domain.Chunk
}

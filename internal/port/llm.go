package port

import (
	"context"

	"groundqa/internal/domain"
)

// Generator produces an answer for a question from ranked evidence.
// The returned string is raw model output; it is parsed and validated
// by the caller and never trusted as-is.
type Generator interface {
	Generate(ctx context.Context, question string, chunks []domain.Chunk) (string, error)

	// ModelName returns the name of the model in use.
	ModelName() string
}

package port

import (
	"context"

	"groundqa/internal/domain"
)

// TextExtractor pulls plain text out of a stored file.
type TextExtractor interface {
	ExtractText(ctx context.Context, path, mimeType string) (domain.Extraction, error)
}

package port

import (
	"context"
	"errors"

	"groundqa/internal/domain"
)

// ErrNotFound is returned by DocumentStore.GetByID for unknown IDs.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the read-only view of the corpus used during retrieval.
type DocumentStore interface {
	GetByID(ctx context.Context, id string) (domain.Document, error)

	// ListRecent returns up to limit documents, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.Document, error)

	// SearchByKeywords is a best-effort shortlist. Callers must tolerate errors.
	SearchByKeywords(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}

// DocumentWriter is implemented by stores that support ingestion.
type DocumentWriter interface {
	PutDoc(ctx context.Context, doc domain.Document, indexText string) error

	DeleteDoc(ctx context.Context, id string) error

	ListDocs(ctx context.Context) ([]domain.Document, error)
}

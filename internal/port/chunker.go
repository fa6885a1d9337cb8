package port

import "groundqa/internal/domain"

type Chunker interface {
	Chunk(doc domain.Document, normalized string) []domain.Chunk
}

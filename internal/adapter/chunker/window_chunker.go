package chunker

import (
	"fmt"

	"groundqa/internal/domain"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 100
)

// WindowChunker splits normalized text into fixed-size overlapping windows.
// Sizes and offsets are in runes.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &WindowChunker{
		size:    size,
		overlap: overlap,
	}
}

// Chunk splits text and binds each window to doc. text is expected to be
// normalized already; offsets refer to it.
func (c *WindowChunker) Chunk(doc domain.Document, text string) []domain.Chunk {
	windows := Split(text, c.size, c.overlap)
	if len(windows) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(windows))
	for i, w := range windows {
		chunks = append(chunks, domain.Chunk{
			ID:        ChunkID(doc.ID, i),
			DocID:     doc.ID,
			DocName:   doc.Name,
			Text:      w.Text,
			StartChar: w.StartChar,
			EndChar:   w.EndChar,
		})
	}
	return chunks
}

// Split cuts text into windows of size runes advancing by size-overlap.
// The step is at least one rune so size <= overlap still terminates.
func Split(text string, size, overlap int) []domain.Window {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	n := len(runes)

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var windows []domain.Window
	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		windows = append(windows, domain.Window{
			Text:      string(runes[start:end]),
			StartChar: start,
			EndChar:   end,
		})
		if end == n {
			break
		}
	}

	return windows
}

// ChunkID is the deterministic ID of the index-th chunk of docID.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, index)
}

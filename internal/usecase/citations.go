package usecase

import (
	"log/slog"
	"strings"
	"unicode"

	"groundqa/internal/domain"
)

const (
	// DefaultMaxCitations bounds the citation list when no limit is given.
	DefaultMaxCitations = 3

	// MaxQuoteLen is the maximum quote length in runes.
	MaxQuoteLen = 200
)

// BuildCitations reconciles the generator's claimed citations with the
// chunks that were actually retrieved. A claim survives only if it names
// a retrieved chunk ID, or a document ID plus a range contained in one
// retrieved chunk of that document. Survivors are clamped to their chunk,
// deduplicated by chunk ID and capped at maxCitations in claim order.
// When nothing survives, the top retrieved chunks are cited instead.
// Every returned citation references a chunk in retrieved.
func BuildCitations(claims []domain.ClaimedCitation, retrieved []domain.Chunk, maxCitations int) (citations []domain.Citation) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("citation validation panicked", "panic", r)
			citations = []domain.Citation{}
		}
	}()

	if maxCitations <= 0 {
		maxCitations = DefaultMaxCitations
	}
	if len(retrieved) == 0 {
		return []domain.Citation{}
	}

	byID := make(map[string]int, len(retrieved))
	for i, c := range retrieved {
		if _, exists := byID[c.ID]; !exists {
			byID[c.ID] = i
		}
	}

	citations = make([]domain.Citation, 0, maxCitations)
	used := make(map[string]struct{}, maxCitations)

	for _, claim := range claims {
		if len(citations) >= maxCitations {
			break
		}

		idx, ok := matchClaim(claim, retrieved, byID)
		if !ok {
			slog.Debug("discarding unmatched citation", "chunk_id", claim.ChunkID, "doc_id", claim.DocID)
			continue
		}

		chunk := retrieved[idx]
		if _, dup := used[chunk.ID]; dup {
			continue
		}
		used[chunk.ID] = struct{}{}
		citations = append(citations, citeClaim(claim, chunk))
	}

	if len(citations) > 0 {
		return citations
	}

	return FallbackCitations(retrieved, maxCitations)
}

// FallbackCitations cites the first maxCitations chunks, which are
// expected to be ordered by relevance already.
func FallbackCitations(retrieved []domain.Chunk, maxCitations int) []domain.Citation {
	if maxCitations <= 0 {
		maxCitations = DefaultMaxCitations
	}

	citations := make([]domain.Citation, 0, maxCitations)
	used := make(map[string]struct{}, maxCitations)
	for _, chunk := range retrieved {
		if len(citations) >= maxCitations {
			break
		}
		if _, dup := used[chunk.ID]; dup {
			continue
		}
		used[chunk.ID] = struct{}{}
		citations = append(citations, domain.Citation{
			DocID:     chunk.DocID,
			DocName:   chunk.DocName,
			ChunkID:   chunk.ID,
			StartChar: chunk.StartChar,
			EndChar:   chunk.EndChar,
			Quote:     SanitizeQuote(chunk.Text),
		})
	}
	return citations
}

// matchClaim returns the index of the retrieved chunk a claim refers to.
func matchClaim(claim domain.ClaimedCitation, retrieved []domain.Chunk, byID map[string]int) (int, bool) {
	if claim.ChunkID != "" {
		if idx, ok := byID[claim.ChunkID]; ok {
			return idx, true
		}
	}

	if claim.DocID == "" || !claim.HasRange() {
		return 0, false
	}
	start, end := *claim.StartChar, *claim.EndChar
	if start > end {
		return 0, false
	}

	for i, c := range retrieved {
		if c.DocID == claim.DocID && c.StartChar <= start && end <= c.EndChar {
			return i, true
		}
	}
	return 0, false
}

func citeClaim(claim domain.ClaimedCitation, chunk domain.Chunk) domain.Citation {
	start, end := clampRange(claim, chunk)

	quote := SanitizeQuote(claim.Quote)
	if quote == "" {
		quote = SanitizeQuote(sliceChunk(chunk, start, end))
	}
	if quote == "" {
		quote = SanitizeQuote(chunk.Text)
	}

	return domain.Citation{
		DocID:     chunk.DocID,
		DocName:   chunk.DocName,
		ChunkID:   chunk.ID,
		StartChar: start,
		EndChar:   end,
		Quote:     quote,
	}
}

// clampRange intersects the claimed range with the chunk's range. Claims
// without a range, or whose range misses the chunk, get the whole chunk.
func clampRange(claim domain.ClaimedCitation, chunk domain.Chunk) (int, int) {
	if !claim.HasRange() {
		return chunk.StartChar, chunk.EndChar
	}

	start := max(*claim.StartChar, chunk.StartChar)
	end := min(*claim.EndChar, chunk.EndChar)
	if start > end {
		return chunk.StartChar, chunk.EndChar
	}
	return start, end
}

// sliceChunk returns the chunk text between document offsets start and end.
func sliceChunk(chunk domain.Chunk, start, end int) string {
	runes := []rune(chunk.Text)
	lo := start - chunk.StartChar
	hi := end - chunk.StartChar
	if lo < 0 {
		lo = 0
	}
	if hi > len(runes) {
		hi = len(runes)
	}
	if lo >= hi {
		return ""
	}
	return string(runes[lo:hi])
}

// SanitizeQuote collapses all whitespace to single spaces, trims, and caps
// the result at MaxQuoteLen runes.
func SanitizeQuote(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > MaxQuoteLen {
		s = strings.TrimRightFunc(string(runes[:MaxQuoteLen]), unicode.IsSpace)
	}
	return s
}

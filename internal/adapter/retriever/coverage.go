package retriever

import (
	"sort"
	"strings"

	"groundqa/internal/domain"
)

// CoverageScore returns the fraction of distinct keywords that occur as a
// case-insensitive substring of text. Duplicate keywords and repetition in
// the text add nothing. No keywords means no signal: 0.
func CoverageScore(text string, keywords []string) float64 {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{}, len(keywords))
	matched := 0

	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if strings.Contains(lower, kw) {
			matched++
		}
	}

	if len(seen) == 0 {
		return 0
	}
	return float64(matched) / float64(len(seen))
}

// ScoreChunks sets Score on every chunk in place.
func ScoreChunks(chunks []domain.Chunk, keywords []string) {
	for i := range chunks {
		chunks[i].Score = CoverageScore(chunks[i].Text, keywords)
	}
}

// Rank orders chunks by score, highest first, keeping discovery order for
// equal scores, and truncates to topK. The input slice is not modified.
func Rank(chunks []domain.Chunk, topK int) []domain.Chunk {
	if len(chunks) == 0 || topK <= 0 {
		return nil
	}

	ranked := make([]domain.Chunk, len(chunks))
	copy(ranked, chunks)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

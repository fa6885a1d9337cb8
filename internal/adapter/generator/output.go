package generator

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"groundqa/internal/domain"
)

// Output is the result of parsing raw generator text. It is either
// Parsed or Unparsed.
type Output interface {
	isOutput()
}

// Parsed is generator output that matched the expected JSON shape.
// Citations are still untrusted claims.
type Parsed struct {
	Answer     string
	Citations  []domain.ClaimedCitation
	Confidence *float64
}

// Unparsed is generator output that could not be read as JSON. Raw holds
// the trimmed text so callers can still show it as the answer.
type Unparsed struct {
	Raw string
}

func (Parsed) isOutput()   {}
func (Unparsed) isOutput() {}

// ParseOutput reads the model's JSON answer. Code fences and common JSON
// mistakes are tolerated; anything else yields Unparsed.
func ParseOutput(raw string) Output {
	text := stripFences(raw)

	obj, ok := decodeObject(text)
	if !ok {
		return Unparsed{Raw: strings.TrimSpace(raw)}
	}

	answer := firstString(obj, "answer", "response", "text")
	if strings.TrimSpace(answer) == "" {
		return Unparsed{Raw: strings.TrimSpace(raw)}
	}

	return Parsed{
		Answer:     strings.TrimSpace(answer),
		Citations:  parseClaims(obj["citations"]),
		Confidence: parseConfidence(obj["confidence"]),
	}
}

func decodeObject(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	body := text[start : end+1]

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err == nil {
		return obj, true
	}
	if err := json.Unmarshal([]byte(repairJSON(body)), &obj); err == nil {
		return obj, true
	}
	return nil, false
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseClaims(v any) []domain.ClaimedCitation {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	claims := make([]domain.ClaimedCitation, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			// A bare string is read as a chunk ID.
			if id, ok := item.(string); ok && id != "" {
				claims = append(claims, domain.ClaimedCitation{ChunkID: id})
			}
			continue
		}
		claims = append(claims, domain.ClaimedCitation{
			DocID:     firstString(m, "doc_id", "docId", "document_id"),
			ChunkID:   firstString(m, "chunk_id", "chunkId", "id"),
			StartChar: firstInt(m, "start_char", "startChar", "start"),
			EndChar:   firstInt(m, "end_char", "endChar", "end"),
			Quote:     firstString(m, "quote", "text"),
		})
	}
	return claims
}

// parseConfidence reads a confidence in [0,1]. Values of 2 and above, or
// strings ending in "%", are percentages; anything else out of range is
// clamped.
func parseConfidence(v any) *float64 {
	percent := false
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if strings.HasSuffix(s, "%") {
			percent = true
			v = strings.TrimSuffix(s, "%")
		}
	}

	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return nil
	}
	if percent || (f >= 2 && f <= 100) {
		f /= 100
	}
	f = math.Max(0, math.Min(1, f))
	return &f
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) *int {
	for _, k := range keys {
		if f, ok := toFloat(m[k]); ok && f >= 0 && f <= math.MaxInt32 {
			n := int(f)
			return &n
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

package domain

import "time"

// Document is an ingested source document. Text is empty when the
// store does not keep it and it has to be extracted on demand.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mime_type"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ModTime   time.Time `json:"mod_time"`
}

// Window is a slice of normalized text produced by the chunker.
// Offsets are rune offsets, EndChar exclusive.
type Window struct {
	Text      string
	StartChar int
	EndChar   int
}

// Chunk is the unit of retrieval.
type Chunk struct {
	ID        string  `json:"chunk_id"`
	DocID     string  `json:"doc_id"`
	DocName   string  `json:"doc_name"`
	Text      string  `json:"text"`
	StartChar int     `json:"start_char"`
	EndChar   int     `json:"end_char"`
	Score     float64 `json:"score"`
}

// Citation is a validated pointer from an answer back to a retrieved chunk.
type Citation struct {
	DocID     string `json:"doc_id"`
	DocName   string `json:"doc_name"`
	ChunkID   string `json:"chunk_id"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
	Quote     string `json:"quote"`
}

// ClaimedCitation is what the answer generator says it cited. Nothing in
// it is trusted until it has been matched against retrieved chunks.
type ClaimedCitation struct {
	DocID     string `json:"doc_id,omitempty"`
	ChunkID   string `json:"chunk_id,omitempty"`
	StartChar *int   `json:"start_char,omitempty"`
	EndChar   *int   `json:"end_char,omitempty"`
	Quote     string `json:"quote,omitempty"`
}

// HasRange reports whether both offsets were supplied.
func (c ClaimedCitation) HasRange() bool {
	return c.StartChar != nil && c.EndChar != nil
}

// SearchHit is a shortlist entry returned by keyword search.
type SearchHit struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

// Extraction is the result of pulling raw text out of a stored file.
type Extraction struct {
	Text      string
	CharCount int
}

package generator

import (
	"context"
	"encoding/json"
	"sync"

	"groundqa/internal/domain"
)

// MockGenerator answers without a model. By default it quotes the first
// chunk and cites it exactly. Response and Err override that.
type MockGenerator struct {
	mu       sync.Mutex
	Response string
	Err      error
	// Failures makes the first n calls return Err before succeeding.
	Failures int
	calls    int
}

// NewMockGenerator returns a MockGenerator using the default reply.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) ModelName() string { return "mock" }

// Calls returns how many times Generate ran.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockGenerator) Generate(ctx context.Context, question string, chunks []domain.Chunk) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	if m.Err != nil && (m.Failures == 0 || call <= m.Failures) {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return defaultReply(chunks), nil
}

type mockCitation struct {
	DocID     string `json:"doc_id"`
	ChunkID   string `json:"chunk_id"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
	Quote     string `json:"quote"`
}

type mockReply struct {
	Answer     string         `json:"answer"`
	Citations  []mockCitation `json:"citations"`
	Confidence float64        `json:"confidence"`
}

func defaultReply(chunks []domain.Chunk) string {
	reply := mockReply{Answer: "No relevant information found.", Citations: []mockCitation{}}
	if len(chunks) > 0 {
		top := chunks[0]
		reply.Answer = top.Text
		reply.Confidence = top.Score
		reply.Citations = append(reply.Citations, mockCitation{
			DocID:     top.DocID,
			ChunkID:   top.ID,
			StartChar: top.StartChar,
			EndChar:   top.EndChar,
			Quote:     top.Text,
		})
	}
	out, _ := json.Marshal(reply)
	return string(out)
}

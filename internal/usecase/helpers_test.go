package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"groundqa/internal/adapter/memstore"
	"groundqa/internal/domain"
)

var errExtract = errors.New("extraction failed")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeExtractor serves text by path and counts calls.
type fakeExtractor struct {
	mu    sync.Mutex
	texts map[string]string
	fail  map[string]bool
	calls int
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{texts: map[string]string{}, fail: map[string]bool{}}
}

func (f *fakeExtractor) ExtractText(ctx context.Context, path, mimeType string) (domain.Extraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[path] {
		return domain.Extraction{}, errExtract
	}
	text, ok := f.texts[path]
	if !ok {
		return domain.Extraction{}, errExtract
	}
	return domain.Extraction{Text: text, CharCount: len([]rune(text))}, nil
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// putDoc stores a document created age minutes before the newest ones.
func putDoc(t *testing.T, st *memstore.MemoryStore, id, name, text string, age int) domain.Document {
	t.Helper()
	doc := domain.Document{
		ID:        id,
		Name:      name,
		Path:      "/docs/" + name,
		MimeType:  "text/plain",
		Text:      text,
		CreatedAt: baseTime.Add(-time.Duration(age) * time.Minute),
	}
	require.NoError(t, st.PutDoc(context.Background(), doc, text))
	return doc
}

func intp(n int) *int { return &n }

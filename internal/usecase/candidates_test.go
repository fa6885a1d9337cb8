package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundqa/internal/adapter/memstore"
	"groundqa/internal/domain"
)

func ids(docs []domain.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestCandidateSelector_ExplicitDoc(t *testing.T) {
	st := memstore.NewMemoryStore()
	putDoc(t, st, "a", "a.txt", "alpha", 0)
	putDoc(t, st, "b", "b.txt", "beta", 1)
	sel := NewCandidateSelector(st, nil, quietLogger())

	docs := sel.Select(context.Background(), "beta", 10, "a")
	assert.Equal(t, []string{"a"}, ids(docs))

	assert.Empty(t, sel.Select(context.Background(), "beta", 10, "missing"))
}

func TestCandidateSelector_SearchOrder(t *testing.T) {
	st := memstore.NewMemoryStore()
	putDoc(t, st, "a", "a.txt", "alpha only", 0)
	putDoc(t, st, "b", "b.txt", "alpha beta gamma", 5)
	putDoc(t, st, "c", "c.txt", "unrelated", 1)
	sel := NewCandidateSelector(st, nil, quietLogger())

	docs := sel.Select(context.Background(), "alpha beta gamma", 10, "")
	assert.Equal(t, []string{"b", "a"}, ids(docs))
}

func TestCandidateSelector_SearchUsesLeadingKeywords(t *testing.T) {
	st := memstore.NewMemoryStore()
	putDoc(t, st, "a", "a.txt", "delta", 0)
	putDoc(t, st, "b", "b.txt", "other", 1)
	sel := NewCandidateSelector(st, nil, quietLogger())

	// "delta" is the fourth keyword, so search finds nothing and the
	// selector falls back to recency.
	docs := sel.Select(context.Background(), "alpha beta gamma delta", 10, "")
	assert.Equal(t, []string{"a", "b"}, ids(docs))
}

func TestCandidateSelector_DocLimit(t *testing.T) {
	st := memstore.NewMemoryStore()
	for i, id := range []string{"a", "b", "c", "d"} {
		putDoc(t, st, id, id+".txt", "alpha", i)
	}
	sel := NewCandidateSelector(st, nil, quietLogger())

	assert.Len(t, sel.Select(context.Background(), "alpha", 2, ""), 2)
	assert.Len(t, sel.Select(context.Background(), "zzz", 3, ""), 3)
}

func TestCandidateSelector_SearchFailureFallsBackToRecent(t *testing.T) {
	st := memstore.NewMemoryStore()
	putDoc(t, st, "old", "old.txt", "alpha", 10)
	putDoc(t, st, "new", "new.txt", "beta", 0)
	st.FailSearch(true)
	sel := NewCandidateSelector(st, nil, quietLogger())

	docs := sel.Select(context.Background(), "alpha", 10, "")
	assert.Equal(t, []string{"new", "old"}, ids(docs))
}

func TestCandidateSelector_StopwordQuestionUsesRecent(t *testing.T) {
	st := memstore.NewMemoryStore()
	putDoc(t, st, "a", "a.txt", "alpha", 0)
	sel := NewCandidateSelector(st, nil, quietLogger())

	docs := sel.Select(context.Background(), "what is the", 10, "")
	assert.Equal(t, []string{"a"}, ids(docs))
}

// danglingStore reports search hits whose documents are gone.
type danglingStore struct {
	*memstore.MemoryStore
}

func (d danglingStore) SearchByKeywords(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return []domain.SearchHit{{ID: "ghost", Matches: 1}}, nil
}

func TestCandidateSelector_UnresolvedHitsFallBack(t *testing.T) {
	st := memstore.NewMemoryStore()
	putDoc(t, st, "a", "a.txt", "alpha", 0)
	sel := NewCandidateSelector(danglingStore{st}, nil, quietLogger())

	docs := sel.Select(context.Background(), "alpha", 10, "")
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].ID)
}

// brokenStore fails every call.
type brokenStore struct{}

var errBroken = errors.New("store down")

func (brokenStore) GetByID(ctx context.Context, id string) (domain.Document, error) {
	return domain.Document{}, errBroken
}

func (brokenStore) ListRecent(ctx context.Context, limit int) ([]domain.Document, error) {
	return nil, errBroken
}

func (brokenStore) SearchByKeywords(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return nil, errBroken
}

func TestCandidateSelector_BrokenStore(t *testing.T) {
	sel := NewCandidateSelector(brokenStore{}, nil, quietLogger())

	assert.Empty(t, sel.Select(context.Background(), "alpha", 5, ""))
	assert.Empty(t, sel.Select(context.Background(), "alpha", 5, "a"))
}

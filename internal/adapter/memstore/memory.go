package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"groundqa/internal/adapter/analyzer"
	"groundqa/internal/adapter/store"
	"groundqa/internal/domain"
	"groundqa/internal/port"
)

// ErrSearchUnavailable is returned by SearchByKeywords when the store was
// configured to simulate a failing search backend.
var ErrSearchUnavailable = errors.New("search unavailable")

// MemoryStore is an in-memory document store.
type MemoryStore struct {
	mu         sync.RWMutex
	docs       map[string]domain.Document
	terms      map[string]map[string]struct{}
	docTerms   map[string][]string
	keywords   *analyzer.KeywordExtractor
	failSearch bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]domain.Document),
		terms:    make(map[string]map[string]struct{}),
		docTerms: make(map[string][]string),
		keywords: analyzer.NewKeywordExtractor(),
	}
}

// FailSearch makes SearchByKeywords return ErrSearchUnavailable.
func (s *MemoryStore) FailSearch(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSearch = fail
}

func (s *MemoryStore) PutDoc(ctx context.Context, doc domain.Document, indexText string) error {
	if doc.ID == "" {
		return store.ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeTerms(doc.ID)
	s.docs[doc.ID] = doc

	var terms []string
	seen := make(map[string]struct{})
	for _, term := range s.keywords.Extract(doc.Name + " " + indexText) {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
		if s.terms[term] == nil {
			s.terms[term] = make(map[string]struct{})
		}
		s.terms[term][doc.ID] = struct{}{}
	}
	s.docTerms[doc.ID] = terms
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	return doc, nil
}

func (s *MemoryStore) DeleteDoc(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	s.removeTerms(id)
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) ListDocs(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]domain.Document, error) {
	docs, _ := s.ListDocs(ctx)
	store.SortRecent(docs)
	if limit >= 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *MemoryStore) SearchByKeywords(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failSearch {
		return nil, ErrSearchUnavailable
	}
	if limit <= 0 {
		return nil, nil
	}

	matches := make(map[string]int)
	seen := make(map[string]struct{})
	for _, term := range s.keywords.Extract(query) {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		for id := range s.terms[term] {
			matches[id]++
		}
	}

	docs := make([]domain.Document, 0, len(matches))
	for id := range matches {
		docs = append(docs, s.docs[id])
	}
	return store.RankHits(docs, matches, limit), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) removeTerms(id string) {
	for _, term := range s.docTerms[id] {
		delete(s.terms[term], id)
		if len(s.terms[term]) == 0 {
			delete(s.terms, term)
		}
	}
	delete(s.docTerms, id)
}

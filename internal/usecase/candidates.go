package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"groundqa/internal/adapter/analyzer"
	"groundqa/internal/domain"
	"groundqa/internal/port"
)

// searchKeywords is how many leading question keywords go into the
// search shortlist query.
const searchKeywords = 3

// CandidateSelector decides which documents take part in retrieval.
type CandidateSelector struct {
	store    port.DocumentStore
	keywords *analyzer.KeywordExtractor
	logger   *slog.Logger
}

func NewCandidateSelector(store port.DocumentStore, keywords *analyzer.KeywordExtractor, logger *slog.Logger) *CandidateSelector {
	if keywords == nil {
		keywords = analyzer.NewKeywordExtractor()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidateSelector{store: store, keywords: keywords, logger: logger}
}

// Select returns up to docLimit candidate documents, in the order they
// will be processed. An explicit document ID that does not resolve yields
// no candidates. Search failures fall back to the most recent documents.
func (s *CandidateSelector) Select(ctx context.Context, question string, docLimit int, explicitDocID string) []domain.Document {
	if explicitDocID != "" {
		doc, err := s.store.GetByID(ctx, explicitDocID)
		if err != nil {
			if !errors.Is(err, port.ErrNotFound) {
				s.logger.Warn("explicit document lookup failed", "doc_id", explicitDocID, "err", err)
			}
			return nil
		}
		return []domain.Document{doc}
	}

	if docs := s.fromSearch(ctx, question, docLimit); len(docs) > 0 {
		return docs
	}

	docs, err := s.store.ListRecent(ctx, docLimit)
	if err != nil {
		s.logger.Error("recent documents lookup failed", "err", err)
		return nil
	}
	if len(docs) > docLimit {
		docs = docs[:docLimit]
	}
	return docs
}

func (s *CandidateSelector) fromSearch(ctx context.Context, question string, docLimit int) []domain.Document {
	keywords := s.keywords.Extract(question)
	if len(keywords) == 0 {
		return nil
	}
	if len(keywords) > searchKeywords {
		keywords = keywords[:searchKeywords]
	}
	query := strings.Join(keywords, " ")

	hits, err := s.store.SearchByKeywords(ctx, query, docLimit)
	if err != nil {
		s.logger.Warn("keyword search failed, using recent documents", "query", query, "err", err)
		return nil
	}

	docs := make([]domain.Document, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if len(docs) >= docLimit {
			break
		}
		if _, dup := seen[hit.ID]; dup {
			continue
		}
		seen[hit.ID] = struct{}{}

		doc, err := s.store.GetByID(ctx, hit.ID)
		if err != nil {
			s.logger.Debug("search hit did not resolve", "doc_id", hit.ID, "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

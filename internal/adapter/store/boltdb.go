package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"groundqa/internal/adapter/analyzer"
	"groundqa/internal/domain"
	"groundqa/internal/port"
)

var (
	bucketDocs     = []byte("docs")
	bucketTerms    = []byte("terms")
	bucketDocTerms = []byte("doc_terms")
	bucketMeta     = []byte("meta")
)

// BoltStore is a bbolt-backed document store with a term to document
// postings index used for keyword shortlisting.
type BoltStore struct {
	db       *bbolt.DB
	keywords *analyzer.KeywordExtractor
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketDocs, bucketTerms, bucketDocTerms, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, keywords: analyzer.NewKeywordExtractor()}, nil
}

type docRecord struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	MimeType  string `json:"mime_type"`
	Text      string `json:"text,omitempty"`
	CreatedAt int64  `json:"created_at"`
	ModTime   int64  `json:"mod_time"`
}

func toRecord(doc domain.Document) docRecord {
	return docRecord{
		Name:      doc.Name,
		Path:      doc.Path,
		MimeType:  doc.MimeType,
		Text:      doc.Text,
		CreatedAt: doc.CreatedAt.UnixNano(),
		ModTime:   doc.ModTime.Unix(),
	}
}

func fromRecord(id string, rec docRecord) domain.Document {
	return domain.Document{
		ID:        id,
		Name:      rec.Name,
		Path:      rec.Path,
		MimeType:  rec.MimeType,
		Text:      rec.Text,
		CreatedAt: time.Unix(0, rec.CreatedAt).UTC(),
		ModTime:   time.Unix(rec.ModTime, 0).UTC(),
	}
}

// PutDoc stores doc and indexes the terms of its name and indexText.
// Any previous postings for the same ID are replaced.
func (s *BoltStore) PutDoc(ctx context.Context, doc domain.Document, indexText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.ID == "" {
		return ErrEmptyID
	}

	terms := s.termsFor(doc.Name + " " + indexText)

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := removePostings(tx, doc.ID); err != nil {
			return err
		}

		data, err := json.Marshal(toRecord(doc))
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketDocs).Put([]byte(doc.ID), data); err != nil {
			return err
		}

		termsBucket := tx.Bucket(bucketTerms)
		for _, term := range terms {
			var ids []string
			if existing := termsBucket.Get([]byte(term)); existing != nil {
				if err := json.Unmarshal(existing, &ids); err != nil {
					return fmt.Errorf("corrupt postings for %q: %w", term, err)
				}
			}
			ids = append(ids, doc.ID)
			data, err := json.Marshal(ids)
			if err != nil {
				return err
			}
			if err := termsBucket.Put([]byte(term), data); err != nil {
				return err
			}
		}

		termData, err := json.Marshal(terms)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocTerms).Put([]byte(doc.ID), termData)
	})
}

func (s *BoltStore) GetByID(ctx context.Context, id string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}

	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", port.ErrNotFound, id)
		}
		var rec docRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		doc = fromRecord(id, rec)
		return nil
	})
	return doc, err
}

func (s *BoltStore) DeleteDoc(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketDocs).Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", port.ErrNotFound, id)
		}
		if err := removePostings(tx, id); err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

func (s *BoltStore) ListDocs(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			docs = append(docs, fromRecord(string(k), rec))
			return nil
		})
	})
	return docs, err
}

// ListRecent returns up to limit documents, newest first.
func (s *BoltStore) ListRecent(ctx context.Context, limit int) ([]domain.Document, error) {
	docs, err := s.ListDocs(ctx)
	if err != nil {
		return nil, err
	}
	SortRecent(docs)
	if limit >= 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// SearchByKeywords returns documents sharing at least one keyword with
// query, most matched terms first, newer documents first on ties.
func (s *BoltStore) SearchByKeywords(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := s.termsFor(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	matches := make(map[string]int)
	var candidates []domain.Document

	err := s.db.View(func(tx *bbolt.Tx) error {
		termsBucket := tx.Bucket(bucketTerms)
		for _, term := range terms {
			data := termsBucket.Get([]byte(term))
			if data == nil {
				continue
			}
			var ids []string
			if err := json.Unmarshal(data, &ids); err != nil {
				return fmt.Errorf("corrupt postings for %q: %w", term, err)
			}
			for _, id := range ids {
				matches[id]++
			}
		}

		docsBucket := tx.Bucket(bucketDocs)
		for id := range matches {
			data := docsBucket.Get([]byte(id))
			if data == nil {
				continue
			}
			var rec docRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				continue
			}
			candidates = append(candidates, fromRecord(id, rec))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return RankHits(candidates, matches, limit), nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.db.Path()
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// termsFor returns the distinct keywords of text in first-seen order.
func (s *BoltStore) termsFor(text string) []string {
	return distinct(s.keywords.Extract(text))
}

func removePostings(tx *bbolt.Tx, docID string) error {
	docTerms := tx.Bucket(bucketDocTerms)
	data := docTerms.Get([]byte(docID))
	if data == nil {
		return nil
	}

	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		return err
	}

	termsBucket := tx.Bucket(bucketTerms)
	for _, term := range terms {
		existing := termsBucket.Get([]byte(term))
		if existing == nil {
			continue
		}
		var ids []string
		if err := json.Unmarshal(existing, &ids); err != nil {
			continue
		}

		filtered := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != docID {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) == 0 {
			if err := termsBucket.Delete([]byte(term)); err != nil {
				return err
			}
			continue
		}
		out, err := json.Marshal(filtered)
		if err != nil {
			return err
		}
		if err := termsBucket.Put([]byte(term), out); err != nil {
			return err
		}
	}

	return docTerms.Delete([]byte(docID))
}

// SortRecent orders docs newest first, by ID on equal timestamps.
func SortRecent(docs []domain.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

// RankHits turns per-document match counts into a bounded, ordered hit list.
func RankHits(docs []domain.Document, matches map[string]int, limit int) []domain.SearchHit {
	SortRecent(docs)
	sort.SliceStable(docs, func(i, j int) bool {
		return matches[docs[i].ID] > matches[docs[j].ID]
	})

	if len(docs) > limit {
		docs = docs[:limit]
	}

	hits := make([]domain.SearchHit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, domain.SearchHit{ID: d.ID, Name: d.Name, Matches: matches[d.ID]})
	}
	return hits
}

func distinct(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

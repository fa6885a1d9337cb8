package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"groundqa/config"
	"groundqa/internal/domain"
	"groundqa/internal/port"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seed(t *testing.T, st *BoltStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	docs := []struct {
		doc  domain.Document
		text string
	}{
		{domain.Document{ID: "d1", Name: "refunds.txt", CreatedAt: base}, "Refund policy for damaged goods."},
		{domain.Document{ID: "d2", Name: "shipping.txt", CreatedAt: base.Add(time.Hour)}, "Shipping takes five days. Damaged parcels are replaced."},
		{domain.Document{ID: "d3", Name: "about.txt", CreatedAt: base.Add(2 * time.Hour)}, "Company history."},
	}
	for _, d := range docs {
		d.doc.Text = d.text
		require.NoError(t, st.PutDoc(ctx, d.doc, d.text))
	}
}

func TestBoltStore_GetByID(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	ctx := context.Background()

	doc, err := st.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "refunds.txt", doc.Name)
	assert.Equal(t, "Refund policy for damaged goods.", doc.Text)

	_, err = st.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, port.ErrNotFound))
}

func TestBoltStore_ListRecent(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)

	docs, err := st.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d3", docs[0].ID)
	assert.Equal(t, "d2", docs[1].ID)
}

func TestBoltStore_SearchByKeywords(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	ctx := context.Background()

	hits, err := st.SearchByKeywords(ctx, "damaged refund", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "d1", hits[0].ID, "two matching terms ranks first")
	assert.Equal(t, 2, hits[0].Matches)
	assert.Equal(t, "d2", hits[1].ID)

	hits, err = st.SearchByKeywords(ctx, "damaged", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "d2", hits[0].ID, "newer document wins ties")

	hits, err = st.SearchByKeywords(ctx, "the of and", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBoltStore_DeleteRemovesPostings(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	ctx := context.Background()

	require.NoError(t, st.DeleteDoc(ctx, "d1"))

	hits, err := st.SearchByKeywords(ctx, "refund", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	err = st.DeleteDoc(ctx, "d1")
	assert.True(t, errors.Is(err, port.ErrNotFound))
}

func TestBoltStore_PutReplacesPostings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	doc := domain.Document{ID: "d1", Name: "notes.txt", CreatedAt: time.Now()}
	require.NoError(t, st.PutDoc(ctx, doc, "alpha"))
	require.NoError(t, st.PutDoc(ctx, doc, "beta"))

	hits, err := st.SearchByKeywords(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = st.SearchByKeywords(ctx, "beta", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestBoltStore_EmptyID(t *testing.T) {
	st := newTestStore(t)
	err := st.PutDoc(context.Background(), domain.Document{}, "text")
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestBoltStore_Schema(t *testing.T) {
	st := newTestStore(t)
	cfg := config.DefaultConfig()

	status, err := st.CheckSchema(cfg)
	require.NoError(t, err)
	assert.True(t, status.NeedsInit)
	assert.False(t, status.NeedsRebuild)

	require.NoError(t, st.StampSchema(cfg))

	status, err = st.CheckSchema(cfg)
	require.NoError(t, err)
	assert.False(t, status.NeedsInit)
	assert.False(t, status.NeedsRebuild)
	assert.Equal(t, SchemaVersion, status.Version)

	cfg.Ingest.StoreText = !cfg.Ingest.StoreText
	status, err = st.CheckSchema(cfg)
	require.NoError(t, err)
	assert.True(t, status.NeedsRebuild)
	assert.Equal(t, "ingest configuration changed", status.Reason)
}

func TestBoltStore_SchemaFromOtherVersion(t *testing.T) {
	st := newTestStore(t)
	cfg := config.DefaultConfig()

	writeMeta(t, st, `{"version":7,"ingest_hash":"`+IngestHash(cfg)+`"}`)
	status, err := st.CheckSchema(cfg)
	require.NoError(t, err)
	assert.True(t, status.NeedsRebuild)
	assert.Equal(t, 7, status.Version)

	writeMeta(t, st, `not json`)
	status, err = st.CheckSchema(cfg)
	require.NoError(t, err)
	assert.True(t, status.NeedsRebuild)

	require.NoError(t, st.StampSchema(cfg))
	status, err = st.CheckSchema(cfg)
	require.NoError(t, err)
	assert.False(t, status.NeedsRebuild)
}

func writeMeta(t *testing.T, st *BoltStore, value string) {
	t.Helper()
	require.NoError(t, st.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySchema, []byte(value))
	}))
}

func TestBoltStore_Clear(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)

	require.NoError(t, st.Clear())

	docs, err := st.ListDocs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

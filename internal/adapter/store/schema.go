package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"groundqa/config"
)

// SchemaVersion is the on-disk layout this build reads and writes.
const SchemaVersion = 1

var keySchema = []byte("schema")

// schemaRecord is kept as one JSON value in the meta bucket.
type schemaRecord struct {
	Version    int    `json:"version"`
	IngestHash string `json:"ingest_hash"`
}

// SchemaStatus reports whether a store can be ingested into as-is.
type SchemaStatus struct {
	// NeedsInit is set on a store that has never been stamped.
	NeedsInit bool
	// NeedsRebuild is set when stored documents must be dropped first.
	NeedsRebuild bool
	Version      int
	Reason       string
}

// IngestHash fingerprints the ingest settings that change what is stored.
func IngestHash(cfg *config.Config) string {
	data, _ := json.Marshal(struct {
		StoreText bool `json:"store_text"`
	}{cfg.Ingest.StoreText})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (s *BoltStore) readSchema() (*schemaRecord, error) {
	var rec *schemaRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchema)
		if data == nil {
			return nil
		}
		rec = &schemaRecord{}
		return json.Unmarshal(data, rec)
	})
	return rec, err
}

// CheckSchema compares the stamped schema against this build and cfg.
// An unreadable record is treated as needing a rebuild.
func (s *BoltStore) CheckSchema(cfg *config.Config) (*SchemaStatus, error) {
	rec, err := s.readSchema()
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return &SchemaStatus{NeedsRebuild: true, Reason: "unreadable schema record"}, nil
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if rec == nil {
		return &SchemaStatus{NeedsInit: true, Reason: "new store"}, nil
	}

	status := &SchemaStatus{Version: rec.Version}
	switch {
	case rec.Version != SchemaVersion:
		status.NeedsRebuild = true
		status.Reason = fmt.Sprintf("store schema v%d, this build reads v%d", rec.Version, SchemaVersion)
	case rec.IngestHash != IngestHash(cfg):
		status.NeedsRebuild = true
		status.Reason = "ingest configuration changed"
	}
	return status, nil
}

// StampSchema records the current schema version and ingest settings.
func (s *BoltStore) StampSchema(cfg *config.Config) error {
	data, err := json.Marshal(schemaRecord{Version: SchemaVersion, IngestHash: IngestHash(cfg)})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySchema, data)
	})
}

// Clear drops every document and posting list. The schema record survives.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDocs, bucketTerms, bucketDocTerms} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

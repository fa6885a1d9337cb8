package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"groundqa/internal/adapter/cache"
	"groundqa/internal/adapter/extract"
	"groundqa/internal/domain"
	"groundqa/internal/port"
)

// ProgressFunc is called after each file with the number of files handled
// so far and the total.
type ProgressFunc func(done, total int)

// IngestUseCase loads files from disk into the document store.
type IngestUseCase struct {
	walker    port.FileWalker
	extractor port.TextExtractor
	writer    port.DocumentWriter
	textCache *cache.TextCache
	storeText bool
	logger    *slog.Logger
	now       func() time.Time
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(walker port.FileWalker, extractor port.TextExtractor, writer port.DocumentWriter, opts ...Option) (*IngestUseCase, error) {
	if writer == nil {
		return nil, ErrStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &IngestUseCase{
		walker:    walker,
		extractor: extractor,
		writer:    writer,
		textCache: o.textCache,
		storeText: o.storeText,
		logger:    o.logger,
		now:       time.Now,
	}, nil
}

// IngestResult contains the results of an ingest run.
type IngestResult struct {
	FilesIngested int      `json:"files_ingested"`
	FilesUpdated  int      `json:"files_updated"`
	FilesSkipped  int      `json:"files_skipped"`
	FilesDeleted  int      `json:"files_deleted"`
	Errors        []string `json:"errors,omitempty"`
}

// Ingest walks root and stores every matching file. Unchanged files are
// skipped, changed files keep their document ID and files that vanished
// from root are removed. Per-file failures are collected in the result.
func (u *IngestUseCase) Ingest(ctx context.Context, root string, progress ProgressFunc) (*IngestResult, error) {
	result := &IngestResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.writer.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing docs: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	existing := make(map[string]domain.Document, len(existingDocs))
	for _, doc := range existingDocs {
		existing[doc.Path] = doc
	}

	seen := make(map[string]bool, len(files))
	changed := false

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		seen[file.Path] = true

		prev, known := existing[file.Path]
		switch {
		case known && prev.ModTime.Unix() >= file.ModTime:
			result.FilesSkipped++
		default:
			if err := u.ingestFile(ctx, file, prev, known); err != nil {
				u.logger.Warn("failed to ingest file", "path", file.Path, "err", err)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			} else if known {
				result.FilesUpdated++
				changed = true
			} else {
				result.FilesIngested++
				changed = true
			}
		}

		if progress != nil {
			progress(i+1, len(files))
		}
	}

	// Only documents under this root are candidates for removal.
	for path, doc := range existing {
		if seen[path] || !within(absRoot, path) {
			continue
		}
		if err := u.writer.DeleteDoc(ctx, doc.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
			continue
		}
		result.FilesDeleted++
		changed = true
	}

	if changed && u.textCache != nil {
		u.textCache.Invalidate()
	}

	return result, nil
}

func (u *IngestUseCase) ingestFile(ctx context.Context, file port.FileInfo, prev domain.Document, known bool) error {
	mimeType := extract.DetectMimeType(file.Path)

	extraction, err := u.extractor.ExtractText(ctx, file.Path, mimeType)
	if err != nil {
		return err
	}

	now := u.now()
	doc := domain.Document{
		ID:        uuid.NewString(),
		Name:      filepath.Base(file.Path),
		Path:      file.Path,
		MimeType:  mimeType,
		CreatedAt: now,
		ModTime:   time.Unix(file.ModTime, 0),
	}
	if known {
		doc.ID = prev.ID
		doc.CreatedAt = prev.CreatedAt
	}
	if u.storeText {
		doc.Text = extraction.Text
	}

	if err := u.writer.PutDoc(ctx, doc, extraction.Text); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && (len(rel) < 3 || rel[:3] != ".."+string(filepath.Separator))
}

package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"groundqa/internal/domain"
)

const (
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"
	MimePDF      = "application/pdf"
)

// Extractor reads plain text out of text and PDF files.
type Extractor struct {
	maxBytes int64
}

// NewExtractor creates an extractor. maxBytes <= 0 disables the size cap.
func NewExtractor(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

// ExtractText returns the text of the file at path. Files whose text holds
// no letters or digits fail with ErrEmptyText.
func (e *Extractor) ExtractText(ctx context.Context, path, mimeType string) (domain.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Extraction{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if e.maxBytes > 0 && info.Size() > e.maxBytes {
		return domain.Extraction{}, fmt.Errorf("%w: %s (%d bytes)", ErrTooLarge, path, info.Size())
	}

	if mimeType == "" {
		mimeType = DetectMimeType(path)
	}

	var text string
	switch baseType(mimeType) {
	case MimePlain, MimeMarkdown:
		text, err = readPlain(path)
	case MimePDF:
		text, err = readPDF(path)
	default:
		return domain.Extraction{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	if err != nil {
		return domain.Extraction{}, err
	}

	if !hasContent(text) {
		return domain.Extraction{}, fmt.Errorf("%w: %s", ErrEmptyText, path)
	}

	return domain.Extraction{
		Text:      text,
		CharCount: utf8.RuneCountInString(text),
	}, nil
}

// DetectMimeType guesses the MIME type of path from its extension.
func DetectMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".text", ".log":
		return MimePlain
	case ".md", ".markdown":
		return MimeMarkdown
	case ".pdf":
		return MimePDF
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func baseType(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte(" "))
	}
	return string(data), nil
}

func readPDF(path string) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text %s: %w", path, err)
	}
	return buf.String(), nil
}

func hasContent(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

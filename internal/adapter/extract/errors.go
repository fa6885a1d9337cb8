package extract

import "errors"

var (
	// ErrEmptyText is returned when a file has no usable text.
	ErrEmptyText = errors.New("extracted text is empty")

	// ErrUnsupportedType is returned for MIME types with no extractor.
	ErrUnsupportedType = errors.New("unsupported mime type")

	// ErrTooLarge is returned when a file exceeds the configured size cap.
	ErrTooLarge = errors.New("file too large for extraction")
)

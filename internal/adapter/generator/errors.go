package generator

import "errors"

var (
	// ErrEmptyResponse is returned when the model returns no choices.
	ErrEmptyResponse = errors.New("generator returned no content")

	// ErrInvalidMaxAttempts is returned by Do for a policy without attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrAPIKeyMissing is returned when the configured key variable is unset.
	ErrAPIKeyMissing = errors.New("api key not found in environment")
)

package store

import "errors"

// ErrEmptyID is returned when storing a document without an ID.
var ErrEmptyID = errors.New("document id is empty")

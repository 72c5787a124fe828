package search

import "errors"

var (
	// ErrMalformedQuery is returned for a query word made of a lone '-'.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrEmptyDocument is returned when a document has no words left after
	// stop-word removal.
	ErrEmptyDocument = errors.New("document has no indexable words")

	// ErrDocumentNotFound is returned for lookups of an id that was never added.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidDocumentID is returned for negative document ids.
	ErrInvalidDocumentID = errors.New("document id must be non-negative")

	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid document status")
)

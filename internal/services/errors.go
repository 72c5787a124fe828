// Package services defines the business logic that sits between the HTTP
// layer and the in-memory search engine: concurrency control, input limits,
// metrics, tracing, and the query history.
//
// This file centralizes service-level error values. Engine errors (package
// search) are passed through unchanged so callers can test them with
// errors.Is; translation into HTTP status codes happens in the handlers.
package services

import "errors"

var (
	// ErrContentTooLong is returned when a document exceeds the configured
	// maximum content length.
	ErrContentTooLong = errors.New("document content too long")

	// ErrInvalidRatingRange is returned when a search asks for min_rating
	// greater than max_rating.
	ErrInvalidRatingRange = errors.New("min_rating must not exceed max_rating")
)

// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package) and the translation of engine and service
// errors into those codes. Clients branch on the code, never on the message.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "malformed_query",
//	  "message": "malformed query: \"cat -\""
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-search-server/internal/search"
	"github.com/tbourn/go-search-server/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeMalformedQuery = "malformed_query"
	ErrCodeEmptyDocument  = "empty_document"
	ErrCodeInvalidStatus  = "invalid_status"
)

// failErr maps err to a status and code and writes the error envelope.
// Unknown errors become 500 internal_error.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, search.ErrMalformedQuery):
		fail(c, http.StatusBadRequest, ErrCodeMalformedQuery, err.Error())
	case errors.Is(err, search.ErrEmptyDocument):
		fail(c, http.StatusBadRequest, ErrCodeEmptyDocument, err.Error())
	case errors.Is(err, search.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
	case errors.Is(err, search.ErrInvalidDocumentID),
		errors.Is(err, services.ErrContentTooLong),
		errors.Is(err, services.ErrInvalidRatingRange):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, search.ErrDocumentNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

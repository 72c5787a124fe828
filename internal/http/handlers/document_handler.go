// Document HTTP handlers.
//
// This file exposes REST endpoints for indexed documents:
//   - POST /documents                 (index a document)
//   - GET  /documents/count           (number of indexed documents)
//   - GET  /documents/{id}            (stored status and rating)
//   - GET  /documents/{id}/match      (query words present in a document)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (client, route, key), POST /documents does not index again;
// it answers 200 with the document as first returned for that key and
// `Idempotency-Replayed: true`. document_count is the current count.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-search-server/internal/domain"
	"github.com/tbourn/go-search-server/internal/http/middleware"
	"github.com/tbourn/go-search-server/internal/repo"
	"github.com/tbourn/go-search-server/internal/search"
	"github.com/tbourn/go-search-server/internal/services"
)

//
// DTOs
//

// AddDocumentRequest is the JSON payload for indexing a document.
type AddDocumentRequest struct {
	// ID is the caller-assigned, non-negative document id. Re-using an id
	// replaces the earlier document.
	ID *int `json:"id" binding:"required" example:"7"`
	// Content is the space separated document text.
	Content string `json:"content" example:"cat in the big city"`
	// Status defaults to ACTUAL.
	Status string `json:"status" enums:"ACTUAL,IRRELEVANT,BANNED,REMOVED" example:"ACTUAL"`
	// Ratings are averaged (truncating toward zero); empty means 0.
	Ratings []int `json:"ratings" example:"1,2,3"`
}

// AddDocumentResponse is returned after indexing.
type AddDocumentResponse struct {
	DocumentResponse
	DocumentCount int `json:"document_count" example:"12"`
}

// CountResponse carries the document count.
type CountResponse struct {
	Count int `json:"count" example:"12"`
}

// MatchResponse lists the query words found in a document.
type MatchResponse struct {
	ID     int           `json:"id" example:"7"`
	Words  []string      `json:"words" example:"cat,city"`
	Status search.Status `json:"status" swaggertype:"string" example:"ACTUAL"`
}

//
// Handlers
//

// AddDocument godoc
// @ID          addDocument
// @Summary     Index a document
// @Description Adds a document to the in-memory index. An existing id is replaced.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Description A replay returns the id, status and rating first returned for the key, even if the id was overwritten since.
// @Tags        Documents
// @Accept      json
// @Produce     json
//
// @Param       X-Client-ID      header  string  false "Caller identity scoping idempotency and rate limits"  example(indexer-1)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.AddDocumentRequest  true  "Document"
//
// @Success     201  {object}  handlers.AddDocumentResponse  "Indexed"
// @Success     200  {object}  handlers.AddDocumentResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse        "Internal error"
// @Router      /documents [post]
func (h *Handlers) AddDocument(c *gin.Context) {
	ctx := c.Request.Context()

	var req AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id required")
		return
	}

	status := search.StatusActual
	if strings.TrimSpace(req.Status) != "" {
		st, err := search.ParseStatus(req.Status)
		if err != nil {
			failErr(c, err)
			return
		}
		status = st
	}

	clientID := middleware.ClientIDFrom(c)
	scope := c.FullPath()
	db := h.indexDB()

	// Idempotency (replay path). IdempotencyValidator flags requests whose
	// key has a live record.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && db != nil && middleware.IsReplay(c) {
		if rec, err := repo.GetIdempotency(ctx, db, clientID, scope, idemKey, time.Now().UTC()); err == nil {
			middleware.MarkReplayed(c)
			ok(c, http.StatusOK, AddDocumentResponse{
				DocumentResponse: DocumentResponse{
					ID:     rec.DocumentID,
					Status: search.Status(rec.DocumentStatus),
					Rating: rec.Rating,
				},
				DocumentCount: h.idx.Count(ctx),
			})
			return
		}
	}

	info, count, err := h.idx.AddDocument(ctx, services.AddDocumentInput{
		ID:      *req.ID,
		Content: req.Content,
		Status:  status,
		Ratings: req.Ratings,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && db != nil {
		if _, err := repo.CreateIdempotency(ctx, db, domain.Idempotency{
			ClientID:       clientID,
			Scope:          scope,
			Key:            idemKey,
			DocumentID:     info.ID,
			Rating:         info.Rating,
			DocumentStatus: int(info.Status),
			Status:         http.StatusCreated,
		}, h.idempotencyTTL()); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			log.Warn().Err(err).Str("client_id", clientID).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusCreated, AddDocumentResponse{
		DocumentResponse: documentResponse(info),
		DocumentCount:    count,
	})
}

// DocumentCount godoc
// @ID          documentCount
// @Summary     Count indexed documents
// @Tags        Documents
// @Produce     json
// @Success     200  {object}  handlers.CountResponse
// @Router      /documents/count [get]
func (h *Handlers) DocumentCount(c *gin.Context) {
	ok(c, http.StatusOK, CountResponse{Count: h.idx.Count(c.Request.Context())})
}

// GetDocument godoc
// @ID          getDocument
// @Summary     Get a document
// @Description Returns the stored status and average rating of a document.
// @Tags        Documents
// @Produce     json
//
// @Param       id   path  int  true  "Document ID"  minimum(0)
//
// @Success     200  {object}  handlers.DocumentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Document not found"
// @Router      /documents/{id} [get]
func (h *Handlers) GetDocument(c *gin.Context) {
	id, valid := documentID(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "document id must be an integer")
		return
	}
	info, err := h.idx.Document(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, documentResponse(info))
}

// MatchDocument godoc
// @ID          matchDocument
// @Summary     Match a query against a document
// @Description Lists the query plus words contained in the document, sorted.
// @Description The list is empty when the document contains any minus word.
// @Tags        Documents
// @Produce     json
//
// @Param       id     path   int     true  "Document ID"  minimum(0)
// @Param       query  query  string  true  "Query, e.g. \"fluffy cat -collar\""
//
// @Success     200  {object}  handlers.MatchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or malformed query"
// @Failure     404  {object}  handlers.ErrorResponse  "Document not found"
// @Router      /documents/{id}/match [get]
func (h *Handlers) MatchDocument(c *gin.Context) {
	id, valid := documentID(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "document id must be an integer")
		return
	}
	query, present := c.GetQuery("query")
	if !present {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter required")
		return
	}

	words, status, err := h.idx.Match(c.Request.Context(), query, id)
	if err != nil {
		failErr(c, err)
		return
	}
	if words == nil {
		words = []string{}
	}
	ok(c, http.StatusOK, MatchResponse{ID: id, Words: words, Status: status})
}

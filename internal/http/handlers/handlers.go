// Package handlers exposes the search engine over REST.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses
// and idempotent replays).
package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-search-server/internal/domain"
	"github.com/tbourn/go-search-server/internal/search"
	"github.com/tbourn/go-search-server/internal/services"
	"github.com/tbourn/go-search-server/internal/utils"
)

//
// Service contracts (context-aware)
//

// IndexService is the document index consumed by the HTTP handlers.
//
// Implementations must be safe for concurrent use.
type IndexService interface {
	// AddDocument indexes a document and returns it with the new document count.
	AddDocument(ctx context.Context, in services.AddDocumentInput) (search.DocumentInfo, int, error)
	// Document returns stored metadata for id.
	Document(ctx context.Context, id int) (search.DocumentInfo, error)
	// Count returns the number of indexed documents.
	Count(ctx context.Context) int
	// Match reports the query plus words present in document id.
	Match(ctx context.Context, query string, id int) ([]string, search.Status, error)
	// Search returns ranked results.
	Search(ctx context.Context, req services.SearchRequest) ([]search.Result, error)
	// SetStopWords replaces the stop-word set.
	SetStopWords(ctx context.Context, text string)
	// StopWords returns the sorted stop words.
	StopWords(ctx context.Context) []string
}

// HistoryService reads the search history.
type HistoryService interface {
	ListPage(ctx context.Context, page, pageSize int) ([]domain.QueryLog, int64, error)
	Top(ctx context.Context, limit int) ([]domain.QueryCount, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for documents, search, stop words and
// history.
type Handlers struct {
	idx  IndexService
	hist HistoryService

	// IdempotencyTTL is how long a stored Idempotency-Key replays. Zero means 24h.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(idx IndexService, hist HistoryService) *Handlers {
	return &Handlers{idx: idx, hist: hist}
}

// indexDB returns the database behind the concrete IndexService, if any.
// Idempotency records live there.
func (h *Handlers) indexDB() *gorm.DB {
	if svc, ok := h.idx.(*services.IndexService); ok {
		return svc.DB
	}
	return nil
}

// historyDB returns the database behind the concrete HistoryService, if any.
func (h *Handlers) historyDB() *gorm.DB {
	if svc, ok := h.hist.(*services.HistoryService); ok {
		return svc.DB
	}
	return nil
}

func (h *Handlers) idempotencyTTL() time.Duration {
	if h.IdempotencyTTL > 0 {
		return h.IdempotencyTTL
	}
	return 24 * time.Hour
}

//
// DTOs shared by several endpoints
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// DocumentResponse describes a stored document.
type DocumentResponse struct {
	ID     int           `json:"id" example:"7"`
	Status search.Status `json:"status" swaggertype:"string" enums:"ACTUAL,IRRELEVANT,BANNED,REMOVED" example:"ACTUAL"`
	Rating int           `json:"rating" example:"2"`
}

func documentResponse(info search.DocumentInfo) DocumentResponse {
	return DocumentResponse{ID: info.ID, Status: info.Status, Rating: info.Rating}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// documentID parses the :id path parameter.
func documentID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// History HTTP handlers.
//
//   - GET /queries       (paginated search history, ETag support)
//   - GET /queries/top   (most frequent queries)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-search-server/internal/domain"
	"github.com/tbourn/go-search-server/internal/repo"
	"github.com/tbourn/go-search-server/internal/utils"
)

// ListQueriesResponse wraps a page of history and pagination information.
type ListQueriesResponse struct {
	Queries    []domain.QueryLog `json:"queries"`
	Pagination Pagination        `json:"pagination"`
}

// TopQueriesResponse lists queries by frequency.
type TopQueriesResponse struct {
	Queries []domain.QueryCount `json:"queries"`
}

// ListQueries godoc
// @ID          listQueries
// @Summary     List past searches (paginated)
// @Description Most recent first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        History
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"queries:12:1700000000:1:20\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListQueriesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queries [get]
func (h *Handlers) ListQueries(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). The tag covers the page window too, so a
	// tag from page 1 never validates page 2.
	if db := h.historyDB(); db != nil {
		count, latest, err := repo.QueryLogStats(ctx, db)
		if err == nil {
			var ts int64
			if latest != nil {
				ts = latest.UnixNano()
			}
			if notModified(c, fmt.Sprintf(`W/"queries:%d:%d:%d:%d"`, count, ts, page, pageSize)) {
				return
			}
		}
	}

	items, total, err := h.hist.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if items == nil {
		items = []domain.QueryLog{}
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListQueriesResponse{
		Queries: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// TopQueries godoc
// @ID          topQueries
// @Summary     Most frequent queries
// @Tags        History
// @Produce     json
//
// @Param       limit  query  int  false  "Number of queries"  minimum(1) maximum(100) default(10)
//
// @Success     200  {object} handlers.TopQueriesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queries/top [get]
func (h *Handlers) TopQueries(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	items, err := h.hist.Top(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, TopQueriesResponse{Queries: items})
}

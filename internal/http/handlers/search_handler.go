// Search HTTP handlers.
//
//   - GET  /search   (status form: one status, default ACTUAL)
//   - POST /search   (predicate form: status plus rating bounds and id set)
//
// Both return at most the configured number of results, most relevant first,
// ties within 1e-6 ordered by rating.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-search-server/internal/search"
	"github.com/tbourn/go-search-server/internal/services"
)

// SearchBody is the JSON payload of POST /search.
type SearchBody struct {
	Query     string  `json:"query" example:"fluffy cat -collar"`
	Status    *string `json:"status,omitempty" enums:"ACTUAL,IRRELEVANT,BANNED,REMOVED" example:"ACTUAL"`
	MinRating *int    `json:"min_rating,omitempty" example:"1"`
	MaxRating *int    `json:"max_rating,omitempty" example:"10"`
	IDs       []int   `json:"ids,omitempty" example:"0,2,4"`
}

// SearchResponse carries ranked results.
type SearchResponse struct {
	Query   string          `json:"query" example:"fluffy cat -collar"`
	Results []search.Result `json:"results"`
}

// parseStatusParam returns nil for an empty value.
func parseStatusParam(raw string) (*search.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	st, err := search.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Search godoc
// @ID          search
// @Summary     Search documents
// @Description Ranks documents with the given status by TF-IDF relevance.
// @Description Words prefixed with '-' exclude every document containing them.
// @Tags        Search
// @Produce     json
//
// @Param       query   query  string  true   "Query, e.g. \"fluffy cat -collar\""
// @Param       status  query  string  false  "Document status"  Enums(ACTUAL,IRRELEVANT,BANNED,REMOVED) default(ACTUAL)
//
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request, malformed query or invalid status"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /search [get]
func (h *Handlers) Search(c *gin.Context) {
	query, present := c.GetQuery("query")
	if !present {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter required")
		return
	}
	status, err := parseStatusParam(c.Query("status"))
	if err != nil {
		failErr(c, err)
		return
	}
	h.runSearch(c, services.SearchRequest{Query: query, Status: status})
}

// SearchWithFilter godoc
// @ID          searchWithFilter
// @Summary     Search documents with a filter
// @Description Like GET /search, additionally restricting results to a rating range
// @Description and/or a set of document ids. Status defaults to ACTUAL.
// @Tags        Search
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SearchBody  true  "Query and filter"
//
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request, malformed query or invalid status"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /search [post]
func (h *Handlers) SearchWithFilter(c *gin.Context) {
	var body SearchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	var status *search.Status
	if body.Status != nil {
		st, err := search.ParseStatus(*body.Status)
		if err != nil {
			failErr(c, err)
			return
		}
		status = &st
	}
	h.runSearch(c, services.SearchRequest{
		Query:     body.Query,
		Status:    status,
		MinRating: body.MinRating,
		MaxRating: body.MaxRating,
		IDs:       body.IDs,
	})
}

func (h *Handlers) runSearch(c *gin.Context, req services.SearchRequest) {
	results, err := h.idx.Search(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: req.Query, Results: results})
}

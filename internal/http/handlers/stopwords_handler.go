package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StopWordsRequest replaces the stop-word set.
type StopWordsRequest struct {
	// Words is a space separated list; empty clears the set.
	Words string `json:"words" example:"a an in the with"`
}

// StopWordsResponse lists the current stop words in sorted order.
type StopWordsResponse struct {
	Words []string `json:"words" example:"a,an,in,the,with"`
}

// PutStopWords godoc
// @ID          putStopWords
// @Summary     Replace stop words
// @Description Affects documents indexed afterwards and every later query.
// @Description Documents already in the index keep their words.
// @Tags        StopWords
// @Accept      json
//
// @Param       body  body  handlers.StopWordsRequest  true  "Stop words"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /stop-words [put]
func (h *Handlers) PutStopWords(c *gin.Context) {
	var req StopWordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	h.idx.SetStopWords(c.Request.Context(), req.Words)
	noContent(c)
}

// GetStopWords godoc
// @ID          getStopWords
// @Summary     List stop words
// @Tags        StopWords
// @Produce     json
// @Success     200  {object}  handlers.StopWordsResponse
// @Router      /stop-words [get]
func (h *Handlers) GetStopWords(c *gin.Context) {
	words := h.idx.StopWords(c.Request.Context())
	if words == nil {
		words = []string{}
	}
	ok(c, http.StatusOK, StopWordsResponse{Words: words})
}

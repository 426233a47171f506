package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/quillhq/kbase/internal/pkg/errcode"
	"github.com/quillhq/kbase/internal/pkg/response"
	"github.com/quillhq/kbase/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	results, err := h.search.Search(c.Request.Context(), getUserID(c), c.Param("id"), req.Query, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, results)
}

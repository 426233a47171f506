package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/quillhq/kbase/internal/pkg/errcode"
	"github.com/quillhq/kbase/internal/pkg/response"
	"github.com/quillhq/kbase/internal/service"
)

type KnowledgeBaseHandler struct {
	kbs *service.KnowledgeBaseService
}

func NewKnowledgeBaseHandler(kbs *service.KnowledgeBaseService) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{kbs: kbs}
}

type createKnowledgeBaseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *KnowledgeBaseHandler) Create(c *gin.Context) {
	var req createKnowledgeBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	kb, err := h.kbs.Create(c.Request.Context(), getUserID(c), req.Name, req.Description)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, kb)
}

func (h *KnowledgeBaseHandler) List(c *gin.Context) {
	items, err := h.kbs.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *KnowledgeBaseHandler) Get(c *gin.Context) {
	kb, err := h.kbs.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, kb)
}

func (h *KnowledgeBaseHandler) Delete(c *gin.Context) {
	if err := h.kbs.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *KnowledgeBaseHandler) Stats(c *gin.Context) {
	stats, err := h.kbs.Stats(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *KnowledgeBaseHandler) SearchHistory(c *gin.Context) {
	limit := parseIntQuery(c, "limit")
	entries, err := h.kbs.SearchHistory(c.Request.Context(), getUserID(c), c.Param("id"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entries)
}

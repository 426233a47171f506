package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/kbase/internal/pkg/errcode"
	"github.com/quillhq/kbase/internal/pkg/response"
	"github.com/quillhq/kbase/internal/service"
)

type DocumentHandler struct {
	kbs            *service.KnowledgeBaseService
	ingest         *service.IngestService
	maxUploadBytes int64
}

func NewDocumentHandler(kbs *service.KnowledgeBaseService, ingest *service.IngestService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{kbs: kbs, ingest: ingest, maxUploadBytes: maxUploadBytes}
}

// Upload ingests a multipart file into the knowledge base. The file type is
// taken from the extension of the uploaded filename.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file is required")
		return
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		response.ErrorStatus(c, http.StatusRequestEntityTooLarge, errcode.ErrUploadTooLarge, "file exceeds upload limit")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "failed to open file")
		return
	}
	defer opened.Close()

	var reader io.Reader = opened
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(opened, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "failed to read file")
		return
	}
	if h.maxUploadBytes > 0 && int64(len(data)) > h.maxUploadBytes {
		response.ErrorStatus(c, http.StatusRequestEntityTooLarge, errcode.ErrUploadTooLarge, "file exceeds upload limit")
		return
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	result, err := h.ingest.Ingest(c.Request.Context(), getUserID(c), c.Param("id"), data, file.Filename, fileType)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	items, err := h.kbs.ListDocuments(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.kbs.GetDocument(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("docid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// Download streams the original uploaded file back to the caller.
func (h *DocumentHandler) Download(c *gin.Context) {
	rc, filename, err := h.kbs.OpenDocumentFile(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("docid"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = io.Copy(c.Writer, rc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.kbs.DeleteDocument(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("docid")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

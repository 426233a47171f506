package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quillhq/kbase/internal/ai"
	"github.com/quillhq/kbase/internal/middleware"
	"github.com/quillhq/kbase/internal/parser"
	"github.com/quillhq/kbase/internal/pkg/errcode"
	appErr "github.com/quillhq/kbase/internal/pkg/errors"
	"github.com/quillhq/kbase/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func parseIntQuery(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	var parseErr *parser.ParseError
	var genErr *ai.GenerationError
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.As(err, &parseErr):
		response.Error(c, errcode.ErrParseFailed, parseErr.Error())
	case errors.As(err, &genErr):
		response.Error(c, errcode.ErrEmbedFailed, "embedding provider failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

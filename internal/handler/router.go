package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/kbase/internal/middleware"
)

type RouterDeps struct {
	KnowledgeBases *KnowledgeBaseHandler
	Documents      *DocumentHandler
	Search         *SearchHandler
	JWTSecret      []byte
	UploadWindow   time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/knowledge-bases", deps.KnowledgeBases.Create)
	authGroup.GET("/knowledge-bases", deps.KnowledgeBases.List)
	authGroup.GET("/knowledge-bases/:id", deps.KnowledgeBases.Get)
	authGroup.DELETE("/knowledge-bases/:id", deps.KnowledgeBases.Delete)
	authGroup.GET("/knowledge-bases/:id/stats", deps.KnowledgeBases.Stats)
	authGroup.GET("/knowledge-bases/:id/history", deps.KnowledgeBases.SearchHistory)

	authGroup.POST("/knowledge-bases/:id/documents", middleware.RateLimit(deps.UploadWindow), deps.Documents.Upload)
	authGroup.GET("/knowledge-bases/:id/documents", deps.Documents.List)
	authGroup.GET("/knowledge-bases/:id/documents/:docid", deps.Documents.Get)
	authGroup.GET("/knowledge-bases/:id/documents/:docid/file", deps.Documents.Download)
	authGroup.DELETE("/knowledge-bases/:id/documents/:docid", deps.Documents.Delete)

	authGroup.POST("/knowledge-bases/:id/search", deps.Search.Search)
}

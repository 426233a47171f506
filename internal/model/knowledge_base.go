package model

// KnowledgeBase is a named, single-owner collection of documents forming one
// search scope. DocumentCount and ChunkCount are filled on read, not stored.
type KnowledgeBase struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	IsActive      bool   `json:"is_active"`
	Ctime         int64  `json:"ctime"`
	Mtime         int64  `json:"mtime"`
	DocumentCount int    `json:"document_count"`
	ChunkCount    int    `json:"chunk_count"`
}

type KnowledgeBaseStats struct {
	DocumentCount     int   `json:"document_count"`
	ChunkCount        int   `json:"chunk_count"`
	TotalBytes        int64 `json:"total_bytes"`
	SearchCount       int   `json:"search_count"`
	DistinctSearchers int   `json:"distinct_searchers"`
}

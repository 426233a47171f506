package model

// Document keeps the extracted plain text of one upload. A failed ingestion
// still leaves a row behind, unprocessed, with ProcessError set, so the user
// can see and retry it.
type Document struct {
	ID              string `json:"id"`
	KnowledgeBaseID string `json:"kb_id"`
	Filename        string `json:"filename"`
	FileType        string `json:"file_type"`
	Content         string `json:"content,omitempty"`
	SizeBytes       int64  `json:"size_bytes"`
	Processed       bool   `json:"processed"`
	ProcessError    string `json:"process_error,omitempty"`
	Ctime           int64  `json:"ctime"`
	ChunkCount      int    `json:"chunk_count"`
}

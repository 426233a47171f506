package model

// Chunk is one embedded span of a document. Index is 0-based and has no gaps
// for a fully ingested document; chunks are never mutated after insert.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	TokenCount int       `json:"token_count"`
	Ctime      int64     `json:"ctime"`
}

// SearchChunk is a chunk joined with its source document's filename, as
// loaded for ranking.
type SearchChunk struct {
	Chunk
	Filename string `json:"filename"`
}

type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	Content    string  `json:"content"`
	Filename   string  `json:"filename"`
	Similarity float32 `json:"similarity"`
}

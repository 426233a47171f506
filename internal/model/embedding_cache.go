package model

// EmbeddingCache is one durable cache entry, keyed by model, task type and
// the sha256 of the embedded text.
type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"-"`
	Ctime       int64     `json:"ctime"`
}

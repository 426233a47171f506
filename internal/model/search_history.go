package model

// SearchHistory rows are append-only; writes are best-effort and never fail
// a search.
type SearchHistory struct {
	ID              string `json:"id"`
	KnowledgeBaseID string `json:"kb_id"`
	UserID          string `json:"user_id"`
	Query           string `json:"query"`
	ResultCount     int    `json:"result_count"`
	Ctime           int64  `json:"ctime"`
}

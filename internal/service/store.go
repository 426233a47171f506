package service

import (
	"context"

	"github.com/quillhq/kbase/internal/model"
)

// Store interfaces are defined here, on the consumer side, so services can
// be wired against postgres in production and in-memory fakes in tests.

type KnowledgeBaseStore interface {
	Create(ctx context.Context, kb *model.KnowledgeBase) error
	GetByID(ctx context.Context, userID, kbID string) (*model.KnowledgeBase, error)
	ListByUser(ctx context.Context, userID string) ([]*model.KnowledgeBase, error)
	Delete(ctx context.Context, userID, kbID string) error
	Stats(ctx context.Context, userID, kbID string) (*model.KnowledgeBaseStats, error)
}

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	MarkProcessed(ctx context.Context, docID string) error
	MarkFailed(ctx context.Context, docID string, reason string) error
	ListByKB(ctx context.Context, userID, kbID string) ([]*model.Document, error)
	GetByID(ctx context.Context, userID, kbID, docID string) (*model.Document, error)
	Delete(ctx context.Context, userID, kbID, docID string) error
}

type ChunkStore interface {
	SaveBatch(ctx context.Context, chunks []*model.Chunk) error
	ListByKnowledgeBase(ctx context.Context, kbID string) ([]*model.SearchChunk, error)
}

type SearchHistoryStore interface {
	Append(ctx context.Context, entry *model.SearchHistory) error
	ListByKB(ctx context.Context, userID, kbID string, limit int) ([]*model.SearchHistory, error)
}

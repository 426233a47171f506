package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillhq/kbase/internal/model"
	appErr "github.com/quillhq/kbase/internal/pkg/errors"
)

func newSearchFixture(t *testing.T) (*SearchService, *memStore, *fakeEmbedder) {
	t.Helper()
	store := newMemStore()
	store.addKB("kb-1", "user-1")
	embedder := &fakeEmbedder{
		vecFor: func(text string) []float32 { return []float32{1, 0} },
	}
	svc := NewSearchService(store, store, memHistoryStore{store}, embedder)
	return svc, store, embedder
}

func addChunk(store *memStore, docID, chunkID string, embedding []float32) {
	if _, ok := store.docs[docID]; !ok {
		store.docs[docID] = &model.Document{
			ID:              docID,
			KnowledgeBaseID: "kb-1",
			Filename:        docID + ".txt",
			Processed:       true,
		}
	}
	store.chunks = append(store.chunks, &model.Chunk{
		ID:         chunkID,
		DocumentID: docID,
		Index:      len(store.chunks),
		Content:    "content of " + chunkID,
		Embedding:  embedding,
	})
}

func TestSearchEmptyKnowledgeBase(t *testing.T) {
	svc, store, embedder := newSearchFixture(t)

	results, err := svc.Search(context.Background(), "user-1", "kb-1", "anything", 5)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Zero(t, embedder.oneCalls, "empty knowledge bases must not reach the provider")
	require.Len(t, store.history, 1)
	require.Equal(t, 0, store.history[0].ResultCount)
}

func TestSearchRankingOrder(t *testing.T) {
	svc, store, _ := newSearchFixture(t)
	// Query vector is (1, 0); cosine similarity equals the x component for
	// unit-length chunk vectors.
	addChunk(store, "doc-1", "low", []float32{0.2, 0.9798})
	addChunk(store, "doc-1", "high", []float32{0.95, 0.3122})
	addChunk(store, "doc-2", "mid", []float32{0.6, 0.8})

	results, err := svc.Search(context.Background(), "user-1", "kb-1", "query", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "high", results[0].ChunkID)
	require.Equal(t, "mid", results[1].ChunkID)
	require.Equal(t, "low", results[2].ChunkID)
	for i := 0; i+1 < len(results); i++ {
		require.GreaterOrEqual(t, results[i].Similarity, results[i+1].Similarity)
	}
	require.Equal(t, "doc-1.txt", results[0].Filename)
}

func TestSearchTopKCutoff(t *testing.T) {
	svc, store, _ := newSearchFixture(t)
	addChunk(store, "doc-1", "second", []float32{0.90, 0.4359})
	addChunk(store, "doc-1", "first", []float32{0.91, 0.4146})

	results, err := svc.Search(context.Background(), "user-1", "kb-1", "query", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "first", results[0].ChunkID)
	require.InDelta(t, 0.91, float64(results[0].Similarity), 0.001)
}

func TestSearchTieBreakKeepsInsertionOrder(t *testing.T) {
	svc, store, _ := newSearchFixture(t)
	same := []float32{0.7, 0.7141}
	addChunk(store, "doc-1", "earlier", same)
	addChunk(store, "doc-1", "later", same)
	addChunk(store, "doc-1", "top", []float32{1, 0})

	results, err := svc.Search(context.Background(), "user-1", "kb-1", "query", 10)
	require.NoError(t, err)
	require.Equal(t, "top", results[0].ChunkID)
	require.Equal(t, "earlier", results[1].ChunkID)
	require.Equal(t, "later", results[2].ChunkID)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	svc, store, embedder := newSearchFixture(t)
	embedder.failOne = true
	addChunk(store, "doc-1", "c1", []float32{1, 0})

	_, err := svc.Search(context.Background(), "user-1", "kb-1", "query", 5)
	require.Error(t, err)
}

func TestSearchHistoryFailureIsSwallowed(t *testing.T) {
	svc, store, _ := newSearchFixture(t)
	store.failAppendLog = true
	addChunk(store, "doc-1", "c1", []float32{1, 0})

	results, err := svc.Search(context.Background(), "user-1", "kb-1", "query", 5)
	require.NoError(t, err, "a history failure must not fail the search")
	require.Len(t, results, 1)
}

func TestSearchHistoryRecorded(t *testing.T) {
	svc, store, _ := newSearchFixture(t)
	addChunk(store, "doc-1", "c1", []float32{1, 0})
	addChunk(store, "doc-1", "c2", []float32{0, 1})

	_, err := svc.Search(context.Background(), "user-1", "kb-1", "my question", 10)
	require.NoError(t, err)
	require.Len(t, store.history, 1)
	require.Equal(t, "my question", store.history[0].Query)
	require.Equal(t, 2, store.history[0].ResultCount)
	require.Equal(t, "user-1", store.history[0].UserID)
}

func TestSearchValidation(t *testing.T) {
	svc, _, _ := newSearchFixture(t)

	_, err := svc.Search(context.Background(), "user-1", "kb-1", "   ", 5)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Search(context.Background(), "user-2", "kb-1", "query", 5)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestSearchDimensionMismatch(t *testing.T) {
	svc, store, _ := newSearchFixture(t)
	addChunk(store, "doc-1", "bad", []float32{1, 0, 0})

	_, err := svc.Search(context.Background(), "user-1", "kb-1", "query", 5)
	require.Error(t, err)
}

func TestSearchSkipsUnprocessedDocuments(t *testing.T) {
	svc, store, _ := newSearchFixture(t)
	addChunk(store, "doc-1", "ok", []float32{1, 0})
	store.docs["doc-2"] = &model.Document{ID: "doc-2", KnowledgeBaseID: "kb-1", Processed: false}
	store.chunks = append(store.chunks, &model.Chunk{ID: "stale", DocumentID: "doc-2", Embedding: []float32{1, 0}})

	results, err := svc.Search(context.Background(), "user-1", "kb-1", "query", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "ok", results[0].ChunkID)
}

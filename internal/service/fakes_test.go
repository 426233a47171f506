package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"

	"github.com/quillhq/kbase/internal/model"
	appErr "github.com/quillhq/kbase/internal/pkg/errors"
)

// memStore implements every store interface in memory for service tests.
type memStore struct {
	kbs     map[string]*model.KnowledgeBase
	docs    map[string]*model.Document
	chunks  []*model.Chunk
	history []*model.SearchHistory

	failSaveChunks   bool
	failAppendLog    bool
	chunksPerFailure int // fail SaveBatch after this many chunks when failSaveChunks
}

func newMemStore() *memStore {
	return &memStore{
		kbs:  make(map[string]*model.KnowledgeBase),
		docs: make(map[string]*model.Document),
	}
}

func (m *memStore) addKB(id, userID string) {
	m.kbs[id] = &model.KnowledgeBase{ID: id, UserID: userID, Name: id, IsActive: true}
}

func (m *memStore) Create(ctx context.Context, kb *model.KnowledgeBase) error {
	m.kbs[kb.ID] = kb
	return nil
}

func (m *memStore) GetByID(ctx context.Context, userID, kbID string) (*model.KnowledgeBase, error) {
	kb, ok := m.kbs[kbID]
	if !ok || kb.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return kb, nil
}

func (m *memStore) ListByUser(ctx context.Context, userID string) ([]*model.KnowledgeBase, error) {
	var out []*model.KnowledgeBase
	for _, kb := range m.kbs {
		if kb.UserID == userID {
			out = append(out, kb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ctime > out[j].Ctime })
	return out, nil
}

func (m *memStore) Delete(ctx context.Context, userID, kbID string) error {
	kb, ok := m.kbs[kbID]
	if !ok || kb.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(m.kbs, kbID)
	return nil
}

func (m *memStore) Stats(ctx context.Context, userID, kbID string) (*model.KnowledgeBaseStats, error) {
	if _, err := m.GetByID(ctx, userID, kbID); err != nil {
		return nil, err
	}
	stats := &model.KnowledgeBaseStats{}
	for _, doc := range m.docs {
		if doc.KnowledgeBaseID == kbID {
			stats.DocumentCount++
			stats.TotalBytes += doc.SizeBytes
		}
	}
	for _, chunk := range m.chunks {
		if doc, ok := m.docs[chunk.DocumentID]; ok && doc.KnowledgeBaseID == kbID {
			stats.ChunkCount++
		}
	}
	return stats, nil
}

// DocumentStore

func (m *memStore) CreateDoc(ctx context.Context, doc *model.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *memStore) MarkProcessed(ctx context.Context, docID string) error {
	doc, ok := m.docs[docID]
	if !ok {
		return appErr.ErrNotFound
	}
	doc.Processed = true
	doc.ProcessError = ""
	return nil
}

func (m *memStore) MarkFailed(ctx context.Context, docID string, reason string) error {
	doc, ok := m.docs[docID]
	if !ok {
		return appErr.ErrNotFound
	}
	doc.Processed = false
	doc.ProcessError = reason
	return nil
}

func (m *memStore) ListByKB(ctx context.Context, userID, kbID string) ([]*model.Document, error) {
	var out []*model.Document
	for _, doc := range m.docs {
		if doc.KnowledgeBaseID == kbID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memStore) GetDocByID(ctx context.Context, userID, kbID, docID string) (*model.Document, error) {
	doc, ok := m.docs[docID]
	if !ok || doc.KnowledgeBaseID != kbID {
		return nil, appErr.ErrNotFound
	}
	if kb, ok := m.kbs[kbID]; !ok || kb.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return doc, nil
}

func (m *memStore) DeleteDoc(ctx context.Context, userID, kbID, docID string) error {
	if _, ok := m.docs[docID]; !ok {
		return appErr.ErrNotFound
	}
	delete(m.docs, docID)
	return nil
}

// ChunkStore

func (m *memStore) SaveBatch(ctx context.Context, chunks []*model.Chunk) error {
	if m.failSaveChunks {
		m.chunks = append(m.chunks, chunks[:m.chunksPerFailure]...)
		return errors.New("chunk insert failed")
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memStore) ListByKnowledgeBase(ctx context.Context, kbID string) ([]*model.SearchChunk, error) {
	var out []*model.SearchChunk
	for _, chunk := range m.chunks {
		doc, ok := m.docs[chunk.DocumentID]
		if !ok || doc.KnowledgeBaseID != kbID || !doc.Processed {
			continue
		}
		out = append(out, &model.SearchChunk{Chunk: *chunk, Filename: doc.Filename})
	}
	return out, nil
}

// SearchHistoryStore

func (m *memStore) Append(ctx context.Context, entry *model.SearchHistory) error {
	if m.failAppendLog {
		return errors.New("history insert failed")
	}
	m.history = append(m.history, entry)
	return nil
}

func (m *memStore) ListHistoryByKB(ctx context.Context, userID, kbID string, limit int) ([]*model.SearchHistory, error) {
	var out []*model.SearchHistory
	for _, entry := range m.history {
		if entry.KnowledgeBaseID == kbID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Interface adapters: the memStore method set collides on names, so the
// sub-stores are thin views over it.

type memDocStore struct{ *memStore }

func (m memDocStore) Create(ctx context.Context, doc *model.Document) error {
	return m.CreateDoc(ctx, doc)
}

func (m memDocStore) GetByID(ctx context.Context, userID, kbID, docID string) (*model.Document, error) {
	return m.GetDocByID(ctx, userID, kbID, docID)
}

func (m memDocStore) Delete(ctx context.Context, userID, kbID, docID string) error {
	return m.DeleteDoc(ctx, userID, kbID, docID)
}

type memHistoryStore struct{ *memStore }

func (m memHistoryStore) ListByKB(ctx context.Context, userID, kbID string, limit int) ([]*model.SearchHistory, error) {
	return m.ListHistoryByKB(ctx, userID, kbID, limit)
}

// fakeBlobStore keeps uploaded bytes in a map.
type fakeBlobStore struct {
	objects  map[string][]byte
	failSave bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	if f.failSave {
		return errors.New("blob store down")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) Type() string { return "fake" }

// fakeEmbedder produces deterministic vectors and counts provider calls.
type fakeEmbedder struct {
	oneCalls  int
	manyCalls int
	failOne   bool
	failMany  bool
	vecFor    func(text string) []float32
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if f.vecFor != nil {
		return f.vecFor(text)
	}
	return []float32{float32(len(text)), 1, 0}
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.oneCalls++
	if f.failOne {
		return nil, errors.New("provider down")
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.manyCalls++
	if f.failMany {
		return nil, errors.New("provider down")
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, f.vector(text))
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-model" }

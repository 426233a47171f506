package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/kbase/internal/model"
	appErr "github.com/quillhq/kbase/internal/pkg/errors"
)

func newKBService(store *memStore, blobs *fakeBlobStore) *KnowledgeBaseService {
	if blobs == nil {
		return NewKnowledgeBaseService(store, memDocStore{store}, memHistoryStore{store}, nil)
	}
	return NewKnowledgeBaseService(store, memDocStore{store}, memHistoryStore{store}, blobs)
}

func TestCreateKnowledgeBase(t *testing.T) {
	store := newMemStore()
	svc := newKBService(store, nil)

	kb, err := svc.Create(context.Background(), "user-1", "  research notes  ", " papers ")
	require.NoError(t, err)
	assert.NotEmpty(t, kb.ID)
	assert.Equal(t, "research notes", kb.Name)
	assert.Equal(t, "papers", kb.Description)
	assert.True(t, kb.IsActive)
	assert.NotZero(t, kb.Ctime)
	assert.Equal(t, kb.Ctime, kb.Mtime)
}

func TestCreateKnowledgeBaseValidation(t *testing.T) {
	svc := newKBService(newMemStore(), nil)

	_, err := svc.Create(context.Background(), "user-1", "   ", "")
	assert.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Create(context.Background(), "user-1", strings.Repeat("n", 201), "")
	assert.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestGetKnowledgeBaseOwnership(t *testing.T) {
	store := newMemStore()
	store.addKB("kb-1", "owner")
	svc := newKBService(store, nil)

	_, err := svc.Get(context.Background(), "intruder", "kb-1")
	assert.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = svc.Get(context.Background(), "owner", "kb-404")
	assert.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDeleteDocumentRemovesStoredUpload(t *testing.T) {
	store := newMemStore()
	store.addKB("kb-1", "owner")
	store.docs["doc-1"] = &model.Document{
		ID:              "doc-1",
		KnowledgeBaseID: "kb-1",
		Filename:        "report.txt",
	}
	blobs := newFakeBlobStore()
	blobs.objects["doc-1/report.txt"] = []byte("original")
	svc := newKBService(store, blobs)

	require.NoError(t, svc.DeleteDocument(context.Background(), "owner", "kb-1", "doc-1"))
	assert.Empty(t, store.docs)
	assert.Empty(t, blobs.objects)
}

func TestOpenDocumentFile(t *testing.T) {
	store := newMemStore()
	store.addKB("kb-1", "owner")
	store.docs["doc-1"] = &model.Document{
		ID:              "doc-1",
		KnowledgeBaseID: "kb-1",
		Filename:        "report.txt",
	}
	blobs := newFakeBlobStore()
	blobs.objects["doc-1/report.txt"] = []byte("original content")
	svc := newKBService(store, blobs)

	rc, filename, err := svc.OpenDocumentFile(context.Background(), "owner", "kb-1", "doc-1")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "report.txt", filename)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "original content", string(data))

	_, _, err = svc.OpenDocumentFile(context.Background(), "intruder", "kb-1", "doc-1")
	assert.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestOpenDocumentFileMissingBlob(t *testing.T) {
	store := newMemStore()
	store.addKB("kb-1", "owner")
	store.docs["doc-1"] = &model.Document{
		ID:              "doc-1",
		KnowledgeBaseID: "kb-1",
		Filename:        "report.txt",
	}
	svc := newKBService(store, newFakeBlobStore())

	_, _, err := svc.OpenDocumentFile(context.Background(), "owner", "kb-1", "doc-1")
	assert.ErrorIs(t, err, appErr.ErrNotFound)
}

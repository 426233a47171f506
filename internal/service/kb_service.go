package service

import (
	"context"
	"io"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quillhq/kbase/internal/filestore"
	"github.com/quillhq/kbase/internal/model"
	appErr "github.com/quillhq/kbase/internal/pkg/errors"
	"github.com/quillhq/kbase/internal/pkg/timeutil"
)

const maxKnowledgeBaseNameLen = 200

type KnowledgeBaseService struct {
	kbs     KnowledgeBaseStore
	docs    DocumentStore
	history SearchHistoryStore
	blobs   filestore.Store
}

func NewKnowledgeBaseService(kbs KnowledgeBaseStore, docs DocumentStore, history SearchHistoryStore, blobs filestore.Store) *KnowledgeBaseService {
	return &KnowledgeBaseService{kbs: kbs, docs: docs, history: history, blobs: blobs}
}

func (s *KnowledgeBaseService) Create(ctx context.Context, userID, name, description string) (*model.KnowledgeBase, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxKnowledgeBaseNameLen {
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	kb := &model.KnowledgeBase{
		ID:          newID(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.kbs.Create(ctx, kb); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("knowledge base created",
		zap.String("kb_id", kb.ID),
		zap.String("user_id", userID),
	)
	return kb, nil
}

func (s *KnowledgeBaseService) Get(ctx context.Context, userID, kbID string) (*model.KnowledgeBase, error) {
	return s.kbs.GetByID(ctx, userID, kbID)
}

func (s *KnowledgeBaseService) List(ctx context.Context, userID string) ([]*model.KnowledgeBase, error) {
	return s.kbs.ListByUser(ctx, userID)
}

func (s *KnowledgeBaseService) Delete(ctx context.Context, userID, kbID string) error {
	if err := s.kbs.Delete(ctx, userID, kbID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("knowledge base deleted",
		zap.String("kb_id", kbID),
		zap.String("user_id", userID),
	)
	return nil
}

func (s *KnowledgeBaseService) Stats(ctx context.Context, userID, kbID string) (*model.KnowledgeBaseStats, error) {
	return s.kbs.Stats(ctx, userID, kbID)
}

func (s *KnowledgeBaseService) ListDocuments(ctx context.Context, userID, kbID string) ([]*model.Document, error) {
	if _, err := s.kbs.GetByID(ctx, userID, kbID); err != nil {
		return nil, err
	}
	return s.docs.ListByKB(ctx, userID, kbID)
}

func (s *KnowledgeBaseService) GetDocument(ctx context.Context, userID, kbID, docID string) (*model.Document, error) {
	return s.docs.GetByID(ctx, userID, kbID, docID)
}

func (s *KnowledgeBaseService) DeleteDocument(ctx context.Context, userID, kbID, docID string) error {
	doc, err := s.docs.GetByID(ctx, userID, kbID, docID)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, userID, kbID, docID); err != nil {
		return err
	}
	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, doc.ID+"/"+doc.Filename); err != nil {
			logutil.GetLogger(ctx).Warn("failed to delete stored upload",
				zap.String("document_id", doc.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// OpenDocumentFile returns the raw uploaded bytes of a processed or failed
// document. Callers must close the reader.
func (s *KnowledgeBaseService) OpenDocumentFile(ctx context.Context, userID, kbID, docID string) (io.ReadCloser, string, error) {
	if s.blobs == nil {
		return nil, "", appErr.ErrNotFound
	}
	doc, err := s.docs.GetByID(ctx, userID, kbID, docID)
	if err != nil {
		return nil, "", err
	}
	rc, err := s.blobs.Open(ctx, doc.ID+"/"+doc.Filename)
	if err != nil {
		return nil, "", appErr.ErrNotFound
	}
	return rc, doc.Filename, nil
}

func (s *KnowledgeBaseService) SearchHistory(ctx context.Context, userID, kbID string, limit int) ([]*model.SearchHistory, error) {
	if _, err := s.kbs.GetByID(ctx, userID, kbID); err != nil {
		return nil, err
	}
	return s.history.ListByKB(ctx, userID, kbID, limit)
}

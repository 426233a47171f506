package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quillhq/kbase/internal/ai"
	"github.com/quillhq/kbase/internal/filestore"
	"github.com/quillhq/kbase/internal/model"
	"github.com/quillhq/kbase/internal/parser"
	"github.com/quillhq/kbase/internal/pkg/timeutil"
)

type IngestResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	TokenCount int    `json:"token_count"`
}

// IngestService runs the upload pipeline: parse, clean, chunk, batch-embed,
// persist. Failures after the document row exists leave it unprocessed with
// the reason recorded, never silently dropped.
type IngestService struct {
	kbs         KnowledgeBaseStore
	docs        DocumentStore
	chunks      ChunkStore
	embedder    ai.IEmbedder
	blobs       filestore.Store
	chunkSize   int
	overlapSize int
}

func NewIngestService(
	kbs KnowledgeBaseStore,
	docs DocumentStore,
	chunks ChunkStore,
	embedder ai.IEmbedder,
	blobs filestore.Store,
	chunkSize int,
	overlapSize int,
) *IngestService {
	if chunkSize <= 0 {
		chunkSize = ai.DefaultChunkSize
	}
	if overlapSize <= 0 || overlapSize >= chunkSize {
		overlapSize = ai.DefaultOverlapSize
	}
	return &IngestService{
		kbs:         kbs,
		docs:        docs,
		chunks:      chunks,
		embedder:    embedder,
		blobs:       blobs,
		chunkSize:   chunkSize,
		overlapSize: overlapSize,
	}
}

func (s *IngestService) Ingest(ctx context.Context, userID, kbID string, data []byte, filename, fileType string) (*IngestResult, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("kb_id", kbID),
		zap.String("filename", filename),
	)
	if _, err := s.kbs.GetByID(ctx, userID, kbID); err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:              newID(),
		KnowledgeBaseID: kbID,
		Filename:        filename,
		FileType:        strings.ToLower(strings.TrimSpace(fileType)),
		SizeBytes:       int64(len(data)),
		Ctime:           timeutil.NowUnix(),
	}

	text, err := parser.Parse(data, fileType)
	if err != nil {
		doc.ProcessError = err.Error()
		if createErr := s.docs.Create(ctx, doc); createErr != nil {
			logger.Error("failed to record unparseable document", zap.Error(createErr))
		}
		logger.Warn("document parsing failed", zap.Error(err))
		return nil, err
	}

	cleaned := ai.CleanText(text)
	pieces := ai.SplitWithOverlap(cleaned, s.chunkSize, s.overlapSize)
	doc.Content = cleaned
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}

	// An empty document is a valid, fully processed document with no chunks;
	// no provider call is made for it.
	if len(pieces) == 0 {
		if err := s.docs.MarkProcessed(ctx, doc.ID); err != nil {
			return nil, err
		}
		logger.Info("document ingested", zap.Int("chunks", 0))
		return &IngestResult{DocumentID: doc.ID}, nil
	}

	vectors, err := s.embedder.EmbedMany(ctx, pieces, ai.TaskTypeDocument)
	if err != nil {
		s.markFailed(ctx, doc.ID, err)
		logger.Warn("document embedding failed", zap.Error(err))
		return nil, err
	}
	if len(vectors) != len(pieces) {
		err := fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(pieces))
		s.markFailed(ctx, doc.ID, err)
		return nil, err
	}

	now := timeutil.NowUnix()
	totalTokens := 0
	chunks := make([]*model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		tokens := int(ai.EstimateTokens(piece))
		totalTokens += tokens
		chunks = append(chunks, &model.Chunk{
			ID:         newID(),
			DocumentID: doc.ID,
			Index:      i,
			Content:    piece,
			Embedding:  vectors[i],
			TokenCount: tokens,
			Ctime:      now,
		})
	}
	if err := s.chunks.SaveBatch(ctx, chunks); err != nil {
		s.markFailed(ctx, doc.ID, fmt.Errorf("persist chunks: %w", err))
		return nil, fmt.Errorf("persist chunks: %w", err)
	}
	if err := s.docs.MarkProcessed(ctx, doc.ID); err != nil {
		return nil, err
	}
	s.saveOriginal(ctx, doc.ID, filename, data)

	logger.Info("document ingested",
		zap.Int("chunks", len(chunks)),
		zap.Int("tokens", totalTokens),
	)
	return &IngestResult{
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
		TokenCount: totalTokens,
	}, nil
}

func (s *IngestService) markFailed(ctx context.Context, docID string, cause error) {
	if err := s.docs.MarkFailed(ctx, docID, cause.Error()); err != nil {
		logutil.GetLogger(ctx).Error("failed to mark document as failed",
			zap.String("document_id", docID),
			zap.Error(err),
		)
	}
}

// saveOriginal keeps the raw upload bytes for later download. Best-effort:
// blob storage problems never fail an already-persisted ingestion.
func (s *IngestService) saveOriginal(ctx context.Context, docID, filename string, data []byte) {
	if s.blobs == nil {
		return
	}
	key := docID + "/" + filename
	if err := s.blobs.Save(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		logutil.GetLogger(ctx).Warn("failed to store original upload",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

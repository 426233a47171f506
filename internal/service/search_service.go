package service

import (
	"context"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quillhq/kbase/internal/ai"
	"github.com/quillhq/kbase/internal/model"
	appErr "github.com/quillhq/kbase/internal/pkg/errors"
	"github.com/quillhq/kbase/internal/pkg/timeutil"
)

const (
	defaultTopK = 5
	maxTopK     = 50
)

// SearchService ranks every chunk of one knowledge base against a query by
// cosine similarity. Exhaustive scan, no index: correctness over scale at
// the size of a single tenant's knowledge base.
type SearchService struct {
	kbs      KnowledgeBaseStore
	chunks   ChunkStore
	history  SearchHistoryStore
	embedder ai.IEmbedder
}

func NewSearchService(kbs KnowledgeBaseStore, chunks ChunkStore, history SearchHistoryStore, embedder ai.IEmbedder) *SearchService {
	return &SearchService{kbs: kbs, chunks: chunks, history: history, embedder: embedder}
}

func (s *SearchService) Search(ctx context.Context, userID, kbID, query string, topK int) ([]*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.ErrInvalid
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("kb_id", kbID),
		zap.String("user_id", userID),
	)
	if _, err := s.kbs.GetByID(ctx, userID, kbID); err != nil {
		return nil, err
	}
	chunks, err := s.chunks.ListByKnowledgeBase(ctx, kbID)
	if err != nil {
		return nil, err
	}
	// An empty knowledge base returns an empty result without spending a
	// provider call on the query embedding.
	if len(chunks) == 0 {
		s.logQuery(ctx, kbID, userID, query, 0)
		return []*model.SearchResult{}, nil
	}

	queryVec, err := s.embedder.EmbedOne(ctx, query, ai.TaskTypeQuery)
	if err != nil {
		logger.Error("failed to embed search query", zap.Error(err))
		return nil, err
	}

	results := make([]*model.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		score, err := ai.CosineSimilarity(queryVec, chunk.Embedding)
		if err != nil {
			return nil, err
		}
		results = append(results, &model.SearchResult{
			ChunkID:    chunk.ID,
			Content:    chunk.Content,
			Filename:   chunk.Filename,
			Similarity: score,
		})
	}
	// Stable sort keeps insertion order between equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	s.logQuery(ctx, kbID, userID, query, len(results))
	logger.Debug("search completed",
		zap.Int("candidates", len(chunks)),
		zap.Int("returned", len(results)),
	)
	return results, nil
}

// logQuery is best-effort; history is observability, not correctness, so a
// failed append never fails the search.
func (s *SearchService) logQuery(ctx context.Context, kbID, userID, query string, resultCount int) {
	entry := &model.SearchHistory{
		ID:              newID(),
		KnowledgeBaseID: kbID,
		UserID:          userID,
		Query:           query,
		ResultCount:     resultCount,
		Ctime:           timeutil.NowUnix(),
	}
	if err := s.history.Append(ctx, entry); err != nil {
		logutil.GetLogger(ctx).Warn("failed to append search history",
			zap.String("kb_id", kbID),
			zap.Error(err),
		)
	}
}

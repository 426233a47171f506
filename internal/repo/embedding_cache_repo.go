package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pgvector/pgvector-go"

	"github.com/quillhq/kbase/internal/model"
)

// EmbeddingCacheRepo is the durable half of the embedding cache: vectors
// survive restarts so re-ingesting the same content never pays for a second
// provider call.
type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

// Get reports ok=false for a miss; errors are reserved for real failures.
func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	var embedding pgvector.Vector
	err := r.db.QueryRowContext(ctx, `
		SELECT embedding FROM embedding_cache
		WHERE model_name = $1 AND task_type = $2 AND content_hash = $3
	`, modelName, taskType, contentHash).Scan(&embedding)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return embedding.Slice(), true, nil
}

// Save upserts; ctime is refreshed on every write so retention measures the
// last use, not the first.
func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.EmbeddingCache) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (model_name, task_type, content_hash) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`,
		item.ModelName,
		item.TaskType,
		item.ContentHash,
		pgvector.NewVector(item.Embedding),
		item.Ctime,
	)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM embedding_cache WHERE ctime < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

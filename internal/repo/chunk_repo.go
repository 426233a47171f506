package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/quillhq/kbase/internal/model"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// SaveBatch inserts all chunks of one document in index order inside one
// transaction, so a partial failure leaves no chunk rows behind.
func (r *ChunkRepo) SaveBatch(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO chunks (id, document_id, chunk_index, content, embedding, token_count, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx,
			chunk.ID,
			chunk.DocumentID,
			chunk.Index,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
			chunk.TokenCount,
			chunk.Ctime,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByKnowledgeBase returns every chunk of every processed document in the
// knowledge base, in insertion order (document creation, then chunk index).
func (r *ChunkRepo) ListByKnowledgeBase(ctx context.Context, kbID string) ([]*model.SearchChunk, error) {
	const query = `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.embedding, c.token_count, c.ctime, d.filename
		FROM chunks c
		JOIN documents d ON c.document_id = d.id
		WHERE d.kb_id = $1 AND d.processed
		ORDER BY d.ctime ASC, d.id ASC, c.chunk_index ASC
	`
	rows, err := r.db.QueryContext(ctx, query, kbID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []*model.SearchChunk
	for rows.Next() {
		var chunk model.SearchChunk
		var embedding pgvector.Vector
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Index,
			&chunk.Content,
			&embedding,
			&chunk.TokenCount,
			&chunk.Ctime,
			&chunk.Filename,
		)
		if err != nil {
			return nil, err
		}
		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

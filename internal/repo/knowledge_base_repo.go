package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/quillhq/kbase/internal/model"
	"github.com/quillhq/kbase/internal/pkg/dbutil"
	appErr "github.com/quillhq/kbase/internal/pkg/errors"
)

type KnowledgeBaseRepo struct {
	db *sql.DB
}

func NewKnowledgeBaseRepo(db *sql.DB) *KnowledgeBaseRepo {
	return &KnowledgeBaseRepo{db: db}
}

func (r *KnowledgeBaseRepo) Create(ctx context.Context, kb *model.KnowledgeBase) error {
	data := map[string]interface{}{
		"id":          kb.ID,
		"user_id":     kb.UserID,
		"name":        kb.Name,
		"description": kb.Description,
		"is_active":   kb.IsActive,
		"ctime":       kb.Ctime,
		"mtime":       kb.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("knowledge_bases", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

const kbSelectWithCounts = `
	SELECT kb.id, kb.user_id, kb.name, kb.description, kb.is_active, kb.ctime, kb.mtime,
		(SELECT COUNT(*) FROM documents d WHERE d.kb_id = kb.id) AS document_count,
		(SELECT COUNT(*) FROM chunks c JOIN documents d ON c.document_id = d.id WHERE d.kb_id = kb.id) AS chunk_count
	FROM knowledge_bases kb
`

// GetByID returns ErrNotFound both for a missing knowledge base and for one
// owned by another user.
func (r *KnowledgeBaseRepo) GetByID(ctx context.Context, userID, kbID string) (*model.KnowledgeBase, error) {
	query := kbSelectWithCounts + ` WHERE kb.id = $1 AND kb.user_id = $2`
	row := r.db.QueryRowContext(ctx, query, kbID, userID)
	kb, err := scanKnowledgeBase(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return kb, nil
}

func (r *KnowledgeBaseRepo) ListByUser(ctx context.Context, userID string) ([]*model.KnowledgeBase, error) {
	query := kbSelectWithCounts + ` WHERE kb.user_id = $1 ORDER BY kb.ctime DESC, kb.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.KnowledgeBase
	for rows.Next() {
		kb, err := scanKnowledgeBase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, kb)
	}
	return items, rows.Err()
}

// Delete cascades to documents, chunks and search history in one
// transaction. Ownership failure and absence are both ErrNotFound.
func (r *KnowledgeBaseRepo) Delete(ctx context.Context, userID, kbID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM knowledge_bases WHERE id = $1 AND user_id = $2`, kbID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE document_id IN (SELECT id FROM documents WHERE kb_id = $1)`, kbID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE kb_id = $1`, kbID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM search_history WHERE kb_id = $1`, kbID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *KnowledgeBaseRepo) Stats(ctx context.Context, userID, kbID string) (*model.KnowledgeBaseStats, error) {
	if err := r.ensureOwned(ctx, userID, kbID); err != nil {
		return nil, err
	}
	const query = `
		SELECT
			(SELECT COUNT(*) FROM documents d WHERE d.kb_id = $1),
			(SELECT COUNT(*) FROM chunks c JOIN documents d ON c.document_id = d.id WHERE d.kb_id = $1),
			(SELECT COALESCE(SUM(d.size_bytes), 0) FROM documents d WHERE d.kb_id = $1),
			(SELECT COUNT(*) FROM search_history h WHERE h.kb_id = $1),
			(SELECT COUNT(DISTINCT h.user_id) FROM search_history h WHERE h.kb_id = $1)
	`
	var stats model.KnowledgeBaseStats
	err := r.db.QueryRowContext(ctx, query, kbID).Scan(
		&stats.DocumentCount,
		&stats.ChunkCount,
		&stats.TotalBytes,
		&stats.SearchCount,
		&stats.DistinctSearchers,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *KnowledgeBaseRepo) ensureOwned(ctx context.Context, userID, kbID string) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM knowledge_bases WHERE id = $1 AND user_id = $2`, kbID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return appErr.ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanKnowledgeBase(row rowScanner) (*model.KnowledgeBase, error) {
	var kb model.KnowledgeBase
	err := row.Scan(
		&kb.ID,
		&kb.UserID,
		&kb.Name,
		&kb.Description,
		&kb.IsActive,
		&kb.Ctime,
		&kb.Mtime,
		&kb.DocumentCount,
		&kb.ChunkCount,
	)
	if err != nil {
		return nil, err
	}
	return &kb, nil
}

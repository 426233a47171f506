package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/quillhq/kbase/internal/model"
	"github.com/quillhq/kbase/internal/pkg/dbutil"
)

type SearchHistoryRepo struct {
	db *sql.DB
}

func NewSearchHistoryRepo(db *sql.DB) *SearchHistoryRepo {
	return &SearchHistoryRepo{db: db}
}

func (r *SearchHistoryRepo) Append(ctx context.Context, entry *model.SearchHistory) error {
	data := map[string]interface{}{
		"id":           entry.ID,
		"kb_id":        entry.KnowledgeBaseID,
		"user_id":      entry.UserID,
		"query":        entry.Query,
		"result_count": entry.ResultCount,
		"ctime":        entry.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("search_history", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SearchHistoryRepo) ListByKB(ctx context.Context, userID, kbID string, limit int) ([]*model.SearchHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `
		SELECT h.id, h.kb_id, h.user_id, h.query, h.result_count, h.ctime
		FROM search_history h
		JOIN knowledge_bases kb ON h.kb_id = kb.id
		WHERE h.kb_id = $1 AND kb.user_id = $2
		ORDER BY h.ctime DESC, h.id DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, kbID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*model.SearchHistory
	for rows.Next() {
		var entry model.SearchHistory
		err := rows.Scan(
			&entry.ID,
			&entry.KnowledgeBaseID,
			&entry.UserID,
			&entry.Query,
			&entry.ResultCount,
			&entry.Ctime,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (r *SearchHistoryRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM search_history WHERE ctime < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

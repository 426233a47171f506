package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/quillhq/kbase/internal/model"
	"github.com/quillhq/kbase/internal/pkg/dbutil"
	appErr "github.com/quillhq/kbase/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":            doc.ID,
		"kb_id":         doc.KnowledgeBaseID,
		"filename":      doc.Filename,
		"file_type":     doc.FileType,
		"content":       doc.Content,
		"size_bytes":    doc.SizeBytes,
		"processed":     doc.Processed,
		"process_error": doc.ProcessError,
		"ctime":         doc.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) MarkProcessed(ctx context.Context, docID string) error {
	return r.setStatus(ctx, docID, true, "")
}

func (r *DocumentRepo) MarkFailed(ctx context.Context, docID string, reason string) error {
	return r.setStatus(ctx, docID, false, reason)
}

func (r *DocumentRepo) setStatus(ctx context.Context, docID string, processed bool, reason string) error {
	where := map[string]interface{}{"id": docID}
	update := map[string]interface{}{
		"processed":     processed,
		"process_error": reason,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

const documentSelect = `
	SELECT d.id, d.kb_id, d.filename, d.file_type, d.size_bytes, d.processed, d.process_error, d.ctime,
		(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id) AS chunk_count
	FROM documents d
	JOIN knowledge_bases kb ON d.kb_id = kb.id
`

// ListByKB exposes processing state and chunk counts but not the extracted
// content.
func (r *DocumentRepo) ListByKB(ctx context.Context, userID, kbID string) ([]*model.Document, error) {
	query := documentSelect + ` WHERE d.kb_id = $1 AND kb.user_id = $2 ORDER BY d.ctime DESC, d.id DESC`
	rows, err := r.db.QueryContext(ctx, query, kbID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*model.Document
	for rows.Next() {
		var doc model.Document
		err := rows.Scan(
			&doc.ID,
			&doc.KnowledgeBaseID,
			&doc.Filename,
			&doc.FileType,
			&doc.SizeBytes,
			&doc.Processed,
			&doc.ProcessError,
			&doc.Ctime,
			&doc.ChunkCount,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) GetByID(ctx context.Context, userID, kbID, docID string) (*model.Document, error) {
	query := documentSelect + ` WHERE d.id = $1 AND d.kb_id = $2 AND kb.user_id = $3`
	row := r.db.QueryRowContext(ctx, query, docID, kbID, userID)
	var doc model.Document
	err := row.Scan(
		&doc.ID,
		&doc.KnowledgeBaseID,
		&doc.Filename,
		&doc.FileType,
		&doc.SizeBytes,
		&doc.Processed,
		&doc.ProcessError,
		&doc.Ctime,
		&doc.ChunkCount,
	)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes the document and its chunks; ErrNotFound covers both a
// missing document and one outside the caller's ownership.
func (r *DocumentRepo) Delete(ctx context.Context, userID, kbID, docID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM documents d
		USING knowledge_bases kb
		WHERE d.kb_id = kb.id AND d.id = $1 AND d.kb_id = $2 AND kb.user_id = $3
	`, docID, kbID, userID)
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, docID); err != nil {
		return err
	}
	return tx.Commit()
}

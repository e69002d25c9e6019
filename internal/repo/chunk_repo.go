package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pkg/dbutil"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

const chunkTable = "pdf_chunks"

// lib/pq caps a single statement at 65535 bind parameters; a batch that
// would exceed it is rejected up front as oversized so the caller can
// degrade to row-by-row inserts.
const maxBindParams = 65535

const chunkColumns = 6

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) InsertBatch(ctx context.Context, rows []model.ChunkRecord) error {
	if len(rows) == 0 {
		return nil
	}
	if len(rows)*chunkColumns > maxBindParams {
		return appErr.ErrOversizedPayload
	}
	data := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		data = append(data, map[string]interface{}{
			"id":         row.ID,
			"user_id":    row.UserID,
			"pdf_id":     row.PDFID,
			"pdf_name":   row.PDFName,
			"chunk_text": row.ChunkText,
			"embedding":  pgvector.NewVector(row.Embedding),
		})
	}
	sqlStr, args, err := builder.BuildInsert(chunkTable, data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsProgramLimit(err) {
			return appErr.ErrOversizedPayload
		}
		return err
	}
	return nil
}

func (r *ChunkRepo) Insert(ctx context.Context, row model.ChunkRecord) error {
	return r.InsertBatch(ctx, []model.ChunkRecord{row})
}

// Search runs a nearest-neighbor query over the chunk table and returns
// results ranked by L2 distance ascending. Rows that fail to scan are
// dropped rather than failing the whole query.
func (r *ChunkRepo) Search(ctx context.Context, vector []float32, filter *Filter, n int) ([]model.SearchResult, error) {
	where, args := filter.Compile(2)
	query := fmt.Sprintf(`
		SELECT pdf_id, pdf_name, chunk_text, embedding <-> $1 AS distance
		FROM %s
		WHERE %s
		ORDER BY distance ASC
		LIMIT %d
	`, chunkTable, where, n)
	fullArgs := append([]interface{}{pgvector.NewVector(vector)}, args...)
	rows, err := r.db.QueryContext(ctx, query, fullArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.SearchResult
	for rows.Next() {
		var item model.SearchResult
		if err := rows.Scan(&item.PDFID, &item.PDFName, &item.ChunkText, &item.Distance); err != nil {
			logutil.GetLogger(ctx).Warn("drop unreadable search row", zap.Error(err))
			continue
		}
		if item.ChunkText == "" {
			continue
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// Query returns stored chunks matching the filter, without ranking.
func (r *ChunkRepo) Query(ctx context.Context, filter *Filter, limit int) ([]model.ChunkRecord, error) {
	where, args := filter.Compile(1)
	query := fmt.Sprintf(`
		SELECT id, user_id, pdf_id, pdf_name, chunk_text
		FROM %s
		WHERE %s
		ORDER BY id ASC
		LIMIT %d
	`, chunkTable, where, limit)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ChunkRecord
	for rows.Next() {
		var item model.ChunkRecord
		if err := rows.Scan(&item.ID, &item.UserID, &item.PDFID, &item.PDFName, &item.ChunkText); err != nil {
			logutil.GetLogger(ctx).Warn("drop unreadable chunk row", zap.Error(err))
			continue
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// MaxID returns the current maximum record id, 0 when the table is empty.
func (r *ChunkRepo) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	row := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", chunkTable))
	if err := row.Scan(&maxID); err != nil {
		return 0, err
	}
	return maxID, nil
}

func (r *ChunkRepo) ListDocuments(ctx context.Context, userID string) ([]model.PDFInfo, error) {
	sqlStr, args, err := builder.BuildSelect(chunkTable,
		map[string]interface{}{"user_id": userID, "_groupby": "pdf_id, pdf_name"},
		[]string{"pdf_id", "pdf_name"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := make(map[string]struct{})
	var results []model.PDFInfo
	for rows.Next() {
		var item model.PDFInfo
		if err := rows.Scan(&item.PDFID, &item.PDFName); err != nil {
			return nil, err
		}
		if _, ok := seen[item.PDFID]; ok {
			continue
		}
		seen[item.PDFID] = struct{}{}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *ChunkRepo) UpdateEmbedding(ctx context.Context, id int64, vector []float32) error {
	query := fmt.Sprintf("UPDATE %s SET embedding = $1 WHERE id = $2", chunkTable)
	_, err := r.db.ExecContext(ctx, query, pgvector.NewVector(vector), id)
	return err
}

// Drop removes the chunk table; callers are expected to re-apply
// migrations afterwards.
func (r *ChunkRepo) Drop(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", chunkTable))
	return err
}

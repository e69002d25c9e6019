package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/config"
	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

const truncationMarker = "... [truncated]"

type IngestDocument struct {
	Filename string   `json:"filename"`
	Chunks   []string `json:"chunks"`
}

type IngestService struct {
	store           ChunkStore
	embedder        *BatchEmbedder
	maxChunkChars   int
	insertBatchSize int
	insertByteLimit int
	maxRetries      int
	backoff         time.Duration
}

func NewIngestService(store ChunkStore, embedder *BatchEmbedder, cfg config.IngestConfig) *IngestService {
	return &IngestService{
		store:           store,
		embedder:        embedder,
		maxChunkChars:   cfg.MaxChunkChars,
		insertBatchSize: cfg.InsertBatchSize,
		insertByteLimit: cfg.InsertByteLimit,
		maxRetries:      cfg.MaxRetries,
		backoff:         time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
	}
}

type docInfo struct {
	pdfID      string
	pdfName    string
	chunks     []string
	startIndex int
}

// Ingest runs the full write path: collect chunks, embed them in batches,
// zip rows and insert them in size-bounded batches. Per-document and
// per-row failures accumulate into the report instead of aborting the run.
func (s *IngestService) Ingest(ctx context.Context, userID string, docs []IngestDocument) (*model.IngestReport, error) {
	if strings.TrimSpace(userID) == "" || len(docs) == 0 {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.Int("documents", len(docs)))

	report := &model.IngestReport{}
	allTexts, infos := s.collect(docs, report)
	if len(allTexts) == 0 {
		logger.Warn("no valid chunks in any document")
		report.Success = false
		return report, nil
	}
	logger.Info("beginning batch embedding", zap.Int("total_chunks", len(allTexts)))

	embedStart := time.Now()
	vectors, err := s.embedder.EmbedAll(ctx, allTexts, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, err
	}
	report.ProcessingTime.EmbeddingSeconds = time.Since(embedStart).Seconds()

	baseID := s.nextID(ctx)
	rows := s.buildRows(ctx, userID, infos, allTexts, vectors, baseID, report)
	report.TotalChunks = len(rows)

	insertStart := time.Now()
	inserted, failed := s.insertRows(ctx, rows)
	report.ProcessingTime.InsertionSeconds = time.Since(insertStart).Seconds()
	report.RowsInserted = inserted
	report.RowsFailed = failed
	report.Success = inserted > 0

	logger.Info("ingestion finished",
		zap.Int("rows_inserted", inserted),
		zap.Int("rows_failed", failed),
		zap.Float64("embedding_seconds", report.ProcessingTime.EmbeddingSeconds),
		zap.Float64("insertion_seconds", report.ProcessingTime.InsertionSeconds),
	)
	return report, nil
}

// collect normalizes the submitted documents into one flat ordered chunk
// list, remembering each document's offset into it. Documents without any
// usable text are reported failed right away.
func (s *IngestService) collect(docs []IngestDocument, report *model.IngestReport) ([]string, []docInfo) {
	var allTexts []string
	var infos []docInfo
	counter := 0
	for i, doc := range docs {
		name := doc.Filename
		if name == "" {
			name = "document_" + strconv.Itoa(i)
		}
		pdfID := newID()
		var valid []string
		for _, chunk := range doc.Chunks {
			text := strings.TrimSpace(chunk)
			if text == "" {
				continue
			}
			if s.maxChunkChars > 0 {
				if runes := []rune(text); len(runes) > s.maxChunkChars {
					text = string(runes[:s.maxChunkChars]) + truncationMarker
				}
			}
			valid = append(valid, text)
		}
		if len(valid) == 0 {
			report.Results = append(report.Results, model.DocumentResult{
				Success: false,
				PDFName: name,
				Error:   appErr.ErrNoValidChunks.Error(),
			})
			continue
		}
		allTexts = append(allTexts, valid...)
		infos = append(infos, docInfo{
			pdfID:      pdfID,
			pdfName:    name,
			chunks:     valid,
			startIndex: counter,
		})
		counter += len(valid)
	}
	return allTexts, infos
}

// nextID seeds the run's id counter from the store's current maximum.
// A failed lookup falls back to 1 rather than aborting the run.
func (s *IngestService) nextID(ctx context.Context) int64 {
	maxID, err := s.store.MaxID(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Warn("failed to query max id, starting from 1", zap.Error(err))
		return 1
	}
	return maxID + 1
}

func (s *IngestService) buildRows(ctx context.Context, userID string, infos []docInfo, texts []string, vectors [][]float32, baseID int64, report *model.IngestReport) []model.ChunkRecord {
	if len(vectors) < len(texts) {
		logutil.GetLogger(ctx).Warn("embedding count does not match chunk count, truncating",
			zap.Int("chunks", len(texts)),
			zap.Int("embeddings", len(vectors)),
		)
	}
	rows := make([]model.ChunkRecord, 0, len(texts))
	for _, info := range infos {
		for i, chunk := range info.chunks {
			idx := info.startIndex + i
			if idx >= len(vectors) {
				break
			}
			rows = append(rows, model.ChunkRecord{
				ID:        baseID + int64(idx),
				UserID:    userID,
				PDFID:     info.pdfID,
				PDFName:   info.pdfName,
				ChunkText: chunk,
				Embedding: vectors[idx],
			})
		}
		report.Results = append(report.Results, model.DocumentResult{
			Success: true,
			PDFID:   info.pdfID,
			PDFName: info.pdfName,
			Chunks:  len(info.chunks),
		})
	}
	return rows
}

// insertRows partitions rows into byte-bounded batches and submits them in
// order. Oversized rejections degrade to row-at-a-time inserts; transient
// failures retry with backoff before the whole batch is counted failed.
func (s *IngestService) insertRows(ctx context.Context, rows []model.ChunkRecord) (int, int) {
	if len(rows) == 0 {
		return 0, 0
	}
	logger := logutil.GetLogger(ctx)
	batchSize := s.dynamicBatchSize(rows)
	var inserted, failed int
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		err := s.insertWithRetry(ctx, batch)
		switch {
		case err == nil:
			inserted += len(batch)
		case errors.Is(err, appErr.ErrOversizedPayload):
			logger.Warn("batch rejected as oversized, inserting row by row", zap.Int("rows", len(batch)))
			for _, row := range batch {
				if rowErr := s.store.Insert(ctx, row); rowErr != nil {
					logger.Warn("row insert failed", zap.Int64("id", row.ID), zap.Error(rowErr))
					failed++
					continue
				}
				inserted++
			}
		default:
			logger.Error("batch insert failed after retries", zap.Int("rows", len(batch)), zap.Error(err))
			failed += len(batch)
		}
	}
	return inserted, failed
}

func (s *IngestService) insertWithRetry(ctx context.Context, batch []model.ChunkRecord) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, s.backoff, attempt); err != nil {
				return err
			}
		}
		err := s.store.InsertBatch(ctx, batch)
		if err == nil {
			return nil
		}
		if errors.Is(err, appErr.ErrOversizedPayload) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// dynamicBatchSize bounds the batch row count so the serialized payload of
// a batch stays under the configured byte limit, never exceeding the
// nominal row-count cap.
func (s *IngestService) dynamicBatchSize(rows []model.ChunkRecord) int {
	batchSize := s.insertBatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	if s.insertByteLimit <= 0 {
		return batchSize
	}
	rowSize := estimateRowSize(representativeRow(rows))
	if rowSize <= 0 {
		return batchSize
	}
	byBytes := s.insertByteLimit / rowSize
	if byBytes < 1 {
		byBytes = 1
	}
	if byBytes < batchSize {
		batchSize = byBytes
	}
	return batchSize
}

// representativeRow picks the largest of the first few rows so one big
// outlier near the front does not get averaged away.
func representativeRow(rows []model.ChunkRecord) model.ChunkRecord {
	sample := rows
	if len(sample) > 16 {
		sample = sample[:16]
	}
	best := sample[0]
	bestSize := estimateRowSize(best)
	for _, row := range sample[1:] {
		if size := estimateRowSize(row); size > bestSize {
			best, bestSize = row, size
		}
	}
	return best
}

func estimateRowSize(row model.ChunkRecord) int {
	// A float32 serializes to roughly 12 bytes of text in the wire form
	// pgvector uses; 64 covers ids, separators and field overhead.
	return len(row.ChunkText) + len(row.PDFName) + len(row.PDFID) + len(row.UserID) + len(row.Embedding)*12 + 64
}

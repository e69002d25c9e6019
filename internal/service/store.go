package service

import (
	"context"

	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/repo"
)

// ChunkStore is the slice of the chunk repository the services need.
// Tests inject fakes through it.
type ChunkStore interface {
	InsertBatch(ctx context.Context, rows []model.ChunkRecord) error
	Insert(ctx context.Context, row model.ChunkRecord) error
	MaxID(ctx context.Context) (int64, error)
	Search(ctx context.Context, vector []float32, filter *repo.Filter, n int) ([]model.SearchResult, error)
	Query(ctx context.Context, filter *repo.Filter, limit int) ([]model.ChunkRecord, error)
	ListDocuments(ctx context.Context, userID string) ([]model.PDFInfo, error)
}

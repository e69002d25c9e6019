package service

import (
	"context"
	"strings"

	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
	"github.com/xxxsen/pdfchat/internal/repo"
)

const defaultChunkLimit = 10000

type DocumentService struct {
	store ChunkStore
}

func NewDocumentService(store ChunkStore) *DocumentService {
	return &DocumentService{store: store}
}

func (s *DocumentService) ListPDFs(ctx context.Context, userID string) ([]model.PDFInfo, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErr.ErrInvalid
	}
	return s.store.ListDocuments(ctx, userID)
}

// GetChunks returns the stored chunk rows of the given documents in id
// order. An empty selection short-circuits to an empty result instead of
// scanning the whole table.
func (s *DocumentService) GetChunks(ctx context.Context, userID string, pdfIDs []string, limit int) ([]model.ChunkRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErr.ErrInvalid
	}
	if len(pdfIDs) == 0 {
		return []model.ChunkRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultChunkLimit
	}
	filter := repo.NewFilter().Equals("user_id", userID).AnyOf("pdf_id", pdfIDs...)
	return s.store.Query(ctx, filter, limit)
}

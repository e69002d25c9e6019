package service

import (
	"context"
	"database/sql"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/db"
	"github.com/xxxsen/pdfchat/internal/repo"
)

type AdminService struct {
	chunks *repo.ChunkRepo
	rawDB  *sql.DB
}

func NewAdminService(chunks *repo.ChunkRepo, rawDB *sql.DB) *AdminService {
	return &AdminService{chunks: chunks, rawDB: rawDB}
}

// ResetTable drops the chunk table and rebuilds the schema from the
// embedded migrations. All stored chunks of all users are lost.
func (s *AdminService) ResetTable(ctx context.Context) error {
	logutil.GetLogger(ctx).Warn("resetting chunk table")
	if err := s.chunks.Drop(ctx); err != nil {
		logutil.GetLogger(ctx).Error("failed to drop chunk table", zap.Error(err))
		return err
	}
	if err := db.ApplyMigrations(s.rawDB); err != nil {
		logutil.GetLogger(ctx).Error("failed to rebuild schema", zap.Error(err))
		return err
	}
	logutil.GetLogger(ctx).Info("chunk table recreated")
	return nil
}

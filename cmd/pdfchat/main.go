package main

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/ai"
	"github.com/xxxsen/pdfchat/internal/config"
	"github.com/xxxsen/pdfchat/internal/db"
	"github.com/xxxsen/pdfchat/internal/embedcache"
	"github.com/xxxsen/pdfchat/internal/filestore"
	"github.com/xxxsen/pdfchat/internal/handler"
	"github.com/xxxsen/pdfchat/internal/job"
	"github.com/xxxsen/pdfchat/internal/middleware"
	"github.com/xxxsen/pdfchat/internal/repo"
	"github.com/xxxsen/pdfchat/internal/schedule"
	"github.com/xxxsen/pdfchat/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "pdfchat",
		Short: "pdfchat retrieval backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run pdfchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	reembedCmd := &cobra.Command{
		Use:   "reembed",
		Short: "re-embed all stored chunks with the configured model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			return reembedAll(cmd.Context(), cfg, database)
		},
	}
	reembedCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(reembedCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// reembedAll recomputes the embedding of every stored chunk with the
// currently configured provider and model. Run it after switching models
// so old and new vectors never mix in one index.
func reembedAll(ctx context.Context, cfg *config.Config, database *sql.DB) error {
	if ctx == nil {
		ctx = context.Background()
	}
	chunkRepo := repo.NewChunkRepo(database)
	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.Model, cfg.AI.Dimensions)
	batchEmbedder, err := service.NewBatchEmbedder(embedder,
		cfg.AI.EmbedBatchSize,
		cfg.AI.MaxRetries,
		time.Duration(cfg.AI.RetryBackoffMS)*time.Millisecond,
	)
	if err != nil {
		return fmt.Errorf("init batch embedder: %w", err)
	}

	rows, err := chunkRepo.Query(ctx, nil, math.MaxInt32)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	logutil.GetLogger(ctx).Info("re-embedding chunks",
		zap.String("model", cfg.AI.Model),
		zap.Int("chunks", len(rows)),
	)
	const pageSize = 500
	var updated, failed int
	for start := 0; start < len(rows); start += pageSize {
		end := start + pageSize
		if end > len(rows) {
			end = len(rows)
		}
		page := rows[start:end]
		texts := make([]string, 0, len(page))
		for _, row := range page {
			texts = append(texts, row.ChunkText)
		}
		vectors, err := batchEmbedder.EmbedAll(ctx, texts, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return err
		}
		for i, row := range page {
			if err := chunkRepo.UpdateEmbedding(ctx, row.ID, vectors[i]); err != nil {
				logutil.GetLogger(ctx).Warn("failed to update embedding",
					zap.Int64("id", row.ID),
					zap.Error(err),
				)
				failed++
				continue
			}
			updated++
		}
		logutil.GetLogger(ctx).Info("re-embed progress", zap.Int("done", end), zap.Int("total", len(rows)))
	}
	logutil.GetLogger(ctx).Info("re-embedding finished", zap.Int("updated", updated), zap.Int("failed", failed))
	return nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
		zap.String("file_store", cfg.FileStore.Type),
	)

	chunkRepo := repo.NewChunkRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.Model, cfg.AI.Dimensions)
	if cfg.Cache.EnableDBCache {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	embedder = embedcache.WrapLruCacheToEmbedder(embedder,
		cfg.Cache.LRUSize,
		time.Duration(cfg.Cache.LRUTTLMinutes)*time.Minute,
	)
	batchEmbedder, err := service.NewBatchEmbedder(embedder,
		cfg.AI.EmbedBatchSize,
		cfg.AI.MaxRetries,
		time.Duration(cfg.AI.RetryBackoffMS)*time.Millisecond,
	)
	if err != nil {
		return fmt.Errorf("init batch embedder: %w", err)
	}

	var fileStore filestore.IFileStore
	if cfg.FileStore.Type != "none" {
		fileStore, err = filestore.New(cfg.FileStore.Type, cfg.FileStore.Data)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
	}

	splitter := ai.NewSplitter(0, 0)
	pdfService := service.NewPDFService(splitter, ai.NewChunker(splitter), fileStore)
	ingestService := service.NewIngestService(chunkRepo, batchEmbedder, cfg.Ingest)
	searchService := service.NewSearchService(chunkRepo, batchEmbedder)
	documentService := service.NewDocumentService(chunkRepo)
	adminService := service.NewAdminService(chunkRepo, database)

	deps := handler.RouterDeps{
		Ingest:      handler.NewIngestHandler(ingestService, pdfService),
		Search:      handler.NewSearchHandler(searchService),
		Documents:   handler.NewDocumentHandler(documentService),
		Admin:       handler.NewAdminHandler(adminService, cfg.AdminToken),
		RateLimitMS: cfg.RateLimitMS,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Cache.EnableDBCache {
		cleanup := job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Cache.MaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.Cache.CleanupSpec); err != nil {
			return fmt.Errorf("schedule cache cleanup: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

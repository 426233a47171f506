package main

import (
	"context"
	"database/sql"
	"fmt"
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

	"github.com/quillhq/kbase/internal/ai"
	"github.com/quillhq/kbase/internal/config"
	"github.com/quillhq/kbase/internal/db"
	"github.com/quillhq/kbase/internal/embedcache"
	"github.com/quillhq/kbase/internal/filestore"
	"github.com/quillhq/kbase/internal/handler"
	"github.com/quillhq/kbase/internal/job"
	"github.com/quillhq/kbase/internal/middleware"
	"github.com/quillhq/kbase/internal/repo"
	"github.com/quillhq/kbase/internal/schedule"
	"github.com/quillhq/kbase/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "kbase",
		Short: "knowledge base semantic search server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run kbase server",
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

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
		zap.String("file_store", cfg.FileStore.Type),
	)

	kbRepo := repo.NewKnowledgeBaseRepo(conn)
	docRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	historyRepo := repo.NewSearchHistoryRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.Model,
		ai.WithMaxInputChars(cfg.AI.MaxInputChars),
		ai.WithBatchSize(cfg.AI.BatchSize),
	)
	cachedEmbedder := embedcache.Wrap(embedder,
		embedcache.NewLRUCache(cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLHours)*time.Hour),
		embedcache.NewDBCache(embedCacheRepo),
	)

	var blobs filestore.Store
	if cfg.FileStore.Type != "" {
		blobs, err = filestore.New(cfg.FileStore)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
	}

	kbService := service.NewKnowledgeBaseService(kbRepo, docRepo, historyRepo, blobs)
	ingestService := service.NewIngestService(kbRepo, docRepo, chunkRepo, cachedEmbedder, blobs, cfg.Ingest.ChunkSize, cfg.Ingest.OverlapSize)
	searchService := service.NewSearchService(kbRepo, chunkRepo, historyRepo, cachedEmbedder)

	deps := handler.RouterDeps{
		KnowledgeBases: handler.NewKnowledgeBaseHandler(kbService),
		Documents:      handler.NewDocumentHandler(kbService, ingestService, cfg.MaxUploadBytes),
		Search:         handler.NewSearchHandler(searchService),
		JWTSecret:      []byte(cfg.JWTSecret),
		UploadWindow:   time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSHosts),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSearchHistoryRetentionJob(historyRepo, cfg.Retention.SearchHistoryDays), "30 3 * * *"); err != nil {
		return fmt.Errorf("schedule history retention: %w", err)
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Retention.EmbeddingCacheDays), "0 4 * * *"); err != nil {
		return fmt.Errorf("schedule cache cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

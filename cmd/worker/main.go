package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventure/backend/config"
	"github.com/eventure/backend/internal/budget"
	"github.com/eventure/backend/internal/exports"
	"github.com/eventure/backend/internal/worker"
	"github.com/eventure/backend/pkg/database"
	"github.com/eventure/backend/pkg/queue"
	pkgredis "github.com/eventure/backend/pkg/redis"
	"github.com/eventure/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	redisClient, err := pkgredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	s3, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		AvatarsBucket:        cfg.AWS.AvatarsBucket,
		ExportsBucket:        cfg.AWS.ExportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create s3 client", zap.Error(err))
	}

	jobQueue := queue.NewQueue(redisClient.Client, logger)
	processor := worker.NewExportProcessor(jobQueue, exports.NewRepository(pool), budget.NewRepository(pool), s3, logger)

	if err := processor.Run(ctx); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if os.Getenv("LOG_LEVEL") == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

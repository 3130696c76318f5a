package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventure/backend/config"
	"github.com/eventure/backend/internal/auth"
	"github.com/eventure/backend/internal/budget"
	"github.com/eventure/backend/internal/events"
	"github.com/eventure/backend/internal/exports"
	"github.com/eventure/backend/internal/middleware"
	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/internal/organizations"
	"github.com/eventure/backend/internal/resources"
	"github.com/eventure/backend/internal/sessions"
	"github.com/eventure/backend/internal/staff"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient, err := pkgredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	var s3 *storage.S3
	if cfg.AWS.Region != "" {
		s3, err = storage.NewS3(ctx, storage.S3Config{
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
	} else {
		logger.Warn("AWS_REGION not set, avatar uploads and report exports are disabled")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(redisClient.Client, logger)

	userRepo := auth.NewRepository(pool)
	orgRepo := organizations.NewRepository(pool)
	staffRepo := staff.NewRepository(pool)
	eventRepo := events.NewRepository(pool)
	resourceRepo := resources.NewRepository(pool)
	sessionRepo := sessions.NewRepository(pool)
	budgetRepo := budget.NewRepository(pool)
	exportRepo := exports.NewRepository(pool)

	summaryCache := budget.NewRedisSummaryCache(redisClient.Client, logger)
	ledger := budget.NewLedger(budgetRepo, summaryCache)
	sessionService := sessions.NewService(sessionRepo)

	authHandler := auth.NewHandler(userRepo, jwtService, logger)
	orgHandler := organizations.NewHandler(orgRepo, s3, logger)
	staffHandler := staff.NewHandler(staffRepo)
	eventHandler := events.NewHandler(eventRepo, sessionRepo, sessionService)
	resourceHandler := resources.NewHandler(resourceRepo)
	sessionHandler := sessions.NewHandler(sessionService)
	budgetHandler := budget.NewHandler(ledger)
	exportHandler := exports.NewHandler(exportRepo, jobQueue, s3, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(jwtService))
	{
		authed.GET("/users", authHandler.List)

		authed.POST("/organizations", orgHandler.Create)
		authed.GET("/organizations", orgHandler.List)
		authed.GET("/organizations/:id", orgHandler.GetByID)
		authed.PATCH("/organizations/:id", middleware.RequireRole(string(models.RoleAdmin)), orgHandler.Update)
		authed.POST("/organizations/:id/avatar", middleware.RequireRole(string(models.RoleAdmin)), orgHandler.UploadAvatar)
		authed.DELETE("/organizations/:id", middleware.RequireRole(string(models.RoleAdmin)), orgHandler.Delete)

		authed.POST("/organizations/:id/staff", middleware.RequireRole(string(models.RoleAdmin)), staffHandler.Add)
		authed.GET("/organizations/:id/staff", staffHandler.List)
		authed.GET("/organizations/:id/events", eventHandler.ListByOrganization)
		authed.GET("/organizations/:id/resources", resourceHandler.ListByOrganization)
		authed.GET("/staff/:id", staffHandler.GetByID)
		authed.PATCH("/staff/:id", middleware.RequireRole(string(models.RoleAdmin)), staffHandler.Update)
		authed.DELETE("/staff/:id", middleware.RequireRole(string(models.RoleAdmin)), staffHandler.Remove)

		authed.POST("/events", eventHandler.Create)
		authed.GET("/events", eventHandler.List)
		authed.GET("/events/:id", eventHandler.GetByID)
		authed.PATCH("/events/:id", eventHandler.Update)
		authed.DELETE("/events/:id", eventHandler.Delete)
		authed.GET("/events/:id/sessions", sessionHandler.ListByEvent)

		authed.POST("/resources", resourceHandler.Create)
		authed.GET("/resources", resourceHandler.List)
		authed.GET("/resources/:id", resourceHandler.GetByID)
		authed.PATCH("/resources/:id", resourceHandler.Update)
		authed.DELETE("/resources/:id", resourceHandler.Delete)

		authed.POST("/sessions", sessionHandler.Create)
		authed.GET("/sessions/:id", sessionHandler.GetByID)
		authed.PATCH("/sessions/:id", sessionHandler.Update)
		authed.DELETE("/sessions/:id", sessionHandler.Delete)

		finance := authed.Group("")
		finance.Use(middleware.RequireRole(string(models.RoleAdmin), string(models.RoleFinance)))
		{
			finance.POST("/transactions", budgetHandler.Create)
			finance.GET("/transactions", budgetHandler.List)
			finance.GET("/transactions/:id", budgetHandler.GetByID)
			finance.PATCH("/transactions/:id", budgetHandler.Update)
			finance.DELETE("/transactions/:id", budgetHandler.Delete)
			finance.GET("/budget/summary", budgetHandler.Summary)

			finance.POST("/budget/exports", exportHandler.Create)
			finance.GET("/budget/exports", exportHandler.List)
			finance.GET("/budget/exports/:id", exportHandler.GetByID)
			finance.GET("/budget/exports/:id/download-url", exportHandler.DownloadURL)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
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

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlearn/courseware-server/internal/features/video"
	"github.com/openlearn/courseware-server/internal/http/routes"
	"github.com/openlearn/courseware-server/internal/services/analytics"
	"github.com/openlearn/courseware-server/internal/services/transcript"
	"github.com/openlearn/courseware-server/pkg/bunny"
	"github.com/openlearn/courseware-server/pkg/cache"
	"github.com/openlearn/courseware-server/pkg/config"
	"github.com/openlearn/courseware-server/pkg/database"
	"github.com/openlearn/courseware-server/pkg/jobs"
	"github.com/openlearn/courseware-server/pkg/logger"
	"github.com/openlearn/courseware-server/pkg/metrics"
	"github.com/openlearn/courseware-server/pkg/middleware"
	"github.com/openlearn/courseware-server/pkg/request"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := database.Close(db, appLogger); err != nil {
			appLogger.Error("database close failed", slog.String("error", err.Error()))
		}
	}()

	redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Error("redis connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// Bunny Storage holds transcript assets; Bunny Stream mirrors captions.
	storageClient := bunny.NewStorageClient(
		cfg.Bunny.Storage.StorageZone,
		cfg.Bunny.Storage.APIKey,
		cfg.Bunny.Storage.BaseURL,
		cfg.Bunny.Storage.CDNURL,
	)

	var platform video.VideoPlatform
	if cfg.Bunny.Stream.LibraryID != "" {
		platform = bunny.NewStreamClient(
			cfg.Bunny.Stream.LibraryID,
			cfg.Bunny.Stream.APIKey,
			cfg.Bunny.Stream.BaseURL,
		)
	}

	var transcriptStore transcript.Store
	if cfg.Bunny.Storage.StorageZone != "" {
		transcriptStore = transcript.NewBunnyStore(storageClient, redisClient, appLogger)
	} else {
		appLogger.Warn("no storage zone configured, transcripts are held in memory")
		transcriptStore = transcript.NewMemoryStore()
	}

	transcriptService := transcript.NewService(
		transcriptStore,
		appLogger,
		cfg.Video.DefaultLanguage,
		cfg.Video.PlaybackSpeeds,
	)

	tracker := analytics.NewStreamTracker(redisClient, appLogger, cfg.Analytics.Stream, cfg.Analytics.MaxLength)

	dispatcher := jobs.NewDispatcher(appLogger, 4, 256)
	defer dispatcher.Stop()

	router := gin.New()

	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Compression(middleware.BestSpeed))
	router.Use(metrics.Middleware())
	router.Use(request.Handler(appLogger))

	// Rate limiting (100 requests per minute per IP)
	rateLimiter := middleware.NewRateLimiter(100, time.Minute)
	router.Use(rateLimiter.Middleware())

	routes.Register(router, routes.Dependencies{
		Config:      cfg,
		DB:          db,
		Logger:      appLogger,
		Transcripts: transcriptService,
		Platform:    platform,
		Tracker:     tracker,
		Dispatcher:  dispatcher,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	appLogger.Info("server started successfully")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}

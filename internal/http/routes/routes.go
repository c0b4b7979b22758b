package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/internal/features/auth"
	"github.com/openlearn/courseware-server/internal/features/progress"
	"github.com/openlearn/courseware-server/internal/features/video"
	"github.com/openlearn/courseware-server/internal/middleware"
	"github.com/openlearn/courseware-server/internal/services/analytics"
	"github.com/openlearn/courseware-server/internal/services/transcript"
	"github.com/openlearn/courseware-server/pkg/config"
	"github.com/openlearn/courseware-server/pkg/health"
	"github.com/openlearn/courseware-server/pkg/jobs"
)

// Dependencies carries the shared services the routes wire together.
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Logger      *slog.Logger
	Transcripts *transcript.Service
	Platform    video.VideoPlatform
	Tracker     analytics.Tracker
	Dispatcher  *jobs.Dispatcher
}

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, deps Dependencies) {
	// Health check endpoints (no /api prefix for Kubernetes probes)
	healthHandler := health.NewHandler(deps.DB, deps.Logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.VersionInfo)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")

	authenticate := middleware.Authenticate(deps.DB, deps.Config.JWTSecret, deps.Logger)
	optionalAuth := middleware.OptionalAuthenticate(deps.DB, deps.Config.JWTSecret)
	requireAuthor := middleware.RequireAuthor()

	authHandler := auth.NewHandler(deps.DB, deps.Config, deps.Logger)
	auth.RegisterRoutes(api, authHandler)

	calculator := progress.NewGormCalculator(deps.DB, deps.Tracker, deps.Logger)
	completion := progress.NewPublisher(deps.DB, deps.Config.Video.CompletionTracking)

	videoHandler := video.NewHandler(
		deps.DB,
		deps.Logger,
		deps.Transcripts,
		completion,
		deps.Platform,
		calculator,
		deps.Dispatcher,
		transcript.Format(deps.Config.Video.DownloadFormat),
	)
	video.RegisterRoutes(api, videoHandler, authenticate, optionalAuth, requireAuthor)
}

// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"airwave/internal/api"
	"airwave/internal/catalog"
	"airwave/internal/channel"
	"airwave/internal/clock"
	"airwave/internal/config"
	"airwave/internal/db"
	"airwave/internal/guide"
	"airwave/internal/lineup"
	"airwave/internal/logger"
	"airwave/internal/middleware"
	"airwave/internal/schedule"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	channelService *channel.Service
	lineupService  *lineup.Service
	guideService   *guide.Service
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	clk := clock.System()

	resolver := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey)
	builder := schedule.NewBuilder(resolver, clk, cfg.Scheduler.Coverage)
	cache := schedule.NewCache(repos.ScheduleEntries, clk)

	channelService := channel.NewService(repos, cache)
	lineupService := lineup.NewService(database, repos, builder, cache, clk)
	guideService := guide.NewService(channelService, lineupService, repos, builder, cache, clk)

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		channelService: channelService,
		lineupService:  lineupService,
		guideService:   guideService,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create new Gin router
	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	// Create API route group
	apiGroup := s.router.Group("/api")

	// Register service routes
	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupChannelRoutes(apiGroup, s.channelService, s.guideService)
	api.SetupLineupRoutes(apiGroup, s.lineupService)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}

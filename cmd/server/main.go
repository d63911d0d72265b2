package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dialboard/backend/internal/api"
	"github.com/dialboard/backend/internal/auth"
	"github.com/dialboard/backend/internal/cache"
	"github.com/dialboard/backend/internal/config"
	"github.com/dialboard/backend/internal/kpi"
	"github.com/dialboard/backend/internal/metrics"
	"github.com/dialboard/backend/internal/normalize"
	"github.com/dialboard/backend/internal/quality"
	"github.com/dialboard/backend/internal/source"
	"github.com/dialboard/backend/internal/storage"
	"github.com/dialboard/backend/internal/syncer"
	"github.com/dialboard/backend/internal/ticker"
	"github.com/dialboard/backend/internal/websocket"
	"github.com/dialboard/backend/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Str("source_path", cfg.SourcePath).
		Msg("starting dialboard backend server")

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load alias table, optionally extended from file
	aliases := normalize.DefaultAliases()
	if cfg.AliasFile != "" {
		aliases, err = normalize.LoadAliasFile(cfg.AliasFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.AliasFile).Msg("failed to load alias file")
		}
		log.Info().Str("file", cfg.AliasFile).Msg("alias file loaded")
	}

	// Create durable store and tiered cache
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}

	tieredCache := cache.New(cache.Options{
		MaxEntries:     cfg.CacheMaxEntries,
		PersistCeiling: cfg.CachePersistCeiling,
		Version:        cfg.CacheVersion,
		Store:          store,
		Logger:         log.Logger,
	})
	if err := tieredCache.Rehydrate(ctx); err != nil {
		log.Warn().Err(err).Msg("cache rehydration failed, starting cold")
	}

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Heartbeats keep dashboard connections visibly alive between snapshots
	tickerService := ticker.NewTicker(hub, 30*time.Second, log.Logger)
	go tickerService.Start(ctx)

	// Create WebSocket handler
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Create pipeline components
	engine := kpi.NewEngine(kpi.DefaultConfig())
	auditor := quality.NewAuditor(aliases, log.Logger)
	src := source.NewSpreadsheetSource(cfg.SourcePath, log.Logger)

	orchestrator := syncer.NewOrchestrator(syncer.Options{
		Source:       src,
		SourceID:     cfg.SourceSheet,
		FetchTimeout: cfg.FetchTimeout,
		Aliases:      aliases,
		Engine:       engine,
		Auditor:      auditor,
		Cache:        tieredCache,
		Hub:          hub,
		TTL:          cfg.CacheTTL,
		Logger:       log.Logger,
	})
	if err := orchestrator.StartAutoSync(cfg.SyncIntervalMinutes); err != nil {
		log.Fatal().Err(err).Msg("failed to start auto sync")
	}

	// Create API handlers
	dashboardHandler := api.NewDashboardHandler(tieredCache, orchestrator, src, log.Logger)
	qualityHandler := api.NewQualityHandler(tieredCache, log.Logger)
	syncHandler := api.NewSyncHandler(orchestrator, log.Logger)
	configHandler := api.NewConfigHandler(engine, log.Logger)
	rowsHandler := api.NewRowsHandler(orchestrator, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Internal routes (no auth - for internal exporters)
	r.Route("/internal", func(r chi.Router) {
		r.Post("/rows", rowsHandler.HandleRows)
		r.Get("/rows/stats", rowsHandler.GetStats)
	})

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Get("/dashboard", dashboardHandler.GetDashboard)
			r.Get("/sources", dashboardHandler.ListSources)
			r.Get("/quality", qualityHandler.GetQuality)
			r.Get("/sync/status", syncHandler.GetStatus)
			r.Get("/config/kpi", configHandler.GetKPIConfig)

			r.Group(func(r chi.Router) {
				r.Use(api.RequireSupervisorOrAdmin)
				r.Post("/sync", syncHandler.TriggerSync)
				r.Put("/config/kpi", configHandler.UpdateKPIConfig)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop scheduled syncs and background services
	orchestrator.StopAutoSync()
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"dialboard-backend"}`)
}

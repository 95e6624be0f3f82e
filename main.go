package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"quad-image/internal/database"
	"quad-image/internal/filesystem"
	"quad-image/internal/gallery"
	"quad-image/internal/handlers"
	"quad-image/internal/logging"
	"quad-image/internal/memory"
	"quad-image/internal/metrics"
	"quad-image/internal/middleware"
	"quad-image/internal/startup"
	"quad-image/internal/thumbs"
	"quad-image/internal/workers"
)

func main() {
	startTime := time.Now()

	startup.LoadEnvFile()
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	secret, err := startup.LoadSecret(config.SecretPath)
	if err != nil {
		startup.LogFatal("Failed to load server secret: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	writer, err := filesystem.NewWriter(config.DataDir)
	if err != nil {
		startup.LogFatal("Failed to prepare image directory: %v", err)
	}

	thumbWorkers := workers.ForCPU(0)
	thumbGen := thumbs.NewGenerator(writer, thumbWorkers)
	startup.LogThumbnailInit(config.ThumbnailInterval, thumbWorkers)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	scheduler, err := startScheduler(sweepCtx, thumbGen, db, config.ThumbnailInterval)
	if err != nil {
		startup.LogFatal("Failed to schedule background jobs: %v", err)
	}

	h := handlers.New(db, writer, thumbGen, gallery.NewService(db, secret), config)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogImageRequests, config.LogHealthChecks)

	srv := &http.Server{
		Addr:         config.BindAddr,
		Handler:      buildHandler(router, config),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort, h)
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go handleShutdown(done, srv, metricsSrv, func() {
		cancelSweep()
		<-scheduler.Stop().Done()
	}, db)

	startup.LogServerStarted(startup.ServerConfig{
		BindAddr:        config.BindAddr,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	// API routes sit on the root router so a method mismatch answers 405
	r.HandleFunc("/api/upload", h.Upload).Methods(http.MethodPost).Name("upload")
	r.HandleFunc("/api/gallery", h.PutGallery).Methods(http.MethodPost, http.MethodPut).Name("gallery-put")
	r.HandleFunc("/api/gallery/{public}", h.GetGallery).Methods(http.MethodGet).Name("gallery-get")

	// Stored images and thumbnails
	r.HandleFunc("/e/{name}", h.GetImage).Methods(http.MethodGet, http.MethodHead).Name("image")

	return r
}

// buildHandler wraps the router in the middleware stack, outermost first:
// request id, access log, metrics, then CORS when origins are configured.
func buildHandler(router http.Handler, config *startup.Config) http.Handler {
	handler := router
	if len(config.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: config.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{"Location", middleware.RequestIDHeader},
			MaxAge:         300,
		}).Handler(handler)
	}

	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogImageRequests = config.LogImageRequests
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig, nil)(handler)

	return middleware.RequestID()(handler)
}

func startMetricsServer(port string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()

	return srv
}

func handleShutdown(done chan<- struct{}, srv, metricsSrv *http.Server, stopJobs func(), db *database.Database) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping background jobs")
	stopJobs()
	startup.LogShutdownStepComplete("Background jobs stopped")

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}

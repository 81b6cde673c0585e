package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/catalog-admin/internal"
	"github.com/DukeRupert/catalog-admin/internal/api"
	"github.com/DukeRupert/catalog-admin/internal/csrf"
	"github.com/DukeRupert/catalog-admin/internal/handler"
	"github.com/DukeRupert/catalog-admin/internal/metrics"
	"github.com/DukeRupert/catalog-admin/internal/middleware"
	"github.com/DukeRupert/catalog-admin/internal/service"
	"github.com/DukeRupert/catalog-admin/internal/session"
	"github.com/DukeRupert/catalog-admin/internal/validation"
	"github.com/DukeRupert/catalog-admin/web"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	isDev := cfg.IsDevelopment()

	// Backend client
	client, err := api.New(api.Config{
		BaseURL:        cfg.APIBaseURL,
		Token:          cfg.APIToken,
		Timeout:        cfg.APITimeout,
		MaxRetries:     cfg.APIMaxRetries,
		RetryBaseDelay: cfg.APIRetryBaseDelay,
		RateLimit:      cfg.APIRateLimit,
		RateBurst:      cfg.APIRateBurst,
	}, logger)
	if err != nil {
		return fmt.Errorf("api client initialization failed: %w", err)
	}

	catalog := service.NewCatalog(client, service.CatalogConfig{
		PageSize:  cfg.PageSize,
		Validator: validation.New(),
	}, logger)
	defer catalog.Close()

	// Templates are read from disk in development so edits show up on reload.
	var renderer *handler.Renderer
	if isDev {
		renderer, err = handler.NewRenderer(handler.RendererConfig{
			TemplatesDir: "web/templates",
			Logger:       logger,
			IsDev:        true,
		})
	} else {
		var templates fs.FS
		templates, err = fs.Sub(web.Templates, "templates")
		if err == nil {
			renderer, err = handler.NewRendererFromFS(templates, logger)
		}
	}
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "templates", renderer.Names())

	sessions := session.New(!isDev)

	// Initialize middleware
	adminAuth := middleware.NewAdminAuthMiddleware(cfg.AdminUsername, cfg.AdminPassword, logger)
	if !adminAuth.Enabled() {
		logger.Warn("ADMIN_USERNAME is not set, dashboard is unprotected")
	}
	mutationLimiter := middleware.NewRateLimiter(cfg.MutationRateLimit, cfg.MutationRateWindow, logger)
	defer mutationLimiter.Close()
	mutationLimit := middleware.NewMutationLimitMiddleware(mutationLimiter, logger)
	protect := func(h http.Handler) http.Handler {
		return middleware.Chain(h, mutationLimit.Limit, csrf.Protect(logger))
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Metrics
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	handler.RegisterCatalog(mux, catalog, handler.Deps{
		Renderer:      renderer,
		Notifier:      handler.NewNotifier(sessions),
		Images:        service.NewImagePreparer(service.ImagePrepConfig{MaxBytes: cfg.MaxUploadBytes, MaxDimension: cfg.MaxImageDimension}, logger),
		MaxUpload:     cfg.MaxUploadBytes,
		Logger:        logger,
		SecureCookies: !isDev,
	}, protect)

	// Outermost first: the logger sees the request ID and the acting admin.
	root := middleware.Chain(mux,
		middleware.RequestID,
		middleware.NewSecurityHeadersMiddleware(!isDev).Handler,
		adminAuth.Handler,
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		metrics.Middleware,
		sessions.LoadAndSave,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "api", cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

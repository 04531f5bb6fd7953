// promptrelay - HTTP relay that drives a chat web page in a local browser.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ashureev/promptrelay/internal/api"
	"github.com/ashureev/promptrelay/internal/automation"
	"github.com/ashureev/promptrelay/internal/browser"
	"github.com/ashureev/promptrelay/internal/config"
	"github.com/ashureev/promptrelay/internal/metrics"
	"github.com/ashureev/promptrelay/internal/middleware"
	"github.com/ashureev/promptrelay/web"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level.Set(cfg.LogLevel)

	slog.Info("Starting server",
		"port", cfg.Port,
		"target", cfg.TargetURL,
		"profile_dir", cfg.Browser.ProfileDir,
		"profile", cfg.Browser.ProfileName,
		"visible", cfg.Browser.Visible)

	// Initialize dependencies.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	launcher := browser.NewLauncher(cfg.BrowserOptions(), logger)
	runner := automation.NewRunner(cfg.Automation(), launcher, recorder, logger)

	// Initialize handlers.
	baseHandler := api.NewHandler(runner, api.Options{
		TargetURL:        cfg.TargetURL,
		ProfileName:      cfg.Browser.ProfileName,
		MaxBodyBytes:     cfg.MaxBodyBytes,
		RunsPerMinute:    cfg.RunsPerMinute,
		AllowedOrigins:   cfg.AllowedOrigins,
		Input:            cfg.Selectors.Input,
		SendButtons:      cfg.Selectors.SendButtons,
		Messages:         cfg.Selectors.Messages,
		ExtractMinLength: cfg.Timing.ExtractMinLength,
	}, logger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	api.NewRunHandler(baseHandler).RegisterRoutes(r)
	api.NewInspectHandler(baseHandler).RegisterRoutes(r)
	api.NewStreamHandler(baseHandler).RegisterRoutes(r)
	r.Handle("/metrics", recorder.Handler())

	// Operator console.
	r.Handle("/*", web.Console{
		TargetURL:   cfg.TargetURL,
		ProfileName: cfg.Browser.ProfileName,
	}.Handler())

	// Runs block for minutes while the reply streams, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	// An in-flight run still owns a browser; let it finish and tear down.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if err := runner.Drain(shutdownCtx); err != nil {
		slog.Error("Run still in progress at shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// shutdownTimeout covers a full run plus browser teardown.
func shutdownTimeout(cfg *config.Config) time.Duration {
	return cfg.RunBudget() + 10*time.Second
}

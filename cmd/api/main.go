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

	httpadapter "github.com/kirillkom/civic-issues/internal/adapters/http"
	"github.com/kirillkom/civic-issues/internal/bootstrap"
	"github.com/kirillkom/civic-issues/internal/config"
	"github.com/kirillkom/civic-issues/internal/observability/logging"
	"github.com/kirillkom/civic-issues/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:    "api",
		Registerer: httpMetrics.Registry(),
		Sessions:   true,
		Queue:      true,
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(httpadapter.Dependencies{
		Auth:       app.Auth,
		Users:      app.Users,
		Issues:     app.Issues,
		IssueTypes: app.IssueTypes,
		Uploader:   app.Uploader,
		Stats:      app.Stats,
		Map:        app.Map,
		Media:      app.Media,
		Metrics:    httpMetrics,
	}, httpadapter.Options{
		SessionCookieName:   cfg.SessionCookieName,
		SessionCookieSecure: cfg.SessionCookieSecure,
		SessionTTL:          cfg.SessionTTL,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		LoginRateLimitRPS:   cfg.LoginRateLimitRPS,
		LoginRateLimitBurst: cfg.LoginRateLimitBurst,
	}).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		// Batch uploads call the vision model once per image.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "addr", server.Addr, "storage_backend", cfg.StorageBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kachastepien/Backoffice/internal/adapters/http"
	"github.com/kachastepien/Backoffice/internal/bootstrap"
	"github.com/kachastepien/Backoffice/internal/config"
	"github.com/kachastepien/Backoffice/internal/observability/logging"
)

// newHTTPServer leaves WriteTimeout unset: the analysis event stream stays
// open for the whole pipeline run, and a write deadline would cut it off
// mid-stream. Per-run duration is bounded by PIPELINE_TIMEOUT instead.
func newHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        ":" + port,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := logging.New("backoffice-api", cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}

	router := httpadapter.NewRouter(
		app.AnalyzeUC,
		app.PrefillUC,
		app.ConsultUC,
		app.ExportUC,
		app.States,
		app.Repo,
		app.Metrics,
		logger,
		httpadapter.Options{
			RateLimitRPS:    cfg.RateLimitRPS,
			RateLimitBurst:  cfg.RateLimitBurst,
			MaxConcurrent:   cfg.MaxConcurrent,
			QueueWait:       cfg.QueueWait,
			PipelineTimeout: cfg.PipelineTimeout,
		},
	).Handler()

	server := newHTTPServer(cfg.APIPort, router)

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/linkpeek/api"
	"github.com/use-agent/linkpeek/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the preview extraction API server",
	Long: `Serve exposes the same two-tier pipeline over HTTP:

  GET  /api/v1/health
  POST /api/v1/preview   {"url": "https://example.com"}
  POST /api/v1/previews  {"urls": ["https://a.example", "https://b.example"]}
  GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	initLogger(cfg.Log)

	orch, session := buildPipeline(cfg)
	defer orch.Close()

	router := api.NewRouter(orch, session, orch.Metrics(), cfg, time.Now())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// orch.Close() runs via defer and kills the browser if one launched.
	return nil
}

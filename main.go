package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vrsandeep/xwc-settings/internal/api"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"github.com/vrsandeep/xwc-settings/internal/core"
	"github.com/vrsandeep/xwc-settings/internal/jobs"
	"github.com/vrsandeep/xwc-settings/internal/logger"
	"github.com/vrsandeep/xwc-settings/internal/watcher"
	"gitlab.com/tozd/go/errors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadFile(os.Getenv("XWC_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, os.Stdout)
	logger.SetGlobal(log)

	// Initialize the core application components
	app, err := core.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error during application setup")
	}
	defer app.Close()
	app.Version = version

	go app.WsHub().Run()

	scheduler := jobs.StartJobs(app, log)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	if cfg.Settings.Watch && cfg.Database.Driver == "sqlite" {
		w := watcher.NewService(app, cfg.Database.Path, log)
		if err := w.Start(); err != nil {
			log.Warn().Err(err).Msg("Database watcher not started")
		} else {
			defer w.Stop()
		}
	}

	// Setup the API server
	server := api.NewServer(app)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("version", version).Msg("Starting web server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Could not start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.JobManager().Wait()

	log.Info().Msg("Server exiting.")
}

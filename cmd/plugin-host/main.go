package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/plugin-host/internal/api"
	"github.com/vrsandeep/plugin-host/internal/core"
	"github.com/vrsandeep/plugin-host/internal/jobs"
	"github.com/vrsandeep/plugin-host/internal/util"
	"github.com/vrsandeep/plugin-host/internal/watcher"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	// Initialize the core application components
	app, err := core.New(*configPath)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()
	app.Version = version

	cfg := app.Config()
	log.WithFields(log.Fields{
		"sdk_version": cfg.Host.SDKVersion,
		"plugins":     cfg.Plugins.Path,
	}).Info("Starting plugin host")

	// Initial scan runs in the foreground so the API starts with a populated registry.
	if _, err := app.Registry().Scan(context.Background()); err != nil {
		log.Errorf("Initial plugin scan failed: %v", err)
	}

	scheduler := jobs.StartJobs(app)
	defer scheduler.Stop()

	if cfg.Plugins.Watch {
		if err := util.EnsureDirectory(cfg.Plugins.Path); err != nil {
			log.Fatalf("Could not create plugins directory: %v", err)
		}
		w := watcher.New(cfg.Plugins.Path, watcher.DefaultDebounce, func(changed []string) {
			log.WithField("dirs", changed).Info("Plugin directories changed, rescanning")
			if err := app.JobManager().RunJob(jobs.PluginScanJobID, app); err != nil {
				// Another job holds the manager; scans serialize inside the registry.
				if _, err := app.Registry().Scan(context.Background()); err != nil {
					log.Errorf("Rescan after file change failed: %v", err)
				}
			}
		})
		if err := w.Start(); err != nil {
			log.Errorf("Failed to start plugin watcher: %v", err)
		} else {
			defer w.Stop()
		}
	}

	// Setup the API server
	server := api.NewServer(app)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Router(),
	}

	// --- Graceful Shutdown ---
	go func() {
		log.Infof("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exiting.")
}

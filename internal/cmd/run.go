// Package cmd wires the NIM proxy's components together and runs the service.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimroute/nim-proxy/internal/api"
	"github.com/nimroute/nim-proxy/internal/api/handlers"
	"github.com/nimroute/nim-proxy/internal/client"
	"github.com/nimroute/nim-proxy/internal/config"
	"github.com/nimroute/nim-proxy/internal/metrics"
	"github.com/nimroute/nim-proxy/internal/registry"
	"github.com/nimroute/nim-proxy/internal/watcher"
	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds how long in-flight requests may take to drain.
const shutdownTimeout = 30 * time.Second

// StartService builds the registry, upstream client, metrics, and API
// server, optionally starts the config file watcher, and blocks until a
// termination signal arrives.
func StartService(cfg *config.Config, configPath string) {
	modelRegistry := registry.NewModelRegistry(cfg)
	nimClient := client.NewNIMClient(cfg)
	collector := metrics.NewCollector()

	base := handlers.NewBaseAPIHandler(cfg, nimClient, modelRegistry, collector)
	apiServer := api.NewServer(cfg, base)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-reload the model mapping table when a config file is in use.
	if configPath != "" {
		configWatcher, errWatcher := watcher.NewWatcher(configPath, apiServer.UpdateConfig)
		if errWatcher != nil {
			log.Fatalf("failed to create config watcher: %v", errWatcher)
		}
		if errStart := configWatcher.Start(ctx); errStart != nil {
			log.Fatalf("failed to start config watcher: %v", errStart)
		}
		defer func() {
			_ = configWatcher.Stop()
		}()
	}

	go func() {
		log.Infof("Starting NIM proxy on port %d (%d model mappings)", cfg.Port, len(cfg.Models))
		if err := apiServer.Start(); err != nil {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Debugf("Received shutdown signal. Cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Errorf("error stopping API server: %v", err)
	}

	log.Debugf("Cleanup completed. Exiting...")
}

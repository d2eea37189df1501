// Package watcher provides file system monitoring for the NIM proxy's
// configuration file. When the file changes, the configuration is reloaded
// and handed to a callback so the running server can swap in the new model
// mapping table without a restart.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/nimroute/nim-proxy/internal/config"
	log "github.com/sirupsen/logrus"
)

// Watcher manages file watching for the configuration file.
type Watcher struct {
	configPath     string
	reloadCallback func(*config.Config)
	watcher        *fsnotify.Watcher

	mu             sync.Mutex
	lastConfigHash string
}

// NewWatcher creates a new file watcher for the given config path. The
// callback receives each successfully reloaded configuration.
func NewWatcher(configPath string, reloadCallback func(*config.Config)) (*Watcher, error) {
	watcher, errNewWatcher := fsnotify.NewWatcher()
	if errNewWatcher != nil {
		return nil, errNewWatcher
	}

	return &Watcher{
		configPath:     configPath,
		reloadCallback: reloadCallback,
		watcher:        watcher,
	}, nil
}

// Start begins watching the configuration file and processes events until
// the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if errAdd := w.watcher.Add(w.configPath); errAdd != nil {
		log.Errorf("failed to watch config file %s: %v", w.configPath, errAdd)
		return errAdd
	}
	log.Debugf("watching config file: %s", w.configPath)

	go w.processEvents(ctx)

	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles file system events.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case errWatch, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("file watcher error: %v", errWatch)
		}
	}
}

// handleEvent processes a single file system event. Writes are deduplicated
// by content hash, so editors that fire multiple events per save trigger one
// reload.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Name != w.configPath || (event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create) {
		return
	}

	data, err := os.ReadFile(w.configPath)
	if err != nil {
		log.Errorf("failed to read config file for hash check: %v", err)
		return
	}
	if len(data) == 0 {
		log.Debugf("ignoring empty config file write event")
		return
	}
	sum := sha256.Sum256(data)
	newHash := hex.EncodeToString(sum[:])

	w.mu.Lock()
	unchanged := w.lastConfigHash != "" && w.lastConfigHash == newHash
	w.mu.Unlock()
	if unchanged {
		log.Debugf("config file content unchanged (hash match), skipping reload")
		return
	}

	log.Infof("config file changed, reloading: %s", w.configPath)
	if w.reloadConfig() {
		w.mu.Lock()
		w.lastConfigHash = newHash
		w.mu.Unlock()
	}
}

// reloadConfig reloads the configuration and invokes the callback.
func (w *Watcher) reloadConfig() bool {
	newConfig, errLoadConfig := config.LoadConfig(w.configPath)
	if errLoadConfig != nil {
		log.Errorf("failed to reload config: %v", errLoadConfig)
		return false
	}

	if w.reloadCallback != nil {
		w.reloadCallback(newConfig)
	}
	return true
}

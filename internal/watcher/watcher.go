// Package watcher watches the configuration file and triggers hot reloads.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/config"
)

const configReloadDebounce = 150 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk and hands the new value to
// the reload callback. Unchanged content and invalid files are ignored.
type Watcher struct {
	configPath        string
	reloadCallback    func(old, updated *config.Config)
	watcher           *fsnotify.Watcher
	mu                sync.RWMutex
	config            *config.Config
	lastConfigHash    string
	configReloadMu    sync.Mutex
	configReloadTimer *time.Timer
}

// NewWatcher creates a watcher for configPath. reloadCallback receives the previous and the
// freshly loaded configuration.
func NewWatcher(configPath string, reloadCallback func(old, updated *config.Config)) (*Watcher, error) {
	if strings.TrimSpace(configPath) == "" {
		return nil, fmt.Errorf("watcher: config path is empty")
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve config path: %w", err)
	}
	fw, errNewWatcher := fsnotify.NewWatcher()
	if errNewWatcher != nil {
		return nil, fmt.Errorf("watcher: %w", errNewWatcher)
	}
	return &Watcher{
		configPath:     abs,
		reloadCallback: reloadCallback,
		watcher:        fw,
	}, nil
}

// SetConfig records the configuration currently in effect.
func (w *Watcher) SetConfig(cfg *config.Config) {
	w.mu.Lock()
	w.config = cfg
	w.mu.Unlock()
	if hash, err := hashFile(w.configPath); err == nil {
		w.mu.Lock()
		w.lastConfigHash = hash
		w.mu.Unlock()
	}
}

// Config returns the configuration currently in effect.
func (w *Watcher) Config() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Start watches the directory holding the config file so that editors replacing the file
// through rename are noticed too. Events are processed until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watcher: watch %s: %w", dir, err)
	}
	log.Debugf("watching config file: %s", w.configPath)
	go w.processEvents(ctx)
	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	w.stopConfigReloadTimer()
	return w.watcher.Close()
}

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

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if normalizePath(event.Name) != normalizePath(w.configPath) {
		return
	}
	log.Debugf("config file event: %s %s", event.Op, event.Name)
	w.scheduleConfigReload()
}

func normalizePath(path string) string {
	cleaned := filepath.Clean(path)
	if abs, err := filepath.Abs(cleaned); err == nil {
		cleaned = abs
	}
	if runtime.GOOS == "windows" {
		cleaned = strings.ToLower(cleaned)
	}
	return cleaned
}

package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/config"
)

func (w *Watcher) stopConfigReloadTimer() {
	w.configReloadMu.Lock()
	if w.configReloadTimer != nil {
		w.configReloadTimer.Stop()
		w.configReloadTimer = nil
	}
	w.configReloadMu.Unlock()
}

func (w *Watcher) scheduleConfigReload() {
	w.configReloadMu.Lock()
	defer w.configReloadMu.Unlock()
	if w.configReloadTimer != nil {
		w.configReloadTimer.Stop()
	}
	w.configReloadTimer = time.AfterFunc(configReloadDebounce, func() {
		w.configReloadMu.Lock()
		w.configReloadTimer = nil
		w.configReloadMu.Unlock()
		w.reloadConfigIfChanged()
	})
}

func (w *Watcher) reloadConfigIfChanged() {
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

	w.mu.RLock()
	currentHash := w.lastConfigHash
	w.mu.RUnlock()
	if currentHash == newHash {
		log.Debugf("config file content unchanged (hash match), skipping reload")
		return
	}

	newConfig, errLoad := config.LoadConfig(w.configPath)
	if errLoad != nil {
		log.Errorf("failed to reload config: %v", errLoad)
		return
	}

	w.mu.Lock()
	oldConfig := w.config
	w.config = newConfig
	w.lastConfigHash = newHash
	w.mu.Unlock()

	for _, change := range describeChanges(oldConfig, newConfig) {
		log.Debugf("config change: %s", change)
	}
	log.Infof("config successfully reloaded: %s", w.configPath)
	if w.reloadCallback != nil {
		w.reloadCallback(oldConfig, newConfig)
	}
}

// describeChanges lists the reloadable settings that differ between old and updated.
func describeChanges(old, updated *config.Config) []string {
	if old == nil || updated == nil {
		return nil
	}
	var changes []string
	if old.Debug != updated.Debug {
		changes = append(changes, fmt.Sprintf("debug: %t -> %t", old.Debug, updated.Debug))
	}
	if old.Fixture.Total != updated.Fixture.Total {
		changes = append(changes, fmt.Sprintf("fixture.total: %d -> %d", old.Fixture.Total, updated.Fixture.Total))
	}
	if old.BaseURL != updated.BaseURL {
		changes = append(changes, fmt.Sprintf("base-url: %s -> %s", old.BaseURL, updated.BaseURL))
	}
	if old.TimeoutMS != updated.TimeoutMS {
		changes = append(changes, fmt.Sprintf("timeout-ms: %d -> %d", old.TimeoutMS, updated.TimeoutMS))
	}
	if old.LoggingToFile != updated.LoggingToFile {
		changes = append(changes, fmt.Sprintf("logging-to-file: %t -> %t", old.LoggingToFile, updated.LoggingToFile))
	}
	return changes
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

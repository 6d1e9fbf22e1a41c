package watcher

import (
	"os"

	"github.com/raoulx24/framesync/internal/config"
)

// prime records the current modification time without reloading.
func (w *Watcher) prime() {
	w.mu.RLock()
	path := w.path
	w.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	w.lastModTime = info.ModTime()
	w.mu.Unlock()
}

// detect reloads the config if the file changed since the last reload.
// It reports whether OnChange was called.
func (w *Watcher) detect() bool {
	w.mu.RLock()
	path := w.path
	last := w.lastModTime
	w.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		w.log.Debug("watcher: stat failed", "path", path, "error", err)
		return false
	}

	mod := info.ModTime()
	if !mod.After(last) {
		return false
	}

	// The mod time is recorded even when the load fails, so a broken file
	// is reported once rather than on every poll.
	w.mu.Lock()
	w.lastModTime = mod
	w.mu.Unlock()

	cfg, err := config.Load(path)
	if err != nil {
		w.log.Error("watcher: reload failed, keeping current config", "path", path, "error", err)
		return false
	}

	w.log.Info("watcher: config reloaded", "path", path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
	return true
}

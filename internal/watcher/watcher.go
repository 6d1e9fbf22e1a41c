// Package watcher reloads the configuration file when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/framesync/internal/config"
	"github.com/raoulx24/framesync/internal/fsprobe"
	"github.com/raoulx24/framesync/internal/logging"
)

// Method names accepted in configReload.method.
const (
	MethodAuto     = "auto"
	MethodPoll     = "poll"
	MethodFsnotify = "fsnotify"
)

// probeTimeout bounds how long auto mode waits for a test event.
const probeTimeout = 200 * time.Millisecond

// OnChange receives a freshly loaded configuration.
type OnChange func(cfg *config.Config)

// Watcher observes the configuration file and calls OnChange with the
// reloaded config after it is modified.
type Watcher struct {
	mu sync.RWMutex

	path     string
	interval time.Duration
	method   string
	debounce time.Duration

	log logging.Logger

	lastModTime time.Time

	onChange OnChange
}

// New creates a watcher for the config file at path.
func New(path string, cfg config.ReloadConfig, log logging.Logger, onChange OnChange) *Watcher {
	if log == nil {
		log = logging.Null()
	}
	return &Watcher{
		path:     path,
		interval: cfg.PollInterval,
		method:   cfg.Method,
		debounce: cfg.DebounceWindow,
		log:      log,
		onChange: onChange,
	}
}

// Start chooses the watching strategy from the config and blocks until ctx
// is done.
func (w *Watcher) Start(ctx context.Context) error {
	// The current file is the baseline; only later edits trigger a reload.
	w.prime()

	w.mu.RLock()
	method := w.method
	dir := filepath.Dir(w.path)
	w.mu.RUnlock()

	switch method {
	case MethodFsnotify:
		return w.StartFsNotify(ctx)

	case MethodPoll:
		w.StartPolling(ctx)
		return nil

	case MethodAuto, "":
		res := fsprobe.Probe(dir, probeTimeout)
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("watcher: fsnotify disabled, polling instead", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("watcher: unknown method %q", method)
	}
}

// UpdateConfig updates the reload settings for hot-reload. A change of
// method takes effect on the next Start.
func (w *Watcher) UpdateConfig(cfg config.ReloadConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.interval = cfg.PollInterval
	w.method = cfg.Method
	w.debounce = cfg.DebounceWindow
}

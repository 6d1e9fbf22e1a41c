// Package worker imports asset files into a versioned library on background
// goroutines, driven through the job coordinator.
package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/framesync/internal/asset"
	"github.com/raoulx24/framesync/internal/config"
	"github.com/raoulx24/framesync/internal/fs"
	"github.com/raoulx24/framesync/internal/job"
	"github.com/raoulx24/framesync/internal/logging"
	"github.com/raoulx24/framesync/internal/retention"
)

// ErrCancelled is returned by an import that stopped on a cancel request.
var ErrCancelled = errors.New("import cancelled")

// Progress milestones. Copying covers everything up to copyDone.
const (
	copyDone     = 0.9
	finalizeDone = 0.95
)

// Result describes a finished import.
type Result struct {
	Asset   string
	Version asset.Version
	Source  asset.Artifact
	Pruned  []asset.Version
}

// Importer copies assets into destination folders and applies retention.
type Importer struct {
	mu        sync.RWMutex
	dest      config.ImportConfig
	fs        fs.FS
	log       logging.Logger
	retention *retention.Engine
	tasks     *Tasks
	now       func() time.Time
}

var _ job.Worker[Result] = (*Importer)(nil)

// New creates an importer using the import config.
func New(dest config.ImportConfig, log logging.Logger, r *retention.Engine, filesystem fs.FS) *Importer {
	log.Debug("creating importer")
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Importer{
		dest:      dest,
		fs:        filesystem,
		log:       log,
		retention: r,
		tasks:     NewTasks(),
		now:       time.Now,
	}
}

// Start imports target on a background goroutine.
func (w *Importer) Start(target string, cb job.Callbacks[Result]) (job.Handle, error) {
	h := w.tasks.Go(func(ctx context.Context) {
		res, err := w.Handle(ctx, target, cb)
		if err != nil {
			w.log.Error("importer: import failed", "target", target, "error", err)
		}
		cb.Complete(res, err)
	})
	return h, nil
}

// Cancel stops the import behind h.
func (w *Importer) Cancel(h job.Handle) {
	if !w.tasks.Cancel(h) {
		w.log.Debug("importer: cancel for finished task", "handle", h)
	}
}

// Close cancels running imports and waits for them.
func (w *Importer) Close() {
	if n := w.tasks.Len(); n > 0 {
		w.log.Info("importer: cancelling running tasks", "count", n)
	}
	w.tasks.Close()
}

// UpdateConfig hot-reloads destination settings.
func (w *Importer) UpdateConfig(dest config.ImportConfig) {
	w.log.Debug("entering Importer.UpdateConfig()")
	w.mu.Lock()
	w.dest = dest
	w.mu.Unlock()

	w.retention.UpdateConfig(dest.KeepVersions)
}

// Handle imports target into a new version directory and applies retention.
func (w *Importer) Handle(ctx context.Context, target string, cb job.Callbacks[Result]) (Result, error) {
	w.log.Debug("entering Importer.Handle()", "target", target)

	cb.Mark("stat", true)
	info, err := w.fs.Stat(target)
	cb.Mark("stat", false)
	if err != nil {
		return Result{}, fmt.Errorf("reading source: %w", err)
	}
	if info.IsDir {
		return Result{}, fmt.Errorf("source %s is a directory", target)
	}

	res := Result{
		Asset:  asset.Name(target),
		Source: asset.FromFileInfo(info),
	}

	if cb.Cancelled() {
		return res, ErrCancelled
	}

	res.Version, err = w.writeVersion(ctx, target, res, cb)
	if err != nil {
		return res, err
	}

	cb.Mark("prune", true)
	res.Pruned, err = w.retention.Apply(ctx, filepath.Dir(res.Version.Dir))
	cb.Mark("prune", false)
	if err != nil {
		// the import itself succeeded
		w.log.Error("importer: retention failed", "asset", res.Asset, "error", err)
	}

	cb.Progress(1, "done")
	return res, nil
}

// writeVersion copies the source into an atomic version directory.
func (w *Importer) writeVersion(ctx context.Context, target string, res Result, cb job.Callbacks[Result]) (asset.Version, error) {
	w.mu.RLock()
	dest := w.dest
	w.mu.RUnlock()

	at := w.now().UTC().Truncate(time.Millisecond)
	root := filepath.Join(dest.Root, res.Asset)
	name := asset.VersionName(at)
	tmpDir := filepath.Join(root, ".tmp-"+name)
	finalDir := filepath.Join(root, name)
	w.log.Debug("new destinations", "tmpDir", tmpDir, "finalDir", finalDir)

	if err := w.fs.MkdirAll(tmpDir); err != nil {
		return asset.Version{}, fmt.Errorf("creating tmp dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cb.Mark("copy", true)
	err := w.fs.CopyFile(ctx, target, filepath.Join(tmpDir, res.Source.Name), func(done, total int64) {
		if cb.Cancelled() {
			cancel()
			return
		}
		if total > 0 {
			cb.Progress(copyDone*float64(done)/float64(total), "copying")
		}
	})
	cb.Mark("copy", false)
	if err != nil {
		_ = w.fs.RemoveAll(tmpDir)
		if errors.Is(err, context.Canceled) {
			return asset.Version{}, ErrCancelled
		}
		return asset.Version{}, fmt.Errorf("copying %s: %w", res.Source.Name, err)
	}
	cb.Progress(copyDone, "copied")

	// Finalize atomically
	cb.Mark("finalize", true)
	err = w.fs.Rename(ctx, tmpDir, finalDir)
	cb.Mark("finalize", false)
	if err != nil {
		_ = w.fs.RemoveAll(tmpDir)
		return asset.Version{}, fmt.Errorf("finalizing import: %w", err)
	}
	cb.Progress(finalizeDone, "finalized")

	return asset.Version{Asset: res.Asset, Dir: finalDir, Timestamp: at}, nil
}

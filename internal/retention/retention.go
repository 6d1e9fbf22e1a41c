// Package retention prunes old versions of imported assets.
package retention

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/raoulx24/framesync/internal/asset"
	"github.com/raoulx24/framesync/internal/fs"
	"github.com/raoulx24/framesync/internal/logging"
)

type Engine struct {
	mu   sync.RWMutex
	keep int

	fs  fs.FS
	log logging.Logger
}

// New returns an engine keeping the newest keep versions per asset. A keep
// of zero disables pruning.
func New(keep int, filesystem fs.FS, log logging.Logger) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Engine{
		keep: keep,
		fs:   filesystem,
		log:  log,
	}
}

// UpdateConfig hot-reloads the number of versions to keep.
func (e *Engine) UpdateConfig(keep int) {
	e.mu.Lock()
	e.keep = keep
	e.mu.Unlock()
}

// Apply removes all but the newest versions in assetDir and returns the
// removed versions.
func (e *Engine) Apply(ctx context.Context, assetDir string) ([]asset.Version, error) {
	e.mu.RLock()
	keep := e.keep
	e.mu.RUnlock()

	if keep <= 0 {
		return nil, nil
	}

	versions, err := e.scan(assetDir)
	if err != nil {
		return nil, err
	}
	if len(versions) <= keep {
		return nil, nil
	}

	// Sort newest → oldest
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Timestamp.After(versions[j].Timestamp)
	})

	var removed []asset.Version
	for _, v := range versions[keep:] {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := e.fs.RemoveAll(v.Dir); err != nil {
			e.log.Error("retention: removing version failed", "dir", v.Dir, "error", err)
			continue
		}
		removed = append(removed, v)
	}

	return removed, nil
}

// scan finds version directories in an asset folder.
func (e *Engine) scan(assetDir string) ([]asset.Version, error) {
	entries, err := e.fs.ReadDir(assetDir)
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}

	name := filepath.Base(assetDir)

	var versions []asset.Version
	for _, ent := range entries {
		if !ent.IsDir {
			continue
		}

		// temp dirs and foreign folders don't parse
		ts, ok := asset.ParseVersion(filepath.Base(ent.Path))
		if !ok {
			continue
		}

		versions = append(versions, asset.Version{
			Asset:     name,
			Dir:       ent.Path,
			Timestamp: ts,
		})
	}

	return versions, nil
}

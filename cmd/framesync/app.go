package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/raoulx24/framesync/internal/config"
	"github.com/raoulx24/framesync/internal/frame"
	"github.com/raoulx24/framesync/internal/fs"
	"github.com/raoulx24/framesync/internal/job"
	"github.com/raoulx24/framesync/internal/logging"
	"github.com/raoulx24/framesync/internal/panel"
	"github.com/raoulx24/framesync/internal/retention"
	"github.com/raoulx24/framesync/internal/scene"
	"github.com/raoulx24/framesync/internal/settings"
	"github.com/raoulx24/framesync/internal/worker"
)

// app holds the wired components shared by all commands.
type app struct {
	cfgPath string
	log     hclog.Logger

	store *settings.Store

	// ui is read by frame steps only; other goroutines build their own.
	ui       views
	viewport viewport

	importer *worker.Importer
	scenes   *scene.Loader

	imports *panel.JobPanel[worker.Result]
	loads   *panel.JobPanel[scene.Scene]

	loop *frame.Loop
}

// loadEnv loads the env file; a missing default file is not an error.
func loadEnv(cmd *cli.Command) error {
	path := cmd.String("env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !cmd.IsSet("env") {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func newApp(cmd *cli.Command) (*app, *config.Config, error) {
	if err := loadEnv(cmd); err != nil {
		return nil, nil, err
	}

	path := cmd.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	a, err := build(path, cfg, logging.New(cfg.Logging))
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

// build wires the components for cfg.
func build(path string, cfg *config.Config, log hclog.Logger) (*app, error) {
	store, err := settings.New(settings.FromConfig(cfg.Settings), log.Named("settings"))
	if err != nil {
		return nil, err
	}

	filesystem := fs.New()
	ret := retention.New(cfg.Import.KeepVersions, filesystem, log.Named("retention"))
	importer := worker.New(cfg.Import, log.Named("import"), ret, filesystem)
	scenes := scene.New(cfg.Scene, log.Named("scene"))

	a := &app{
		cfgPath:  path,
		log:      log,
		store:    store,
		ui:       newViews(store),
		importer: importer,
		scenes:   scenes,
		imports: panel.NewJobPanel("import",
			job.New[worker.Result](importer, log.Named("import.job")), log.Named("panel")),
		loads: panel.NewJobPanel("scene",
			job.New[scene.Scene](scenes, log.Named("scene.job")), log.Named("panel")),
		loop: frame.New(cfg.Frame, log.Named("frame")),
	}

	a.loop.Add("import", func(frame.Frame) { a.imports.Tick() })
	a.loop.Add("scene", func(frame.Frame) { a.loads.Tick() })
	a.loop.Add("viewport", func(frame.Frame) { a.updateViewport() })

	return a, nil
}

// applyConfig pushes a reloaded config into the running components. The
// settings block is written as one external mutation.
func (a *app) applyConfig(cfg *config.Config) {
	a.log.SetLevel(logging.Level(cfg.Logging))

	a.loop.UpdateConfig(cfg.Frame)
	a.importer.UpdateConfig(cfg.Import)
	a.scenes.UpdateConfig(cfg.Scene)

	next := settings.FromConfig(cfg.Settings)
	cur, e, err := a.store.Values()
	if err == nil && cur == next {
		a.log.Info("config applied, settings unchanged", "epoch", e)
		return
	}

	e, err = a.store.Apply(next)
	if err != nil {
		a.log.Error("applying settings failed", "error", err)
		return
	}
	a.log.Info("config applied", "epoch", e)
}

// views is one consumer's set of settings views. Each goroutine reading
// settings holds its own, so every cache is only touched by its owner.
type views struct {
	rendering   *panel.RenderingView
	lighting    *panel.LightingView
	grid        *panel.GridView
	postProcess *panel.PostProcessView
}

func newViews(s *settings.Store) views {
	return views{
		rendering:   panel.NewRenderingView(s),
		lighting:    panel.NewLightingView(s),
		grid:        panel.NewGridView(s),
		postProcess: panel.NewPostProcessView(s),
	}
}

// viewport is what the UI draws the editor viewport with.
type viewport struct {
	Epoch       uint64
	Wireframe   bool
	GridVisible bool
	GridSpacing float64
	Exposure    float64
}

// updateViewport refreshes the viewport from the UI views. Reads are served
// from the caches unless the settings moved since the last frame.
func (a *app) updateViewport() {
	stale := a.ui.rendering.Stale()

	a.viewport = viewport{
		Wireframe:   a.ui.rendering.Wireframe(),
		GridVisible: a.ui.grid.Visible(),
		GridSpacing: a.ui.grid.Spacing(),
		Exposure:    a.ui.postProcess.Exposure(),
		Epoch:       a.ui.rendering.Epoch(),
	}
	if stale {
		a.log.Debug("viewport: settings refreshed", "epoch", a.viewport.Epoch)
	}
}

func (a *app) close() {
	a.imports.Coordinator().RequestCancel()
	a.loads.Coordinator().RequestCancel()
	a.importer.Close()
	a.scenes.Close()
}

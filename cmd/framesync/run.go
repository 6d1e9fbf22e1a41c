package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/raoulx24/framesync/internal/config"
	"github.com/raoulx24/framesync/internal/frame"
	"github.com/raoulx24/framesync/internal/mailbox"
	"github.com/raoulx24/framesync/internal/schedule"
	"github.com/raoulx24/framesync/internal/watcher"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	a, cfg, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := schedule.New(cfg.Schedules, a.log.Named("schedule"))
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	for _, name := range cmd.StringSlice("trigger") {
		if !sched.Trigger(name) {
			return fmt.Errorf("run: unknown schedule rule %q", name)
		}
	}

	// Reloads from the watcher and SIGHUP are applied one at a time by a
	// single goroutine; a reload not yet applied is replaced by a newer one.
	reloads := mailbox.New[*config.Config]()

	var watch *watcher.Watcher
	if cfg.ConfigReload.Enabled {
		watch = watcher.New(a.cfgPath, cfg.ConfigReload, a.log.Named("watcher"), reloads.Put)
	}

	a.loop.Add("schedule", func(frame.Frame) { a.drainSchedule(sched) })

	var last string
	a.loop.Add("status", func(frame.Frame) {
		line := strings.Join([]string{a.imports.StatusLine(), a.loads.StatusLine()}, " | ")
		if line != last {
			a.log.Debug("status", "line", line)
			last = line
		}
	})

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if watch != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch.Start(ctx); err != nil {
				a.log.Error("config watcher stopped", "error", err)
			}
		}()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		a.reloadOnSignal(ctx, reloads.Put)
	}()
	go func() {
		defer wg.Done()
		a.applyReloads(ctx, reloads, sched, watch)
	}()
	go func() {
		defer wg.Done()
		a.renderThread(ctx)
	}()

	a.log.Info("running", "config", a.cfgPath, "interval", a.loop.Interval(), "rules", len(cfg.Schedules))

	err = a.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.log.Info("shutting down")
		return nil
	}
	return err
}

// drainSchedule starts at most one scheduled job per kind each frame. A
// request that finds its panel busy is dropped.
func (a *app) drainSchedule(s *schedule.Scheduler) {
	if req, ok := s.Next(config.KindImport); ok {
		a.imports.Request(req.Target)
	}
	if req, ok := s.Next(config.KindScene); ok {
		a.loads.Request(req.Target)
	}
}

// applyReloads applies reloaded configs until ctx is done.
func (a *app) applyReloads(ctx context.Context, reloads *mailbox.Mailbox[*config.Config], sched *schedule.Scheduler, watch *watcher.Watcher) {
	for {
		cfg, err := reloads.Take(ctx)
		if err != nil {
			return
		}

		a.applyConfig(cfg)
		if err := sched.UpdateConfig(cfg.Schedules); err != nil {
			a.log.Error("updating schedules failed", "error", err)
		}
		if watch != nil {
			watch.UpdateConfig(cfg.ConfigReload)
		}
	}
}

// reloadOnSignal reloads the config file on SIGHUP.
func (a *app) reloadOnSignal(ctx context.Context, apply func(*config.Config)) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				a.log.Error("config reload failed", "error", err)
				continue
			}
			apply(cfg)
		}
	}
}

// renderThread stands in for the render thread: it reads settings through
// its own views whenever the epoch moves.
func (a *app) renderThread(ctx context.Context) {
	log := a.log.Named("render")
	v := newViews(a.store)
	seen := a.store.Epoch()

	for {
		e, err := a.store.WaitForChange(ctx, seen)
		if err != nil {
			return
		}
		seen = e

		log.Info("settings changed",
			"epoch", e,
			"vsync", v.rendering.VSync(),
			"msaa", v.rendering.MSAA(),
			"scale", v.rendering.RenderScale(),
			"sun", v.lighting.SunIntensity(),
			"shadows", v.lighting.Shadows(),
			"grid", v.grid.Visible(),
			"exposure", v.postProcess.Exposure(),
			"tonemapper", v.postProcess.Tonemapper(),
		)
	}
}

// Package frame drives the per-frame update of the UI thread.
package frame

import (
	"context"
	"sync"
	"time"

	"github.com/raoulx24/framesync/internal/config"
	"github.com/raoulx24/framesync/internal/logging"
)

// Frame describes one tick of the loop.
type Frame struct {
	N     uint64
	At    time.Time
	Delta time.Duration
}

// Step is run once per frame, in registration order.
type Step func(Frame)

type step struct {
	name string
	fn   Step
}

// Loop runs registered steps on a fixed interval. All steps run on the
// goroutine that called Run.
type Loop struct {
	mu       sync.RWMutex
	interval time.Duration
	steps    []step

	log logging.Logger

	n    uint64
	last time.Time

	reset chan struct{}
}

// New creates a loop from the frame configuration.
func New(cfg config.FrameConfig, log logging.Logger) *Loop {
	if log == nil {
		log = logging.Null()
	}
	return &Loop{
		interval: cfg.Interval(),
		log:      log,
		reset:    make(chan struct{}, 1),
	}
}

// Add registers a step. Steps added while the loop runs take effect on the
// next frame.
func (l *Loop) Add(name string, fn Step) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.steps = append(l.steps, step{name: name, fn: fn})
}

// UpdateConfig changes the frame rate for hot-reload.
func (l *Loop) UpdateConfig(cfg config.FrameConfig) {
	l.mu.Lock()
	changed := cfg.Interval() != l.interval
	l.interval = cfg.Interval()
	l.mu.Unlock()

	if !changed {
		return
	}
	select {
	case l.reset <- struct{}{}:
	default:
	}
}

// Interval returns the current frame interval.
func (l *Loop) Interval() time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.interval
}

// Run ticks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.reset:
			ticker.Reset(l.Interval())
			l.log.Info("frame: interval changed", "interval", l.Interval())
		case at := <-ticker.C:
			l.Tick(at)
		}
	}
}

// Tick runs a single frame at the given time. Run calls it on every tick;
// it is exported so a host with its own loop can drive frames directly.
func (l *Loop) Tick(at time.Time) Frame {
	l.mu.RLock()
	steps := append([]step(nil), l.steps...)
	l.mu.RUnlock()

	f := Frame{N: l.n, At: at}
	if !l.last.IsZero() {
		f.Delta = at.Sub(l.last)
	}
	l.n++
	l.last = at

	for _, s := range steps {
		l.run(s, f)
	}
	return f
}

func (l *Loop) run(s step, f Frame) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("frame: step panic", "step", s.name, "frame", f.N, "panic", r)
		}
	}()
	s.fn(f)
}

package job

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/raoulx24/framesync/internal/logging"
	"github.com/raoulx24/framesync/internal/mailbox"
)

// record is the tracked job. All fields but cancel are guarded by the
// coordinator's mutex.
type record struct {
	id       ID
	ref      string
	state    State
	target   string
	progress Progress
	markers  []Marker
	started  time.Time

	handle    Handle
	hasHandle bool

	cancel atomic.Bool
}

// Coordinator runs at most one job at a time and publishes its state to a
// polling consumer.
type Coordinator[R any] struct {
	worker Worker[R]
	log    logging.Logger
	mb     *mailbox.Mailbox[Report[R]]
	now    func() time.Time

	mu     sync.Mutex
	lastID ID
	job    *record
	last   *Report[R]
}

// New returns a coordinator driving w.
func New[R any](w Worker[R], log logging.Logger) *Coordinator[R] {
	if log == nil {
		log = logging.Null()
	}
	return &Coordinator[R]{
		worker: w,
		log:    log,
		mb:     mailbox.New[Report[R]](),
		now:    time.Now,
	}
}

// StartJob starts a job for target. It fails with ErrAlreadyRunning while
// another job is active, in which case the active job is left untouched.
func (c *Coordinator[R]) StartJob(target string) (ID, error) {
	c.mu.Lock()
	if c.job != nil && c.job.state.active() {
		id := c.job.id
		c.mu.Unlock()
		c.log.Debug("job: start rejected", "target", target, "active", id)
		return InvalidID, ErrAlreadyRunning
	}

	c.lastID++
	rec := &record{
		id:      c.lastID,
		ref:     uuid.NewString(),
		state:   Running,
		target:  target,
		started: c.now(),
	}
	rec.progress.JobID = rec.id
	c.job = rec
	c.last = nil
	c.mu.Unlock()

	c.log.Info("job: starting", "id", rec.id, "ref", rec.ref, "target", target)

	// The worker may call back synchronously, so no lock is held here.
	h, err := c.worker.Start(target, c.callbacks(rec))
	if err != nil {
		c.mu.Lock()
		if c.job == rec {
			c.job = nil
		}
		c.dropReportLocked(rec.id)
		c.mu.Unlock()
		return InvalidID, fmt.Errorf("job: starting %s: %w", target, err)
	}

	c.mu.Lock()
	rec.handle = h
	rec.hasHandle = true
	cancelNow := rec.state == CancelRequested
	c.mu.Unlock()

	// A cancel that arrived before the handle was known.
	if cancelNow {
		c.worker.Cancel(h)
	}

	return rec.id, nil
}

// RequestCancel asks the running job to stop. It is a no-op unless a job is
// running, and calling it again has no further effect.
func (c *Coordinator[R]) RequestCancel() {
	c.mu.Lock()
	if c.job == nil || c.job.state != Running {
		c.mu.Unlock()
		return
	}
	c.cancelLocked(c.job)
}

// CancelJob asks the job with the given id to stop. It reports false when id
// is not the running job.
func (c *Coordinator[R]) CancelJob(id ID) bool {
	c.mu.Lock()
	if c.job == nil || c.job.id != id || c.job.state != Running {
		c.mu.Unlock()
		c.log.Debug("job: ignoring cancel for unknown job", "id", id)
		return false
	}
	c.cancelLocked(c.job)
	return true
}

// cancelLocked flags rec as cancelled and releases the lock before calling
// into the worker.
func (c *Coordinator[R]) cancelLocked(rec *record) {
	rec.state = CancelRequested
	rec.cancel.Store(true)
	h, ok := rec.handle, rec.hasHandle
	c.mu.Unlock()

	c.log.Info("job: cancel requested", "id", rec.id, "ref", rec.ref)

	if ok {
		c.worker.Cancel(h)
	}
}

// Update consumes a pending completion. It is meant to be called once per
// frame and reports whether a completion was consumed.
func (c *Coordinator[R]) Update() bool {
	rep, ok := c.mb.TryTake()
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil || c.job.id != rep.JobID {
		c.log.Warn("job: dropping completion for unknown job", "id", rep.JobID)
		return false
	}

	c.job.state = Completed
	c.last = &rep

	c.log.Info("job: completed",
		"id", rep.JobID,
		"ref", rep.Ref,
		"failed", rep.Failed(),
		"cancelled", rep.Cancelled,
		"duration", rep.FinishedAt.Sub(rep.StartedAt),
	)
	return true
}

// LastCompletion returns the report consumed by the last Update. Each report
// is returned once.
func (c *Coordinator[R]) LastCompletion() (Report[R], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		var zero Report[R]
		return zero, false
	}

	rep := *c.last
	c.last = nil
	return rep, true
}

// Clear drops a finished job so its target and diagnostics are no longer
// reported. It does nothing while a job is active.
func (c *Coordinator[R]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job != nil && c.job.state.active() {
		return
	}
	c.job = nil
}

// State returns the coordinator state. A consumed job reports Idle.
func (c *Coordinator[R]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil || c.job.state == Completed {
		return Idle
	}
	return c.job.state
}

// IsRunning reports whether a job is active, that is whether StartJob
// would be rejected.
func (c *Coordinator[R]) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.job != nil && c.job.state.active()
}

// Progress returns the progress of the tracked job.
func (c *Coordinator[R]) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil {
		return Progress{}
	}
	return c.job.progress
}

// Target returns the target of the tracked job.
func (c *Coordinator[R]) Target() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil {
		return "", false
	}
	return c.job.target, true
}

// Diagnostics returns a copy of the tracked job's markers in insertion order.
func (c *Coordinator[R]) Diagnostics() []Marker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil {
		return nil
	}
	return append([]Marker(nil), c.job.markers...)
}

// Status returns a snapshot of the tracked job.
func (c *Coordinator[R]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job == nil {
		return Status{State: Idle}
	}
	return Status{
		ID:       c.job.id,
		Ref:      c.job.ref,
		State:    c.job.state,
		Target:   c.job.target,
		Progress: c.job.progress,
	}
}

func (c *Coordinator[R]) callbacks(rec *record) Callbacks[R] {
	return Callbacks[R]{
		Progress: func(fraction float64, msg string) {
			c.mu.Lock()
			defer c.mu.Unlock()

			if !c.ownsLocked(rec) {
				return
			}
			rec.progress = Progress{JobID: rec.id, Fraction: clamp(fraction), Message: msg}
		},
		Mark: func(label string, start bool) {
			at := c.now()

			c.mu.Lock()
			defer c.mu.Unlock()

			if !c.ownsLocked(rec) {
				return
			}
			rec.markers = append(rec.markers, Marker{Label: label, Start: start, At: at})
		},
		Complete: func(value R, err error) {
			finished := c.now()

			c.mu.Lock()
			defer c.mu.Unlock()

			if !c.ownsLocked(rec) {
				c.log.Warn("job: ignoring repeated completion", "id", rec.id, "ref", rec.ref)
				return
			}
			rec.state = CompletionPending

			// Posting under the lock keeps progress and completion in one
			// mutex domain: a consumer that sees the report sees every
			// progress write made before it.
			rep := Report[R]{
				JobID:      rec.id,
				Ref:        rec.ref,
				Target:     rec.target,
				Value:      value,
				Err:        err,
				Cancelled:  rec.cancel.Load(),
				StartedAt:  rec.started,
				FinishedAt: finished,
			}
			if !c.mb.Post(rep) {
				// Only a report of an earlier job can occupy the slot; it
				// can never be consumed, so it gives way.
				stale, _ := c.mb.TryTake()
				c.log.Warn("job: replacing stale completion", "id", rec.id, "stale", stale.JobID)
				c.mb.Put(rep)
			}
		},
		Cancelled: rec.cancel.Load,
	}
}

// dropReportLocked removes a pending report of job id, leaving any other
// report in place.
func (c *Coordinator[R]) dropReportLocked(id ID) {
	rep, ok := c.mb.TryTake()
	if !ok {
		return
	}
	if rep.JobID != id {
		c.mb.Post(rep)
		return
	}
	c.log.Warn("job: dropping completion of a job that failed to start", "id", id, "ref", rep.Ref)
}

// ownsLocked reports whether rec is the tracked job and still accepts
// worker writes.
func (c *Coordinator[R]) ownsLocked(rec *record) bool {
	return c.job == rec && (rec.state == Running || rec.state == CancelRequested)
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

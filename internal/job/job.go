// Package job coordinates a single cancellable background job on behalf of a
// polling consumer.
//
// The consumer (a UI frame loop) calls Coordinator.Update once per frame and
// reads status through short lock-scoped accessors. The job itself runs on
// goroutines owned by a Worker, which reports back through Callbacks and
// hands its result over through a single-slot mailbox.
package job

import (
	"errors"
	"time"
)

// ErrAlreadyRunning is returned when a job is requested while one is active.
var ErrAlreadyRunning = errors.New("job: a job is already running")

// ID identifies a job. IDs are assigned monotonically starting at 1.
type ID uint64

// InvalidID never identifies a real job.
const InvalidID ID = 0

// State is the lifecycle state of a job.
type State int8

// State constants.
const (
	Idle State = iota
	Running
	CancelRequested
	CompletionPending
	Completed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case CancelRequested:
		return "cancel-requested"
	case CompletionPending:
		return "completion-pending"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// active reports whether a job in this state blocks a new start.
func (s State) active() bool {
	return s == Running || s == CancelRequested || s == CompletionPending
}

// Progress is a point-in-time view of a job's progress.
type Progress struct {
	JobID    ID
	Fraction float64
	Message  string
}

// Marker is a diagnostic entry written by a worker. Markers come in
// start/end pairs sharing a label.
type Marker struct {
	Label string
	Start bool
	At    time.Time
}

// Report is the terminal result of a job.
type Report[R any] struct {
	JobID  ID
	Ref    string
	Target string
	Value  R
	Err    error

	// Cancelled is set when cancellation was requested before the worker
	// completed, whether or not the worker honoured it.
	Cancelled bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed reports whether the job ended with an error.
func (r Report[R]) Failed() bool {
	return r.Err != nil
}

// Status is a snapshot of the tracked job.
type Status struct {
	ID       ID
	Ref      string
	State    State
	Target   string
	Progress Progress
}

// Handle is a worker-defined reference to a started job.
type Handle uint64

// Callbacks are handed to a Worker when a job starts. They are safe to call
// from any goroutine; calls made after the job completed are ignored.
type Callbacks[R any] struct {
	// Progress reports the completed fraction in [0, 1].
	Progress func(fraction float64, msg string)
	// Mark appends a diagnostic marker.
	Mark func(label string, start bool)
	// Complete ends the job. Only the first call has an effect.
	Complete func(value R, err error)
	// Cancelled reports whether cancellation was requested. Workers should
	// check it at safe points and complete early when it is set.
	Cancelled func() bool
}

// Worker runs jobs on goroutines it owns.
type Worker[R any] interface {
	// Start begins processing target and returns without waiting for it.
	Start(target string, cb Callbacks[R]) (Handle, error)
	// Cancel asks the job behind h to stop. It must not block.
	Cancel(h Handle)
}

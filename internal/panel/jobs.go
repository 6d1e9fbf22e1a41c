package panel

import (
	"errors"
	"fmt"
	"time"

	"github.com/raoulx24/framesync/internal/job"
	"github.com/raoulx24/framesync/internal/logging"
)

// JobPanel is the view-model of a panel that runs one background job at a
// time, such as the import or scene panels.
type JobPanel[R any] struct {
	name  string
	coord *job.Coordinator[R]
	log   logging.Logger

	last *job.Report[R]
}

// NewJobPanel returns a panel over coord.
func NewJobPanel[R any](name string, coord *job.Coordinator[R], log logging.Logger) *JobPanel[R] {
	return &JobPanel[R]{name: name, coord: coord, log: log}
}

// Name returns the panel name.
func (p *JobPanel[R]) Name() string {
	return p.name
}

// Coordinator returns the panel's coordinator.
func (p *JobPanel[R]) Coordinator() *job.Coordinator[R] {
	return p.coord
}

// Request starts a job for target. A request while a job is active is
// dropped and reported false; it is never queued.
func (p *JobPanel[R]) Request(target string) bool {
	id, err := p.coord.StartJob(target)
	switch {
	case errors.Is(err, job.ErrAlreadyRunning):
		p.log.Info("panel: busy, request dropped", "panel", p.name, "target", target)
		return false
	case err != nil:
		p.log.Error("panel: starting job failed", "panel", p.name, "target", target, "error", err)
		return false
	}

	p.log.Debug("panel: job requested", "panel", p.name, "id", id)
	return true
}

// Cancel asks the running job to stop.
func (p *JobPanel[R]) Cancel() {
	p.coord.RequestCancel()
}

// Tick drains the coordinator. It is called once per frame.
func (p *JobPanel[R]) Tick() {
	if !p.coord.Update() {
		return
	}

	rep, ok := p.coord.LastCompletion()
	if !ok {
		return
	}
	p.last = &rep

	if rep.Cancelled {
		p.log.Info("panel: job cancelled", "panel", p.name, "target", rep.Target)
		return
	}
	if rep.Failed() {
		p.log.Error("panel: job failed", "panel", p.name, "target", rep.Target, "error", rep.Err)
		return
	}
	p.log.Info("panel: job finished", "panel", p.name, "target", rep.Target)
}

// LastReport returns the last completion this panel consumed.
func (p *JobPanel[R]) LastReport() (job.Report[R], bool) {
	if p.last == nil {
		var zero job.Report[R]
		return zero, false
	}
	return *p.last, true
}

// StatusLine renders the one-line status the panel draws.
func (p *JobPanel[R]) StatusLine() string {
	st := p.coord.Status()

	switch st.State {
	case job.Running:
		return fmt.Sprintf("%s: %s %3.0f%% %s", p.name, st.Target, st.Progress.Fraction*100, st.Progress.Message)
	case job.CancelRequested:
		return fmt.Sprintf("%s: cancelling %s", p.name, st.Target)
	case job.CompletionPending:
		return fmt.Sprintf("%s: finishing %s", p.name, st.Target)
	}

	if p.last == nil {
		return p.name + ": idle"
	}
	if p.last.Cancelled {
		return fmt.Sprintf("%s: %s cancelled", p.name, p.last.Target)
	}
	if p.last.Failed() {
		return fmt.Sprintf("%s: %s failed: %v", p.name, p.last.Target, p.last.Err)
	}
	return fmt.Sprintf("%s: %s done in %s", p.name, p.last.Target, p.last.FinishedAt.Sub(p.last.StartedAt).Round(time.Millisecond))
}

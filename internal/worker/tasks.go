package worker

import (
	"context"
	"sync"

	"github.com/raoulx24/framesync/internal/job"
)

// Tasks tracks the goroutines a worker runs on behalf of started jobs so
// they can be cancelled by handle and waited for on shutdown.
type Tasks struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	last    job.Handle
	cancels map[job.Handle]context.CancelFunc

	wg sync.WaitGroup
}

// NewTasks returns an empty task set.
func NewTasks() *Tasks {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tasks{
		ctx:     ctx,
		cancel:  cancel,
		cancels: make(map[job.Handle]context.CancelFunc),
	}
}

// Go runs fn on a new goroutine with a context that is cancelled by Cancel
// or Close, and returns the task's handle.
func (t *Tasks) Go(fn func(ctx context.Context)) job.Handle {
	ctx, cancel := context.WithCancel(t.ctx)

	t.mu.Lock()
	t.last++
	h := t.last
	t.cancels[h] = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.remove(h)

		fn(ctx)
	}()

	return h
}

// Cancel cancels the task behind h. It reports false if the task is unknown
// or already finished.
func (t *Tasks) Cancel(h job.Handle) bool {
	t.mu.Lock()
	cancel, ok := t.cancels[h]
	t.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// Len returns the number of running tasks.
func (t *Tasks) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.cancels)
}

// Close cancels every task and waits for them to return.
func (t *Tasks) Close() {
	t.cancel()
	t.wg.Wait()
}

func (t *Tasks) remove(h job.Handle) {
	t.mu.Lock()
	cancel := t.cancels[h]
	delete(t.cancels, h)
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

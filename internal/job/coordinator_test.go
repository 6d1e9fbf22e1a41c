package job_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/raoulx24/framesync/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startCall struct {
	target string
	cb     job.Callbacks[string]
}

type fakeWorker struct {
	mu       sync.Mutex
	starts   []startCall
	cancels  []job.Handle
	startErr error
	onStart  func(cb job.Callbacks[string])
}

func (w *fakeWorker) Start(target string, cb job.Callbacks[string]) (job.Handle, error) {
	w.mu.Lock()
	if w.startErr != nil {
		w.mu.Unlock()
		return 0, w.startErr
	}
	w.starts = append(w.starts, startCall{target: target, cb: cb})
	h := job.Handle(len(w.starts))
	onStart := w.onStart
	w.mu.Unlock()

	if onStart != nil {
		onStart(cb)
	}
	return h, nil
}

func (w *fakeWorker) Cancel(h job.Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancels = append(w.cancels, h)
}

func (w *fakeWorker) last(t *testing.T) job.Callbacks[string] {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	require.NotEmpty(t, w.starts)
	return w.starts[len(w.starts)-1].cb
}

func (w *fakeWorker) cancelCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.cancels)
}

func TestCoordinator_ImportScenario(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	id, err := c.StartJob("model.fbx")
	require.NoError(t, err)
	assert.NotEqual(t, job.InvalidID, id)
	assert.True(t, c.IsRunning())
	target, ok := c.Target()
	require.True(t, ok)
	assert.Equal(t, "model.fbx", target)

	cb := w.last(t)
	cb.Progress(0.5, "copying")
	assert.Equal(t, 0.5, c.Progress().Fraction)
	assert.Equal(t, id, c.Progress().JobID)

	cb.Complete("ok", nil)
	assert.Equal(t, job.CompletionPending, c.State())
	assert.True(t, c.IsRunning())

	require.True(t, c.Update())
	assert.False(t, c.IsRunning())
	assert.Equal(t, job.Idle, c.State())

	rep, ok := c.LastCompletion()
	require.True(t, ok)
	assert.Equal(t, id, rep.JobID)
	assert.Equal(t, "ok", rep.Value)
	assert.Equal(t, "model.fbx", rep.Target)
	assert.False(t, rep.Failed())
	assert.NotEmpty(t, rep.Ref)

	_, ok = c.LastCompletion()
	assert.False(t, ok)
}

func TestCoordinator_AtMostOneJob(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	idA, err := c.StartJob("a.fbx")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		id, err := c.StartJob("b.fbx")
		assert.ErrorIs(t, err, job.ErrAlreadyRunning)
		assert.Equal(t, job.InvalidID, id)
	}

	target, _ := c.Target()
	assert.Equal(t, "a.fbx", target)
	assert.Equal(t, idA, c.Status().ID)
	assert.Len(t, w.starts, 1)
}

func TestCoordinator_StartRejectedUntilCompletionDrained(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)
	w.last(t).Complete("", nil)

	_, err = c.StartJob("b")
	assert.ErrorIs(t, err, job.ErrAlreadyRunning)

	c.Update()

	idB, err := c.StartJob("b")
	require.NoError(t, err)
	assert.Equal(t, job.ID(2), idB)
	target, _ := c.Target()
	assert.Equal(t, "b", target)
}

func TestCoordinator_IDsAreMonotonic(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	var prev job.ID
	for i := 0; i < 5; i++ {
		id, err := c.StartJob("x")
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id

		w.last(t).Complete("", nil)
		require.True(t, c.Update())
	}
}

func TestCoordinator_CancelIsIdempotent(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)
	cb := w.last(t)
	require.False(t, cb.Cancelled())

	c.RequestCancel()
	c.RequestCancel()

	assert.True(t, cb.Cancelled())
	assert.Equal(t, job.CancelRequested, c.State())
	assert.Equal(t, 1, w.cancelCount())

	cb.Complete("partial", errors.New("cancelled"))
	require.True(t, c.Update())

	rep, ok := c.LastCompletion()
	require.True(t, ok)
	assert.True(t, rep.Cancelled)
	assert.True(t, rep.Failed())
}

func TestCoordinator_CancelWhenIdleIsNoop(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	c.RequestCancel()

	assert.Equal(t, job.Idle, c.State())
	assert.Equal(t, 0, w.cancelCount())
}

func TestCoordinator_CancelJob(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	id, err := c.StartJob("a")
	require.NoError(t, err)

	assert.False(t, c.CancelJob(id+1))
	assert.False(t, c.CancelJob(job.InvalidID))
	assert.Equal(t, 0, w.cancelCount())

	assert.True(t, c.CancelJob(id))
	assert.False(t, c.CancelJob(id))
	assert.Equal(t, 1, w.cancelCount())
}

func TestCoordinator_LateCancelForCompletedJob(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	id, err := c.StartJob("a")
	require.NoError(t, err)
	w.last(t).Complete("", nil)
	c.Update()

	assert.False(t, c.CancelJob(id))
	c.RequestCancel()
	assert.Equal(t, 0, w.cancelCount())
}

func TestCoordinator_RepeatedCompletionIsDropped(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)
	cb := w.last(t)

	cb.Complete("first", nil)
	cb.Complete("second", nil)

	require.True(t, c.Update())
	assert.False(t, c.Update())

	rep, ok := c.LastCompletion()
	require.True(t, ok)
	assert.Equal(t, "first", rep.Value)
}

func TestCoordinator_UpdateWithNothingPending(t *testing.T) {
	c := job.New[string](&fakeWorker{}, nil)

	assert.False(t, c.Update())
	assert.Equal(t, job.Idle, c.State())
}

func TestCoordinator_WorkerErrorIsSurfaced(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	_, err := c.StartJob("broken.fbx")
	require.NoError(t, err)
	w.last(t).Complete("", errors.New("parse failed"))
	c.Update()

	rep, ok := c.LastCompletion()
	require.True(t, ok)
	assert.EqualError(t, rep.Err, "parse failed")
	assert.Equal(t, job.Idle, c.State())
	assert.Len(t, w.starts, 1)
}

func TestCoordinator_StartFailure(t *testing.T) {
	w := &fakeWorker{startErr: errors.New("no threads")}
	c := job.New[string](w, nil)

	id, err := c.StartJob("a")

	require.Error(t, err)
	assert.NotErrorIs(t, err, job.ErrAlreadyRunning)
	assert.Equal(t, job.InvalidID, id)
	assert.False(t, c.IsRunning())
	_, ok := c.Target()
	assert.False(t, ok)
}

// completeThenFailWorker completes the first job from inside Start and then
// reports a start failure; later starts succeed.
type completeThenFailWorker struct {
	calls int
	cb    job.Callbacks[string]
}

func (w *completeThenFailWorker) Start(_ string, cb job.Callbacks[string]) (job.Handle, error) {
	w.calls++
	if w.calls == 1 {
		cb.Complete("orphan", nil)
		return 0, errors.New("spawn failed")
	}
	w.cb = cb
	return job.Handle(w.calls), nil
}

func (w *completeThenFailWorker) Cancel(job.Handle) {}

func TestCoordinator_CompletionOfFailedStartIsDiscarded(t *testing.T) {
	w := &completeThenFailWorker{}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.Error(t, err)
	assert.False(t, c.Update())

	id, err := c.StartJob("b")
	require.NoError(t, err)
	w.cb.Complete("ok", nil)

	require.True(t, c.Update())
	assert.Equal(t, job.Idle, c.State())
	assert.False(t, c.IsRunning())

	rep, ok := c.LastCompletion()
	require.True(t, ok)
	assert.Equal(t, id, rep.JobID)
	assert.Equal(t, "ok", rep.Value)

	_, err = c.StartJob("c")
	assert.NoError(t, err)
}

func TestCoordinator_CancelBeforeHandleIsKnown(t *testing.T) {
	var c *job.Coordinator[string]
	w := &fakeWorker{onStart: func(cb job.Callbacks[string]) {
		c.RequestCancel()
		assert.True(t, cb.Cancelled())
	}}
	c = job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)

	assert.Equal(t, job.CancelRequested, c.State())
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, []job.Handle{1}, w.cancels)
}

func TestCoordinator_SynchronousCompletion(t *testing.T) {
	w := &fakeWorker{onStart: func(cb job.Callbacks[string]) {
		cb.Mark("load", true)
		cb.Progress(1, "")
		cb.Mark("load", false)
		cb.Complete("done", nil)
	}}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)

	assert.Equal(t, job.CompletionPending, c.State())
	require.True(t, c.Update())
	assert.Len(t, c.Diagnostics(), 2)
}

func TestCoordinator_Diagnostics(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	assert.Empty(t, c.Diagnostics())

	_, err := c.StartJob("a")
	require.NoError(t, err)
	cb := w.last(t)
	cb.Mark("parse", true)
	cb.Mark("parse", false)
	cb.Mark("upload", true)

	got := c.Diagnostics()
	require.Len(t, got, 3)
	assert.Equal(t, "parse", got[0].Label)
	assert.True(t, got[0].Start)
	assert.False(t, got[1].Start)
	assert.Equal(t, "upload", got[2].Label)

	got[0].Label = "mutated"
	assert.Equal(t, "parse", c.Diagnostics()[0].Label)

	cb.Complete("", nil)
	c.Update()
	assert.Len(t, c.Diagnostics(), 3)

	c.Clear()
	assert.Empty(t, c.Diagnostics())
}

func TestCoordinator_ClearWhileRunningIsNoop(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)

	c.Clear()

	assert.True(t, c.IsRunning())
}

func TestCoordinator_ProgressIsClamped(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)
	cb := w.last(t)

	cb.Progress(1.7, "")
	assert.Equal(t, 1.0, c.Progress().Fraction)
	cb.Progress(-1, "")
	assert.Equal(t, 0.0, c.Progress().Fraction)
}

func TestCoordinator_WritesAfterCompletionAreIgnored(t *testing.T) {
	w := &fakeWorker{}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)
	cb := w.last(t)
	cb.Progress(0.9, "")
	cb.Complete("", nil)

	cb.Progress(0.1, "late")
	cb.Mark("late", true)

	assert.Equal(t, 0.9, c.Progress().Fraction)
	assert.Empty(t, c.Diagnostics())
}

func TestCoordinator_ConcurrentWorker(t *testing.T) {
	w := &fakeWorker{onStart: func(cb job.Callbacks[string]) {
		go func() {
			for i := 1; i <= 100; i++ {
				cb.Progress(float64(i)/100, "")
			}
			cb.Complete("done", nil)
		}()
	}}
	c := job.New[string](w, nil)

	_, err := c.StartJob("a")
	require.NoError(t, err)

	var prev float64
	require.Eventually(t, func() bool {
		p := c.Progress().Fraction
		if p < prev {
			t.Errorf("progress went backwards: %v < %v", p, prev)
		}
		prev = p
		return c.Update()
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 1.0, c.Progress().Fraction)
	rep, ok := c.LastCompletion()
	require.True(t, ok)
	assert.Equal(t, "done", rep.Value)
}

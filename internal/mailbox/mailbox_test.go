package mailbox_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raoulx24/framesync/internal/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_TryTakeEmpty(t *testing.T) {
	mb := mailbox.New[int]()

	v, ok := mb.TryTake()

	assert.False(t, ok)
	assert.Equal(t, 0, v)
	assert.False(t, mb.Pending())
}

func TestMailbox_PostDeliversExactlyOnce(t *testing.T) {
	mb := mailbox.New[string]()

	require.True(t, mb.Post("report"))
	require.True(t, mb.Pending())

	v, ok := mb.TryTake()
	require.True(t, ok)
	assert.Equal(t, "report", v)

	_, ok = mb.TryTake()
	assert.False(t, ok)
}

func TestMailbox_PostDoesNotOverwrite(t *testing.T) {
	mb := mailbox.New[string]()

	require.True(t, mb.Post("first"))
	assert.False(t, mb.Post("second"))

	v, ok := mb.TryTake()
	require.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestMailbox_PutLatestWins(t *testing.T) {
	mb := mailbox.New[string]()

	mb.Put("first")
	mb.Put("second")

	v, ok := mb.TryTake()
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestMailbox_TakeBlocksUntilPut(t *testing.T) {
	mb := mailbox.New[int]()

	done := make(chan int)
	go func() {
		v, err := mb.Take(context.Background())
		if err == nil {
			done <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	mb.Put(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Take did not return")
	}
}

func TestMailbox_TakeHonoursContext(t *testing.T) {
	mb := mailbox.New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mb.Take(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMailbox_ConcurrentTakersNeverDoubleDeliver(t *testing.T) {
	mb := mailbox.New[int]()
	require.True(t, mb.Post(1))

	var got atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := mb.TryTake(); ok {
				got.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), got.Load())
}

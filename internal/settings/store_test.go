package settings_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/raoulx24/framesync/internal/config"
	"github.com/raoulx24/framesync/internal/epoch"
	"github.com/raoulx24/framesync/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *settings.Store {
	t.Helper()

	s, err := settings.New(settings.FromConfig(config.Default().Settings), nil)
	require.NoError(t, err)
	return s
}

func TestNew_SeedsAtEpochZero(t *testing.T) {
	s := newStore(t)

	v, e := s.Rendering().Load()

	assert.Equal(t, uint64(0), s.Epoch())
	assert.Equal(t, uint64(0), e)
	assert.True(t, v.VSync)
	assert.Equal(t, 4, v.MSAA)
}

func TestSection_SetBumpsEpochByOne(t *testing.T) {
	s := newStore(t)

	for i := 1; i <= 3; i++ {
		e, err := s.Grid().Set(settings.Grid{Spacing: float64(i)})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), e)
		assert.Equal(t, uint64(i), s.Epoch())
	}

	v, e := s.Grid().Load()
	assert.Equal(t, 3.0, v.Spacing)
	assert.Equal(t, uint64(3), e)
}

func TestSection_UpdateKeepsOtherFields(t *testing.T) {
	s := newStore(t)

	_, err := s.Lighting().Update(func(l *settings.Lighting) { l.Ambient = 0.5 })
	require.NoError(t, err)

	v, _ := s.Lighting().Load()
	assert.Equal(t, 0.5, v.Ambient)
	assert.True(t, v.Shadows)
	assert.Equal(t, 45.0, v.SunAzimuth)
}

func TestSection_MutatingOneSectionMovesSharedEpoch(t *testing.T) {
	s := newStore(t)

	_, err := s.PostProcess().Update(func(p *settings.PostProcess) { p.Bloom = true })
	require.NoError(t, err)

	assert.Equal(t, uint64(1), s.Rendering().Epoch())
}

func TestStore_ApplyIsOneMutation(t *testing.T) {
	s := newStore(t)
	v, _, err := s.Values()
	require.NoError(t, err)
	v.Rendering.MSAA = 2
	v.Grid.Visible = false

	e, err := s.Apply(v)

	require.NoError(t, err)
	assert.Equal(t, uint64(1), e)
	got, ge, err := s.Values()
	require.NoError(t, err)
	assert.Equal(t, v, got)
	assert.Equal(t, uint64(1), ge)
}

func TestStore_ConcurrentUpdatesAreNotLost(t *testing.T) {
	s := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = s.Grid().Update(func(g *settings.Grid) { g.Subdivisions++ })
			}
		}()
	}
	wg.Wait()

	v, e := s.Grid().Load()
	assert.Equal(t, 10+200, v.Subdivisions)
	assert.Equal(t, uint64(200), e)
}

func TestStore_WaitForChange(t *testing.T) {
	s := newStore(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = s.Rendering().Update(func(r *settings.Rendering) { r.Wireframe = true })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e, err := s.WaitForChange(ctx, 0)

	require.NoError(t, err)
	assert.Equal(t, uint64(1), e)
}

func TestStore_WaitForChangeReturnsImmediatelyWhenBehind(t *testing.T) {
	s := newStore(t)
	_, err := s.Grid().Set(settings.Grid{})
	require.NoError(t, err)

	e, err := s.WaitForChange(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, uint64(1), e)
}

func TestStore_WaitForChangeHonoursContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.WaitForChange(ctx, 0)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSection_BacksEpochCache(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 5; i++ {
		_, err := s.Rendering().Update(func(r *settings.Rendering) { r.MSAA = 1 })
		require.NoError(t, err)
	}
	c := epoch.NewCache[settings.Rendering](s.Rendering())
	require.Equal(t, 1, c.Read().MSAA)
	require.Equal(t, uint64(5), c.Epoch())

	_, err := s.Rendering().Update(func(r *settings.Rendering) { r.MSAA = 8 })
	require.NoError(t, err)

	assert.Equal(t, 8, c.Read().MSAA)
	assert.Equal(t, uint64(6), c.Epoch())
}

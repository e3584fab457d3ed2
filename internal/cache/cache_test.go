package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Version int
}

func counting(calls *int32, fn Loader[*snapshot]) Loader[*snapshot] {
	return func(ctx context.Context, prev **snapshot) (*snapshot, bool, error) {
		atomic.AddInt32(calls, 1)
		return fn(ctx, prev)
	}
}

func TestGetFromCacheIsIdempotent(t *testing.T) {
	var calls int32
	c := New("test", counting(&calls, func(context.Context, **snapshot) (*snapshot, bool, error) {
		return &snapshot{Version: 1}, false, nil
	}), Options{})

	require.Equal(t, Empty, c.State())

	first, err := c.Get(context.Background(), true)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), true)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, Ready, c.State())
}

func TestGetWithoutCacheRefreshes(t *testing.T) {
	var calls int32
	c := New("test", counting(&calls, func(_ context.Context, prev **snapshot) (*snapshot, bool, error) {
		if prev == nil {
			return &snapshot{Version: 1}, false, nil
		}
		return &snapshot{Version: (*prev).Version + 1}, false, nil
	}), Options{})

	v, err := c.Get(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, v.Version)

	v, err = c.Get(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 2, v.Version)

	v, err = c.Get(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 2, v.Version)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	c := New("test", counting(&calls, func(context.Context, **snapshot) (*snapshot, bool, error) {
		close(started)
		<-release
		return &snapshot{Version: 7}, false, nil
	}), Options{})

	const callers = 10
	results := make([]*snapshot, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), i%2 == 0)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	<-started
	require.Equal(t, Refreshing, c.State())
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestFailedRefreshClearsCache(t *testing.T) {
	var calls int32
	fail := true
	c := New("test", counting(&calls, func(context.Context, **snapshot) (*snapshot, bool, error) {
		if fail {
			return nil, false, errors.New("boom")
		}
		return &snapshot{Version: 1}, false, nil
	}), Options{})

	_, err := c.Get(context.Background(), true)
	require.EqualError(t, err, "boom")
	require.Equal(t, Empty, c.State())

	fail = false
	v, err := c.Get(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, v.Version)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestLastSnapshotSurvivesFailure(t *testing.T) {
	var prevs []*snapshot
	results := []error{nil, errors.New("boom"), nil}
	step := 0

	c := New("test", func(_ context.Context, prev **snapshot) (*snapshot, bool, error) {
		if prev != nil {
			prevs = append(prevs, *prev)
		} else {
			prevs = append(prevs, nil)
		}
		err := results[step]
		step++
		return &snapshot{Version: step}, false, err
	}, Options{})

	for range results {
		c.Get(context.Background(), false)
	}

	require.Len(t, prevs, 3)
	assert.Nil(t, prevs[0])
	assert.Equal(t, 1, prevs[1].Version)
	assert.Equal(t, 1, prevs[2].Version)
}

func TestCallerContextCancellation(t *testing.T) {
	release := make(chan struct{})
	c := New("test", func(context.Context, **snapshot) (*snapshot, bool, error) {
		<-release
		return &snapshot{Version: 1}, false, nil
	}, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, true)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := c.Get(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, v.Version)
}

func TestRefreshTimeout(t *testing.T) {
	c := New("test", func(ctx context.Context, _ **snapshot) (*snapshot, bool, error) {
		<-ctx.Done()
		return nil, false, ctx.Err()
	}, Options{Timeout: 20 * time.Millisecond})

	_, err := c.Get(context.Background(), true)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, Empty, c.State())
}

func TestPanickingLoader(t *testing.T) {
	c := New("test", func(context.Context, **snapshot) (*snapshot, bool, error) {
		panic("unexpected markup")
	}, Options{})

	_, err := c.Get(context.Background(), true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected markup")
	require.Equal(t, Empty, c.State())
}

func TestRefreshReportsDegraded(t *testing.T) {
	type event struct {
		name     string
		degraded bool
		err      error
	}
	events := make(chan event, 1)

	c := New("rate", func(context.Context, **snapshot) (*snapshot, bool, error) {
		return &snapshot{}, true, nil
	}, Options{OnRefresh: func(name string, degraded bool, err error) {
		events <- event{name, degraded, err}
	}})

	degraded, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, degraded)
	require.Equal(t, event{name: "rate", degraded: true}, <-events)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", Empty.String())
	assert.Equal(t, "refreshing", Refreshing.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "State(9)", State(9).String())
}

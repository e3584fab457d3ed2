package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu      sync.Mutex
	results []error
	degrade []bool
	calls   chan time.Time
}

func (f *fakeRefresher) Name() string {
	return "fake"
}

func (f *fakeRefresher) Refresh(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var (
		degraded bool
		err      error
	)
	if len(f.results) > 0 {
		err, f.results = f.results[0], f.results[1:]
	}
	if len(f.degrade) > 0 {
		degraded, f.degrade = f.degrade[0], f.degrade[1:]
	}
	f.calls <- time.Now()
	return degraded, err
}

func TestSchedulerRefreshesImmediately(t *testing.T) {
	f := &fakeRefresher{calls: make(chan time.Time, 10)}
	s := NewScheduler(f, time.Hour, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	select {
	case <-f.calls:
	case <-time.After(time.Second):
		t.Fatal("no initial refresh")
	}

	cancel()
	s.Wait()
	require.Empty(t, f.calls)
}

func TestSchedulerRetriesSoonerWhenDegraded(t *testing.T) {
	f := &fakeRefresher{
		degrade: []bool{true, false},
		calls:   make(chan time.Time, 10),
	}
	s := NewScheduler(f, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-f.calls:
		case <-time.After(time.Second):
			t.Fatalf("refresh %d did not happen", i+1)
		}
	}

	select {
	case <-f.calls:
		t.Fatal("healthy refresh must wait for the full interval")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerSwallowsFailures(t *testing.T) {
	f := &fakeRefresher{
		results: []error{errors.New("down"), errors.New("still down"), nil},
		calls:   make(chan time.Time, 10),
	}
	s := NewScheduler(f, time.Hour, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-f.calls:
		case <-time.After(time.Second):
			t.Fatalf("refresh %d did not happen", i+1)
		}
	}

	cancel()
	s.Wait()
}

func TestSchedulerWithCache(t *testing.T) {
	loads := make(chan struct{}, 10)
	c := New("test", func(context.Context, **snapshot) (*snapshot, bool, error) {
		loads <- struct{}{}
		return &snapshot{Version: 1}, false, nil
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(c, time.Hour, time.Minute)
	s.Start(ctx)
	<-loads

	require.Eventually(t, func() bool { return c.State() == Ready }, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()
}

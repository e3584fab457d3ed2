package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a whole refresh, including all of its sub-fetches.
const DefaultTimeout = 2 * time.Minute

type State int

const (
	// Empty means nothing is cached: never loaded, or the last refresh failed.
	Empty State = iota
	// Refreshing means a load is in flight and callers attach to it.
	Refreshing
	// Ready means the snapshot is served to cached reads.
	Ready
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Refreshing:
		return "refreshing"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Loader fetches a fresh value. prev is the last successfully loaded value,
// or nil; it must not be modified. degraded reports that some parts of the
// value are stale and a sooner retry is worthwhile.
type Loader[T any] func(ctx context.Context, prev *T) (value T, degraded bool, err error)

type Options struct {
	// Timeout bounds a single refresh. Defaults to DefaultTimeout.
	Timeout time.Duration
	// OnRefresh is called after every completed refresh.
	OnRefresh func(name string, degraded bool, err error)
}

type call[T any] struct {
	done     chan struct{}
	value    T
	degraded bool
	err      error
}

// Cache holds one aggregate with at most one refresh in flight.
type Cache[T any] struct {
	name string
	load Loader[T]
	opts Options

	mu       sync.Mutex
	state    State
	snapshot T
	last     *T
	inflight *call[T]
}

func New[T any](name string, load Loader[T], opts Options) *Cache[T] {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Cache[T]{name: name, load: load, opts: opts}
}

func (c *Cache[T]) Name() string {
	return c.name
}

func (c *Cache[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Get returns the cached snapshot when useCache is set and one is ready.
// Otherwise it starts a refresh, or waits for the one already in flight.
func (c *Cache[T]) Get(ctx context.Context, useCache bool) (T, error) {
	value, _, err := c.get(ctx, useCache)
	return value, err
}

// Refresh reloads the value, joining a refresh already in flight.
func (c *Cache[T]) Refresh(ctx context.Context) (degraded bool, err error) {
	_, degraded, err = c.get(ctx, false)
	return degraded, err
}

func (c *Cache[T]) get(ctx context.Context, useCache bool) (T, bool, error) {
	c.mu.Lock()
	if useCache && c.state == Ready {
		value := c.snapshot
		c.mu.Unlock()
		return value, false, nil
	}

	cl := c.inflight
	if cl == nil {
		cl = &call[T]{done: make(chan struct{})}
		c.inflight = cl
		c.state = Refreshing
		go c.refresh(cl, c.last)
	}
	c.mu.Unlock()

	select {
	case <-cl.done:
		return cl.value, cl.degraded, cl.err
	case <-ctx.Done():
		var zero T
		return zero, false, errors.Wrapf(ctx.Err(), "waiting for %s", c.name)
	}
}

func (c *Cache[T]) refresh(cl *call[T], prev *T) {
	logger := log.WithField("cache", c.name)
	logger.Debug("refreshing")
	started := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	value, degraded, err := c.safeLoad(ctx, prev)

	c.mu.Lock()
	if err != nil {
		var zero T
		c.state = Empty
		c.snapshot = zero
	} else {
		c.state = Ready
		c.snapshot = value
		last := value
		c.last = &last
	}
	c.inflight = nil
	cl.value, cl.degraded, cl.err = value, degraded, err
	c.mu.Unlock()
	close(cl.done)

	switch {
	case err != nil:
		logger.WithError(err).Error("refresh failed")
	case degraded:
		logger.Warnf("refreshed with stale parts in %s", time.Since(started))
	default:
		logger.Debugf("refreshed in %s", time.Since(started))
	}

	if c.opts.OnRefresh != nil {
		c.opts.OnRefresh(c.name, degraded, err)
	}
}

func (c *Cache[T]) safeLoad(ctx context.Context, prev *T) (value T, degraded bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic while loading %s: %v", c.name, r)
		}
	}()
	return c.load(ctx, prev)
}

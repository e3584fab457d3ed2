package cache

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
)

// DefaultRetry is the first accelerated retry after a degraded refresh.
const DefaultRetry = 10 * time.Minute

// Refresher is implemented by Cache.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) (degraded bool, err error)
}

// Scheduler keeps a cache warm: it refreshes immediately, then every
// interval. After a degraded or failed refresh the next one comes sooner,
// backing off from the retry delay up to the interval.
type Scheduler struct {
	target   Refresher
	interval time.Duration
	retry    *backoff.Backoff
	done     chan struct{}
}

func NewScheduler(target Refresher, interval, retry time.Duration) *Scheduler {
	if retry <= 0 || retry > interval {
		retry = interval
	}

	return &Scheduler{
		target:   target,
		interval: interval,
		retry:    &backoff.Backoff{Min: retry, Max: interval, Factor: 2},
		done:     make(chan struct{}),
	}
}

// Start runs the refresh loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
	log.WithField("cache", s.target.Name()).Debugf("scheduler started, interval %s", s.interval)
}

// Wait blocks until the loop started by Start has exited.
func (s *Scheduler) Wait() {
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		timer := time.NewTimer(s.tick(ctx))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick refreshes once and returns the delay before the next refresh.
func (s *Scheduler) tick(ctx context.Context) time.Duration {
	logger := log.WithField("cache", s.target.Name())

	degraded, err := s.target.Refresh(ctx)
	if ctx.Err() != nil {
		return s.interval
	}

	if err == nil && !degraded {
		s.retry.Reset()
		return s.interval
	}

	next := s.retry.Duration()
	if err != nil {
		logger.WithError(err).Errorf("background refresh failed, retrying in %s", next)
	} else {
		logger.Warnf("background refresh degraded, retrying in %s", next)
	}
	return next
}

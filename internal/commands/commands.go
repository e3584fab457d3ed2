package commands

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"crypto-daddy-bot/internal/cache"
	"crypto-daddy-bot/internal/source"
	"crypto-daddy-bot/lib/translation"
)

// ErrAggregationFailure is returned when too many sub-fetches of an
// aggregate failed and there is no earlier snapshot to fall back on.
var ErrAggregationFailure = errors.New("aggregation failure")

// Request is a parsed chat command.
type Request struct {
	ChatID    int64
	MessageID int
	Alias     string
	Params    string
}

// Reply is one outgoing message. Delay is waited before it is sent.
type Reply struct {
	Text               string
	DisableLinkPreview bool
	Delay              time.Duration
}

type Command interface {
	Name() string
	Aliases() []string
	Handle(ctx context.Context, req Request) ([]Reply, error)
}

// Formatter renders localized message templates.
type Formatter interface {
	Translate(msgID string) string
	Render(msgID string, fields translation.Fields) string
	List(msgID string) []string
}

// RefreshConfig controls how a command keeps its cache warm.
type RefreshConfig struct {
	Interval time.Duration
	Retry    time.Duration
	Timeout  time.Duration
	// OnRefresh is forwarded to the cache, mostly for metrics.
	OnRefresh func(name string, degraded bool, err error)
	// OnFetchFailure is called for every failed upstream fetch.
	OnFetchFailure func(source string, err error)
}

// fetchFailed reports err under the source named in it, or fallback.
func (c RefreshConfig) fetchFailed(fallback string, err error) {
	if c.OnFetchFailure == nil {
		return
	}
	name := fallback
	var fetchErr *source.FetchError
	if errors.As(err, &fetchErr) {
		name = fetchErr.Source
	}
	c.OnFetchFailure(name, err)
}

func (c RefreshConfig) options() cache.Options {
	return cache.Options{Timeout: c.Timeout, OnRefresh: c.OnRefresh}
}

// warmer runs the background refresh loop of a cached command.
type warmer struct {
	scheduler *cache.Scheduler
}

func newWarmer(target cache.Refresher, cfg RefreshConfig) warmer {
	return warmer{scheduler: cache.NewScheduler(target, cfg.Interval, cfg.Retry)}
}

// Start launches the refresh loop; it stops when ctx is cancelled.
func (w warmer) Start(ctx context.Context) {
	w.scheduler.Start(ctx)
}

// Wait blocks until the refresh loop has exited.
func (w warmer) Wait() {
	w.scheduler.Wait()
}

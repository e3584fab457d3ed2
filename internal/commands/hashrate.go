package commands

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-daddy-bot/internal/cache"
	"crypto-daddy-bot/internal/types"
	"crypto-daddy-bot/lib/helpers"
	"crypto-daddy-bot/lib/translation"
)

const (
	HashrateRefreshInterval = 24 * time.Hour
	// JokeDelay separates a hashrate answer from the joke that follows it.
	JokeDelay = 600 * time.Millisecond
)

type GpuSource interface {
	GetGpus(ctx context.Context) ([]types.GpuEntry, error)
}

type HashrateCommand struct {
	warmer
	f     Formatter
	jokes *JokeCommand
	cache *cache.Cache[[]types.GpuEntry]
}

func NewHashrateCommand(f Formatter, gpus GpuSource, jokes *JokeCommand, cfg RefreshConfig) *HashrateCommand {
	if cfg.Interval <= 0 {
		cfg.Interval = HashrateRefreshInterval
	}

	h := &HashrateCommand{f: f, jokes: jokes}
	h.cache = cache.New("hashrate", func(ctx context.Context, _ *[]types.GpuEntry) ([]types.GpuEntry, bool, error) {
		list, err := gpus.GetGpus(ctx)
		if err != nil {
			cfg.fetchFailed("hashrate", err)
		}
		return list, false, err
	}, cfg.options())
	h.warmer = newWarmer(h.cache, cfg)
	return h
}

func (h *HashrateCommand) Name() string {
	return "hashrate"
}

func (h *HashrateCommand) Aliases() []string {
	return []string{"hashrate", "hash", "хэш", "хеш", "хешрейт", "хэшрейт"}
}

func (h *HashrateCommand) Handle(ctx context.Context, req Request) ([]Reply, error) {
	query := helpers.SearchKey(req.Params)
	if query == "" {
		return []Reply{{Text: h.f.Translate("HashrateCommand.help")}}, nil
	}

	list, err := h.cache.Get(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "command /hashrate")
	}

	found := SearchGpus(list, query)
	log.WithField("service", h.Name()).Debugf("%d gpus match %q", len(found), query)
	if len(found) == 0 {
		return []Reply{{Text: h.f.Translate("HashrateCommand.gpuNotFound")}}, nil
	}

	infos := make([]string, 0, len(found))
	for _, gpu := range found {
		infos = append(infos, strings.TrimSpace(h.f.Render("HashrateCommand.gpuInfo", translation.Fields{
			"title":    gpu.Title,
			"hashrate": gpu.Hashrate,
			"power":    gpu.Power,
			"profit":   gpu.Profit,
			"roi":      gpu.ROI,
			"link":     gpu.Link,
		})))
	}

	text := h.f.Translate("HashrateCommand.resultIntro") + strings.Join(infos, h.f.Translate("HashrateCommand.gpuInfoSeparator"))
	replies := []Reply{{Text: strings.TrimSpace(text), DisableLinkPreview: true}}
	if h.jokes != nil {
		if joke := h.jokes.Joke(); joke != "" {
			replies = append(replies, Reply{Text: joke, Delay: JokeDelay})
		}
	}
	return replies, nil
}

// SearchGpus keeps the entries whose search key contains query, in order.
func SearchGpus(list []types.GpuEntry, query string) []types.GpuEntry {
	var found []types.GpuEntry
	for _, gpu := range list {
		if strings.Contains(gpu.SearchKey, query) {
			found = append(found, gpu)
		}
	}
	return found
}

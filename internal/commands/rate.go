package commands

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-daddy-bot/internal/cache"
	"crypto-daddy-bot/internal/types"
	"crypto-daddy-bot/lib/helpers"
	"crypto-daddy-bot/lib/translation"
)

const (
	RateRefreshInterval = 2 * time.Hour
	// MaxFailures is how many failed sub-fetches a first load tolerates.
	MaxFailures = 2
	// exchangeMarkup is added to the USDT offer, in rubles.
	exchangeMarkup = 2
)

type UsdRubSource interface {
	GetUsdRub(ctx context.Context) (string, error)
}

type AliexpressSource interface {
	GetAliexpressRub(ctx context.Context) (string, error)
}

type ExchangeLister interface {
	GetRates(ctx context.Context, from, to string) ([]types.ExchangeQuote, error)
}

type CryptoSource interface {
	GetTickers(ctx context.Context) ([]types.CryptoTicker, error)
}

// UsdRubChain asks each source in turn and returns the first rate found.
type UsdRubChain []UsdRubSource

func (c UsdRubChain) GetUsdRub(ctx context.Context) (string, error) {
	err := errors.New("no usd/rub source configured")
	for _, s := range c {
		var rate string
		rate, err = s.GetUsdRub(ctx)
		if err == nil {
			return rate, nil
		}
		log.WithField("service", "rate").Warnf("usd/rub source failed, trying next: %s", err)
	}
	return "", err
}

type RateSources struct {
	Official   UsdRubSource
	Aliexpress AliexpressSource
	Exchange   ExchangeLister
	// ExchangeFrom and ExchangeTo are the lister's ids of the USDT -> RUB direction.
	ExchangeFrom string
	ExchangeTo   string
	Crypto       CryptoSource
}

type RateCommand struct {
	warmer
	f       Formatter
	sources RateSources
	cfg     RefreshConfig
	cache   *cache.Cache[types.RateInfo]
}

func NewRateCommand(f Formatter, sources RateSources, cfg RefreshConfig) *RateCommand {
	if cfg.Interval <= 0 {
		cfg.Interval = RateRefreshInterval
	}

	r := &RateCommand{f: f, sources: sources, cfg: cfg}
	r.cache = cache.New("rate", r.load, cfg.options())
	r.warmer = newWarmer(r.cache, cfg)
	return r
}

func (r *RateCommand) Name() string {
	return "rate"
}

func (r *RateCommand) Aliases() []string {
	return []string{"rate", "rates", "курс"}
}

func (r *RateCommand) Handle(ctx context.Context, _ Request) ([]Reply, error) {
	info, err := r.cache.Get(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "command /rate")
	}

	var b strings.Builder
	b.WriteString(r.f.Render("RateCommand.rateInfo", translation.Fields{
		"rub": translation.Fields{
			"official":   info.Rub.Official,
			"aliexpress": info.Rub.Aliexpress,
			"exchange":   info.Rub.Exchange,
		},
	}))
	for _, ticker := range info.Crypto {
		b.WriteString(r.f.Render("RateCommand.rateInfoRow", translation.Fields{
			"ticker": translation.Fields{
				"symbol":              ticker.Symbol,
				"price":               ticker.Price,
				"priceDiffPercentage": ticker.PriceDiffPercentage,
				"priceDirection":      r.direction(ticker.Direction),
			},
		}))
	}

	return []Reply{{Text: strings.TrimSpace(b.String()), DisableLinkPreview: true}}, nil
}

func (r *RateCommand) direction(d types.PriceDirection) string {
	if d == types.PriceUp {
		return r.f.Translate("RateCommand.priceDirectionUp")
	}
	return r.f.Translate("RateCommand.priceDirectionDown")
}

// load runs the sub-fetches in parallel and merges whatever succeeded over
// the previous snapshot.
func (r *RateCommand) load(ctx context.Context, prev *types.RateInfo) (types.RateInfo, bool, error) {
	logger := log.WithField("service", r.Name())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
		total    int
	)
	run := func(name string, fetch func(ctx context.Context) error) {
		total++
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Debugf("getting %s", name)
			if err := safeFetch(ctx, name, fetch); err != nil {
				logger.Errorf("failed to get %s: %s", name, err)
				r.cfg.fetchFailed(name, err)
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			logger.Debugf("success (%s)", name)
		}()
	}

	var (
		official, aliexpress, exchange string
		crypto                         []types.CryptoTicker
		cryptoOK                       bool
	)
	run("official usd/rub", func(ctx context.Context) (err error) {
		official, err = r.sources.Official.GetUsdRub(ctx)
		return err
	})
	run("aliexpress usd/rub", func(ctx context.Context) (err error) {
		aliexpress, err = r.sources.Aliexpress.GetAliexpressRub(ctx)
		return err
	})
	run("usdt/rub", func(ctx context.Context) (err error) {
		exchange, err = r.usdtRub(ctx)
		return err
	})
	run("crypto tickers", func(ctx context.Context) (err error) {
		crypto, err = r.sources.Crypto.GetTickers(ctx)
		cryptoOK = err == nil
		return err
	})
	wg.Wait()

	if failures >= MaxFailures && prev == nil {
		return types.RateInfo{}, false, errors.Wrapf(ErrAggregationFailure, "%d of %d rate sources failed", failures, total)
	}

	result := types.RateInfo{Rub: types.RubRates{
		Official:   helpers.Unknown,
		Aliexpress: helpers.Unknown,
		Exchange:   helpers.Unknown,
	}}
	if prev != nil {
		result = prev.Clone()
	}
	if official != "" {
		result.Rub.Official = official
	}
	if aliexpress != "" {
		result.Rub.Aliexpress = aliexpress
	}
	if exchange != "" {
		result.Rub.Exchange = exchange
	}
	if cryptoOK {
		result.Crypto = crypto
	}

	if failures > 0 {
		logger.Warnf("%d of %d rate sources failed, serving partial data", failures, total)
	}
	return result, failures > 0, nil
}

// safeFetch turns a panic in fetch into an error.
func safeFetch(ctx context.Context, name string, fetch func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic while getting %s: %v", name, r)
		}
	}()
	return fetch(ctx)
}

// usdtRub is the second best USDT offer plus the markup.
func (r *RateCommand) usdtRub(ctx context.Context) (string, error) {
	quotes, err := r.sources.Exchange.GetRates(ctx, r.sources.ExchangeFrom, r.sources.ExchangeTo)
	if err != nil {
		return "", err
	}
	if len(quotes) == 0 {
		return "", errors.New("no usdt offers")
	}

	quote := quotes[0]
	if len(quotes) > 1 {
		quote = quotes[1]
	}
	return helpers.AddToPrice(quote.Price, exchangeMarkup)
}

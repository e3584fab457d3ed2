package commands

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-daddy-bot/internal/cache"
	"crypto-daddy-bot/internal/types"
	"crypto-daddy-bot/lib/translation"
)

const ExchangeRefreshInterval = 2*time.Hour + 10*time.Second

type DirectionSource interface {
	GetDirection(ctx context.Context, from, to, fromSymbol, toSymbol string) ([]types.ExchangeQuote, error)
}

// Direction is an exchange pair as known to the listing site.
type Direction struct {
	From       string
	To         string
	FromSymbol string
	ToSymbol   string
	URL        string
}

// EthTinkoff is ETH sold for rubles on a Tinkoff card.
var EthTinkoff = Direction{
	From:       "139",
	To:         "105",
	FromSymbol: "ETH",
	ToSymbol:   "RUB",
	URL:        "https://www.bestchange.ru/ethereum-to-tinkoff.html",
}

type ExchangeCommand struct {
	warmer
	f         Formatter
	direction Direction
	cache     *cache.Cache[types.ExchangeListing]
}

func NewExchangeCommand(f Formatter, src DirectionSource, direction Direction, cfg RefreshConfig) *ExchangeCommand {
	if cfg.Interval <= 0 {
		cfg.Interval = ExchangeRefreshInterval
	}

	e := &ExchangeCommand{f: f, direction: direction}
	e.cache = cache.New("exchange", func(ctx context.Context, _ *types.ExchangeListing) (types.ExchangeListing, bool, error) {
		listing, degraded, err := e.load(ctx, src)
		if err != nil {
			cfg.fetchFailed("exchange", err)
		}
		return listing, degraded, err
	}, cfg.options())
	e.warmer = newWarmer(e.cache, cfg)
	return e
}

func (e *ExchangeCommand) Name() string {
	return "exchange"
}

func (e *ExchangeCommand) Aliases() []string {
	return []string{"bestchange", "exchange", "обменник"}
}

func (e *ExchangeCommand) Handle(ctx context.Context, _ Request) ([]Reply, error) {
	listing, err := e.cache.Get(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "command /exchange")
	}

	rows := make([]string, 0, len(listing.Exchanges))
	for _, quote := range listing.Exchanges {
		rows = append(rows, e.f.Render("ExchangeCommand.rateInfoRow", translation.Fields{
			"title": quote.Title,
			"price": quote.Price,
		}))
	}

	text := e.f.Translate("ExchangeCommand.resultIntro") + "\n\n" +
		e.f.Render("ExchangeCommand.rateInfo", translation.Fields{
			"fromSymbol": listing.FromSymbol,
			"toSymbol":   listing.ToSymbol,
			"url":        listing.URL,
		}) + "\n" + strings.Join(rows, "\n")

	return []Reply{{Text: strings.TrimSpace(text), DisableLinkPreview: true}}, nil
}

func (e *ExchangeCommand) load(ctx context.Context, src DirectionSource) (types.ExchangeListing, bool, error) {
	d := e.direction
	quotes, err := src.GetDirection(ctx, d.From, d.To, d.FromSymbol, d.ToSymbol)
	if err != nil {
		return types.ExchangeListing{}, false, err
	}

	listing := types.ExchangeListing{FromSymbol: d.FromSymbol, ToSymbol: d.ToSymbol, URL: d.URL}
	for _, quote := range quotes {
		if quote.IsFavorite || types.IsFavoriteExchange(quote.Title) {
			listing.Exchanges = append(listing.Exchanges, quote)
		}
	}
	log.WithField("service", e.Name()).Debugf("%d of %d exchanges are favorites", len(listing.Exchanges), len(quotes))
	return listing, false, nil
}

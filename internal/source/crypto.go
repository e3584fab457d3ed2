package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"

	"crypto-daddy-bot/internal/types"
	"crypto-daddy-bot/lib/helpers"
)

const coinGeckoURL = "https://api.coingecko.com/api/v3/coins/markets"

var (
	// CoinGeckoIDs are the coins listed by the rate command.
	CoinGeckoIDs = []string{"bitcoin", "ethereum", "ethereum-classic", "ergo", "the-open-network", "solana"}

	// CoinPaprikaIDs are the same coins in coinpaprika naming.
	CoinPaprikaIDs = []string{"btc-bitcoin", "eth-ethereum", "etc-ethereum-classic", "erg-ergo", "ton-toncoin", "sol-solana"}
)

// CoinGecko reads USD market data from the public coingecko API.
type CoinGecko struct {
	BaseURL string
	IDs     []string

	requester
}

func NewCoinGecko(client *http.Client) *CoinGecko {
	return &CoinGecko{
		BaseURL:   coinGeckoURL,
		IDs:       CoinGeckoIDs,
		requester: newRequester("coingecko", client),
	}
}

func (c *CoinGecko) GetTickers(ctx context.Context) ([]types.CryptoTicker, error) {
	query := url.Values{"vs_currency": {"usd"}, "ids": {strings.Join(c.IDs, ",")}}
	content, err := c.get(ctx, c.BaseURL+"?"+query.Encode(), map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var markets []struct {
		Symbol                   string  `json:"symbol"`
		CurrentPrice             float64 `json:"current_price"`
		PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	}
	if err := json.Unmarshal(content, &markets); err != nil {
		return nil, fetchError(c.name, 0, errors.Wrap(err, "could not decode markets"))
	}

	tickers := make([]types.CryptoTicker, 0, len(markets))
	for _, m := range markets {
		if m.CurrentPrice <= 0 {
			return nil, parseError(c.name, "invalid price %v for %s", m.CurrentPrice, m.Symbol)
		}
		tickers = append(tickers, newTicker(m.Symbol, m.CurrentPrice, m.PriceChangePercentage24h))
	}

	c.dump(tickers)
	return tickers, nil
}

// CoinPaprika reads the same market data through the coinpaprika API client.
type CoinPaprika struct {
	IDs []string

	name   string
	client *coinpaprika.Client
}

// NewCoinPaprika creates the adapter; apiKey may be empty for the free tier.
func NewCoinPaprika(client *http.Client, apiKey string) *CoinPaprika {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}

	var paprika *coinpaprika.Client
	if apiKey != "" {
		paprika = coinpaprika.NewClient(client, coinpaprika.WithAPIKey(apiKey))
	} else {
		paprika = coinpaprika.NewClient(client)
	}

	return &CoinPaprika{IDs: CoinPaprikaIDs, name: "coinpaprika", client: paprika}
}

func (c *CoinPaprika) GetTickers(ctx context.Context) ([]types.CryptoTicker, error) {
	tickers := make([]types.CryptoTicker, 0, len(c.IDs))

	for _, id := range c.IDs {
		if err := ctx.Err(); err != nil {
			return nil, fetchError(c.name, 0, err)
		}

		ticker, err := c.client.Tickers.GetByID(id, &coinpaprika.TickersOptions{Quotes: "USD"})
		if err != nil {
			return nil, fetchError(c.name, 0, errors.Wrapf(err, "ticker %s", id))
		}

		quote, ok := ticker.Quotes["USD"]
		if !ok || ticker.Symbol == nil || quote.Price == nil || *quote.Price <= 0 {
			return nil, parseError(c.name, "no usd quote for %s", id)
		}

		var change float64
		if quote.PercentChange24h != nil {
			change = *quote.PercentChange24h
		}
		tickers = append(tickers, newTicker(*ticker.Symbol, *quote.Price, change))
	}

	return tickers, nil
}

func newTicker(symbol string, price, change float64) types.CryptoTicker {
	direction := types.PriceDown
	if change > 0 {
		direction = types.PriceUp
	}

	return types.CryptoTicker{
		Symbol:              strings.ToUpper(symbol),
		Price:               helpers.NormalizeFloat(price),
		PriceDiffPercentage: helpers.SignedPercent(change),
		Direction:           direction,
	}
}

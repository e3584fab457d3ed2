package source

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"crypto-daddy-bot/internal/types"
	"crypto-daddy-bot/lib/helpers"
)

const (
	bestchangeAPIURL    = "https://www.bestchange.ru/api.php"
	bestchangeActionURL = "https://www.bestchange.com/action.php"
)

var (
	bestchangeRatesRe = regexp.MustCompile(
		`(?s)site_hr.*?<a.*?>(?P<title>.*?)<.*?rate.*?>.*?>(?P<fromCurrency>.*?)<.*?rate.*?>(?P<price>.*?)<.*?>(?P<toCurrency>.*?)[\s<]`,
	)
	bestchangeDirectionRe = regexp.MustCompile(`(?s)ca">(?P<title>.*?)<.*?fs">.*?bi">(?P<price>.*?)<`)
)

// Bestchange scrapes exchanger offers from bestchange.
type Bestchange struct {
	APIURL    string
	ActionURL string

	requester
}

func NewBestchange(client *http.Client) *Bestchange {
	return &Bestchange{
		APIURL:    bestchangeAPIURL,
		ActionURL: bestchangeActionURL,
		requester: newRequester("bestchange", client),
	}
}

// GetRates returns the rates table for a direction given by bestchange
// currency ids, e.g. ("139", "105") for ETH -> RUB Tinkoff.
func (b *Bestchange) GetRates(ctx context.Context, from, to string) ([]types.ExchangeQuote, error) {
	query := url.Values{"action": {"getrates"}, "from": {from}, "to": {to}}
	content, err := b.get(ctx, b.APIURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	exchanges := []types.ExchangeQuote{}
	for _, m := range bestchangeRatesRe.FindAllSubmatch(content, -1) {
		title := strings.TrimSpace(string(m[bestchangeRatesRe.SubexpIndex("title")]))
		exchanges = append(exchanges, types.ExchangeQuote{
			Title:        title,
			Price:        helpers.StripFraction(string(m[bestchangeRatesRe.SubexpIndex("price")])),
			FromCurrency: strings.TrimSpace(string(m[bestchangeRatesRe.SubexpIndex("fromCurrency")])),
			ToCurrency:   strings.TrimSpace(string(m[bestchangeRatesRe.SubexpIndex("toCurrency")])),
			IsFavorite:   types.IsFavoriteExchange(title),
		})
	}

	b.dump(exchanges)
	return exchanges, nil
}

// GetDirection returns offers from the sorted direction page. Currency units
// are not part of that page and are filled from the arguments.
func (b *Bestchange) GetDirection(ctx context.Context, from, to string, fromSymbol, toSymbol string) ([]types.ExchangeQuote, error) {
	form := url.Values{
		"action":     {"getrates"},
		"page":       {"rates"},
		"from":       {from},
		"to":         {to},
		"city":       {"0"},
		"type":       {""},
		"give":       {""},
		"get":        {""},
		"commission": {"0"},
		"sort":       {"to"},
		"range":      {"desc"},
		"sortm":      {"0"},
		"tsid":       {"0"},
	}
	content, err := b.do(ctx, http.MethodPost, b.ActionURL, strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}

	exchanges := []types.ExchangeQuote{}
	for _, m := range bestchangeDirectionRe.FindAllSubmatch(content, -1) {
		title := strings.TrimSpace(string(m[bestchangeDirectionRe.SubexpIndex("title")]))
		exchanges = append(exchanges, types.ExchangeQuote{
			Title:        title,
			Price:        helpers.DropFraction(string(m[bestchangeDirectionRe.SubexpIndex("price")])),
			FromCurrency: fromSymbol,
			ToCurrency:   toSymbol,
			IsFavorite:   types.IsFavoriteExchange(title),
		})
	}

	b.dump(exchanges)
	return exchanges, nil
}

package source

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"crypto-daddy-bot/internal/types"
	"crypto-daddy-bot/lib/helpers"
)

const kursExpertURL = "https://kurs.expert/api/directionlist"

// kurs.expert rejects bursts of calls, so requests are spaced out.
const kursExpertInterval = 10 * time.Second

// KursExpert lists exchanger offers for a currency direction.
type KursExpert struct {
	BaseURL string

	requester
	limiter *rate.Limiter
}

func NewKursExpert(client *http.Client) *KursExpert {
	return &KursExpert{
		BaseURL:   kursExpertURL,
		requester: newRequester("kurs.expert", client),
		limiter:   rate.NewLimiter(rate.Every(kursExpertInterval), 1),
	}
}

// GetRates returns exchanger offers for the from -> to direction, e.g.
// ("usdt.trc-20", "tinkoff"), in the order the site ranks them.
func (k *KursExpert) GetRates(ctx context.Context, from, to string) ([]types.ExchangeQuote, error) {
	if err := k.limiter.Wait(ctx); err != nil {
		return nil, fetchError(k.name, 0, errors.Wrap(err, "rate limited"))
	}

	form := url.Values{
		"from": {from},
		"to":   {to},
		"host": {""},
		"lang": {"en"},
	}
	content, err := k.do(ctx, http.MethodPost, k.BaseURL, strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}

	return k.parse(content)
}

func (k *KursExpert) parse(content []byte) ([]types.ExchangeQuote, error) {
	list := gjson.GetBytes(content, "answer.exchangersList")
	if !list.Exists() {
		return nil, parseError(k.name, "exchangers list not found")
	}

	exchanges := []types.ExchangeQuote{}
	list.ForEach(func(_, item gjson.Result) bool {
		title := item.Get("name").String()
		exchanges = append(exchanges, types.ExchangeQuote{
			Title:        title,
			Price:        helpers.StripFraction(item.Get("out").String()),
			FromCurrency: item.Get("fromUnit").String(),
			ToCurrency:   item.Get("toUnit").String(),
			IsFavorite:   types.IsFavoriteExchange(title),
		})
		return true
	})

	k.dump(exchanges)
	return exchanges, nil
}

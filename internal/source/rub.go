package source

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"crypto-daddy-bot/lib/helpers"
)

const (
	bankirosURL = "https://bankiros.ru/ajax/moex-tool?tool_id=1"
	moexURL     = "https://iss.moex.com/iss/engines/currency/markets/selt/boards/CETS/securities/USD000UTSTOM.json"
	helpixURL   = "https://helpix.ru/currency/"
)

// helpix renders its history table as flat cells, ten per row.
const helpixRowWidth = 10

var helpixCellRe = regexp.MustCompile(`b-tabcurr__td">(.*?)<`)

// Bankiros reads the USD/RUB exchange quote proxied by bankiros.ru.
type Bankiros struct {
	BaseURL string

	requester
}

func NewBankiros(client *http.Client) *Bankiros {
	return &Bankiros{BaseURL: bankirosURL, requester: newRequester("bankiros", client)}
}

func (b *Bankiros) GetUsdRub(ctx context.Context) (string, error) {
	content, err := b.get(ctx, b.BaseURL, map[string]string{
		"Accept":           "*/*",
		"Accept-Language":  "en,ru;q=0.9",
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          "https://bankiros.ru/currency/moex/usdrub-tom",
	})
	if err != nil {
		return "", err
	}

	return positivePrice(b.name, gjson.GetBytes(content, "data.last"))
}

// Moex reads USD000UTSTOM from the Moscow exchange ISS API.
type Moex struct {
	BaseURL string

	requester
}

func NewMoex(client *http.Client) *Moex {
	return &Moex{BaseURL: moexURL, requester: newRequester("moex", client)}
}

func (m *Moex) GetUsdRub(ctx context.Context) (string, error) {
	content, err := m.get(ctx, m.BaseURL, nil)
	if err != nil {
		return "", err
	}

	return positivePrice(m.name, gjson.GetBytes(content, "marketdata.data.0.8"))
}

// Helpix reads the ruble rate Aliexpress applies to USD prices.
type Helpix struct {
	BaseURL string

	requester
}

func NewHelpix(client *http.Client) *Helpix {
	return &Helpix{BaseURL: helpixURL, requester: newRequester("helpix", client)}
}

func (h *Helpix) GetAliexpressRub(ctx context.Context) (string, error) {
	content, err := h.get(ctx, h.BaseURL, nil)
	if err != nil {
		return "", err
	}

	var cells []string
	for _, m := range helpixCellRe.FindAllSubmatch(content, -1) {
		cells = append(cells, strings.TrimSpace(string(m[1])))
	}

	// Rows without an Aliexpress rate show "-" in the third column.
	i := 2
	for i < len(cells) && cells[i] == "-" {
		i += helpixRowWidth
	}
	if i >= len(cells) {
		return "", parseError(h.name, "aliexpress rate not found in %d cells", len(cells))
	}

	price, err := helpers.NormalizePrice(cells[i])
	if err != nil || !helpers.IsPositive(price) {
		return "", parseError(h.name, "invalid aliexpress rate %q", cells[i])
	}
	return price, nil
}

func positivePrice(source string, value gjson.Result) (string, error) {
	if !value.Exists() {
		return "", parseError(source, "price not found")
	}

	price, err := helpers.NormalizePrice(value.String())
	if err != nil || !helpers.IsPositive(price) {
		return "", parseError(source, "invalid price %q", value.Raw)
	}
	return price, nil
}

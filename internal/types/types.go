package types

// FavoriteExchanges is the curated allow-list of exchangers surfaced in replies.
var FavoriteExchanges = []string{"QuickChange", "ExHub", "NetEx24"}

// IsFavoriteExchange reports whether title is on the allow-list.
func IsFavoriteExchange(title string) bool {
	for _, name := range FavoriteExchanges {
		if name == title {
			return true
		}
	}
	return false
}

// ExchangeQuote is one exchanger offer parsed from a listing page.
type ExchangeQuote struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	IsFavorite   bool   `json:"is_favorite"`
}

// ExchangeListing is the aggregate served by the exchange-listing command.
type ExchangeListing struct {
	FromSymbol string          `json:"from_symbol"`
	ToSymbol   string          `json:"to_symbol"`
	URL        string          `json:"url"`
	Exchanges  []ExchangeQuote `json:"exchanges"`
}

// GpuEntry is one GPU model scraped from a hashrate listing.
type GpuEntry struct {
	Title     string `json:"title"`
	SearchKey string `json:"search_key"`
	Hashrate  string `json:"hashrate"`
	Power     string `json:"power"`
	Profit    string `json:"profit"`
	ROI       string `json:"roi,omitempty"`
	Link      string `json:"link"`
}

type PriceDirection int

const (
	PriceDown PriceDirection = iota
	PriceUp
)

// CryptoTicker is a coin price in USD with its 24h change.
type CryptoTicker struct {
	Symbol              string         `json:"symbol"`
	Price               string         `json:"price"`
	PriceDiffPercentage string         `json:"price_diff_percentage"`
	Direction           PriceDirection `json:"direction"`
}

// RubRates holds USD/RUB as seen by different markets.
type RubRates struct {
	Official   string `json:"official"`
	Aliexpress string `json:"aliexpress"`
	Exchange   string `json:"exchange"`
}

// RateInfo is the aggregate served by the rate command.
type RateInfo struct {
	Rub    RubRates       `json:"rub"`
	Crypto []CryptoTicker `json:"crypto"`
}

// Clone returns a deep copy so a previous snapshot can be patched safely.
func (r RateInfo) Clone() RateInfo {
	clone := r
	clone.Crypto = append([]CryptoTicker(nil), r.Crypto...)
	return clone
}

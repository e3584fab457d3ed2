package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKursExpertGetRates(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		form = map[string]string{"from": r.PostForm.Get("from"), "to": r.PostForm.Get("to"), "lang": r.PostForm.Get("lang")}
		w.Write(fixture(t, "kurs-expert-eth-tinkoff.json"))
	}))
	defer srv.Close()

	k := NewKursExpert(srv.Client())
	k.BaseURL = srv.URL

	result, err := k.GetRates(context.Background(), "ethereum", "tinkoff")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"from": "ethereum", "to": "tinkoff", "lang": "en"}, form)

	require.Len(t, result, 5)
	require.Equal(t, "Урал-обмен", result[0].Title)
	require.Equal(t, "ETH", result[0].FromCurrency)
	require.Equal(t, "RUB", result[0].ToCurrency)
	require.Equal(t, "73791", result[0].Price)
	require.False(t, result[0].IsFavorite)

	require.Equal(t, "QuickChange", result[1].Title)
	require.Equal(t, "73650", result[1].Price)
	require.True(t, result[1].IsFavorite)
	require.True(t, result[3].IsFavorite)
}

func TestKursExpertUnexpectedPayload(t *testing.T) {
	srv := serve(t, http.StatusOK, []byte(`{"status":"error"}`))

	k := NewKursExpert(srv.Client())
	k.BaseURL = srv.URL

	_, err := k.GetRates(context.Background(), "ethereum", "tinkoff")
	require.Error(t, err)
	require.IsType(t, &FetchError{}, err)
}

func TestKursExpertCancelledWhileDebouncing(t *testing.T) {
	srv := serve(t, http.StatusOK, fixture(t, "kurs-expert-eth-tinkoff.json"))

	k := NewKursExpert(srv.Client())
	k.BaseURL = srv.URL

	_, err := k.GetRates(context.Background(), "ethereum", "tinkoff")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = k.GetRates(ctx, "ethereum", "tinkoff")
	require.IsType(t, &FetchError{}, err)
}

func TestBestchangeGetRates(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write(fixture(t, "bestchange-api-eth-rub.html"))
	}))
	defer srv.Close()

	b := NewBestchange(srv.Client())
	b.APIURL = srv.URL

	result, err := b.GetRates(context.Background(), "139", "105")
	require.NoError(t, err)
	require.Equal(t, "action=getrates&from=139&to=105", query)

	require.Len(t, result, 5)
	require.Equal(t, "Delets", result[0].Title)
	require.Equal(t, "ETH", result[0].FromCurrency)
	require.Equal(t, "RUB", result[0].ToCurrency)
	require.Equal(t, "69143", result[0].Price)
	require.False(t, result[0].IsFavorite)

	require.Equal(t, "Baksman", result[2].Title)
	require.Equal(t, "68700", result[2].Price)

	require.Equal(t, "QuickChange", result[4].Title)
	require.True(t, result[4].IsFavorite)
}

func TestBestchangeGetRatesEmptyPage(t *testing.T) {
	srv := serve(t, http.StatusOK, []byte("<html><body>no rates</body></html>"))

	b := NewBestchange(srv.Client())
	b.APIURL = srv.URL

	result, err := b.GetRates(context.Background(), "139", "105")
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestBestchangeGetDirection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "rates", r.PostForm.Get("page"))
		require.Equal(t, "139", r.PostForm.Get("from"))
		require.Equal(t, "105", r.PostForm.Get("to"))
		w.Write(fixture(t, "bestchange-direction-eth-rub.html"))
	}))
	defer srv.Close()

	b := NewBestchange(srv.Client())
	b.ActionURL = srv.URL

	result, err := b.GetDirection(context.Background(), "139", "105", "ETH", "RUB")
	require.NoError(t, err)
	require.Len(t, result, 5)

	var titles, prices []string
	for _, e := range result {
		titles = append(titles, e.Title)
		prices = append(prices, e.Price)
		require.Equal(t, "ETH", e.FromCurrency)
		require.Equal(t, "RUB", e.ToCurrency)
	}
	require.Equal(t, []string{"Delets", "NetEx24", "QuickChange", "Baksman", "ExHub"}, titles)
	require.Equal(t, []string{"136000", "135420", "134921", "134500", "133863"}, prices)
	require.True(t, result[1].IsFavorite)
	require.False(t, result[3].IsFavorite)
}

func TestBestchangeGetDirectionDropsSmallFractions(t *testing.T) {
	srv := serve(t, http.StatusOK, []byte(`<table><tbody>`+
		`<tr><td class="bj"><div class="ca">NetEx24</div></td><td class="bi"><div class="fs">1 <small>USDT</small></div></td><td class="bi">97.55 <small>RUB Тинькофф</small></td></tr>`+
		`</tbody></table>`))

	b := NewBestchange(srv.Client())
	b.ActionURL = srv.URL

	result, err := b.GetDirection(context.Background(), "10", "105", "USDT", "RUB")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "97", result[0].Price)
}

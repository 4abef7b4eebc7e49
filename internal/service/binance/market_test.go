package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	domrepo "EarnPilot/internal/domain/repository"
	pkgcache "EarnPilot/pkg/cache"
	applogger "EarnPilot/pkg/logger"
)

func testLog(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func newTestMarket(t *testing.T, handler http.Handler, apiKey, secret string) (*MarketService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:           srv.URL,
		APIKey:            apiKey,
		SecretKey:         secret,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, testLog(t))
	return NewMarketService(client, pkgcache.NewMemoryCache(), testLog(t)), srv
}

func TestTicker24hParsesDecimalStrings(t *testing.T) {
	svc, _ := newTestMarket(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		w.Write([]byte(`[{"symbol":"BTCUSDT","priceChangePercent":"-1.25","lastPrice":"51000.50"}]`))
	}), "", "")

	out, err := svc.Ticker24h(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "BTCUSDT", out[0].Symbol)
	require.InDelta(t, -1.25, out[0].ChangePercent, 1e-9)
	require.InDelta(t, 51000.50, out[0].LastPrice, 1e-9)
}

func TestKlinesParsesPositionalRows(t *testing.T) {
	calls := 0
	svc, _ := newTestMarket(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(`[
			[1700000000000,"100.0","110.0","95.0","105.5","1234.5",1700086399999,"x","y","z","w","v"],
			[1700086400000,"105.5","106.0","99.0","0","0",1700172799999,"x","y","z","w","v"],
			[1700172800000,"bad row"]
		]`))
	}), "", "")

	out, err := svc.Klines(context.Background(), "BTCUSDT", "1d", 50)
	require.NoError(t, err)
	// zero-close and short rows are dropped
	require.Len(t, out, 1)
	require.Equal(t, int64(1700000000000), out[0].OpenTime)
	require.InDelta(t, 105.5, out[0].Close, 1e-9)
	require.InDelta(t, 1234.5, out[0].Volume, 1e-9)

	// second read is served from cache
	_, err = svc.Klines(context.Background(), "BTCUSDT", "1d", 50)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestAccountBalancesSignsRequest(t *testing.T) {
	const secret = "test-secret"
	svc, _ := newTestMarket(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key-123", r.Header.Get("X-MBX-APIKEY"))

		q := r.URL.Query()
		require.NotEmpty(t, q.Get("timestamp"))
		require.Equal(t, "5000", q.Get("recvWindow"))

		// recompute the signature over the payload preceding it
		sig := q.Get("signature")
		payload := r.URL.RawQuery[:len(r.URL.RawQuery)-len("&signature=")-len(sig)]
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(payload))
		require.Equal(t, hex.EncodeToString(mac.Sum(nil)), sig)

		w.Write([]byte(`{"balances":[
			{"asset":"USDT","free":"100.0","locked":"50.0"},
			{"asset":"DUST","free":"0","locked":"0"}
		]}`))
	}), "key-123", secret)

	out, err := svc.AccountBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "USDT", out[0].Asset)
	require.InDelta(t, 150.0, out[0].Total, 1e-9)
}

func TestAccountBalancesRequiresCredentials(t *testing.T) {
	svc, _ := newTestMarket(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unsigned request must not reach the exchange")
	}), "", "")

	_, err := svc.AccountBalances(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires API credentials")
}

func TestProductCatalogRoutes(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	svc, _ := newTestMarket(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"rows":[]}`))
	}), "key", "secret")

	_, err := svc.ProductCatalog(context.Background(), domrepo.ProductDual)
	require.NoError(t, err)
	require.Equal(t, "/sapi/v1/dci/product/list", gotPath)
	require.Equal(t, "PUT", gotQuery["optionType"][0])

	_, err = svc.ProductCatalog(context.Background(), domrepo.ProductFlexible)
	require.NoError(t, err)
	require.Equal(t, "/sapi/v1/simple-earn/flexible/list", gotPath)

	_, err = svc.ProductCatalog(context.Background(), domrepo.ProductKind("bogus"))
	require.Error(t, err)
}

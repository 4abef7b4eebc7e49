package usecase

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
)

func TestAsArrayUnwrapsVendorEnvelopes(t *testing.T) {
	require.Len(t, AsArray([]any{1, 2}), 2)
	require.Len(t, AsArray(map[string]any{"rows": []any{1}}), 1)
	require.Len(t, AsArray(map[string]any{"data": []any{1, 2, 3}}), 3)
	require.Nil(t, AsArray("not a list"))
	require.Nil(t, AsArray(nil))
}

func TestNumCoercions(t *testing.T) {
	require.InDelta(t, 1.5, Num(1.5, 0), 1e-9)
	require.InDelta(t, 7.0, Num(7, 0), 1e-9)
	require.InDelta(t, 2.25, Num("2.25", 0), 1e-9)
	require.InDelta(t, 3.0, Num(json.Number("3"), 0), 1e-9)
	require.InDelta(t, -1.0, Num("garbage", -1), 1e-9)
	require.InDelta(t, -1.0, Num(nil, -1), 1e-9)
	require.InDelta(t, 0.0, Num(math.NaN(), 0), 1e-9)
	require.InDelta(t, 0.0, Num(math.Inf(1), 0), 1e-9)
}

func TestReadAPRAliasPrecedence(t *testing.T) {
	m := map[string]any{
		"apr":                        "3.0",
		"latestAnnualPercentageRate": "5.5",
	}
	require.InDelta(t, 5.5, ReadAPR(m), 1e-9)

	require.InDelta(t, 3.0, ReadAPR(map[string]any{"apr": 3.0}), 1e-9)
	require.Zero(t, ReadAPR(map[string]any{}))
}

func TestParseBalancesRawPayload(t *testing.T) {
	payload := map[string]any{
		"balances": []any{
			map[string]any{"asset": "USDT", "free": "100.5", "locked": "9.5"},
			map[string]any{"asset": "", "free": "1"},
			"not an object",
		},
	}
	out := ParseBalances(payload)

	require.Len(t, out, 1)
	require.Equal(t, "USDT", out[0].Asset)
	require.InDelta(t, 110.0, out[0].Total, 1e-9)
}

func TestParseBalancesTypedRecomputesTotal(t *testing.T) {
	out := ParseBalances([]models.Balance{{Asset: "ETH", Free: 1, Locked: 0.5}})

	require.Len(t, out, 1)
	require.InDelta(t, 1.5, out[0].Total, 1e-9)
}

func TestParseFlexibleDropsNonPurchasable(t *testing.T) {
	out := ParseFlexible([]any{
		map[string]any{"asset": "USDT", "latestAnnualPercentageRate": "5.2", "canPurchase": true},
		map[string]any{"asset": "USDC", "apr": 6.0, "canPurchase": false},
		map[string]any{"asset": "FDUSD", "apy": 4.1}, // absent flag means buyable
		map[string]any{"latestAnnualPercentageRate": 9.0},
	})

	require.Len(t, out, 2)
	require.Equal(t, "USDT", out[0].Asset)
	require.InDelta(t, 5.2, out[0].APR, 1e-9)
	require.Equal(t, "FDUSD", out[1].Asset)
	require.InDelta(t, 4.1, out[1].APR, 1e-9)
}

func TestParseLockedFlattensDetailAndQuota(t *testing.T) {
	out := ParseLocked(map[string]any{"rows": []any{
		map[string]any{
			"detail": map[string]any{"asset": "USDT", "apr": "7.5", "duration": 30},
			"quota":  map[string]any{"leftQuota": "50000"},
		},
	}})

	require.Len(t, out, 1)
	require.Equal(t, "USDT", out[0].Asset)
	require.InDelta(t, 7.5, out[0].APR, 1e-9)
	require.Equal(t, 30, out[0].Duration)
	require.InDelta(t, 50000.0, out[0].Quota, 1e-9)
}

func TestParseDualKeepsPositiveYieldsOnly(t *testing.T) {
	out := ParseDual([]any{
		map[string]any{"baseAsset": "USDT", "quoteAsset": "BTC", "apy": "11.3", "strikePrice": "60000", "duration": 3},
		map[string]any{"baseAsset": "USDC", "apy": 0},
		map[string]any{"apy": 5.0},
	})

	require.Len(t, out, 1)
	require.Equal(t, "USDT", out[0].Base)
	require.Equal(t, "BTC", out[0].Quote)
	require.InDelta(t, 11.3, out[0].APY, 1e-9)
	require.InDelta(t, 60000.0, out[0].Strike, 1e-9)
	require.Equal(t, "BTC", out[0].Settle)
	require.Equal(t, 3, out[0].Duration)
}

func TestParseTickersRawPayload(t *testing.T) {
	out := ParseTickers([]any{
		map[string]any{"symbol": "BTCUSDT", "priceChangePercent": "-2.4", "lastPrice": "51000.12"},
		map[string]any{"priceChangePercent": "1.0"},
	})

	require.Len(t, out, 1)
	require.Equal(t, "BTCUSDT", out[0].Symbol)
	require.InDelta(t, -2.4, out[0].ChangePercent, 1e-9)
	require.InDelta(t, 51000.12, out[0].LastPrice, 1e-9)
}

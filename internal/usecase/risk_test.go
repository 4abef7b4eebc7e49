package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
)

func TestPortfolioRiskEmpty(t *testing.T) {
	m := CalculatePortfolioRisk(nil, nil, nil)

	require.Equal(t, "A", m.Grade)
	require.Zero(t, m.TotalValueUSD)
	require.Empty(t, m.TopHoldings)
	require.Equal(t, []string{"Portfolio is empty or below the dust threshold."}, m.Warnings)
}

func TestPortfolioRiskSingleStable(t *testing.T) {
	m := CalculatePortfolioRisk(
		balances(models.Balance{Asset: "USDT", Total: 1000}),
		nil, []string{"USDT"},
	)

	require.InDelta(t, 1000.0, m.TotalValueUSD, 1e-9)
	require.InDelta(t, 100.0, m.StablecoinPct, 1e-9)
	require.InDelta(t, 0.0, m.VolatilePct, 1e-9)
	// concentration term only: 0.3 * HHI(1) * 100
	require.InDelta(t, 30.0, m.RiskScore, 1e-9)
	require.Equal(t, "B", m.Grade)
	require.Zero(t, m.DiversificationScore)
	require.Contains(t, m.Warnings, "The entire portfolio is a single asset.")
}

func TestPortfolioRiskMixedFiftyFifty(t *testing.T) {
	m := CalculatePortfolioRisk(
		balances(
			models.Balance{Asset: "USDT", Total: 500},
			models.Balance{Asset: "BTC", Total: 0.01},
		),
		[]models.Ticker{{Symbol: "BTCUSDT", LastPrice: 50000, ChangePercent: 2}},
		[]string{"USDT"},
	)

	require.InDelta(t, 1000.0, m.TotalValueUSD, 1e-9)
	require.InDelta(t, 50.0, m.StablecoinPct, 1e-9)
	require.InDelta(t, 50.0, m.VolatilePct, 1e-9)
	// 0.4*50 + 0.3*(0.5*100) + 3*2
	require.InDelta(t, 41.0, m.RiskScore, 1e-9)
	require.Equal(t, "C", m.Grade)
	require.InDelta(t, 100.0, m.DiversificationScore, 1e-9)
	require.Empty(t, m.Warnings)
	require.Len(t, m.TopHoldings, 2)
}

func TestPortfolioRiskVolatileSingleAssetClamps(t *testing.T) {
	m := CalculatePortfolioRisk(
		balances(models.Balance{Asset: "BTC", Total: 0.002}),
		[]models.Ticker{{Symbol: "BTCUSDT", LastPrice: 50000, ChangePercent: -12}},
		nil,
	)

	// 0.4*100 + 0.3*100 + 3*12 exceeds the cap
	require.InDelta(t, 100.0, m.RiskScore, 1e-9)
	require.Equal(t, "F", m.Grade)
	require.Contains(t, m.Warnings, "Over 80% of the portfolio is in volatile assets.")
	require.Contains(t, m.Warnings, "The entire portfolio is a single asset.")
	// a single holding also trips the concentration warning
	require.Contains(t, m.Warnings, "Top holding BTC is 100.00% of the portfolio.")
	require.Contains(t, m.Warnings, "Average 24h volatility of volatile holdings is 12.0%.")
}

func TestPortfolioRiskBUSDPairFallback(t *testing.T) {
	m := CalculatePortfolioRisk(
		balances(models.Balance{Asset: "ETH", Total: 2}),
		[]models.Ticker{{Symbol: "ETHBUSD", LastPrice: 3000, ChangePercent: 1}},
		nil,
	)

	require.InDelta(t, 6000.0, m.TotalValueUSD, 1e-9)
	require.Equal(t, "ETH", m.TopHoldings[0].Asset)
}

func TestPortfolioRiskSkipsUnpricedAndDust(t *testing.T) {
	m := CalculatePortfolioRisk(
		balances(
			models.Balance{Asset: "USDT", Total: 100},
			models.Balance{Asset: "UNKNOWN", Total: 42}, // no ticker
			models.Balance{Asset: "SHIB", Total: 0.5},   // below dust
			models.Balance{Asset: "ZEROED", Total: 0},   // no amount
		),
		[]models.Ticker{{Symbol: "SHIBUSDT", LastPrice: 0.001, ChangePercent: 0}},
		[]string{"USDT"},
	)

	require.Len(t, m.TopHoldings, 1)
	require.Equal(t, "USDT", m.TopHoldings[0].Asset)
	require.InDelta(t, 100.0, m.TotalValueUSD, 1e-9)
}

func TestPortfolioRiskWhitelistExtendsStables(t *testing.T) {
	m := CalculatePortfolioRisk(
		balances(models.Balance{Asset: "XUSD", Total: 250}),
		nil, []string{"XUSD"},
	)

	require.InDelta(t, 250.0, m.TotalValueUSD, 1e-9)
	require.True(t, m.TopHoldings[0].IsStable)
}

func TestPortfolioRiskConcentrationWarning(t *testing.T) {
	m := CalculatePortfolioRisk(
		balances(
			models.Balance{Asset: "USDT", Total: 80},
			models.Balance{Asset: "USDC", Total: 15},
			models.Balance{Asset: "FDUSD", Total: 5},
		),
		nil, []string{"USDT", "USDC", "FDUSD"},
	)

	require.Contains(t, m.Warnings, "Top holding USDT is 80.00% of the portfolio.")
}

func TestPortfolioRiskSmallPortfolioWarning(t *testing.T) {
	m := CalculatePortfolioRisk(
		balances(models.Balance{Asset: "USDT", Total: 5}),
		nil, []string{"USDT"},
	)

	require.Contains(t, m.Warnings, "Portfolio value is below $10; metrics may not be meaningful.")
}

func TestPortfolioRiskTopHoldingsCapped(t *testing.T) {
	assets := []string{
		"USDT", "USDC", "FDUSD", "DAI", "TUSD", "BUSD",
		"AUSD", "CUSD", "EUSD", "GUSD", "ZUSD",
	}
	rows := make([]models.Balance, 0, len(assets))
	for i, a := range assets {
		rows = append(rows, models.Balance{Asset: a, Total: float64(1100 - i*100)})
	}
	m := CalculatePortfolioRisk(rows, nil, assets)

	require.Len(t, m.TopHoldings, 10)
	require.Equal(t, "USDT", m.TopHoldings[0].Asset)
	require.Equal(t, "GUSD", m.TopHoldings[9].Asset)
}

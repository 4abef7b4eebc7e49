package usecase

import (
	"fmt"
	"math"
	"sort"

	"EarnPilot/internal/domain/models"
)

const (
	dustValueUSD      = 0.01
	topHoldingsLimit  = 10
	volatileWarnPct   = 80.0
	concentrationWarn = 70.0
	avgVolWarnPct     = 10.0
	smallPortfolioUSD = 10.0
)

// CalculatePortfolioRisk is a pure snapshot computation: USD valuation,
// stable/volatile split, a concentration-aware risk score and a
// diversification score derived from the Herfindahl index.
func CalculatePortfolioRisk(balances []models.Balance, tickers []models.Ticker, whitelist []string) models.RiskMetrics {
	stable := map[string]bool{
		"USDT": true, "USDC": true, "FDUSD": true,
		"BUSD": true, "DAI": true, "TUSD": true,
	}
	for _, s := range whitelist {
		stable[s] = true
	}

	price := make(map[string]float64, len(tickers))
	change := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		price[t.Symbol] = t.LastPrice
		change[t.Symbol] = t.ChangePercent
	}
	lookup := func(asset string) (float64, float64) {
		if p, ok := price[asset+"USDT"]; ok && p > 0 {
			return p, change[asset+"USDT"]
		}
		if p, ok := price[asset+"BUSD"]; ok && p > 0 {
			return p, change[asset+"BUSD"]
		}
		return 0, 0
	}

	var holdings []models.Holding
	changes := make(map[string]float64)
	total := 0.0
	for _, b := range balances {
		if b.Total <= 0 {
			continue
		}
		var value float64
		if stable[b.Asset] {
			value = b.Total
		} else {
			p, ch := lookup(b.Asset)
			if p <= 0 {
				continue
			}
			value = b.Total * p
			changes[b.Asset] = ch
		}
		if value < dustValueUSD {
			continue
		}
		holdings = append(holdings, models.Holding{
			Asset:    b.Asset,
			Amount:   b.Total,
			ValueUSD: value,
			IsStable: stable[b.Asset],
		})
		total += value
	}

	if total <= 0 {
		return models.RiskMetrics{
			TopHoldings: []models.Holding{},
			Warnings:    []string{"Portfolio is empty or below the dust threshold."},
			Grade:       "A",
		}
	}

	stableValue := 0.0
	hhi := 0.0
	avgVol := 0.0
	volatileCount := 0
	for i := range holdings {
		share := holdings[i].ValueUSD / total
		holdings[i].Percent = round2(share * 100)
		holdings[i].ValueUSD = round2(holdings[i].ValueUSD)
		hhi += share * share
		if holdings[i].IsStable {
			stableValue += holdings[i].ValueUSD
		} else {
			avgVol += math.Abs(changes[holdings[i].Asset])
			volatileCount++
		}
	}
	if volatileCount > 0 {
		avgVol /= float64(volatileCount)
	}

	stablePct := stableValue / total * 100
	volatilePct := 100 - stablePct

	riskScore := 0.4*volatilePct + 0.3*(hhi*100) + 3*avgVol
	riskScore = math.Max(0, math.Min(100, riskScore))

	n := float64(len(holdings))
	diversification := 0.0
	if n > 1 {
		// rescale HHI from its [1/n, 1] range onto 0..100, higher is better
		diversification = (1 - (hhi-1/n)/(1-1/n)) * 100
	}

	sort.SliceStable(holdings, func(i, j int) bool { return holdings[i].ValueUSD > holdings[j].ValueUSD })
	top := holdings
	if len(top) > topHoldingsLimit {
		top = top[:topHoldingsLimit]
	}

	warnings := []string{}
	if volatilePct > volatileWarnPct {
		warnings = append(warnings, fmt.Sprintf("Over %.0f%% of the portfolio is in volatile assets.", volatileWarnPct))
	}
	if len(holdings) == 1 {
		warnings = append(warnings, "The entire portfolio is a single asset.")
	}
	if top[0].Percent > concentrationWarn {
		warnings = append(warnings, fmt.Sprintf("Top holding %s is %.2f%% of the portfolio.", top[0].Asset, top[0].Percent))
	}
	if avgVol > avgVolWarnPct {
		warnings = append(warnings, fmt.Sprintf("Average 24h volatility of volatile holdings is %.1f%%.", avgVol))
	}
	if total < smallPortfolioUSD {
		warnings = append(warnings, "Portfolio value is below $10; metrics may not be meaningful.")
	}

	return models.RiskMetrics{
		TotalValueUSD:        round2(total),
		StablecoinPct:        round2(stablePct),
		VolatilePct:          round2(volatilePct),
		RiskScore:            round1(riskScore),
		DiversificationScore: round1(diversification),
		TopHoldings:          top,
		Warnings:             warnings,
		Grade:                riskGrade(riskScore),
	}
}

func riskGrade(score float64) string {
	switch {
	case score <= 20:
		return "A"
	case score <= 40:
		return "B"
	case score <= 60:
		return "C"
	case score <= 80:
		return "D"
	default:
		return "F"
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

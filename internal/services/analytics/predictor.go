package analytics

import (
	"context"
	"fmt"
	"time"

	"EarnPilot/internal/domain/models"
	domrepo "EarnPilot/internal/domain/repository"
	domsvc "EarnPilot/internal/domain/service"
	icache "EarnPilot/internal/service/cache"
	"EarnPilot/internal/services/indicators"
)

const (
	klineInterval  = "1d"
	klineLookback  = 50
	minBars        = 30
	rsiPeriod      = 14
	regressionBars = 14

	// slope thresholds, fraction of mean price per day
	upSlope   = 0.005
	downSlope = -0.005
)

// MarketPredictor derives a directional forecast from daily close history.
// Results are memoized per symbol for a short window so a single decision
// cycle issues at most one kline fetch per distinct symbol.
type MarketPredictor struct {
	market  domrepo.MarketData
	memo    *icache.TTLCache
	memoTTL time.Duration
}

func NewMarketPredictor(market domrepo.MarketData) *MarketPredictor {
	return &MarketPredictor{
		market:  market,
		memo:    icache.NewTTLCache(),
		memoTTL: 30 * time.Second,
	}
}

// PredictTrend fetches the last 50 daily bars for symbol and fits a trend.
// Fewer than 30 bars produce a zeroed NEUTRAL result without error; fetch
// failures propagate to the caller.
func (p *MarketPredictor) PredictTrend(ctx context.Context, symbol string) (models.Prediction, error) {
	if v, ok := p.memo.Get("trend:" + symbol); ok {
		if pred, ok2 := v.(models.Prediction); ok2 {
			return pred, nil
		}
	}

	klines, err := p.market.Klines(ctx, symbol, klineInterval, klineLookback)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("klines %s: %w", symbol, err)
	}
	if len(klines) < minBars {
		return models.Prediction{
			Asset:     symbol,
			Direction: models.DirectionNeutral,
		}, nil
	}

	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}
	lastPrice := closes[len(closes)-1]

	lastRSI := indicators.LastRSI(closes, rsiPeriod, 50)
	volatility := indicators.Volatility(closes)

	recent := closes[len(closes)-regressionBars:]
	slope, mean, ok := indicators.OLSSlope(recent)
	slopePercent := 0.0
	if ok && mean != 0 {
		slopePercent = slope / mean
	}

	direction := models.DirectionNeutral
	confidence := 0.5
	switch {
	case slopePercent > upSlope:
		direction = models.DirectionUp
		confidence = 0.7
	case slopePercent < downSlope:
		direction = models.DirectionDown
		confidence = 0.7
	}

	// overbought/oversold reversal risk
	if lastRSI > 70 && direction == models.DirectionUp {
		confidence -= 0.2
	} else if lastRSI < 30 && direction == models.DirectionDown {
		confidence -= 0.2
	}
	if volatility > 0.05 {
		confidence -= 0.1
	}
	confidence = clamp01(confidence)

	pred := models.Prediction{
		Asset:                  symbol,
		Direction:              direction,
		Confidence:             confidence,
		PredictedChangePercent: slopePercent * 100 * 7,
		Price:                  lastPrice,
		Volatility:             volatility,
	}
	p.memo.Set("trend:"+symbol, pred, p.memoTTL)
	return pred, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ domsvc.TrendPredictor = (*MarketPredictor)(nil)

package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
)

func TestGridSuitabilitySidewaysWithSwing(t *testing.T) {
	p := &fakePredictor{pred: models.Prediction{
		Direction: models.DirectionNeutral, Volatility: 0.04,
	}}
	a := NewGridBotAnalyzer(p, "USDT")

	out := a.AnalyzeGridSuitability(context.Background(), "ETH")
	require.True(t, out.Suitable)
	require.InDelta(t, 0.8, out.Confidence, 1e-9)
	require.Contains(t, out.Reason, "Good fit for a spot grid bot")
}

func TestGridSuitabilityVolatilityTooLow(t *testing.T) {
	p := &fakePredictor{pred: models.Prediction{
		Direction: models.DirectionNeutral, Volatility: 0.01,
	}}
	a := NewGridBotAnalyzer(p, "USDT")

	out := a.AnalyzeGridSuitability(context.Background(), "ETH")
	require.False(t, out.Suitable)
	require.Contains(t, out.Reason, "Volatility too low")
}

func TestGridSuitabilityTrendingMarket(t *testing.T) {
	p := &fakePredictor{pred: models.Prediction{
		Direction: models.DirectionUp, Volatility: 0.05,
	}}
	a := NewGridBotAnalyzer(p, "USDT")

	out := a.AnalyzeGridSuitability(context.Background(), "ETH")
	require.False(t, out.Suitable)
	require.Contains(t, out.Reason, "Defined trend (UP)")
}

func TestGridSuitabilityExcessiveVolatility(t *testing.T) {
	p := &fakePredictor{pred: models.Prediction{
		Direction: models.DirectionNeutral, Volatility: 0.2,
	}}
	a := NewGridBotAnalyzer(p, "USDT")

	out := a.AnalyzeGridSuitability(context.Background(), "ETH")
	require.False(t, out.Suitable)
	require.Equal(t, "Criteria not met.", out.Reason)
}

func TestGridSuitabilityNoMarketData(t *testing.T) {
	a := NewGridBotAnalyzer(&fakePredictor{err: errors.New("no pair")}, "USDT")

	out := a.AnalyzeGridSuitability(context.Background(), "OBSCURE")
	require.False(t, out.Suitable)
	require.Equal(t, "No market data.", out.Reason)
}

package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
)

type fakePredictor struct {
	pred models.Prediction
	err  error
}

func (f *fakePredictor) PredictTrend(context.Context, string) (models.Prediction, error) {
	return f.pred, f.err
}

func TestSmartYieldBaseCurrencyShortCircuits(t *testing.T) {
	a := NewSmartYieldAnalyzer(&fakePredictor{err: errors.New("must not be called")}, "USDT")

	out := a.AnalyzeSmartYield(context.Background(), "USDT", 5, true)
	require.InDelta(t, 5.0, out.RealYield, 1e-9)
	require.False(t, out.IsTrap)
	require.Contains(t, out.Reason, "valuation reference")
}

func TestSmartYieldMissingPairFallsBack(t *testing.T) {
	a := NewSmartYieldAnalyzer(&fakePredictor{err: errors.New("no such pair")}, "USDT")

	out := a.AnalyzeSmartYield(context.Background(), "OBSCURE", 12, false)
	require.InDelta(t, 12.0, out.RealYield, 1e-9)
	require.InDelta(t, 10.0, out.RiskScore, 1e-9)
	require.Contains(t, out.Reason, "Insufficient market data")
}

func TestSmartYieldFlagsTrap(t *testing.T) {
	p := &fakePredictor{pred: models.Prediction{
		Direction: models.DirectionDown, PredictedChangePercent: -1, Volatility: 0.02,
	}}
	a := NewSmartYieldAnalyzer(p, "USDT")

	// 40% APR against -52% annualized drift
	out := a.AnalyzeSmartYield(context.Background(), "HIGH", 40, false)
	require.True(t, out.IsTrap)
	require.InDelta(t, -12.0, out.RealYield, 1e-9)
	require.Contains(t, out.Reason, "YIELD TRAP")
}

func TestSmartYieldLowAPRNeverTraps(t *testing.T) {
	p := &fakePredictor{pred: models.Prediction{
		Direction: models.DirectionDown, PredictedChangePercent: -1,
	}}
	a := NewSmartYieldAnalyzer(p, "USDT")

	// negative real yield, but the nominal rate is below the trap floor
	out := a.AnalyzeSmartYield(context.Background(), "ALT", 10, false)
	require.False(t, out.IsTrap)
	require.Negative(t, out.RealYield)
	require.Contains(t, out.Reason, "Real yield")
}

func TestSmartYieldDepegAlert(t *testing.T) {
	p := &fakePredictor{pred: models.Prediction{
		Direction: models.DirectionUp, PredictedChangePercent: 1.5,
	}}
	a := NewSmartYieldAnalyzer(p, "USDT")

	out := a.AnalyzeSmartYield(context.Background(), "USDC", 5, true)
	require.Contains(t, out.Reason, "De-peg alert")
}

func TestSmartYieldRiskScore(t *testing.T) {
	p := &fakePredictor{pred: models.Prediction{
		Direction: models.DirectionDown, PredictedChangePercent: -0.1, Volatility: 0.08,
	}}
	a := NewSmartYieldAnalyzer(p, "USDT")

	// 0.08*1000 + 50 bearish premium clamps to 100
	out := a.AnalyzeSmartYield(context.Background(), "ETH", 3, false)
	require.InDelta(t, 100.0, out.RiskScore, 1e-9)
}

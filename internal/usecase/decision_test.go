package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
)

type stubPredictor struct {
	preds map[string]models.Prediction
	err   error
}

func (s *stubPredictor) PredictTrend(_ context.Context, symbol string) (models.Prediction, error) {
	if s.err != nil {
		return models.Prediction{}, s.err
	}
	if p, ok := s.preds[symbol]; ok {
		return p, nil
	}
	return models.Prediction{Asset: symbol, Direction: models.DirectionNeutral, Confidence: 0.5, Price: 100}, nil
}

type stubYield struct {
	results map[string]models.YieldAnalysis
}

func (s *stubYield) AnalyzeSmartYield(_ context.Context, asset string, nominalAPR float64, _ bool) models.YieldAnalysis {
	if r, ok := s.results[asset]; ok {
		return r
	}
	return models.YieldAnalysis{Asset: asset, NominalAPR: nominalAPR, RealYield: nominalAPR}
}

type stubGrid struct {
	results map[string]models.GridAnalysis
}

func (s *stubGrid) AnalyzeGridSuitability(_ context.Context, asset string) models.GridAnalysis {
	if r, ok := s.results[asset]; ok {
		return r
	}
	return models.GridAnalysis{Asset: asset, Reason: "Criteria not met."}
}

func testConfig() models.AdvisorConfig {
	return models.AdvisorConfig{
		StablecoinWhitelist: []string{"USDT", "USDC", "FDUSD"},
		BaseCurrency:        "USDT",
		APRSwitchThreshold:  0.5,
		MaxDualPercent:      0.3,
		DefaultDurationDays: 7,
		VolatilityGuard24h:  5.0,
	}
}

func newTestEngine(p *stubPredictor, y *stubYield, g *stubGrid) *Engine {
	if p == nil {
		p = &stubPredictor{}
	}
	if y == nil {
		y = &stubYield{}
	}
	if g == nil {
		g = &stubGrid{}
	}
	return NewEngine(p, y, g, nil)
}

func flexRow(asset string, apr float64) map[string]any {
	return map[string]any{"asset": asset, "latestAnnualPercentageRate": apr, "canPurchase": true}
}

func balances(rows ...models.Balance) []models.Balance { return rows }

func TestDecideNoDataProducesNoAction(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{})

	require.Equal(t, models.RecNoAction, out.Recommendation.Type)
	require.Nil(t, out.AIAnalysis)
	require.Empty(t, out.TopFlexible)
}

func TestDecideGridBotShortCircuits(t *testing.T) {
	g := &stubGrid{results: map[string]models.GridAnalysis{
		"ETH": {Asset: "ETH", Suitable: true, Confidence: 0.8, Reason: "Sideways market with volatility (4.0%). Good fit for a spot grid bot."},
	}}
	p := &stubPredictor{preds: map[string]models.Prediction{
		// even a strong bearish signal must not override the grid outcome
		"ETHUSDT": {Asset: "ETHUSDT", Direction: models.DirectionDown, Confidence: 0.9, Price: 3000},
	}}
	e := newTestEngine(p, nil, g)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:     balances(models.Balance{Asset: "ETH", Free: 2}),
		Flexible:    []any{flexRow("USDC", 8)},
		TargetAsset: "ETH",
	})

	require.Equal(t, models.RecSpotGridBot, out.Recommendation.Type)
	require.Equal(t, "ETH", out.Recommendation.Asset)
	require.InDelta(t, 2.0, out.Recommendation.AmountSuggested, 1e-9)
	require.Contains(t, out.Recommendation.Reason, "grid bot")
}

func TestDecideBearishTrendTriggersSwap(t *testing.T) {
	p := &stubPredictor{preds: map[string]models.Prediction{
		"ETHUSDT": {Asset: "ETHUSDT", Direction: models.DirectionDown, Confidence: 0.8, PredictedChangePercent: -4.2, Price: 3000},
	}}
	e := newTestEngine(p, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:     balances(models.Balance{Asset: "ETH", Free: 1.5}),
		Flexible:    []any{flexRow("USDC", 8), flexRow("USDT", 5)},
		TargetAsset: "ETH",
	})

	require.Equal(t, models.RecSwapOpportunity, out.Recommendation.Type)
	require.Equal(t, "USDC", out.Recommendation.Asset)
	require.InDelta(t, 1.5, out.Recommendation.AmountSuggested, 1e-9)
	require.Contains(t, out.Recommendation.Reason, "Bearish trend for ETH")
}

func TestDecideBearishNeedsStableCandidate(t *testing.T) {
	p := &stubPredictor{preds: map[string]models.Prediction{
		"ETHUSDT": {Asset: "ETHUSDT", Direction: models.DirectionDown, Confidence: 0.8, Price: 3000},
	}}
	e := newTestEngine(p, nil, nil)

	// no stable flexible products exist, so the guard cannot fire
	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:     balances(models.Balance{Asset: "ETH", Free: 1.5}),
		TargetAsset: "ETH",
	})

	require.Equal(t, models.RecNoAction, out.Recommendation.Type)
}

func TestDecideBearishLowConfidenceDoesNotSwap(t *testing.T) {
	p := &stubPredictor{preds: map[string]models.Prediction{
		"ETHUSDT": {Asset: "ETHUSDT", Direction: models.DirectionDown, Confidence: 0.6, Price: 3000},
	}}
	e := newTestEngine(p, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:     balances(models.Balance{Asset: "ETH", Free: 1}),
		Flexible:    []any{flexRow("USDC", 8)},
		TargetAsset: "ETH",
	})

	// confidence must exceed 0.6 strictly
	require.NotEqual(t, models.RecSwapOpportunity, out.Recommendation.Type)
}

func TestDecideYieldTrapTriggersSwap(t *testing.T) {
	y := &stubYield{results: map[string]models.YieldAnalysis{
		"HIGH": {Asset: "HIGH", NominalAPR: 40, RealYield: -12, IsTrap: true, Reason: "YIELD TRAP: projected depreciation exceeds the interest earned."},
	}}
	e := newTestEngine(nil, y, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:     balances(models.Balance{Asset: "HIGH", Free: 500}),
		Flexible:    []any{flexRow("USDT", 5), flexRow("HIGH", 40)},
		TargetAsset: "HIGH",
	})

	require.Equal(t, models.RecSwapOpportunity, out.Recommendation.Type)
	require.Equal(t, "USDT", out.Recommendation.Asset)
	require.Contains(t, out.Recommendation.Reason, "YIELD TRAP")
}

func TestDecideVolatilityGuardDefersDecision(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:     balances(models.Balance{Asset: "ETH", Free: 1}),
		Ticker24h:   []models.Ticker{{Symbol: "ETHUSDT", ChangePercent: -6.2, LastPrice: 3000}},
		Flexible:    []any{flexRow("USDC", 8)},
		TargetAsset: "ETH",
	})

	require.Equal(t, models.RecNoAction, out.Recommendation.Type)
	require.Equal(t, 1, out.Recommendation.DurationDays)
	require.Contains(t, out.Recommendation.Reason, "High 24h volatility")
}

func TestDecideStayWhenAlreadyOptimal(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:  balances(models.Balance{Asset: "USDC", Free: 1000}),
		Flexible: []any{flexRow("USDC", 8), flexRow("USDT", 5)},
	})

	require.Equal(t, models.RecFlexibleStay, out.Recommendation.Type)
	require.Equal(t, "USDC", out.Recommendation.Asset)
	require.Contains(t, out.Recommendation.Reason, "already optimal")
}

func TestDecideStayWhenImprovementTooSmall(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:  balances(models.Balance{Asset: "USDT", Free: 1000}),
		Flexible: []any{flexRow("USDT", 5), flexRow("USDC", 5.3)},
	})

	require.Equal(t, models.RecFlexibleStay, out.Recommendation.Type)
	require.Contains(t, out.Recommendation.Reason, "+0.30pp")
}

func TestDecideSwitchWhenThresholdMet(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:  balances(models.Balance{Asset: "USDT", Free: 1000}),
		Flexible: []any{flexRow("USDT", 5), flexRow("USDC", 5.8)},
	})

	require.Equal(t, models.RecFlexibleSwitch, out.Recommendation.Type)
	require.Equal(t, "USDC", out.Recommendation.Asset)
	require.InDelta(t, 1000.0, out.Recommendation.AmountSuggested, 1e-9)
	require.Contains(t, out.Recommendation.Reason, "+0.80pp")
}

func TestDecideSwitchTargetTrapFallsBackToStay(t *testing.T) {
	y := &stubYield{results: map[string]models.YieldAnalysis{
		"USDC": {Asset: "USDC", NominalAPR: 20, RealYield: -3, IsTrap: true, Reason: "YIELD TRAP: projected depreciation exceeds the interest earned."},
	}}
	e := newTestEngine(nil, y, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:  balances(models.Balance{Asset: "USDT", Free: 1000}),
		Flexible: []any{flexRow("USDT", 5), flexRow("USDC", 20)},
	})

	require.Equal(t, models.RecFlexibleStay, out.Recommendation.Type)
	require.Equal(t, "USDT", out.Recommendation.Asset)
	require.Contains(t, out.Recommendation.Reason, "yield trap")
}

func TestDecideLockedUpgradeOverwritesStay(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:  balances(models.Balance{Asset: "USDT", Free: 1000}),
		Flexible: []any{flexRow("USDT", 5)},
		Locked: []any{map[string]any{
			"detail": map[string]any{"asset": "USDT", "apr": 7.5, "duration": 30},
		}},
	})

	require.Equal(t, models.RecLockedSuggest, out.Recommendation.Type)
	require.Equal(t, "USDT", out.Recommendation.Asset)
	require.Equal(t, 30, out.Recommendation.DurationDays)
	require.Contains(t, out.Recommendation.Reason, "Locked USDT")
}

func TestDecideDualOverlayOverwrites(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:  balances(models.Balance{Asset: "USDT", Free: 1000}),
		Flexible: []any{flexRow("USDT", 5)},
		Dual: []any{map[string]any{
			"baseAsset": "USDT", "quoteAsset": "BTC", "apy": 12.0, "strikePrice": 60000.0, "settleAsset": "BTC", "duration": 3,
		}},
	})

	require.Equal(t, models.RecDualSuggest, out.Recommendation.Type)
	require.Equal(t, "USDT", out.Recommendation.Asset)
	require.InDelta(t, 300.0, out.Recommendation.AmountSuggested, 1e-9)
	require.Equal(t, 3, out.Recommendation.DurationDays)
	require.Contains(t, out.Recommendation.Reason, "conversion risk")
}

func TestDecideDualBlockedByBearishBase(t *testing.T) {
	p := &stubPredictor{preds: map[string]models.Prediction{
		"USDTUSDT": {Asset: "USDTUSDT", Direction: models.DirectionDown, Confidence: 0.8, Price: 1},
	}}
	e := newTestEngine(p, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:  balances(models.Balance{Asset: "USDT", Free: 1000}),
		Flexible: []any{flexRow("USDT", 5)},
		Dual: []any{map[string]any{
			"baseAsset": "USDT", "quoteAsset": "BTC", "apy": 12.0,
		}},
	})

	require.NotEqual(t, models.RecDualSuggest, out.Recommendation.Type)
}

func TestDecideDualSpreadTooNarrow(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:  balances(models.Balance{Asset: "USDT", Free: 1000}),
		Flexible: []any{flexRow("USDT", 5)},
		Dual: []any{map[string]any{
			"baseAsset": "USDT", "quoteAsset": "BTC", "apy": 7.5,
		}},
	})

	require.NotEqual(t, models.RecDualSuggest, out.Recommendation.Type)
}

func TestDecideOutputAssemblesTopLists(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account: balances(models.Balance{Asset: "USDT", Free: 100}),
		Flexible: []any{
			flexRow("USDT", 5), flexRow("USDC", 6), flexRow("FDUSD", 4),
			flexRow("ETH", 2), // not whitelisted, must not appear
		},
	})

	require.Len(t, out.TopFlexible, 3)
	require.Equal(t, "USDC", out.TopFlexible[0].Asset)
	require.Equal(t, "USDT", out.TopFlexible[1].Asset)
	require.Equal(t, "FDUSD", out.TopFlexible[2].Asset)
	require.Equal(t, "USDT", out.PortfolioSummary.FocusAsset)
	require.InDelta(t, 5.0, out.PortfolioSummary.FocusFlexibleAPR, 1e-9)
	require.NotNil(t, out.AIAnalysis)
}

func TestDecideFocusFallsBackToLargestHolding(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account: balances(
			models.Balance{Asset: "ETH", Free: 3},
			models.Balance{Asset: "BTC", Free: 1},
		),
	})

	require.Equal(t, "ETH", out.PortfolioSummary.FocusAsset)
}

func TestDecidePredictorErrorDegradesToNeutral(t *testing.T) {
	p := &stubPredictor{err: context.DeadlineExceeded}
	e := newTestEngine(p, nil, nil)

	out := e.Decide(context.Background(), testConfig(), models.AdvisorInputs{
		Account:     balances(models.Balance{Asset: "ETH", Free: 1}),
		Flexible:    []any{flexRow("USDT", 5)},
		TargetAsset: "ETH",
	})

	require.NotNil(t, out.AIAnalysis)
	require.Equal(t, models.DirectionNeutral, out.AIAnalysis.Prediction.Direction)
	require.Zero(t, out.AIAnalysis.Prediction.Confidence)
}

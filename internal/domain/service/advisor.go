package service

import (
	"context"

	"EarnPilot/internal/domain/models"
)

// TrendPredictor computes a short-horizon directional forecast for a trading
// symbol. Insufficient history yields a zeroed NEUTRAL result, not an error;
// transport failures propagate.
type TrendPredictor interface {
	PredictTrend(ctx context.Context, symbol string) (models.Prediction, error)
}

// YieldAnalyzer compares a nominal yield rate against the projected price
// drift of the asset and flags yield traps. Market-data absence degrades to a
// neutral fallback instead of an error.
type YieldAnalyzer interface {
	AnalyzeSmartYield(ctx context.Context, asset string, nominalAPR float64, isStable bool) models.YieldAnalysis
}

// GridAnalyzer judges whether an asset's price action fits a spot grid bot.
type GridAnalyzer interface {
	AnalyzeGridSuitability(ctx context.Context, asset string) models.GridAnalysis
}

// Notifier delivers finished reports and urgent alerts to the outbound
// channel. Implementations must be no-ops when unconfigured.
type Notifier interface {
	SendDailyReport(ctx context.Context, out *models.AdvisorOutput) error
	SendUrgentAlert(ctx context.Context, message string) error
}

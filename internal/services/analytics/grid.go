package analytics

import (
	"context"
	"fmt"

	"EarnPilot/internal/domain/models"
	domsvc "EarnPilot/internal/domain/service"
)

const (
	gridMinVolatility = 0.02
	gridMaxVolatility = 0.15
)

// GridBotAnalyzer judges whether an asset trades sideways with enough
// oscillation to profit from a spot grid strategy.
type GridBotAnalyzer struct {
	predictor    domsvc.TrendPredictor
	baseCurrency string
}

func NewGridBotAnalyzer(predictor domsvc.TrendPredictor, baseCurrency string) *GridBotAnalyzer {
	return &GridBotAnalyzer{predictor: predictor, baseCurrency: baseCurrency}
}

// AnalyzeGridSuitability never fails; data absence yields not-suitable with
// zero confidence.
func (a *GridBotAnalyzer) AnalyzeGridSuitability(ctx context.Context, asset string) models.GridAnalysis {
	symbol := asset + a.baseCurrency
	pred, err := a.predictor.PredictTrend(ctx, symbol)
	if err != nil {
		return models.GridAnalysis{Asset: asset, Reason: "No market data."}
	}

	isNeutral := pred.Direction == models.DirectionNeutral
	hasSwing := pred.Volatility > gridMinVolatility && pred.Volatility < gridMaxVolatility

	switch {
	case isNeutral && hasSwing:
		return models.GridAnalysis{
			Asset:      asset,
			Suitable:   true,
			Confidence: 0.8,
			Reason: fmt.Sprintf("Sideways market with volatility (%.1f%%). Good fit for a spot grid bot.",
				pred.Volatility*100),
		}
	case pred.Volatility <= gridMinVolatility:
		return models.GridAnalysis{Asset: asset, Reason: "Volatility too low for a grid bot."}
	case !isNeutral:
		return models.GridAnalysis{
			Asset:  asset,
			Reason: fmt.Sprintf("Defined trend (%s) — risk of breaking out of the range.", pred.Direction),
		}
	default:
		return models.GridAnalysis{Asset: asset, Reason: "Criteria not met."}
	}
}

var _ domsvc.GridAnalyzer = (*GridBotAnalyzer)(nil)

package analytics

import (
	"context"
	"fmt"
	"math"

	"EarnPilot/internal/domain/models"
	domsvc "EarnPilot/internal/domain/service"
)

const (
	trapAPRFloor      = 15.0 // nominal APR above which a negative real yield is a trap
	weeksPerYear      = 52.0
	depegAlertPercent = 1.0
)

// SmartYieldAnalyzer computes the real yield of a product: nominal rate plus
// the annualized projected price drift of the underlying asset.
type SmartYieldAnalyzer struct {
	predictor    domsvc.TrendPredictor
	baseCurrency string
}

func NewSmartYieldAnalyzer(predictor domsvc.TrendPredictor, baseCurrency string) *SmartYieldAnalyzer {
	return &SmartYieldAnalyzer{predictor: predictor, baseCurrency: baseCurrency}
}

// AnalyzeSmartYield never fails: the base currency short-circuits (it is the
// valuation reference and cannot be measured against itself) and missing
// market data degrades to a neutral fallback.
func (a *SmartYieldAnalyzer) AnalyzeSmartYield(ctx context.Context, asset string, nominalAPR float64, isStable bool) models.YieldAnalysis {
	if asset == a.baseCurrency {
		return models.YieldAnalysis{
			Asset:      asset,
			NominalAPR: nominalAPR,
			RealYield:  nominalAPR,
			RiskScore:  5,
			Reason:     "Base stablecoin — valuation reference.",
		}
	}

	symbol := asset + a.baseCurrency
	pred, err := a.predictor.PredictTrend(ctx, symbol)
	if err != nil {
		// pair likely does not exist, assume stable
		return models.YieldAnalysis{
			Asset:      asset,
			NominalAPR: nominalAPR,
			RealYield:  nominalAPR,
			RiskScore:  10,
			Reason:     "Insufficient market data for the pair.",
		}
	}

	annualizedDrift := pred.PredictedChangePercent * weeksPerYear
	realYield := nominalAPR + annualizedDrift

	riskScore := pred.Volatility * 1000
	if pred.Direction == models.DirectionDown {
		riskScore += 50
	}
	riskScore = math.Min(100, riskScore)

	isTrap := nominalAPR > trapAPRFloor && realYield < 0

	reason := fmt.Sprintf("Real yield %.2f%% (APR %.2f%% %+.2f%% annualized price drift).",
		realYield, nominalAPR, annualizedDrift)
	if isTrap {
		reason = "YIELD TRAP: projected depreciation exceeds the interest earned."
	} else if isStable && math.Abs(pred.PredictedChangePercent) > depegAlertPercent {
		reason += " De-peg alert: elevated volatility for a stablecoin."
	}

	return models.YieldAnalysis{
		Asset:      asset,
		NominalAPR: nominalAPR,
		RealYield:  realYield,
		RiskScore:  riskScore,
		IsTrap:     isTrap,
		Reason:     reason,
	}
}

var _ domsvc.YieldAnalyzer = (*SmartYieldAnalyzer)(nil)

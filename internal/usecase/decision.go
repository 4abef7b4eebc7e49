package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"EarnPilot/internal/domain/models"
	domsvc "EarnPilot/internal/domain/service"
	applogger "EarnPilot/pkg/logger"
)

const (
	dualAPYSpreadPP  = 3.0 // minimum pp of dual APY over best flexible APR
	bearishMinConf   = 0.6
	defaultNoAction  = "Insufficient data or no clear advantage."
	marketProxyAsset = "BTC" // sentiment proxy when the focus is the base currency
)

// Engine is the rule-based decision core. Each cycle starts fresh: the rules
// run in a fixed order and later rules overwrite the current recommendation
// whenever their guard passes (last write wins). The ordering is part of the
// product behavior; do not replace it with a best-of comparator.
type Engine struct {
	predictor domsvc.TrendPredictor
	yield     domsvc.YieldAnalyzer
	grid      domsvc.GridAnalyzer
	log       *applogger.Logger
}

func NewEngine(predictor domsvc.TrendPredictor, yield domsvc.YieldAnalyzer, grid domsvc.GridAnalyzer, log *applogger.Logger) *Engine {
	return &Engine{predictor: predictor, yield: yield, grid: grid, log: log}
}

// Decide consumes one cycle's snapshot and produces the full report. It never
// returns an error: documented failures degrade to a NO_ACTION report with an
// explanatory reason.
func (e *Engine) Decide(ctx context.Context, cfg models.AdvisorConfig, in models.AdvisorInputs) models.AdvisorOutput {
	stable := make(map[string]bool, len(cfg.StablecoinWhitelist))
	for _, s := range cfg.StablecoinWhitelist {
		stable[s] = true
	}

	spot := make(map[string]models.Balance)
	for _, b := range ParseBalances(in.Account) {
		spot[b.Asset] = b
	}

	tmap := make(map[string]models.Ticker)
	for _, t := range ParseTickers(in.Ticker24h) {
		tmap[t.Symbol] = t
	}
	vol24 := func(asset string) float64 {
		if stable[asset] {
			return 0
		}
		return tmap[asset+cfg.BaseCurrency].ChangePercent
	}

	flex := ParseFlexible(in.Flexible)
	locked := ParseLocked(in.Locked)
	dual := ParseDual(in.Dual)

	stableFlex := filterStableYield(flex, stable)
	sortByAPRDesc(stableFlex)
	topFlexible := topFlexibleEntries(stableFlex, 3)

	var bestStable *models.YieldCandidate
	if len(stableFlex) > 0 {
		bestStable = &stableFlex[0]
	}

	focusAsset, focusTotal := resolveFocus(cfg, spot, in.TargetAsset)

	currentAPR := 0.0
	for _, f := range flex {
		if f.Asset == focusAsset {
			currentAPR = f.APR
			break
		}
	}

	rec := models.Recommendation{
		Type:         models.RecNoAction,
		Asset:        focusAsset,
		DurationDays: cfg.DefaultDurationDays,
		Reason:       defaultNoAction,
	}

	var ai *models.AIAnalysis
	gridShortCircuit := false
	aiBlocked := false
	blockedByVolatility := false

	if focusAsset != "" {
		isStableFocus := stable[focusAsset]

		// 1. grid-bot check: a sideways, swinging market beats parking funds
		if !isStableFocus {
			ga := e.grid.AnalyzeGridSuitability(ctx, focusAsset)
			if ga.Suitable {
				rec = models.Recommendation{
					Type:            models.RecSpotGridBot,
					Asset:           focusAsset,
					AmountSuggested: focusTotal,
					DurationDays:    cfg.DefaultDurationDays,
					Reason:          fmt.Sprintf("%s Confidence %.0f%%.", ga.Reason, ga.Confidence*100),
				}
				gridShortCircuit = true
			}
		}

		focusPred := e.predictSafe(ctx, focusAsset+cfg.BaseCurrency)
		smartYield := e.yield.AnalyzeSmartYield(ctx, focusAsset, currentAPR, isStableFocus)
		sentiment := focusPred
		if focusAsset == cfg.BaseCurrency {
			sentiment = e.predictSafe(ctx, marketProxyAsset+cfg.BaseCurrency)
		}
		ai = &models.AIAnalysis{Prediction: focusPred, SmartYield: smartYield, MarketSentiment: sentiment}

		if !gridShortCircuit {
			// 2. bearish swap guard
			if !isStableFocus && focusPred.Direction == models.DirectionDown &&
				focusPred.Confidence > bearishMinConf && bestStable != nil {
				rec = models.Recommendation{
					Type:            models.RecSwapOpportunity,
					Asset:           bestStable.Asset,
					AmountSuggested: focusTotal,
					DurationDays:    cfg.DefaultDurationDays,
					Reason: fmt.Sprintf("Bearish trend for %s (confidence %.0f%%, projected %+.2f%% over 7d). Park funds in %s at %.2f%% APR until the trend improves.",
						focusAsset, focusPred.Confidence*100, focusPred.PredictedChangePercent, bestStable.Asset, bestStable.APR),
				}
				aiBlocked = true
			}

			// 3. yield-trap guard on the focus asset's current yield
			if !aiBlocked && smartYield.IsTrap && bestStable != nil {
				rec = models.Recommendation{
					Type:            models.RecSwapOpportunity,
					Asset:           bestStable.Asset,
					AmountSuggested: focusTotal,
					DurationDays:    cfg.DefaultDurationDays,
					Reason: fmt.Sprintf("%s Move to %s at %.2f%% APR instead.",
						smartYield.Reason, bestStable.Asset, bestStable.APR),
				}
				aiBlocked = true
			}

			// 4. standard flexible logic
			if !aiBlocked && focusTotal > 0 && bestStable != nil {
				delta := bestStable.APR - currentAPR
				v := vol24(focusAsset)

				switch {
				case !isStableFocus && math.Abs(v) >= cfg.VolatilityGuard24h:
					blockedByVolatility = true
					rec = models.Recommendation{
						Type:         models.RecNoAction,
						Asset:        focusAsset,
						DurationDays: 1,
						Reason:       fmt.Sprintf("High 24h volatility (%.2f%%). Re-evaluate tomorrow.", v),
					}
				case focusAsset == bestStable.Asset:
					rec = models.Recommendation{
						Type:            models.RecFlexibleStay,
						Asset:           focusAsset,
						AmountSuggested: focusTotal,
						DurationDays:    cfg.DefaultDurationDays,
						Reason:          fmt.Sprintf("Already in the best stablecoin — already optimal (APR %.2f%%).", currentAPR),
					}
				case delta < cfg.APRSwitchThreshold:
					rec = models.Recommendation{
						Type:            models.RecFlexibleStay,
						Asset:           focusAsset,
						AmountSuggested: focusTotal,
						DurationDays:    cfg.DefaultDurationDays,
						Reason:          fmt.Sprintf("APR improvement too small (+%.2fpp).", delta),
					}
				default:
					// re-check the switch target before committing funds to it
					target := e.yield.AnalyzeSmartYield(ctx, bestStable.Asset, bestStable.APR, true)
					if target.IsTrap {
						rec = models.Recommendation{
							Type:            models.RecFlexibleStay,
							Asset:           focusAsset,
							AmountSuggested: focusTotal,
							DurationDays:    cfg.DefaultDurationDays,
							Reason:          fmt.Sprintf("Best candidate %s is flagged as a yield trap — staying put. %s", bestStable.Asset, target.Reason),
						}
					} else {
						rec = models.Recommendation{
							Type:            models.RecFlexibleSwitch,
							Asset:           bestStable.Asset,
							AmountSuggested: focusTotal,
							DurationDays:    cfg.DefaultDurationDays,
							Reason: fmt.Sprintf("Switch %s → %s. APR +%.2fpp (from %.2f%% to %.2f%%). Target risk score %.0f/100.",
								focusAsset, bestStable.Asset, delta, currentAPR, bestStable.APR, target.RiskScore),
						}
					}
				}
			}

			// 5. locked upgrade — overwrites the flexible outcome when it passes
			if !blockedByVolatility && !aiBlocked && stable[focusAsset] &&
				bestStable != nil && focusAsset == bestStable.Asset {
				if bl := bestLockedFor(locked, focusAsset); bl != nil &&
					bl.APR-currentAPR >= cfg.APRSwitchThreshold {
					duration := bl.Duration
					if duration == 0 {
						duration = cfg.DefaultDurationDays
					}
					rec = models.Recommendation{
						Type:            models.RecLockedSuggest,
						Asset:           focusAsset,
						AmountSuggested: focusTotal,
						DurationDays:    duration,
						Reason: fmt.Sprintf("Locked %s pays %.2f%% APR, +%.2fpp over flexible (%.2f%%) for %d days. Funds stay locked until maturity.",
							focusAsset, bl.APR, bl.APR-currentAPR, currentAPR, duration),
					}
				}
			}
		}
	}

	// dual catalog and top list are always assembled for the report
	sortDualByAPYDesc(dual)
	topDual := topDualEntries(dual, 3)

	bestFlexibleAPR := 0.0
	if bestStable != nil {
		bestFlexibleAPR = bestStable.APR
	}

	// 6. dual overlay — evaluated last; overwrites any prior outcome
	if !gridShortCircuit && !blockedByVolatility && !aiBlocked {
		if bd := bestStableDual(dual, stable); bd != nil && bd.APY-bestFlexibleAPR >= dualAPYSpreadPP {
			baseSentiment := e.predictSafe(ctx, bd.Base+cfg.BaseCurrency)
			bearishBase := baseSentiment.Direction == models.DirectionDown && baseSentiment.Confidence > bearishMinConf
			if !bearishBase {
				amt := spot[bd.Base].Total * cfg.MaxDualPercent
				if amt > 0 {
					duration := bd.Duration
					if duration == 0 {
						duration = cfg.DefaultDurationDays
					}
					rec = models.Recommendation{
						Type:            models.RecDualSuggest,
						Asset:           bd.Base,
						AmountSuggested: amt,
						DurationDays:    duration,
						Reason: fmt.Sprintf("Dual investment: APY %.2f%% vs flexible ~%.2f%%. Worst case: settlement in %s at strike %s (conversion risk).",
							bd.APY, bestFlexibleAPR, bd.Settle, strikeLabel(bd.Strike)),
					}
				}
			}
		}
	}

	sortByAPRDesc(locked)
	stableLocked := filterStableYield(locked, stable)

	return models.AdvisorOutput{
		GeneratedAt: time.Now().UTC(),
		PortfolioSummary: models.PortfolioSummary{
			FocusAsset:       focusAsset,
			FocusTotal:       focusTotal,
			FocusFlexibleAPR: currentAPR,
		},
		TopFlexible:    topFlexible,
		TopLocked:      topLockedEntries(stableLocked, 3),
		TopDual:        topDual,
		Recommendation: rec,
		AIAnalysis:     ai,
	}
}

// predictSafe absorbs predictor transport errors into a neutral zero-confidence
// result so a single missing pair cannot abort the cycle.
func (e *Engine) predictSafe(ctx context.Context, symbol string) models.Prediction {
	pred, err := e.predictor.PredictTrend(ctx, symbol)
	if err != nil {
		if e.log != nil {
			e.log.Warn("trend prediction unavailable",
				applogger.String("symbol", symbol), applogger.Error(err))
		}
		return models.Prediction{Asset: symbol, Direction: models.DirectionNeutral}
	}
	return pred
}

// resolveFocus picks the explicit target when given, otherwise the
// highest-balance whitelisted stablecoin, falling back to the highest balance
// overall.
func resolveFocus(cfg models.AdvisorConfig, spot map[string]models.Balance, target string) (string, float64) {
	if target != "" {
		return target, spot[target].Total
	}

	focus := ""
	total := 0.0
	for _, a := range cfg.StablecoinWhitelist {
		if b, ok := spot[a]; ok && b.Total > total {
			focus, total = a, b.Total
		}
	}
	if focus == "" {
		for a, b := range spot {
			if b.Total > total {
				focus, total = a, b.Total
			}
		}
	}
	return focus, total
}

func filterStableYield(cands []models.YieldCandidate, stable map[string]bool) []models.YieldCandidate {
	out := make([]models.YieldCandidate, 0, len(cands))
	for _, c := range cands {
		if stable[c.Asset] {
			out = append(out, c)
		}
	}
	return out
}

func sortByAPRDesc(cands []models.YieldCandidate) {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].APR > cands[j].APR })
}

func sortDualByAPYDesc(cands []models.DualCandidate) {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].APY > cands[j].APY })
}

func bestLockedFor(locked []models.YieldCandidate, asset string) *models.YieldCandidate {
	var best *models.YieldCandidate
	for i := range locked {
		if locked[i].Asset != asset {
			continue
		}
		if best == nil || locked[i].APR > best.APR {
			best = &locked[i]
		}
	}
	return best
}

func bestStableDual(dual []models.DualCandidate, stable map[string]bool) *models.DualCandidate {
	var best *models.DualCandidate
	for i := range dual {
		if !stable[dual[i].Base] {
			continue
		}
		if best == nil || dual[i].APY > best.APY {
			best = &dual[i]
		}
	}
	return best
}

func topFlexibleEntries(cands []models.YieldCandidate, n int) []models.TopFlexibleEntry {
	out := make([]models.TopFlexibleEntry, 0, n)
	for _, c := range cands {
		if len(out) == n {
			break
		}
		out = append(out, models.TopFlexibleEntry{
			Asset:  c.Asset,
			APR:    c.APR,
			Min:    c.Min,
			Quota:  c.Quota,
			Reason: "Stablecoin with competitive APR",
		})
	}
	return out
}

func topLockedEntries(cands []models.YieldCandidate, n int) []models.TopLockedEntry {
	out := make([]models.TopLockedEntry, 0, n)
	for _, c := range cands {
		if len(out) == n {
			break
		}
		out = append(out, models.TopLockedEntry{
			Asset:    c.Asset,
			APR:      c.APR,
			Duration: c.Duration,
			Min:      c.Min,
			Reason:   "Higher APR in exchange for a lock-up",
		})
	}
	return out
}

func topDualEntries(cands []models.DualCandidate, n int) []models.TopDualEntry {
	out := make([]models.TopDualEntry, 0, n)
	for _, c := range cands {
		if len(out) == n {
			break
		}
		out = append(out, models.TopDualEntry{
			Base:      c.Base,
			Quote:     c.Quote,
			APY:       c.APY,
			Strike:    c.Strike,
			WorstCase: fmt.Sprintf("May settle in %s at strike %s (conversion risk).", c.Settle, strikeLabel(c.Strike)),
			Reason:    "Higher potential return with conversion risk",
		})
	}
	return out
}

func strikeLabel(strike float64) string {
	if strike == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%g", strike)
}

package models

import "time"

// Direction of a short-horizon trend forecast.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// RecommendationType enumerates the mutually exclusive outcomes of a cycle.
type RecommendationType string

const (
	RecFlexibleStay    RecommendationType = "FLEXIBLE_STAY"
	RecFlexibleSwitch  RecommendationType = "FLEXIBLE_SWITCH"
	RecLockedSuggest   RecommendationType = "LOCKED_SUGGEST"
	RecDualSuggest     RecommendationType = "DUAL_SUGGEST"
	RecSwapOpportunity RecommendationType = "SWAP_OPPORTUNITY"
	RecSpotGridBot     RecommendationType = "SPOT_GRID_BOT"
	RecNoAction        RecommendationType = "NO_ACTION"
)

// AdvisorConfig holds the resolved decision thresholds. It is loaded once per
// cycle and treated as immutable input to a run.
type AdvisorConfig struct {
	StablecoinWhitelist []string `json:"stablecoins_whitelist"`
	BaseCurrency        string   `json:"base_currency"`
	APRSwitchThreshold  float64  `json:"apr_switch_threshold"`
	MaxDualPercent      float64  `json:"max_dual_percent"`
	DefaultDurationDays int      `json:"default_duration_days"`
	VolatilityGuard24h  float64  `json:"volatility_guard_24h"`
}

// Prediction is a short-horizon directional forecast for one symbol.
type Prediction struct {
	Asset                  string    `json:"asset"`
	Direction              Direction `json:"direction"`
	Confidence             float64   `json:"confidence"`
	PredictedChangePercent float64   `json:"predictedChangePercent"`
	Price                  float64   `json:"price"`
	Volatility             float64   `json:"volatility"`
}

// YieldAnalysis is the outcome of comparing a nominal rate against the
// projected price drift of the underlying asset.
type YieldAnalysis struct {
	Asset      string  `json:"asset"`
	NominalAPR float64 `json:"nominalApr"`
	RealYield  float64 `json:"realYield"`
	RiskScore  float64 `json:"riskScore"`
	IsTrap     bool    `json:"isTrap"`
	Reason     string  `json:"reason"`
}

// GridAnalysis judges whether an asset's price action fits a range-trading
// strategy.
type GridAnalysis struct {
	Asset      string  `json:"asset"`
	Suitable   bool    `json:"suitable"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Recommendation is the single actionable output of a decision cycle.
type Recommendation struct {
	Type            RecommendationType `json:"type"`
	Asset           string             `json:"asset"`
	AmountSuggested float64            `json:"amount_suggested"`
	DurationDays    int                `json:"duration_days"`
	Reason          string             `json:"reason"`
}

// PortfolioSummary describes the focus asset of the cycle.
type PortfolioSummary struct {
	FocusAsset       string  `json:"focus_asset"`
	FocusTotal       float64 `json:"focus_total"`
	FocusFlexibleAPR float64 `json:"focus_flexible_apr"`
}

// TopFlexibleEntry is one row of the top flexible candidates table.
type TopFlexibleEntry struct {
	Asset  string  `json:"asset"`
	APR    float64 `json:"apr"`
	Min    float64 `json:"min,omitempty"`
	Quota  float64 `json:"quota,omitempty"`
	Reason string  `json:"reason"`
}

// TopLockedEntry is one row of the top locked candidates table.
type TopLockedEntry struct {
	Asset    string  `json:"asset"`
	APR      float64 `json:"apr"`
	Duration int     `json:"duration,omitempty"`
	Min      float64 `json:"min,omitempty"`
	Reason   string  `json:"reason"`
}

// TopDualEntry is one row of the top dual candidates table, annotated with the
// worst-case conversion narrative.
type TopDualEntry struct {
	Base      string  `json:"base"`
	Quote     string  `json:"quote,omitempty"`
	APY       float64 `json:"apy"`
	Strike    float64 `json:"strike,omitempty"`
	WorstCase string  `json:"worst_case"`
	Reason    string  `json:"reason"`
}

// AIAnalysis bundles the focus-asset analytics attached to a report.
type AIAnalysis struct {
	Prediction      Prediction    `json:"prediction"`
	SmartYield      YieldAnalysis `json:"smartYield"`
	MarketSentiment Prediction    `json:"marketSentiment"`
}

// AdvisorOutput is the full report returned to the caller and archived by the
// audit subsystem as-is.
type AdvisorOutput struct {
	GeneratedAt      time.Time          `json:"generated_at"`
	PortfolioSummary PortfolioSummary   `json:"portfolio_summary"`
	TopFlexible      []TopFlexibleEntry `json:"topFlexible"`
	TopLocked        []TopLockedEntry   `json:"topLocked"`
	TopDual          []TopDualEntry     `json:"topDual"`
	Recommendation   Recommendation     `json:"recommendation"`
	AIAnalysis       *AIAnalysis        `json:"ai_analysis,omitempty"`
}

// AdvisorInputs carries one cycle's raw snapshot into the decision engine.
// Catalog payloads stay loosely typed; the engine normalizes them itself so
// vendor field-name drift is handled in exactly one place.
type AdvisorInputs struct {
	Account     any
	Ticker24h   any
	Flexible    any
	Locked      any
	Dual        any
	TargetAsset string
}

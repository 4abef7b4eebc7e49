package models

// Holding is one portfolio position with its USD valuation.
type Holding struct {
	Asset    string  `json:"asset"`
	Amount   float64 `json:"amount"`
	ValueUSD float64 `json:"value_usd"`
	Percent  float64 `json:"percent"`
	IsStable bool    `json:"is_stable"`
}

// RiskMetrics is the portfolio-level risk snapshot, computed fresh per request.
type RiskMetrics struct {
	TotalValueUSD        float64   `json:"total_value_usd"`
	StablecoinPct        float64   `json:"stablecoin_pct"`
	VolatilePct          float64   `json:"volatile_pct"`
	RiskScore            float64   `json:"risk_score"`
	DiversificationScore float64   `json:"diversification_score"`
	TopHoldings          []Holding `json:"top_holdings"`
	Warnings             []string  `json:"warnings"`
	Grade                string    `json:"grade"`
}

package models

// Balance is one spot-account row: amounts available and locked in open
// orders/subscriptions. Recomputed from exchange data every cycle.
type Balance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
	Total  float64 `json:"total"`
}

// Ticker holds per-pair 24h stats used for volatility gating and USD valuation.
type Ticker struct {
	Symbol        string  `json:"symbol"`
	ChangePercent float64 `json:"priceChangePercent"`
	LastPrice     float64 `json:"lastPrice"`
}

// Kline is a single OHLC bar.
type Kline struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"closeTime"`
}

// YieldCandidate is a flexible or locked Simple Earn product, normalized from
// the vendor catalog. Duration is zero for flexible products.
type YieldCandidate struct {
	Asset       string  `json:"asset"`
	APR         float64 `json:"apr"`
	Purchasable bool    `json:"purchasable"`
	Min         float64 `json:"min"`
	Quota       float64 `json:"quota"`
	Duration    int     `json:"duration,omitempty"`
}

// DualCandidate is a dual-investment structured product. Its payoff depends on
// price vs. strike at maturity, so any recommendation built on it must surface
// the conversion risk.
type DualCandidate struct {
	Base     string  `json:"base"`
	Quote    string  `json:"quote,omitempty"`
	APY      float64 `json:"apy"`
	Strike   float64 `json:"strike"`
	Settle   string  `json:"settle"`
	Duration int     `json:"duration"`
}

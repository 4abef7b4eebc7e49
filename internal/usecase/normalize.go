package usecase

import (
	"encoding/json"
	"math"
	"strconv"

	"EarnPilot/internal/domain/models"
)

// Vendor payload normalization. The exchange wraps lists inconsistently and
// renames rate fields across product generations, so every accepted alias is
// listed here once, in precedence order, instead of ad hoc fallbacks spread
// through the engine.

var (
	aprFields = []string{
		"latestAnnualPercentageRate",
		"annualPercentageRate",
		"apr",
		"apy",
		"tierAnnualPercentageRate",
	}
	assetFields     = []string{"asset", "productAsset", "currency"}
	minFields       = []string{"minPurchaseAmount", "minAmount", "minPurchase", "minimum"}
	quotaFields     = []string{"leftQuota", "leftCapacity", "leftAvailable", "totalPersonalQuota"}
	dualBaseFields  = []string{"baseAsset", "base", "depositAsset", "asset"}
	dualAPYFields   = []string{"apy", "apr", "annualPercentageRate", "latestAnnualPercentageRate"}
	dualQuoteFields = []string{"quoteAsset", "quote"}
	strikeFields    = []string{"strikePrice", "strike"}
	settleFields    = []string{"settleAsset", "deliveryAsset", "quoteAsset", "baseAsset"}
	durationFields  = []string{"duration", "durationDays", "period"}
)

// AsArray coerces a JSON-like value to a plain slice: the value itself when it
// already is one, the array wrapped under "rows" or "data", or empty.
func AsArray(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		if rows, ok := t["rows"].([]any); ok {
			return rows
		}
		if data, ok := t["data"].([]any); ok {
			return data
		}
	}
	return nil
}

// Num coerces a numeric-ish value (number, string, json.Number) to a finite
// float64 or returns def. It never panics and never returns NaN/Inf.
func Num(v any, def float64) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Str returns the first non-empty string value of m among names.
func Str(m map[string]any, names ...string) string {
	for _, n := range names {
		if s, ok := m[n].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstPresent(m map[string]any, names []string) (any, bool) {
	for _, n := range names {
		if v, ok := m[n]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// ReadAPR selects the APR from the ordered alias table; first match wins.
func ReadAPR(m map[string]any) float64 {
	if v, ok := firstPresent(m, aprFields); ok {
		return Num(v, 0)
	}
	return 0
}

func numField(m map[string]any, names []string, def float64) float64 {
	if v, ok := firstPresent(m, names); ok {
		return Num(v, def)
	}
	return def
}

// ParseBalances accepts either typed balances or a raw account payload with a
// "balances" list and returns rows with the derived total.
func ParseBalances(v any) []models.Balance {
	if typed, ok := v.([]models.Balance); ok {
		out := make([]models.Balance, 0, len(typed))
		for _, b := range typed {
			if b.Asset == "" {
				continue
			}
			b.Total = b.Free + b.Locked
			out = append(out, b)
		}
		return out
	}

	raw := v
	if m, ok := v.(map[string]any); ok {
		raw = m["balances"]
	}
	rows := AsArray(raw)
	out := make([]models.Balance, 0, len(rows))
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		asset := Str(m, "asset")
		if asset == "" {
			continue
		}
		free := Num(m["free"], 0)
		locked := Num(m["locked"], 0)
		out = append(out, models.Balance{Asset: asset, Free: free, Locked: locked, Total: free + locked})
	}
	return out
}

// ParseTickers accepts typed tickers or the raw 24h stats payload.
func ParseTickers(v any) []models.Ticker {
	if typed, ok := v.([]models.Ticker); ok {
		return typed
	}
	rows := AsArray(v)
	out := make([]models.Ticker, 0, len(rows))
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		symbol := Str(m, "symbol")
		if symbol == "" {
			continue
		}
		out = append(out, models.Ticker{
			Symbol:        symbol,
			ChangePercent: Num(m["priceChangePercent"], 0),
			LastPrice:     Num(m["lastPrice"], 0),
		})
	}
	return out
}

// ParseFlexible normalizes the flexible Simple Earn catalog, dropping rows
// that are not purchasable or carry no asset.
func ParseFlexible(v any) []models.YieldCandidate {
	rows := AsArray(v)
	out := make([]models.YieldCandidate, 0, len(rows))
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		c := models.YieldCandidate{
			Asset:       Str(m, assetFields...),
			APR:         ReadAPR(m),
			Purchasable: boolField(m, "canPurchase", "purchasable"),
			Min:         numField(m, minFields, 0),
			Quota:       numField(m, quotaFields, 0),
		}
		if c.Asset == "" || !c.Purchasable {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseLocked normalizes the locked catalog. Newer API generations nest the
// product under "detail" and quotas under "quota"; flatten before resolving.
func ParseLocked(v any) []models.YieldCandidate {
	rows := AsArray(v)
	out := make([]models.YieldCandidate, 0, len(rows))
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if detail, ok := m["detail"].(map[string]any); ok {
			m = merged(detail, m)
		}
		if quota, ok := m["quota"].(map[string]any); ok {
			m = merged(quota, m)
		}
		c := models.YieldCandidate{
			Asset:       Str(m, assetFields...),
			APR:         ReadAPR(m),
			Purchasable: boolField(m, "canPurchase", "purchasable"),
			Min:         numField(m, minFields, 0),
			Quota:       numField(m, quotaFields, 0),
			Duration:    int(numField(m, durationFields, 0)),
		}
		if c.Asset == "" || !c.Purchasable {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseDual normalizes the dual-investment catalog, keeping rows with a base
// asset and a positive yield.
func ParseDual(v any) []models.DualCandidate {
	rows := AsArray(v)
	out := make([]models.DualCandidate, 0, len(rows))
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		c := models.DualCandidate{
			Base:     Str(m, dualBaseFields...),
			Quote:    Str(m, dualQuoteFields...),
			APY:      numField(m, dualAPYFields, 0),
			Strike:   numField(m, strikeFields, 0),
			Settle:   Str(m, settleFields...),
			Duration: int(numField(m, durationFields, 0)),
		}
		if c.Base == "" || c.APY <= 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// boolField returns the first present bool among names, defaulting to true
// (absent purchasability flags mean the product is buyable).
func boolField(m map[string]any, names ...string) bool {
	for _, n := range names {
		if v, ok := m[n]; ok && v != nil {
			if b, ok2 := v.(bool); ok2 {
				return b
			}
		}
	}
	return true
}

// merged overlays child keys onto a copy of parent; child wins.
func merged(child, parent map[string]any) map[string]any {
	out := make(map[string]any, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

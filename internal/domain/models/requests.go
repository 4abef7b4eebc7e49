package models

// Requests for advisor HTTP endpoints. Defined in domain for consistency and reuse.

type RecommendRequest struct {
	TargetAsset string `query:"target_asset" json:"target_asset" validate:"omitempty,alphanum,uppercase,max=12"`
}

type AuditHistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type TickerRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,alphanum,uppercase,max=20"`
}

package models

import "time"

// AuditRecord archives one finished advisor report.
type AuditRecord struct {
	ID                 string    `json:"id"`
	GeneratedAt        time.Time `json:"generated_at"`
	RecommendationType string    `json:"recommendation_type"`
	Asset              string    `json:"asset"`
	AmountSuggested    float64   `json:"amount_suggested"`
	DurationDays       int       `json:"duration_days"`
	Reason             string    `json:"reason"`
	Payload            string    `json:"payload"`
	CreatedAt          time.Time `json:"created_at"`
}

// PerformanceSnapshot tracks one prediction so it can be scored against the
// realized price move once the tracking window has passed.
type PerformanceSnapshot struct {
	ID                    string    `json:"id"`
	AuditID               string    `json:"audit_id"`
	Asset                 string    `json:"asset"`
	RecommendationType    string    `json:"recommendation_type"`
	PriceAtRecommendation float64   `json:"price_at_recommendation"`
	PriceAfter            float64   `json:"price_after,omitempty"`
	DaysToTrack           int       `json:"days_to_track"`
	DaysTracked           int       `json:"days_tracked,omitempty"`
	PredictedDirection    string    `json:"predicted_direction"`
	ActualDirection       string    `json:"actual_direction,omitempty"`
	PredictedChangePct    float64   `json:"predicted_change_pct"`
	ActualChangePct       float64   `json:"actual_change_pct,omitempty"`
	WasCorrect            bool      `json:"was_correct"`
	CreatedAt             time.Time `json:"created_at"`
	EvaluatedAt           time.Time `json:"evaluated_at,omitempty"`
}

// Evaluated reports whether the snapshot has been scored.
func (s *PerformanceSnapshot) Evaluated() bool {
	return !s.EvaluatedAt.IsZero()
}

// PerformanceStats summarizes prediction accuracy over evaluated snapshots.
type PerformanceStats struct {
	TotalPredictions   int                   `json:"total_predictions"`
	CorrectPredictions int                   `json:"correct_predictions"`
	WinRate            float64               `json:"win_rate"`
	AvgPredictedChange float64               `json:"avg_predicted_change"`
	AvgActualChange    float64               `json:"avg_actual_change"`
	CurrentStreak      int                   `json:"current_streak"`
	StreakType         string                `json:"streak_type"`
	Recent             []PerformanceSnapshot `json:"recent"`
}

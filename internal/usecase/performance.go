package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"EarnPilot/internal/domain/models"
	applogger "EarnPilot/pkg/logger"
)

const (
	predictionHorizonDays = 7

	// realized moves inside this band count as sideways
	directionBandPct = 0.5
	// a sideways call also scores when the move stayed under this
	neutralTolerancePct = 2.0

	pendingBatchLimit = 100
	statsWindowLimit  = 200
	recentStatsLimit  = 10
)

// EvaluatePending settles every snapshot whose tracking window has elapsed by
// comparing the price at recommendation time against the current price.
// Returns the number of snapshots evaluated.
func (s *AdvisorService) EvaluatePending(ctx context.Context) (int, error) {
	pending, err := s.perf.Pending(ctx, pendingBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("pending snapshots: %w", err)
	}

	now := time.Now().UTC()
	evaluated := 0
	for i := range pending {
		snap := pending[i]
		elapsed := int(now.Sub(snap.CreatedAt).Hours() / 24)
		if elapsed < snap.DaysToTrack {
			continue
		}

		pred, err := s.engine.predictor.PredictTrend(ctx, snap.Asset+s.cfg.BaseCurrency)
		if err != nil || pred.Price <= 0 {
			s.log.Warn("snapshot price unavailable",
				applogger.String("asset", snap.Asset), applogger.Error(err))
			continue
		}

		actualPct := (pred.Price - snap.PriceAtRecommendation) / snap.PriceAtRecommendation * 100
		actualDir := realizedDirection(actualPct)

		snap.PriceAfter = pred.Price
		snap.DaysTracked = elapsed
		snap.ActualChangePct = actualPct
		snap.ActualDirection = string(actualDir)
		snap.WasCorrect = predictionScored(models.Direction(snap.PredictedDirection), actualDir, actualPct)
		snap.EvaluatedAt = now

		if err := s.perf.MarkEvaluated(ctx, &snap); err != nil {
			s.log.Warn("snapshot evaluation save failed",
				applogger.String("id", snap.ID), applogger.Error(err))
			continue
		}
		evaluated++
	}
	return evaluated, nil
}

func realizedDirection(changePct float64) models.Direction {
	switch {
	case changePct > directionBandPct:
		return models.DirectionUp
	case changePct < -directionBandPct:
		return models.DirectionDown
	default:
		return models.DirectionNeutral
	}
}

func predictionScored(predicted, actual models.Direction, actualPct float64) bool {
	if predicted == actual {
		return true
	}
	return predicted == models.DirectionNeutral && math.Abs(actualPct) < neutralTolerancePct
}

// PerformanceStats aggregates accuracy over the evaluated snapshot window:
// win rate, average predicted vs realized move and the current streak. Recent
// lists the latest snapshots by creation time, still-tracking ones included.
func (s *AdvisorService) PerformanceStats(ctx context.Context) (models.PerformanceStats, error) {
	evaluated, err := s.perf.Evaluated(ctx, statsWindowLimit)
	if err != nil {
		return models.PerformanceStats{}, fmt.Errorf("evaluated snapshots: %w", err)
	}
	recent, err := s.perf.Recent(ctx, recentStatsLimit)
	if err != nil {
		return models.PerformanceStats{}, fmt.Errorf("recent snapshots: %w", err)
	}

	stats := models.PerformanceStats{Recent: recent}
	if stats.Recent == nil {
		stats.Recent = []models.PerformanceSnapshot{}
	}
	if len(evaluated) == 0 {
		return stats, nil
	}

	var sumPredicted, sumActual float64
	for _, snap := range evaluated {
		stats.TotalPredictions++
		if snap.WasCorrect {
			stats.CorrectPredictions++
		}
		sumPredicted += snap.PredictedChangePct
		sumActual += snap.ActualChangePct
	}
	n := float64(stats.TotalPredictions)
	stats.WinRate = round1(float64(stats.CorrectPredictions) / n * 100)
	stats.AvgPredictedChange = round2(sumPredicted / n)
	stats.AvgActualChange = round2(sumActual / n)

	// evaluated is newest first; the streak runs until the outcome flips
	streakCorrect := evaluated[0].WasCorrect
	for _, snap := range evaluated {
		if snap.WasCorrect != streakCorrect {
			break
		}
		stats.CurrentStreak++
	}
	if streakCorrect {
		stats.StreakType = "win"
	} else {
		stats.StreakType = "loss"
	}

	return stats, nil
}

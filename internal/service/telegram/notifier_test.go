package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
	applogger "EarnPilot/pkg/logger"
)

func testLog(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func TestUnconfiguredNotifierIsNoop(t *testing.T) {
	n := New(Config{}, testLog(t))

	require.NoError(t, n.SendDailyReport(context.Background(), &models.AdvisorOutput{}))
	require.NoError(t, n.SendUrgentAlert(context.Background(), "ignored"))
}

func TestFormatReport(t *testing.T) {
	out := &models.AdvisorOutput{
		GeneratedAt: time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC),
		Recommendation: models.Recommendation{
			Type:            models.RecFlexibleSwitch,
			Asset:           "USDC",
			AmountSuggested: 1234.5678,
			Reason:          "Switch USDT → USDC.",
		},
		TopFlexible: []models.TopFlexibleEntry{
			{Asset: "USDC", APR: 6.2},
			{Asset: "USDT", APR: 5.1},
		},
		AIAnalysis: &models.AIAnalysis{
			Prediction: models.Prediction{
				Direction:              models.DirectionUp,
				Confidence:             0.7,
				PredictedChangePercent: 3.4,
			},
		},
	}

	msg := formatReport(out)
	require.Contains(t, msg, "Daily Yield Report* (2026-08-29)")
	require.Contains(t, msg, "*FLEXIBLE_SWITCH* — USDC")
	require.Contains(t, msg, "Amount: 1234.5678")
	require.Contains(t, msg, "Switch USDT → USDC.")
	require.Contains(t, msg, "USDC 6.20%")
	require.Contains(t, msg, "UP (70% confidence, +3.40% 7d)")
}

func TestFormatReportOmitsEmptySections(t *testing.T) {
	msg := formatReport(&models.AdvisorOutput{
		Recommendation: models.Recommendation{Type: models.RecNoAction, Reason: "Nothing to do."},
	})

	require.Contains(t, msg, "*NO_ACTION*")
	require.NotContains(t, msg, "Amount:")
	require.NotContains(t, msg, "Top flexible")
	require.NotContains(t, msg, "Trend")
}

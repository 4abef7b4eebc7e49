package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
	applogger "EarnPilot/pkg/logger"
)

type fakeNotifier struct {
	reports []models.AdvisorOutput
	alerts  []string
	err     error
}

func (f *fakeNotifier) SendDailyReport(_ context.Context, out *models.AdvisorOutput) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, *out)
	return nil
}

func (f *fakeNotifier) SendUrgentAlert(_ context.Context, msg string) error {
	f.alerts = append(f.alerts, msg)
	return nil
}

func testLog(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func TestHandleDeliversReport(t *testing.T) {
	n := &fakeNotifier{}
	h := NewReportHandler(n, testLog(t))

	payload, err := json.Marshal(models.AdvisorOutput{
		Recommendation: models.Recommendation{Type: models.RecFlexibleStay, Asset: "USDT"},
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), payload))
	require.Len(t, n.reports, 1)
	require.Empty(t, n.alerts)
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	n := &fakeNotifier{}
	h := NewReportHandler(n, testLog(t))

	// not retryable, so the handler must swallow it
	require.NoError(t, h.Handle(context.Background(), []byte("{broken")))
	require.Empty(t, n.reports)
}

func TestHandleDeliveryFailureIsRetryable(t *testing.T) {
	n := &fakeNotifier{err: errors.New("telegram down")}
	h := NewReportHandler(n, testLog(t))

	payload, err := json.Marshal(models.AdvisorOutput{})
	require.NoError(t, err)
	require.Error(t, h.Handle(context.Background(), payload))
}

func TestHandleRaisesTrapAlert(t *testing.T) {
	n := &fakeNotifier{}
	h := NewReportHandler(n, testLog(t))

	payload, err := json.Marshal(models.AdvisorOutput{
		AIAnalysis: &models.AIAnalysis{
			SmartYield: models.YieldAnalysis{Asset: "HIGH", IsTrap: true, Reason: "trap"},
		},
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), payload))
	require.Len(t, n.alerts, 1)
	require.Contains(t, n.alerts[0], "Yield trap detected on HIGH")
}

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"EarnPilot/internal/domain/models"
	domsvc "EarnPilot/internal/domain/service"
	"EarnPilot/internal/repository"
	applogger "EarnPilot/pkg/logger"
)

// ReportHandler consumes published advisor reports and forwards them to the
// notification channel. Registered on the shared consumer group so multiple
// instances deliver each report once.
type ReportHandler struct {
	notifier domsvc.Notifier
	log      *applogger.Logger
}

func NewReportHandler(notifier domsvc.Notifier, log *applogger.Logger) *ReportHandler {
	return &ReportHandler{notifier: notifier, log: log}
}

func (h *ReportHandler) Topic() string { return repository.ReportsTopic }

func (h *ReportHandler) Handle(ctx context.Context, data []byte) error {
	var out models.AdvisorOutput
	if err := json.Unmarshal(data, &out); err != nil {
		// malformed payloads are logged and dropped, retrying cannot fix them
		h.log.Error("report payload unmarshal failed", applogger.Error(err))
		return nil
	}

	if err := h.notifier.SendDailyReport(ctx, &out); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}

	if out.AIAnalysis != nil && out.AIAnalysis.SmartYield.IsTrap {
		alert := fmt.Sprintf("Yield trap detected on %s: %s",
			out.AIAnalysis.SmartYield.Asset, out.AIAnalysis.SmartYield.Reason)
		if err := h.notifier.SendUrgentAlert(ctx, alert); err != nil {
			h.log.Warn("urgent alert delivery failed", applogger.Error(err))
		}
	}
	return nil
}

package telegram

import (
	"context"
	"fmt"
	"strings"

	"EarnPilot/internal/domain/models"
	domsvc "EarnPilot/internal/domain/service"
	pkghttp "EarnPilot/pkg/http"
	applogger "EarnPilot/pkg/logger"
)

// Config for the Telegram bot channel. Leaving either field empty disables
// delivery without failing the pipeline.
type Config struct {
	BotToken string
	ChatID   string
	BaseURL  string
}

// Notifier formats advisor reports as Telegram messages.
type Notifier struct {
	cfg Config
	hc  *pkghttp.Client
	log *applogger.Logger
}

func New(cfg Config, log *applogger.Logger) *Notifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	return &Notifier{cfg: cfg, hc: pkghttp.NewClient(), log: log}
}

func (n *Notifier) configured() bool {
	return n.cfg.BotToken != "" && n.cfg.ChatID != ""
}

func (n *Notifier) SendDailyReport(ctx context.Context, out *models.AdvisorOutput) error {
	return n.send(ctx, formatReport(out))
}

func (n *Notifier) SendUrgentAlert(ctx context.Context, message string) error {
	return n.send(ctx, "🚨 *Alert*\n"+message)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if !n.configured() {
		n.log.Debug("telegram not configured, skipping notification")
		return nil
	}

	opts := &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", n.cfg.BaseURL, n.cfg.BotToken),
		Body: map[string]any{
			"chat_id":    n.cfg.ChatID,
			"text":       text,
			"parse_mode": "Markdown",
		},
	}
	if err := n.hc.SendAndParse(ctx, opts, nil); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatReport(out *models.AdvisorOutput) string {
	var b strings.Builder
	rec := out.Recommendation

	fmt.Fprintf(&b, "📊 *Daily Yield Report* (%s)\n\n", out.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "%s *%s*", typeEmoji(rec.Type), rec.Type)
	if rec.Asset != "" {
		fmt.Fprintf(&b, " — %s", rec.Asset)
	}
	b.WriteString("\n")
	if rec.AmountSuggested > 0 {
		fmt.Fprintf(&b, "Amount: %.4f\n", rec.AmountSuggested)
	}
	fmt.Fprintf(&b, "%s\n", rec.Reason)

	if len(out.TopFlexible) > 0 {
		b.WriteString("\n*Top flexible:*\n")
		for _, e := range out.TopFlexible {
			fmt.Fprintf(&b, "  %s %.2f%%\n", e.Asset, e.APR)
		}
	}

	if ai := out.AIAnalysis; ai != nil {
		fmt.Fprintf(&b, "\n*Trend:* %s (%.0f%% confidence, %+.2f%% 7d)\n",
			ai.Prediction.Direction, ai.Prediction.Confidence*100, ai.Prediction.PredictedChangePercent)
	}
	return b.String()
}

func typeEmoji(t models.RecommendationType) string {
	switch t {
	case models.RecFlexibleSwitch, models.RecLockedSuggest:
		return "🔁"
	case models.RecDualSuggest:
		return "⚖️"
	case models.RecSwapOpportunity:
		return "⚠️"
	case models.RecSpotGridBot:
		return "🤖"
	case models.RecNoAction:
		return "⏸"
	default:
		return "✅"
	}
}

var _ domsvc.Notifier = (*Notifier)(nil)

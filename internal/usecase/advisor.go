package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"EarnPilot/internal/domain/models"
	domrepo "EarnPilot/internal/domain/repository"
	applogger "EarnPilot/pkg/logger"
)

const historyDefaultLimit = 50

// AdvisorService orchestrates a decision cycle: snapshot the exchange, run the
// engine, archive the outcome and fan the report out to subscribers.
type AdvisorService struct {
	cfg     models.AdvisorConfig
	market  domrepo.MarketData
	engine  *Engine
	audits  domrepo.AuditStore
	perf    domrepo.PerformanceStore
	pub     domrepo.ReportPublisher
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewAdvisorService(
	cfg models.AdvisorConfig,
	market domrepo.MarketData,
	engine *Engine,
	audits domrepo.AuditStore,
	perf domrepo.PerformanceStore,
	pub domrepo.ReportPublisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *AdvisorService {
	return &AdvisorService{
		cfg:     cfg,
		market:  market,
		engine:  engine,
		audits:  audits,
		perf:    perf,
		pub:     pub,
		metrics: metrics,
		log:     log,
	}
}

func (s *AdvisorService) Config() models.AdvisorConfig { return s.cfg }

// Recommend runs one on-demand decision cycle. Every upstream read is
// isolated: a failed source logs, counts an error and contributes its zero
// value, so a partial exchange outage degrades the report instead of failing
// the request.
func (s *AdvisorService) Recommend(ctx context.Context, targetAsset string) (models.AdvisorOutput, error) {
	in := s.fetchInputs(ctx)
	in.TargetAsset = targetAsset

	out := s.engine.Decide(ctx, s.cfg, in)
	s.metrics.RecordRecommendation(string(out.Recommendation.Type))
	return out, nil
}

func (s *AdvisorService) fetchInputs(ctx context.Context) models.AdvisorInputs {
	var in models.AdvisorInputs
	var wg sync.WaitGroup

	fetch := func(source string, run func() (any, error), assign func(any)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			v, err := run()
			s.metrics.RecordFetchLatency(source, time.Since(start).Seconds())
			if err != nil {
				s.metrics.RecordFetchError(source)
				s.log.Warn("source fetch failed",
					applogger.String("source", source), applogger.Error(err))
				return
			}
			assign(v)
		}()
	}

	fetch("account", func() (any, error) {
		b, err := s.market.AccountBalances(ctx)
		return b, err
	}, func(v any) { in.Account = v })

	fetch("ticker24h", func() (any, error) {
		t, err := s.market.Ticker24h(ctx)
		return t, err
	}, func(v any) { in.Ticker24h = v })

	fetch("flexible", func() (any, error) {
		return s.market.ProductCatalog(ctx, domrepo.ProductFlexible)
	}, func(v any) { in.Flexible = v })

	fetch("locked", func() (any, error) {
		return s.market.ProductCatalog(ctx, domrepo.ProductLocked)
	}, func(v any) { in.Locked = v })

	fetch("dual", func() (any, error) {
		return s.market.ProductCatalog(ctx, domrepo.ProductDual)
	}, func(v any) { in.Dual = v })

	wg.Wait()
	return in
}

// RunDailyCycle is the scheduled entrypoint: it produces a report, archives it
// for audit, snapshots the prediction for later scoring, settles any
// snapshots whose tracking window has elapsed and publishes the report.
// Persistence failures are logged but do not fail the cycle; the report is
// still returned to the caller.
func (s *AdvisorService) RunDailyCycle(ctx context.Context, trigger string) (models.AdvisorOutput, error) {
	s.metrics.RecordCycle(trigger)

	out, err := s.Recommend(ctx, "")
	if err != nil {
		return models.AdvisorOutput{}, err
	}

	auditID := s.archive(ctx, &out)
	s.snapshotPrediction(ctx, auditID, &out)

	if n, err := s.EvaluatePending(ctx); err != nil {
		s.log.Warn("performance evaluation failed", applogger.Error(err))
	} else if n > 0 {
		s.log.Info("performance snapshots evaluated", applogger.Int("count", n))
	}

	if err := s.pub.PublishReport(ctx, &out); err != nil {
		s.log.Warn("report publish failed", applogger.Error(err))
	}

	return out, nil
}

func (s *AdvisorService) archive(ctx context.Context, out *models.AdvisorOutput) string {
	payload, err := json.Marshal(out)
	if err != nil {
		s.log.Error("report marshal failed", applogger.Error(err))
		return ""
	}

	rec := &models.AuditRecord{
		ID:                 uuid.NewString(),
		GeneratedAt:        out.GeneratedAt,
		RecommendationType: string(out.Recommendation.Type),
		Asset:              out.Recommendation.Asset,
		AmountSuggested:    out.Recommendation.AmountSuggested,
		DurationDays:       out.Recommendation.DurationDays,
		Reason:             out.Recommendation.Reason,
		Payload:            string(payload),
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.audits.Save(ctx, rec); err != nil {
		s.log.Error("audit save failed", applogger.Error(err))
		return ""
	}
	return rec.ID
}

func (s *AdvisorService) snapshotPrediction(ctx context.Context, auditID string, out *models.AdvisorOutput) {
	if out.AIAnalysis == nil || out.AIAnalysis.Prediction.Price <= 0 {
		return
	}
	pred := out.AIAnalysis.Prediction

	snap := &models.PerformanceSnapshot{
		ID:                    uuid.NewString(),
		AuditID:               auditID,
		Asset:                 out.PortfolioSummary.FocusAsset,
		RecommendationType:    string(out.Recommendation.Type),
		PriceAtRecommendation: pred.Price,
		DaysToTrack:           predictionHorizonDays,
		PredictedDirection:    string(pred.Direction),
		PredictedChangePct:    pred.PredictedChangePercent,
		CreatedAt:             time.Now().UTC(),
	}
	if err := s.perf.SaveSnapshot(ctx, snap); err != nil {
		s.log.Warn("performance snapshot save failed", applogger.Error(err))
	}
}

// PortfolioRisk computes a fresh risk snapshot from live balances and prices.
func (s *AdvisorService) PortfolioRisk(ctx context.Context) (models.RiskMetrics, error) {
	balances, err := s.market.AccountBalances(ctx)
	if err != nil {
		return models.RiskMetrics{}, fmt.Errorf("account balances: %w", err)
	}
	tickers, err := s.market.Ticker24h(ctx)
	if err != nil {
		return models.RiskMetrics{}, fmt.Errorf("ticker snapshot: %w", err)
	}

	m := CalculatePortfolioRisk(balances, tickers, s.cfg.StablecoinWhitelist)
	s.metrics.RecordRiskScore(m.RiskScore)
	return m, nil
}

// AuditHistory returns the most recent archived reports, newest first.
func (s *AdvisorService) AuditHistory(ctx context.Context, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = historyDefaultLimit
	}
	return s.audits.History(ctx, limit)
}

func (s *AdvisorService) Health(ctx context.Context) error {
	return s.audits.Health(ctx)
}

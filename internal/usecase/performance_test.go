package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
	domrepo "EarnPilot/internal/domain/repository"
	applogger "EarnPilot/pkg/logger"
)

type stubPerfStore struct {
	pending   []models.PerformanceSnapshot
	evaluated []models.PerformanceSnapshot
	recent    []models.PerformanceSnapshot
	saved     []models.PerformanceSnapshot
	marked    []models.PerformanceSnapshot
}

func (s *stubPerfStore) SaveSnapshot(_ context.Context, snap *models.PerformanceSnapshot) error {
	s.saved = append(s.saved, *snap)
	return nil
}

func (s *stubPerfStore) Pending(context.Context, int) ([]models.PerformanceSnapshot, error) {
	return s.pending, nil
}

func (s *stubPerfStore) MarkEvaluated(_ context.Context, snap *models.PerformanceSnapshot) error {
	s.marked = append(s.marked, *snap)
	return nil
}

func (s *stubPerfStore) Evaluated(context.Context, int) ([]models.PerformanceSnapshot, error) {
	return s.evaluated, nil
}

func (s *stubPerfStore) Recent(context.Context, int) ([]models.PerformanceSnapshot, error) {
	return s.recent, nil
}

type stubAuditStore struct {
	saved []models.AuditRecord
}

func (s *stubAuditStore) Save(_ context.Context, rec *models.AuditRecord) error {
	s.saved = append(s.saved, *rec)
	return nil
}

func (s *stubAuditStore) History(context.Context, int) ([]models.AuditRecord, error) {
	return s.saved, nil
}

func (s *stubAuditStore) Health(context.Context) error { return nil }

type stubMarket struct {
	balances []models.Balance
	tickers  []models.Ticker
	flexible []any
	err      error
}

func (s *stubMarket) Ticker24h(context.Context) ([]models.Ticker, error) {
	return s.tickers, s.err
}

func (s *stubMarket) Klines(context.Context, string, string, int) ([]models.Kline, error) {
	return nil, nil
}

func (s *stubMarket) AccountBalances(context.Context) ([]models.Balance, error) {
	return s.balances, s.err
}

func (s *stubMarket) ProductCatalog(_ context.Context, kind domrepo.ProductKind) (any, error) {
	if kind == domrepo.ProductFlexible {
		return s.flexible, nil
	}
	return nil, nil
}

type stubPublisher struct {
	published []models.AdvisorOutput
}

func (s *stubPublisher) PublishReport(_ context.Context, out *models.AdvisorOutput) error {
	s.published = append(s.published, *out)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

type stubMetrics struct {
	cycles          int
	recommendations int
}

func (m *stubMetrics) RecordCycle(string)                 { m.cycles++ }
func (m *stubMetrics) RecordRecommendation(string)        { m.recommendations++ }
func (m *stubMetrics) RecordFetchError(string)            {}
func (m *stubMetrics) RecordFetchLatency(string, float64) {}
func (m *stubMetrics) RecordLastPrice(string, float64)    {}
func (m *stubMetrics) RecordRiskScore(float64)            {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func newTestService(t *testing.T, p *stubPredictor, market *stubMarket, perf *stubPerfStore, audits *stubAuditStore, pub *stubPublisher) *AdvisorService {
	t.Helper()
	engine := newTestEngine(p, nil, nil)
	return NewAdvisorService(testConfig(), market, engine, audits, perf, pub, &stubMetrics{}, testLogger(t))
}

func TestRealizedDirectionBands(t *testing.T) {
	require.Equal(t, models.DirectionUp, realizedDirection(0.6))
	require.Equal(t, models.DirectionDown, realizedDirection(-0.6))
	require.Equal(t, models.DirectionNeutral, realizedDirection(0.5))
	require.Equal(t, models.DirectionNeutral, realizedDirection(-0.5))
	require.Equal(t, models.DirectionNeutral, realizedDirection(0))
}

func TestPredictionScored(t *testing.T) {
	require.True(t, predictionScored(models.DirectionUp, models.DirectionUp, 3))
	require.False(t, predictionScored(models.DirectionUp, models.DirectionDown, -3))
	// a sideways call still scores while the realized move is small
	require.True(t, predictionScored(models.DirectionNeutral, models.DirectionUp, 1.9))
	require.False(t, predictionScored(models.DirectionNeutral, models.DirectionUp, 2.5))
}

func TestEvaluatePendingScoresElapsedSnapshots(t *testing.T) {
	now := time.Now().UTC()
	perf := &stubPerfStore{pending: []models.PerformanceSnapshot{
		{
			ID: "due", Asset: "BTC", PriceAtRecommendation: 100,
			DaysToTrack: 7, PredictedDirection: string(models.DirectionUp),
			CreatedAt: now.AddDate(0, 0, -8),
		},
		{
			ID: "fresh", Asset: "BTC", PriceAtRecommendation: 100,
			DaysToTrack: 7, PredictedDirection: string(models.DirectionUp),
			CreatedAt: now.AddDate(0, 0, -1),
		},
	}}
	p := &stubPredictor{preds: map[string]models.Prediction{
		"BTCUSDT": {Asset: "BTCUSDT", Direction: models.DirectionUp, Confidence: 0.7, Price: 105},
	}}
	svc := newTestService(t, p, &stubMarket{}, perf, &stubAuditStore{}, &stubPublisher{})

	n, err := svc.EvaluatePending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, perf.marked, 1)

	got := perf.marked[0]
	require.Equal(t, "due", got.ID)
	require.InDelta(t, 5.0, got.ActualChangePct, 1e-9)
	require.Equal(t, string(models.DirectionUp), got.ActualDirection)
	require.True(t, got.WasCorrect)
	require.InDelta(t, 105.0, got.PriceAfter, 1e-9)
	require.False(t, got.EvaluatedAt.IsZero())
}

func TestEvaluatePendingSkipsWhenPriceUnavailable(t *testing.T) {
	perf := &stubPerfStore{pending: []models.PerformanceSnapshot{
		{
			ID: "due", Asset: "BTC", PriceAtRecommendation: 100,
			DaysToTrack: 7, CreatedAt: time.Now().UTC().AddDate(0, 0, -8),
		},
	}}
	p := &stubPredictor{err: errors.New("exchange down")}
	svc := newTestService(t, p, &stubMarket{}, perf, &stubAuditStore{}, &stubPublisher{})

	n, err := svc.EvaluatePending(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, perf.marked)
}

func TestPerformanceStatsAggregates(t *testing.T) {
	evaluated := []models.PerformanceSnapshot{
		{WasCorrect: true, PredictedChangePct: 2, ActualChangePct: 3},
		{WasCorrect: true, PredictedChangePct: 1, ActualChangePct: -1},
		{WasCorrect: false, PredictedChangePct: 3, ActualChangePct: 1},
	}
	perf := &stubPerfStore{evaluated: evaluated, recent: evaluated}
	svc := newTestService(t, nil, &stubMarket{}, perf, &stubAuditStore{}, &stubPublisher{})

	stats, err := svc.PerformanceStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalPredictions)
	require.Equal(t, 2, stats.CorrectPredictions)
	require.InDelta(t, 66.7, stats.WinRate, 1e-9)
	require.InDelta(t, 2.0, stats.AvgPredictedChange, 1e-9)
	require.InDelta(t, 1.0, stats.AvgActualChange, 1e-9)
	require.Equal(t, 2, stats.CurrentStreak)
	require.Equal(t, "win", stats.StreakType)
	require.Len(t, stats.Recent, 3)
}

func TestPerformanceStatsEmptyWindow(t *testing.T) {
	svc := newTestService(t, nil, &stubMarket{}, &stubPerfStore{}, &stubAuditStore{}, &stubPublisher{})

	stats, err := svc.PerformanceStats(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.TotalPredictions)
	require.NotNil(t, stats.Recent)
	require.Empty(t, stats.Recent)
}

func TestPerformanceStatsListsTrackingSnapshots(t *testing.T) {
	// nothing evaluated yet, but a snapshot is still inside its window
	perf := &stubPerfStore{recent: []models.PerformanceSnapshot{
		{ID: "tracking", Asset: "BTC", PredictedDirection: string(models.DirectionUp)},
	}}
	svc := newTestService(t, nil, &stubMarket{}, perf, &stubAuditStore{}, &stubPublisher{})

	stats, err := svc.PerformanceStats(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.TotalPredictions)
	require.Len(t, stats.Recent, 1)
	require.Equal(t, "tracking", stats.Recent[0].ID)
}

func TestRunDailyCycleArchivesAndPublishes(t *testing.T) {
	market := &stubMarket{
		balances: []models.Balance{{Asset: "USDT", Free: 1000}},
		flexible: []any{flexRow("USDT", 5), flexRow("USDC", 6)},
	}
	perf := &stubPerfStore{}
	audits := &stubAuditStore{}
	pub := &stubPublisher{}
	svc := newTestService(t, nil, market, perf, audits, pub)

	out, err := svc.RunDailyCycle(context.Background(), "cron")
	require.NoError(t, err)
	require.Equal(t, models.RecFlexibleSwitch, out.Recommendation.Type)

	require.Len(t, audits.saved, 1)
	require.Equal(t, string(models.RecFlexibleSwitch), audits.saved[0].RecommendationType)
	require.NotEmpty(t, audits.saved[0].Payload)

	require.Len(t, perf.saved, 1)
	require.Equal(t, "USDT", perf.saved[0].Asset)
	require.Equal(t, audits.saved[0].ID, perf.saved[0].AuditID)
	require.Equal(t, 7, perf.saved[0].DaysToTrack)

	require.Len(t, pub.published, 1)
}

package repository

import (
	"context"

	"EarnPilot/internal/domain/models"
)

// ProductKind selects one of the yield product catalogs.
type ProductKind string

const (
	ProductFlexible ProductKind = "flexible"
	ProductLocked   ProductKind = "locked"
	ProductDual     ProductKind = "dual"
)

// MarketData is the read-only exchange boundary. Every method may fail with a
// transport error; the orchestrator isolates each source and substitutes a
// default so one failed read never aborts a cycle.
type MarketData interface {
	Ticker24h(ctx context.Context) ([]models.Ticker, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Kline, error)
	AccountBalances(ctx context.Context) ([]models.Balance, error)
	ProductCatalog(ctx context.Context, kind ProductKind) (any, error)
}

// AuditStore archives finished reports and serves dashboard history.
type AuditStore interface {
	Save(ctx context.Context, rec *models.AuditRecord) error
	History(ctx context.Context, limit int) ([]models.AuditRecord, error)
	Health(ctx context.Context) error
}

// PerformanceStore tracks prediction snapshots for later accuracy scoring.
type PerformanceStore interface {
	SaveSnapshot(ctx context.Context, snap *models.PerformanceSnapshot) error
	Pending(ctx context.Context, limit int) ([]models.PerformanceSnapshot, error)
	MarkEvaluated(ctx context.Context, snap *models.PerformanceSnapshot) error
	Evaluated(ctx context.Context, limit int) ([]models.PerformanceSnapshot, error)
	Recent(ctx context.Context, limit int) ([]models.PerformanceSnapshot, error)
}

// ReportPublisher hands a finished report to downstream consumers (audit
// mirrors, notifiers). The decision engine never calls it directly.
type ReportPublisher interface {
	PublishReport(ctx context.Context, out *models.AdvisorOutput) error
	Close() error
}

// Metrics records operational counters for the advisor.
type Metrics interface {
	RecordCycle(trigger string)
	RecordRecommendation(kind string)
	RecordFetchError(source string)
	RecordFetchLatency(source string, seconds float64)
	RecordLastPrice(symbol string, price float64)
	RecordRiskScore(score float64)
}

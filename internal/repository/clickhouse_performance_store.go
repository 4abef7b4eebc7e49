package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"EarnPilot/internal/domain/models"
	domrepo "EarnPilot/internal/domain/repository"
	pkgch "EarnPilot/pkg/clickhouse"
	applogger "EarnPilot/pkg/logger"
)

// CHPerformanceStore persists prediction snapshots. ClickHouse has no cheap
// UPDATE, so evaluation re-inserts the full row into a ReplacingMergeTree
// versioned by evaluated_at; reads use FINAL to collapse duplicates.
type CHPerformanceStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHPerformanceStore(ch *pkgch.Client) *CHPerformanceStore {
	return &CHPerformanceStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHPerformanceStore) SetLogger(l *applogger.Logger) { s.l = l }

// PerformanceSchema returns the idempotent DDL for the snapshot table.
func PerformanceSchema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS earnpilot`,
		`CREATE TABLE IF NOT EXISTS earnpilot.performance_snapshots (
            id String,
            audit_id String,
            asset LowCardinality(String),
            recommendation_type LowCardinality(String),
            price_at_recommendation Float64,
            price_after Float64,
            days_to_track Int32,
            days_tracked Int32,
            predicted_direction LowCardinality(String),
            actual_direction LowCardinality(String),
            predicted_change_pct Float64,
            actual_change_pct Float64,
            was_correct UInt8,
            created_at DateTime64(3, 'UTC'),
            evaluated_at DateTime64(3, 'UTC')
        ) ENGINE = ReplacingMergeTree(evaluated_at)
        ORDER BY id`,
	}
}

const snapshotColumns = `
    id, audit_id, asset, recommendation_type,
    price_at_recommendation, price_after, days_to_track, days_tracked,
    predicted_direction, actual_direction, predicted_change_pct, actual_change_pct,
    was_correct, created_at, evaluated_at
`

func (s *CHPerformanceStore) insert(ctx context.Context, snap *models.PerformanceSnapshot) error {
	q := fmt.Sprintf(`
        INSERT INTO earnpilot.performance_snapshots (%s)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, snapshotColumns)

	correct := uint8(0)
	if snap.WasCorrect {
		correct = 1
	}
	evaluatedAt := snap.EvaluatedAt
	if evaluatedAt.IsZero() {
		evaluatedAt = time.Unix(0, 0).UTC()
	}

	_, err := s.db.ExecContext(ctx, q,
		snap.ID, snap.AuditID, snap.Asset, snap.RecommendationType,
		snap.PriceAtRecommendation, snap.PriceAfter,
		int32(snap.DaysToTrack), int32(snap.DaysTracked),
		snap.PredictedDirection, snap.ActualDirection,
		snap.PredictedChangePct, snap.ActualChangePct,
		correct, snap.CreatedAt, evaluatedAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse snapshot insert error",
				applogger.String("id", snap.ID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *CHPerformanceStore) SaveSnapshot(ctx context.Context, snap *models.PerformanceSnapshot) error {
	return s.insert(ctx, snap)
}

// MarkEvaluated writes the scored row; the table engine keeps the version
// with the greatest evaluated_at for each id.
func (s *CHPerformanceStore) MarkEvaluated(ctx context.Context, snap *models.PerformanceSnapshot) error {
	if snap.EvaluatedAt.IsZero() {
		return fmt.Errorf("mark evaluated: snapshot %s has no evaluation time", snap.ID)
	}
	return s.insert(ctx, snap)
}

func (s *CHPerformanceStore) query(ctx context.Context, where, order string, limit int) ([]models.PerformanceSnapshot, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM earnpilot.performance_snapshots FINAL
        %s
        %s
        LIMIT ?
    `, snapshotColumns, where, order)

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse snapshot query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.PerformanceSnapshot, 0, limit)
	for rows.Next() {
		var snap models.PerformanceSnapshot
		var toTrack, tracked int32
		var correct uint8
		if err := rows.Scan(&snap.ID, &snap.AuditID, &snap.Asset, &snap.RecommendationType,
			&snap.PriceAtRecommendation, &snap.PriceAfter, &toTrack, &tracked,
			&snap.PredictedDirection, &snap.ActualDirection,
			&snap.PredictedChangePct, &snap.ActualChangePct,
			&correct, &snap.CreatedAt, &snap.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.DaysToTrack = int(toTrack)
		snap.DaysTracked = int(tracked)
		snap.WasCorrect = correct == 1
		if snap.EvaluatedAt.Unix() <= 0 {
			snap.EvaluatedAt = time.Time{}
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHPerformanceStore) Pending(ctx context.Context, limit int) ([]models.PerformanceSnapshot, error) {
	return s.query(ctx, `WHERE evaluated_at <= toDateTime64(0, 3, 'UTC')`, `ORDER BY created_at ASC`, limit)
}

func (s *CHPerformanceStore) Evaluated(ctx context.Context, limit int) ([]models.PerformanceSnapshot, error) {
	return s.query(ctx, `WHERE evaluated_at > toDateTime64(0, 3, 'UTC')`, `ORDER BY evaluated_at DESC`, limit)
}

func (s *CHPerformanceStore) Recent(ctx context.Context, limit int) ([]models.PerformanceSnapshot, error) {
	return s.query(ctx, ``, `ORDER BY created_at DESC`, limit)
}

var _ domrepo.PerformanceStore = (*CHPerformanceStore)(nil)

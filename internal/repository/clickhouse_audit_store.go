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

// CHAuditStore archives advisor reports in an append-only ClickHouse table.
type CHAuditStore struct {
	db *sql.DB
	l  *applogger.Logger
	ch *pkgch.Client
}

func NewCHAuditStore(ch *pkgch.Client) *CHAuditStore {
	return &CHAuditStore{db: ch.DB(), ch: ch}
}

// SetLogger injects a structured logger.
func (s *CHAuditStore) SetLogger(l *applogger.Logger) { s.l = l }

// AuditSchema returns the idempotent DDL for the audit table.
func AuditSchema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS earnpilot`,
		`CREATE TABLE IF NOT EXISTS earnpilot.advisor_audits (
            id String,
            generated_at DateTime64(3, 'UTC'),
            recommendation_type LowCardinality(String),
            asset LowCardinality(String),
            amount_suggested Float64,
            duration_days Int32,
            reason String,
            payload String,
            created_at DateTime64(3, 'UTC')
        ) ENGINE = MergeTree
        ORDER BY (created_at, id)`,
	}
}

func (s *CHAuditStore) Save(ctx context.Context, rec *models.AuditRecord) error {
	start := time.Now()
	const q = `
        INSERT INTO earnpilot.advisor_audits
            (id, generated_at, recommendation_type, asset, amount_suggested, duration_days, reason, payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.GeneratedAt, rec.RecommendationType, rec.Asset,
		rec.AmountSuggested, int32(rec.DurationDays), rec.Reason, rec.Payload, rec.CreatedAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse audit insert error",
				applogger.String("id", rec.ID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("save audit: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse audit insert ok",
			applogger.String("id", rec.ID),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHAuditStore) History(ctx context.Context, limit int) ([]models.AuditRecord, error) {
	start := time.Now()
	const q = `
        SELECT id, generated_at, recommendation_type, asset, amount_suggested, duration_days, reason, payload, created_at
        FROM earnpilot.advisor_audits
        ORDER BY created_at DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse audit history query error",
				applogger.Int("limit", limit),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("audit history: %w", err)
	}
	defer rows.Close()

	out := make([]models.AuditRecord, 0, limit)
	for rows.Next() {
		var rec models.AuditRecord
		var duration int32
		if err := rows.Scan(&rec.ID, &rec.GeneratedAt, &rec.RecommendationType, &rec.Asset,
			&rec.AmountSuggested, &duration, &rec.Reason, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		rec.DurationDays = int(duration)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse audit history ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHAuditStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

var _ domrepo.AuditStore = (*CHAuditStore)(nil)

package repository

import (
	"context"
	"fmt"

	"EarnPilot/internal/domain/models"
	domrepo "EarnPilot/internal/domain/repository"
	pkgkafka "EarnPilot/pkg/kafka"
)

// ReportsTopic carries one finished advisor report per cycle. Keyed by focus
// asset so per-asset ordering survives partitioning.
const ReportsTopic = "advisor.reports"

// KafkaReportPublisher fans finished reports out to downstream consumers.
type KafkaReportPublisher struct {
	producer *pkgkafka.Producer
}

func NewKafkaReportPublisher(producer *pkgkafka.Producer) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, out *models.AdvisorOutput) error {
	key := []byte(out.PortfolioSummary.FocusAsset)
	if err := p.producer.Publish(ctx, ReportsTopic, key, out); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}

func (p *KafkaReportPublisher) Close() error {
	return p.producer.Close()
}

// PublishMessage satisfies the log collector's publisher so aggregated error
// logs can ride the same broker connection.
func (p *KafkaReportPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// NoopReportPublisher is used when Kafka is not configured; reports are still
// archived and returned to the caller.
type NoopReportPublisher struct{}

func (NoopReportPublisher) PublishReport(context.Context, *models.AdvisorOutput) error { return nil }
func (NoopReportPublisher) Close() error                                               { return nil }

var (
	_ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)
	_ domrepo.ReportPublisher = NoopReportPublisher{}
)

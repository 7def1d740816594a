package repository

import (
	"context"

	"ReValue/internal/domain/models"
	domrepo "ReValue/internal/domain/repository"
	pkgkafka "ReValue/pkg/kafka"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaPublisher emits valuation events and request results to Kafka.
type KafkaPublisher struct {
	producer        producer
	valuationsTopic string
	resultsTopic    string
}

// NewKafkaPublisher creates Kafka publisher. An empty topic disables that
// stream. The producer is shared and is not closed by Close.
func NewKafkaPublisher(p *pkgkafka.Producer, valuationsTopic, resultsTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, valuationsTopic: valuationsTopic, resultsTopic: resultsTopic}
}

// PublishValuation is keyed by valuation id.
func (p *KafkaPublisher) PublishValuation(ctx context.Context, v *models.Valuation) error {
	if p.valuationsTopic == "" {
		return nil
	}
	return p.producer.Publish(ctx, p.valuationsTopic, []byte(v.ID), v)
}

// PublishResult is keyed by request id so retries land on one partition.
func (p *KafkaPublisher) PublishResult(ctx context.Context, m *models.ValuationResultMessage) error {
	if p.resultsTopic == "" {
		return nil
	}
	return p.producer.Publish(ctx, p.resultsTopic, []byte(m.RequestID), m)
}

// Close is a no-op; the shared producer is closed by its owner.
func (p *KafkaPublisher) Close() error { return nil }

var _ domrepo.ValuationPublisher = (*KafkaPublisher)(nil)

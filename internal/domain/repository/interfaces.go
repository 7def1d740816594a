package repository

import (
	"context"
	"time"

	"ReValue/internal/domain/models"
	domsvc "ReValue/internal/domain/service"
)

// ArtifactStore holds the trained model and its feature schema.
// It is populated once at startup and read-only afterwards.
type ArtifactStore interface {
	Ready() bool
	Schema() *models.FeatureSchema
	Regressor() domsvc.Regressor
	Describe() models.ModelMetadata
}

// ValuationLog is an append-only audit trail of valuations.
type ValuationLog interface {
	Store(ctx context.Context, v *models.Valuation) error
	Recent(ctx context.Context, category string, since time.Time, limit int) ([]models.Valuation, error)
	Health(ctx context.Context) error
}

// ValuationPublisher emits valuation results to downstream consumers.
type ValuationPublisher interface {
	PublishValuation(ctx context.Context, v *models.Valuation) error
	PublishResult(ctx context.Context, m *models.ValuationResultMessage) error
	Close() error
}

// Metrics records service-level measurements.
type Metrics interface {
	RecordPrediction(status string, category string)
	RecordPrice(category string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetModelReady(ready bool)
}

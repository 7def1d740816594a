package service

import (
	"context"

	"ReValue/internal/domain/models"
)

// Regressor maps a feature vector in schema order to a raw price estimate.
type Regressor interface {
	Predict(ctx context.Context, v models.FeatureVector) (float64, error)
	// Name identifies the model family, e.g. "Random Forest Regressor".
	Name() string
}

// Estimator produces a price without a trained model.
type Estimator interface {
	Estimate(r models.ResolvedAttributes) float64
}

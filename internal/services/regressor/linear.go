package regressor

import (
	"context"
	"fmt"

	"ReValue/internal/domain/models"
	domsvc "ReValue/internal/domain/service"
)

// Linear computes intercept + sum(coef[i] * x[i]).
type Linear struct {
	name      string
	intercept float64
	coef      []float64
}

func NewLinear(name string, intercept float64, coef []float64, nFeatures int) (*Linear, error) {
	if len(coef) != nFeatures {
		return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrInvalidArtifact, len(coef), nFeatures)
	}
	if name == "" {
		name = "Linear Regressor"
	}
	c := make([]float64, len(coef))
	copy(c, coef)
	return &Linear{name: name, intercept: intercept, coef: c}, nil
}

func (l *Linear) Name() string { return l.name }

func (l *Linear) Predict(_ context.Context, v models.FeatureVector) (float64, error) {
	if v.Len() != len(l.coef) {
		return 0, fmt.Errorf("linear model expects %d features, got %d", len(l.coef), v.Len())
	}
	y := l.intercept
	for i, x := range v.Values() {
		if l.coef[i] == 0 {
			continue
		}
		y += l.coef[i] * x
	}
	return y, nil
}

var _ domsvc.Regressor = (*Linear)(nil)

package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ReValue/internal/domain/models"
	domrepo "ReValue/internal/domain/repository"
	"ReValue/internal/services/features"
	applogger "ReValue/pkg/logger"
)

// PredictionService turns item attributes into a resale price using the
// loaded model. It never returns an error; failures come back as an
// unavailable PredictionResult.
type PredictionService struct {
	store   domrepo.ArtifactStore
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

func NewPredictionService(store domrepo.ArtifactStore, metrics domrepo.Metrics, logger *applogger.Logger) *PredictionService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &PredictionService{store: store, metrics: metrics, logger: logger}
}

// PredictPrice encodes attrs against the model's schema and runs inference.
// The price is clamped at zero and rounded to two decimals.
func (s *PredictionService) PredictPrice(ctx context.Context, attrs models.ItemAttributes) models.PredictionResult {
	start := time.Now()
	category := features.Resolve(attrs).Category.String()

	res := s.predict(ctx, attrs)

	s.metrics.RecordLatency("predict_price", time.Since(start).Seconds())
	s.metrics.RecordPrediction(res.Status.String(), category)
	if res.Available() {
		s.metrics.RecordPrice(category, res.Price)
	}
	return res
}

func (s *PredictionService) predict(ctx context.Context, attrs models.ItemAttributes) models.PredictionResult {
	if !s.store.Ready() {
		s.logger.Warn("price model not loaded, prediction unavailable")
		return models.Unavailable(models.StatusNotReady, models.ErrModelNotReady)
	}

	vec, err := features.Encode(attrs, s.store.Schema())
	if err != nil {
		s.logger.Warn("feature encoding failed", applogger.Error(err))
		return models.Unavailable(models.StatusBadInput, err)
	}

	model := s.store.Regressor()
	raw, err := model.Predict(ctx, vec)
	if err != nil {
		s.logger.Error("regressor failed",
			applogger.String("model", model.Name()),
			applogger.Error(err),
		)
		return models.Unavailable(models.StatusInferenceFailed, fmt.Errorf("%w: %v", models.ErrInference, err))
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		s.logger.Error("regressor returned non-finite estimate", applogger.String("model", model.Name()))
		return models.Unavailable(models.StatusInferenceFailed, fmt.Errorf("%w: non-finite estimate", models.ErrInference))
	}

	return models.Predicted(roundPrice(raw))
}

// GetModelInfo returns the artifact store's metadata unchanged.
func (s *PredictionService) GetModelInfo() models.ModelMetadata {
	return s.store.Describe()
}

// Ready reports whether predictions can be served.
func (s *PredictionService) Ready() bool { return s.store.Ready() }

// roundPrice rounds the exact binary value of p to cents, ties to even, so
// 2.675 (stored as 2.67499...) becomes 2.67.
func roundPrice(p float64) float64 {
	if p < 0 {
		return 0
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(p, 'f', 2, 64))
	if err != nil {
		return math.Round(p*100) / 100
	}
	return d.InexactFloat64()
}

type nopMetrics struct{}

func (nopMetrics) RecordPrediction(string, string) {}
func (nopMetrics) RecordPrice(string, float64)     {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLatency(string, float64)   {}
func (nopMetrics) SetModelReady(bool)              {}

var _ domrepo.Metrics = nopMetrics{}

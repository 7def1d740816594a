package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"ReValue/internal/domain/models"
	domrepo "ReValue/internal/domain/repository"
	domsvc "ReValue/internal/domain/service"
	"ReValue/internal/services/features"
	"ReValue/pkg/cache"
	applogger "ReValue/pkg/logger"
)

// ErrValuationLogDisabled is returned by Recent when no audit log is configured.
var ErrValuationLogDisabled = errors.New("valuation log disabled")

const cacheKeyPrefix = "valuation"

// ValuatorOption configures Valuator.
type ValuatorOption func(*Valuator)

// Valuator prices an item through the PredictionService and takes care of
// the surrounding plumbing: result cache, audit log, event publishing and
// the optional heuristic fallback. None of the plumbing can change a price.
type Valuator struct {
	predictor *PredictionService
	metrics   domrepo.Metrics
	logger    *applogger.Logger

	cache    cache.Service
	cacheTTL time.Duration
	log      domrepo.ValuationLog
	pub      domrepo.ValuationPublisher
	fallback domsvc.Estimator

	now   func() time.Time
	newID func() string
}

func NewValuator(predictor *PredictionService, metrics domrepo.Metrics, logger *applogger.Logger, opts ...ValuatorOption) *Valuator {
	v := &Valuator{
		predictor: predictor,
		metrics:   metrics,
		logger:    logger,
		cacheTTL:  10 * time.Minute,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.metrics == nil {
		v.metrics = nopMetrics{}
	}
	if v.logger == nil {
		v.logger = applogger.NewNop()
	}
	return v
}

// WithCache enables result caching. A nil service leaves caching off.
func WithCache(c cache.Service, ttl time.Duration) ValuatorOption {
	return func(v *Valuator) {
		v.cache = c
		if ttl > 0 {
			v.cacheTTL = ttl
		}
	}
}

// WithValuationLog appends every valuation to l.
func WithValuationLog(l domrepo.ValuationLog) ValuatorOption {
	return func(v *Valuator) { v.log = l }
}

// WithPublisher publishes every valuation through p.
func WithPublisher(p domrepo.ValuationPublisher) ValuatorOption {
	return func(v *Valuator) { v.pub = p }
}

// WithFallback answers with e's estimate when the model cannot.
func WithFallback(e domsvc.Estimator) ValuatorOption {
	return func(v *Valuator) { v.fallback = e }
}

// Value prices attrs. The returned result is unavailable only when the model
// failed and no fallback is configured; the Valuation is then zero.
func (v *Valuator) Value(ctx context.Context, itemID string, attrs models.ItemAttributes) (models.Valuation, models.PredictionResult) {
	resolved := features.Resolve(attrs)
	fingerprint := ""
	if v.predictor.Ready() {
		fingerprint = v.predictor.GetModelInfo().Fingerprint
	}

	key := ""
	if v.cache != nil && fingerprint != "" {
		key = cacheKey(fingerprint, resolved)
		if cached, ok := v.lookup(ctx, key); ok {
			// a hit skips inference but is still a new valuation
			val := v.record(ctx, itemID, resolved, cached.Price, cached.Source, cached.Fingerprint)
			return val, models.Predicted(val.Price)
		}
	}

	res := v.predictor.PredictPrice(ctx, attrs)
	if !res.Available() {
		if v.fallback == nil {
			return models.Valuation{}, res
		}
		est := v.fallback.Estimate(resolved)
		v.logger.Warn("model unavailable, using depreciation estimate",
			applogger.String("reason", res.Status.String()),
			applogger.String("category", resolved.Category.String()),
			applogger.Float64("estimate", est),
		)
		val := v.record(ctx, itemID, resolved, est, models.SourceHeuristic, "")
		return val, models.Predicted(est)
	}

	val := v.record(ctx, itemID, resolved, res.Price, models.SourceModel, fingerprint)
	if key != "" {
		if err := v.cache.Set(ctx, key, val, v.cacheTTL); err != nil {
			v.metrics.RecordError("cache_set")
			v.logger.Warn("valuation cache set failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return val, res
}

// Recent lists the latest audited valuations, newest first.
func (v *Valuator) Recent(ctx context.Context, category string, since time.Time, limit int) ([]models.Valuation, error) {
	if v.log == nil {
		return nil, ErrValuationLogDisabled
	}
	return v.log.Recent(ctx, category, since, limit)
}

// Predictor exposes the wrapped PredictionService.
func (v *Valuator) Predictor() *PredictionService { return v.predictor }

// ModelInfo returns the loaded model's metadata.
func (v *Valuator) ModelInfo() models.ModelMetadata { return v.predictor.GetModelInfo() }

// Ready reports whether the model can serve predictions.
func (v *Valuator) Ready() bool { return v.predictor.Ready() }

func (v *Valuator) lookup(ctx context.Context, key string) (models.Valuation, bool) {
	var cached models.Valuation
	err := v.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		v.metrics.RecordPrediction("cache_hit", cached.Attributes.Category.String())
		v.logger.Debug("valuation cache hit", applogger.String("key", key))
		return cached, true
	case errors.Is(err, cache.ErrCacheMiss):
		return models.Valuation{}, false
	default:
		v.metrics.RecordError("cache_get")
		v.logger.Warn("valuation cache get failed", applogger.String("key", key), applogger.Error(err))
		return models.Valuation{}, false
	}
}

// record builds the Valuation and hands it to the audit log and publisher.
func (v *Valuator) record(ctx context.Context, itemID string, r models.ResolvedAttributes, price float64, source, fingerprint string) models.Valuation {
	val := models.Valuation{
		ID:          v.newID(),
		ItemID:      itemID,
		Attributes:  r,
		Price:       price,
		Source:      source,
		Fingerprint: fingerprint,
		CreatedAt:   v.now(),
	}
	if v.log != nil {
		start := time.Now()
		err := v.log.Store(ctx, &val)
		v.metrics.RecordLatency("valuation_log_store", time.Since(start).Seconds())
		if err != nil {
			v.metrics.RecordError("valuation_log")
			v.logger.Error("valuation audit append failed", applogger.String("valuation_id", val.ID), applogger.Error(err))
		}
	}
	if v.pub != nil {
		if err := v.pub.PublishValuation(ctx, &val); err != nil {
			v.metrics.RecordError("valuation_publish")
			v.logger.Error("valuation publish failed", applogger.String("valuation_id", val.ID), applogger.Error(err))
		}
	}
	return val
}

func cacheKey(fingerprint string, r models.ResolvedAttributes) string {
	b, _ := json.Marshal(r)
	return cache.GenerateKeyWithParams(cacheKeyPrefix, fingerprint, cache.HashKey(string(b)))
}

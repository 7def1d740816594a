package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ReValue/internal/domain/models"
	domsvc "ReValue/internal/domain/service"
)

type fakeRegressor struct {
	out   float64
	err   error
	calls int
	last  models.FeatureVector
}

func (r *fakeRegressor) Name() string { return "fake" }

func (r *fakeRegressor) Predict(_ context.Context, v models.FeatureVector) (float64, error) {
	r.calls++
	r.last = v
	return r.out, r.err
}

type fakeStore struct {
	ready  bool
	schema *models.FeatureSchema
	model  domsvc.Regressor
}

func newFakeStore(model domsvc.Regressor, names ...string) *fakeStore {
	if len(names) == 0 {
		names = []string{"Condition", "Original_Price", "Product_Type_Laptop", "Product_Type_Tablet", "Brand_HP"}
	}
	s, err := models.NewFeatureSchema(names)
	if err != nil {
		panic(err)
	}
	return &fakeStore{ready: true, schema: s, model: model}
}

func (s *fakeStore) Ready() bool                   { return s.ready }
func (s *fakeStore) Schema() *models.FeatureSchema { return s.schema }
func (s *fakeStore) Regressor() domsvc.Regressor   { return s.model }
func (s *fakeStore) Describe() models.ModelMetadata {
	if !s.ready {
		return models.ModelMetadata{Status: "Model not loaded"}
	}
	return models.ModelMetadata{Status: "Model loaded", Ready: true, ModelType: "fake", FeatureCount: s.schema.Len(), Fingerprint: "abc123"}
}

type fakeMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	errors      map[string]int
	prices      []float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{predictions: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordPrediction(status, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[status+"/"+category]++
}

func (m *fakeMetrics) RecordPrice(_ string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices = append(m.prices, price)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) SetModelReady(bool)            {}

// failingCache simulates an unreachable cache backend.
type failingCache struct{}

func (failingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("cache down")
}
func (failingCache) Get(context.Context, string, interface{}) error {
	return errors.New("cache down")
}
func (failingCache) Delete(context.Context, ...string) error {
	return errors.New("cache down")
}
func (failingCache) Exists(context.Context, ...string) (bool, error) {
	return false, errors.New("cache down")
}
func (failingCache) Close() error { return nil }

type fakeLog struct {
	mu     sync.Mutex
	stored []models.Valuation
	err    error
}

func (l *fakeLog) Store(_ context.Context, v *models.Valuation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.stored = append(l.stored, *v)
	return nil
}

func (l *fakeLog) Recent(_ context.Context, category string, _ time.Time, limit int) ([]models.Valuation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Valuation
	for i := len(l.stored) - 1; i >= 0 && len(out) < limit; i-- {
		if category == "" || l.stored[i].Attributes.Category.String() == category {
			out = append(out, l.stored[i])
		}
	}
	return out, nil
}

func (l *fakeLog) Health(context.Context) error { return nil }

type fakePublisher struct {
	mu         sync.Mutex
	valuations []models.Valuation
	results    []models.ValuationResultMessage
	err        error
}

func (p *fakePublisher) PublishValuation(_ context.Context, v *models.Valuation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.valuations = append(p.valuations, *v)
	return nil
}

func (p *fakePublisher) PublishResult(_ context.Context, m *models.ValuationResultMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.results = append(p.results, *m)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

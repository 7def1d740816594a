package models

import (
	"errors"
	"time"
)

var (
	// ErrModelNotReady means the model artifacts were not loaded.
	ErrModelNotReady = errors.New("price model not loaded")
	// ErrEncoding means the attributes could not be mapped onto the feature schema.
	ErrEncoding = errors.New("feature encoding failed")
	// ErrInference means the regressor failed or produced a non-finite estimate.
	ErrInference = errors.New("price inference failed")
)

// PredictionStatus classifies the outcome of a price prediction.
type PredictionStatus int

const (
	StatusOK PredictionStatus = iota
	StatusNotReady
	StatusBadInput
	StatusInferenceFailed
)

func (s PredictionStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotReady:
		return "not_ready"
	case StatusBadInput:
		return "bad_input"
	case StatusInferenceFailed:
		return "inference_failed"
	default:
		return "unknown"
	}
}

// PredictionResult is either a price (Status == StatusOK) or an explicit
// unavailable outcome carrying the reason.
type PredictionResult struct {
	Status PredictionStatus
	Price  float64
	Err    error
}

// Available reports whether Price holds a valid estimate.
func (r PredictionResult) Available() bool { return r.Status == StatusOK }

// Predicted builds a successful result.
func Predicted(price float64) PredictionResult {
	return PredictionResult{Status: StatusOK, Price: price}
}

// Unavailable builds a failed result.
func Unavailable(status PredictionStatus, err error) PredictionResult {
	return PredictionResult{Status: status, Err: err}
}

// ModelMetadata is a read-only summary of the loaded model.
type ModelMetadata struct {
	Status       string             `json:"status"`
	Ready        bool               `json:"ready"`
	ModelType    string             `json:"model_type,omitempty"`
	FeatureCount int                `json:"feature_count"`
	Fingerprint  string             `json:"fingerprint,omitempty"`
	LoadedAt     *time.Time         `json:"loaded_at,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// Valuation sources.
const (
	SourceModel     = "model"
	SourceHeuristic = "heuristic"
)

// Valuation is one priced item, as cached, logged and published.
type Valuation struct {
	ID          string             `json:"id"`
	ItemID      string             `json:"item_id,omitempty"`
	Attributes  ResolvedAttributes `json:"attributes"`
	Price       float64            `json:"price"`
	Source      string             `json:"source"`
	Fingerprint string             `json:"fingerprint,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

package regressor

import (
	"encoding/json"
	"errors"
	"fmt"

	domsvc "ReValue/internal/domain/service"
)

// Supported model_type values.
const (
	TypeRandomForest = "random_forest"
	TypeLinear       = "linear"
)

var ErrInvalidArtifact = errors.New("invalid model artifact")

// Artifact is the JSON document exported by the training pipeline.
type Artifact struct {
	ModelType    string    `json:"model_type"`
	Name         string    `json:"name"`
	NFeatures    int       `json:"n_features"`
	Trees        []Tree    `json:"trees,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
}

// Parse decodes a model artifact and builds the matching regressor.
// nFeatures is the length of the feature schema the model will be fed;
// artifacts that disagree with it are rejected.
func Parse(b []byte, nFeatures int) (domsvc.Regressor, error) {
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidArtifact, err)
	}
	if a.NFeatures != 0 && a.NFeatures != nFeatures {
		return nil, fmt.Errorf("%w: model expects %d features, schema has %d", ErrInvalidArtifact, a.NFeatures, nFeatures)
	}
	switch a.ModelType {
	case TypeRandomForest:
		return NewForest(a.Name, a.Trees, nFeatures)
	case TypeLinear:
		return NewLinear(a.Name, a.Intercept, a.Coefficients, nFeatures)
	default:
		return nil, fmt.Errorf("%w: unsupported model_type %q", ErrInvalidArtifact, a.ModelType)
	}
}

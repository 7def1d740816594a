package regressor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReValue/internal/domain/models"
)

func vector(t *testing.T, names []string, values []float64) models.FeatureVector {
	t.Helper()
	s, err := models.NewFeatureSchema(names)
	require.NoError(t, err)
	v, err := models.NewFeatureVector(s, values)
	require.NoError(t, err)
	return v
}

const forestJSON = `{
  "model_type": "random_forest",
  "n_features": 2,
  "trees": [
    {"nodes": [
      {"feature": 0, "threshold": 2.5, "left": 1, "right": 2},
      {"leaf": true, "value": 100},
      {"leaf": true, "value": 300}
    ]},
    {"nodes": [
      {"feature": 1, "threshold": 0.5, "left": 1, "right": 2},
      {"leaf": true, "value": 200},
      {"leaf": true, "value": 400}
    ]}
  ]
}`

func TestParseForest(t *testing.T) {
	r, err := Parse([]byte(forestJSON), 2)
	require.NoError(t, err)
	assert.Equal(t, "Random Forest Regressor", r.Name())

	names := []string{"Condition", "Brand_HP"}
	y, err := r.Predict(context.Background(), vector(t, names, []float64{2, 0}))
	require.NoError(t, err)
	assert.Equal(t, 150.0, y)

	y, err = r.Predict(context.Background(), vector(t, names, []float64{3, 1}))
	require.NoError(t, err)
	assert.Equal(t, 350.0, y)
}

func TestParseRejectsFeatureMismatch(t *testing.T) {
	_, err := Parse([]byte(forestJSON), 3)
	assert.True(t, errors.Is(err, ErrInvalidArtifact))
}

func TestParseRejectsCorruptInput(t *testing.T) {
	_, err := Parse([]byte("not json"), 2)
	assert.True(t, errors.Is(err, ErrInvalidArtifact))

	_, err = Parse([]byte(`{"model_type":"svm"}`), 2)
	assert.True(t, errors.Is(err, ErrInvalidArtifact))
}

func TestNewForestRejectsBadTrees(t *testing.T) {
	_, err := NewForest("", nil, 2)
	assert.Error(t, err)

	// feature out of range
	_, err = NewForest("", []Tree{{Nodes: []Node{{Feature: 5, Left: 1, Right: 2}, {Leaf: true}, {Leaf: true}}}}, 2)
	assert.Error(t, err)

	// child points back at the root
	_, err = NewForest("", []Tree{{Nodes: []Node{{Feature: 0, Left: 0, Right: 1}, {Leaf: true}}}}, 2)
	assert.Error(t, err)
}

func TestLinear(t *testing.T) {
	r, err := Parse([]byte(`{"model_type":"linear","intercept":10,"coefficients":[2,0,-1]}`), 3)
	require.NoError(t, err)
	y, err := r.Predict(context.Background(), vector(t, []string{"a", "b", "c"}, []float64{5, 100, 4}))
	require.NoError(t, err)
	assert.Equal(t, 16.0, y)

	_, err = NewLinear("", 0, []float64{1}, 2)
	assert.Error(t, err)
}

func TestRemotePredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price/predict", r.URL.Path)
		var req predictReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Columns)
		sum := req.Values[0] + req.Values[1]
		_ = json.NewEncoder(w).Encode(predictResp{Prediction: &sum})
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, time.Second, 1)
	y, err := r.Predict(context.Background(), vector(t, []string{"a", "b"}, []float64{1.5, 2}))
	require.NoError(t, err)
	assert.Equal(t, 3.5, y)
}

func TestRemoteMissingPrediction(t *testing.T) {
	for _, body := range []string{`{}`, `{"prediction":null}`} {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))

		r := NewRemote(srv.URL, time.Second, 3)
		_, err := r.Predict(context.Background(), vector(t, []string{"a"}, []float64{1}))
		assert.ErrorContains(t, err, "no prediction", body)
		assert.Equal(t, 1, calls, body)
		srv.Close()
	}
}

func TestRemoteRetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, time.Second, 3)
	_, err := r.Predict(context.Background(), vector(t, []string{"a"}, []float64{1}))
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

package regressor

import (
	"context"
	"fmt"
	"time"

	"ReValue/internal/domain/models"
	domsvc "ReValue/internal/domain/service"
	xhttp "ReValue/pkg/http"
)

// Remote delegates inference to a model server over HTTP.
// POST {baseURL}/price/predict {"columns": [...], "values": [...]} -> {"prediction": x}
type Remote struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
}

// NewRemote builds a remote regressor. A non-positive timeout falls back to 3s.
func NewRemote(baseURL string, timeout time.Duration, attempts int) *Remote {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if attempts <= 0 {
		attempts = 1
	}
	return &Remote{
		baseURL:  baseURL,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: attempts,
	}
}

type predictReq struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

type predictResp struct {
	Prediction *float64 `json:"prediction"`
}

func (r *Remote) Name() string { return "Remote Regressor" }

func (r *Remote) Predict(ctx context.Context, v models.FeatureVector) (float64, error) {
	var pr predictResp
	err := r.postJSONWithRetry(ctx, "/price/predict", predictReq{Columns: v.Names(), Values: v.Values()}, &pr)
	if err != nil {
		return 0, err
	}
	if pr.Prediction == nil {
		return 0, fmt.Errorf("model server response has no prediction")
	}
	return *pr.Prediction, nil
}

func (r *Remote) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	if r.client == nil || r.baseURL == "" {
		return fmt.Errorf("model server client not initialized")
	}
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     r.baseURL + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

func (r *Remote) postJSONWithRetry(ctx context.Context, path string, payload, dest interface{}) error {
	var err error
	for i := 1; i <= r.attempts; i++ {
		err = r.postJSON(ctx, path, payload, dest)
		if err == nil || i == r.attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

var _ domsvc.Regressor = (*Remote)(nil)

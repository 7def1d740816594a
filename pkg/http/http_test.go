package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2", r.URL.Query().Get("v"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"values":[1,2]}`, string(body))
		_, _ = w.Write([]byte(`{"prediction": 42.5}`))
	}))
	defer srv.Close()

	c := NewClient(WithHeader("X-Api-Key", "secret"))
	var out struct {
		Prediction float64 `json:"prediction"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"v": {"2"}},
		Body:        map[string][]int{"values": {1, 2}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42.5, out.Prediction)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model missing", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "model missing", se.Body)
}

func TestClientRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain"))
	}))
	defer srv.Close()

	var raw []byte
	require.NoError(t, NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, &raw))
	assert.Equal(t, "plain", string(raw))
}

type sampleRequest struct {
	Condition *int `json:"condition" validate:"omitempty,gte=1,lte=5"`
	Limit     int  `json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

func TestReadAndValidateRequest(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"condition": 3}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	var ok sampleRequest
	assert.Nil(t, ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), &ok))
	assert.Equal(t, 50, ok.Limit)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"condition": 9}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	var bad sampleRequest
	errs, isList := ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), &bad).([]ValidationError)
	require.True(t, isList)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_LTE", errs[0].Code)
	assert.Equal(t, "condition", errs[0].Field)
	assert.Equal(t, "5", errs[0].Params["max"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"condition": "x"`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	assert.NotNil(t, ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), &sampleRequest{}))
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(context.Background(), &sampleRequest{Limit: 10}))

	bad := 0
	err := ValidateStruct(context.Background(), &sampleRequest{Condition: &bad, Limit: 5000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "condition must be at least 1")
	assert.Contains(t, err.Error(), "limit must be at most 1000")
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, ServiceUnavailableError("ERR_MODEL_NOT_READY", "model not loaded")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusServiceUnavailable, body.Status)
	assert.Equal(t, "ERR_MODEL_NOT_READY", body.Data[0].Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	e.GET("/panic", func(echo.Context) error { panic("boom") })
}

func TestServerRoutesAndMiddleware(t *testing.T) {
	s := NewServer([]Handler{pingHandler{}, nil}, WithPort(0), WithCORS([]string{"https://app.example"}))
	e := s.Echo()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "revalue_http_requests_total")
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"ReValue/internal/domain/models"
	"ReValue/internal/service/ratelimit"
	"ReValue/internal/usecase"
	xhttp "ReValue/pkg/http"
	xlogger "ReValue/pkg/logger"
)

// Valuations is what the HTTP layer needs from the valuation use case.
type Valuations interface {
	Value(ctx context.Context, itemID string, attrs models.ItemAttributes) (models.Valuation, models.PredictionResult)
	Recent(ctx context.Context, category string, since time.Time, limit int) ([]models.Valuation, error)
	ModelInfo() models.ModelMetadata
	Ready() bool
}

// Checker reports the health of an optional dependency.
type Checker interface {
	Health(ctx context.Context) error
}

// ValuationEchoHandler serves price predictions and valuation history.
type ValuationEchoHandler struct {
	logger   *xlogger.Logger
	svc      Valuations
	limiter  *ratelimit.Limiter
	checkers map[string]Checker
	now      func() time.Time
}

func NewValuationEchoHandler(logger *xlogger.Logger, svc Valuations, limiter *ratelimit.Limiter) *ValuationEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &ValuationEchoHandler{
		logger:   logger,
		svc:      svc,
		limiter:  limiter,
		checkers: map[string]Checker{},
		now:      time.Now,
	}
}

// WithChecker adds a dependency probed by /readyz. Nil checkers are skipped.
func (h *ValuationEchoHandler) WithChecker(name string, c Checker) *ValuationEchoHandler {
	if c != nil {
		h.checkers[name] = c
	}
	return h
}

func (h *ValuationEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predict-price", h.PredictPrice, h.rateLimit)
	g.GET("/predict-price", h.PredictPriceStatus)
	g.GET("/model-info", h.ModelInfo)
	g.GET("/valuations", h.Valuations)

	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
}

func (h *ValuationEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP()) {
			appErr := xhttp.TooManyRequestsError("too many prediction requests")
			if wait := h.limiter.RetryAfter(); wait > 0 {
				secs := int(wait / time.Second)
				c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(secs))
				appErr.WithParam("retry_after_seconds", secs)
			}
			return xhttp.AppErrorResponse(c, appErr)
		}
		return next(c)
	}
}

func (h *ValuationEchoHandler) PredictPrice(c echo.Context) error {
	req := &models.PredictPriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	val, res := h.svc.Value(c.Request().Context(), req.ItemID, req.Attributes())
	if !res.Available() {
		h.logger.Warn("price prediction unavailable",
			xlogger.String("reason", res.Status.String()),
			xlogger.Error(res.Err),
		)
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, models.PredictPriceResponse{
			Status: "unavailable",
			Reason: res.Status.String(),
		})
	}

	price := val.Price
	return xhttp.SuccessResponse(c, models.PredictPriceResponse{
		Status:         "success",
		PredictedPrice: &price,
		Source:         val.Source,
		ValuationID:    val.ID,
	})
}

func (h *ValuationEchoHandler) PredictPriceStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.EndpointStatus{
		Status:   "Price prediction API is running",
		Endpoint: "POST /api/predict-price",
		Note:     "Send item data to get price prediction",
	})
}

func (h *ValuationEchoHandler) ModelInfo(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, h.svc.ModelInfo())
}

func (h *ValuationEchoHandler) Valuations(c echo.Context) error {
	req := &models.ValuationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := h.now()
	since := xhttp.ParseSince(req.Since, now, now.Add(-24*time.Hour))

	rows, err := h.svc.Recent(c.Request().Context(), req.Category, since, req.Limit)
	if errors.Is(err, usecase.ErrValuationLogDisabled) {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("ERR_LOG_DISABLED", "valuation log is not configured"))
	}
	if err != nil {
		h.logger.Error("valuations usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not read valuations").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ValuationEchoHandler) Healthz(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Readyz is 503 until the model is loaded. Optional dependencies are
// reported but do not affect readiness.
func (h *ValuationEchoHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.checkers))
	for name, chk := range h.checkers {
		if err := chk.Health(ctx); err != nil {
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}
	body := map[string]interface{}{"model_ready": h.svc.Ready(), "dependencies": deps}
	if !h.svc.Ready() {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, body)
	}
	return xhttp.SuccessResponse(c, body)
}

var _ Valuations = (*usecase.Valuator)(nil)

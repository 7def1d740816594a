package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ReValue/internal/domain/models"
	domrepo "ReValue/internal/domain/repository"
	xhttp "ReValue/pkg/http"
	pkgkafka "ReValue/pkg/kafka"
	applogger "ReValue/pkg/logger"
)

// Result statuses on the results topic.
const (
	ResultOK          = "ok"
	ResultUnavailable = "unavailable"
)

// ValuationRequestHandler answers valuation requests read from Kafka.
type ValuationRequestHandler struct {
	topic     string
	valuator  *Valuator
	publisher domrepo.ValuationPublisher
	metrics   domrepo.Metrics
	logger    *applogger.Logger
}

func NewValuationRequestHandler(topic string, valuator *Valuator, publisher domrepo.ValuationPublisher, metrics domrepo.Metrics, logger *applogger.Logger) *ValuationRequestHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &ValuationRequestHandler{topic: topic, valuator: valuator, publisher: publisher, metrics: metrics, logger: logger}
}

func (h *ValuationRequestHandler) Topic() string { return h.topic }

// Handle values one request and publishes the answer. Undecodable or invalid
// payloads and publish failures are returned so the consumer can retry or
// dead-letter.
func (h *ValuationRequestHandler) Handle(ctx context.Context, b []byte) error {
	var req models.ValuationRequestMessage
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode valuation request: %w", err)
	}
	if err := xhttp.ValidateStruct(ctx, req.Request()); err != nil {
		h.metrics.RecordError("consumer_invalid")
		h.logger.Warn("valuation request rejected", applogger.String("request_id", req.RequestID), applogger.Error(err))
		return fmt.Errorf("valuation request %s: %w", req.RequestID, err)
	}

	start := time.Now()
	val, res := h.valuator.Value(ctx, req.ItemID, req.Attributes)
	h.metrics.RecordLatency("kafka_valuation_seconds", time.Since(start).Seconds())

	out := &models.ValuationResultMessage{RequestID: req.RequestID, ItemID: req.ItemID}
	if res.Available() {
		price := val.Price
		out.Status = ResultOK
		out.PredictedPrice = &price
		out.Source = val.Source
		out.ValuationID = val.ID
	} else {
		out.Status = ResultUnavailable
		out.Reason = res.Status.String()
	}

	if h.publisher == nil {
		h.logger.Debug("valuation result dropped, no publisher", applogger.String("request_id", req.RequestID))
		return nil
	}
	if err := h.publisher.PublishResult(ctx, out); err != nil {
		h.metrics.RecordError("result_publish")
		return fmt.Errorf("publish valuation result %s: %w", req.RequestID, err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*ValuationRequestHandler)(nil)

package models

// Requests for valuation HTTP endpoints. Defined in domain for reuse by the
// Kafka handler.

type PredictPriceRequest struct {
	ItemID        string   `json:"item_id" validate:"omitempty,max=128"`
	Category      *string  `json:"category" validate:"omitempty,max=64"`
	Brand         *string  `json:"brand" validate:"omitempty,max=64"`
	UsagePattern  *string  `json:"usage_pattern" validate:"omitempty,max=32"`
	BuildQuality  *int     `json:"build_quality" validate:"omitempty,gte=1,lte=5"`
	Condition     *int     `json:"condition" validate:"omitempty,gte=1,lte=5"`
	OriginalPrice *float64 `json:"original_price" validate:"omitempty,gte=0"`
	UsedDuration  *float64 `json:"used_duration" validate:"omitempty,gte=0"`
	UserLifespan  *float64 `json:"user_lifespan" validate:"omitempty,gt=0"`
	ExpiryYears   *float64 `json:"expiry_years" validate:"omitempty,gte=0"`
}

// Attributes converts the request body to ItemAttributes, keeping nil fields nil.
func (r *PredictPriceRequest) Attributes() ItemAttributes {
	return ItemAttributes{
		Category:      r.Category,
		Brand:         r.Brand,
		UsagePattern:  r.UsagePattern,
		BuildQuality:  r.BuildQuality,
		Condition:     r.Condition,
		OriginalPrice: r.OriginalPrice,
		UsedDuration:  r.UsedDuration,
		UserLifespan:  r.UserLifespan,
		ExpiryYears:   r.ExpiryYears,
	}
}

type ValuationsRequest struct {
	Category string `query:"category" json:"category" validate:"omitempty,max=64"`
	Limit    int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
	Since    string `query:"since" json:"since"`
}

// ValuationRequestMessage is the Kafka payload asking for a valuation.
type ValuationRequestMessage struct {
	RequestID  string         `json:"request_id"`
	ItemID     string         `json:"item_id"`
	Attributes ItemAttributes `json:"attributes"`
}

// Request restates the message as an HTTP request body so both transports
// share one set of validation rules.
func (m *ValuationRequestMessage) Request() *PredictPriceRequest {
	a := m.Attributes
	return &PredictPriceRequest{
		ItemID:        m.ItemID,
		Category:      a.Category,
		Brand:         a.Brand,
		UsagePattern:  a.UsagePattern,
		BuildQuality:  a.BuildQuality,
		Condition:     a.Condition,
		OriginalPrice: a.OriginalPrice,
		UsedDuration:  a.UsedDuration,
		UserLifespan:  a.UserLifespan,
		ExpiryYears:   a.ExpiryYears,
	}
}

// ValuationResultMessage is the Kafka payload answering a ValuationRequestMessage.
type ValuationResultMessage struct {
	RequestID      string   `json:"request_id"`
	ItemID         string   `json:"item_id,omitempty"`
	Status         string   `json:"status"`
	Reason         string   `json:"reason,omitempty"`
	PredictedPrice *float64 `json:"predicted_price,omitempty"`
	Source         string   `json:"source,omitempty"`
	ValuationID    string   `json:"valuation_id,omitempty"`
}

// PredictPriceResponse is the body of POST /api/predict-price.
type PredictPriceResponse struct {
	Status         string   `json:"status"`
	PredictedPrice *float64 `json:"predicted_price,omitempty"`
	Source         string   `json:"source,omitempty"`
	ValuationID    string   `json:"valuation_id,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// EndpointStatus describes an endpoint for GET requests on POST routes.
type EndpointStatus struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
	Note     string `json:"note"`
}

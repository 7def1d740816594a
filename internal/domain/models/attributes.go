package models

// ItemAttributes is a partially populated description of a used item.
// A nil field means the caller did not supply it; it is resolved to a
// default by the feature encoder. An explicit zero or empty value is kept.
type ItemAttributes struct {
	Category      *string  `json:"category,omitempty"`
	Brand         *string  `json:"brand,omitempty"`
	UsagePattern  *string  `json:"usage_pattern,omitempty"`
	BuildQuality  *int     `json:"build_quality,omitempty"`
	Condition     *int     `json:"condition,omitempty"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	UsedDuration  *float64 `json:"used_duration,omitempty"`
	UserLifespan  *float64 `json:"user_lifespan,omitempty"`
	ExpiryYears   *float64 `json:"expiry_years,omitempty"`
}

// ResolvedAttributes is ItemAttributes after default substitution.
type ResolvedAttributes struct {
	Category      Category     `json:"category"`
	RawCategory   string       `json:"raw_category"`
	Brand         string       `json:"brand"`
	UsagePattern  UsagePattern `json:"usage_pattern"`
	RawUsage      string       `json:"raw_usage_pattern"`
	BuildQuality  int          `json:"build_quality"`
	Condition     int          `json:"condition"`
	OriginalPrice float64      `json:"original_price"`
	UsedDuration  float64      `json:"used_duration"`
	UserLifespan  float64      `json:"user_lifespan"`
	ExpiryYears   float64      `json:"expiry_years"`
}

// Ptr returns a pointer to v. Handy for building ItemAttributes literals.
func Ptr[T any](v T) *T { return &v }

package features

import (
	"fmt"
	"math"

	"ReValue/internal/domain/models"
)

// Defaults applied to attributes the caller omitted.
const (
	DefaultBuildQuality  = 3
	DefaultCondition     = 3
	DefaultOriginalPrice = 50000.0
	DefaultUsedDuration  = 2.0
	DefaultUserLifespan  = 5.0
	DefaultCategory      = models.CategoryLaptop
	DefaultBrand         = "HP"
	DefaultUsagePattern  = models.UsageModerate
)

// Scalar column names used by the training pipeline.
const (
	ColBuildQuality  = "Build_Quality"
	ColUserLifespan  = "User_Lifespan"
	ColCondition     = "Condition"
	ColOriginalPrice = "Original_Price"
	ColUsedDuration  = "Used_Duration"
	ColExpiryYears   = "Expiry_Years"
)

// Resolve substitutes defaults for every absent attribute.
// Expiry falls back to the resolved lifespan when absent or zero.
func Resolve(a models.ItemAttributes) models.ResolvedAttributes {
	r := models.ResolvedAttributes{
		Category:      DefaultCategory,
		RawCategory:   DefaultCategory.String(),
		Brand:         DefaultBrand,
		UsagePattern:  DefaultUsagePattern,
		RawUsage:      DefaultUsagePattern.String(),
		BuildQuality:  DefaultBuildQuality,
		Condition:     DefaultCondition,
		OriginalPrice: DefaultOriginalPrice,
		UsedDuration:  DefaultUsedDuration,
		UserLifespan:  DefaultUserLifespan,
	}
	if a.Category != nil {
		r.RawCategory = *a.Category
		r.Category = models.ParseCategory(*a.Category)
	}
	if a.Brand != nil {
		r.Brand = *a.Brand
	}
	if a.UsagePattern != nil {
		r.RawUsage = *a.UsagePattern
		r.UsagePattern = models.ParseUsagePattern(*a.UsagePattern)
	}
	if a.BuildQuality != nil {
		r.BuildQuality = *a.BuildQuality
	}
	if a.Condition != nil {
		r.Condition = *a.Condition
	}
	if a.OriginalPrice != nil {
		r.OriginalPrice = *a.OriginalPrice
	}
	if a.UsedDuration != nil {
		r.UsedDuration = *a.UsedDuration
	}
	if a.UserLifespan != nil {
		r.UserLifespan = *a.UserLifespan
	}
	r.ExpiryYears = r.UserLifespan
	if a.ExpiryYears != nil && *a.ExpiryYears != 0 {
		r.ExpiryYears = *a.ExpiryYears
	}
	return r
}

// Encode maps attrs onto schema. The result always has exactly the schema's
// columns in schema order. Categories without a schema column leave their
// one-hot group all zero.
func Encode(attrs models.ItemAttributes, schema *models.FeatureSchema) (models.FeatureVector, error) {
	if schema == nil || schema.Len() == 0 {
		return models.FeatureVector{}, fmt.Errorf("%w: no feature schema", models.ErrEncoding)
	}
	r := Resolve(attrs)

	record := map[string]float64{
		ColBuildQuality:  float64(r.BuildQuality),
		ColUserLifespan:  r.UserLifespan,
		ColCondition:     float64(r.Condition),
		ColOriginalPrice: r.OriginalPrice,
		ColUsedDuration:  r.UsedDuration,
		ColExpiryYears:   r.ExpiryYears,
	}
	for col, v := range record {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.FeatureVector{}, fmt.Errorf("%w: %s is not finite", models.ErrEncoding, col)
		}
	}

	productCol, productOK := r.Category.Column()
	setOneHot(record, schema, models.PrefixProductType, productCol, productOK)
	setOneHot(record, schema, models.PrefixBrand, r.Brand, true)
	usageCol, usageOK := r.UsagePattern.Column()
	setOneHot(record, schema, models.PrefixUsagePattern, usageCol, usageOK)

	// project onto schema order; anything unset stays 0
	names := schema.Names()
	values := make([]float64, len(names))
	for i, n := range names {
		values[i] = record[n]
	}
	return models.NewFeatureVector(schema, values)
}

// setOneHot zeroes every column of the prefix family and sets prefix+value
// to 1 when that exact column exists.
func setOneHot(record map[string]float64, schema *models.FeatureSchema, prefix, value string, known bool) {
	for _, col := range schema.Family(prefix) {
		record[col] = 0
	}
	if !known {
		return
	}
	if col := prefix + value; schema.Has(col) {
		record[col] = 1
	}
}

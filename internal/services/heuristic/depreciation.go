package heuristic

import (
	"math"

	"ReValue/internal/domain/models"
	domsvc "ReValue/internal/domain/service"
)

const (
	defaultRate  = 0.15
	minValueFrac = 0.05
)

var annualRates = map[models.Category]float64{
	models.CategoryLaptop:         0.20,
	models.CategorySmartphone:     0.25,
	models.CategoryTablet:         0.18,
	models.CategoryTV:             0.12,
	models.CategoryRefrigerator:   0.08,
	models.CategoryWashingMachine: 0.10,
	models.CategoryAirConditioner: 0.12,
	models.CategoryMicrowave:      0.15,
}

// Depreciation estimates resale value with a fixed yearly depreciation rate
// per category, scaled by condition and build quality.
type Depreciation struct{}

func NewDepreciation() *Depreciation { return &Depreciation{} }

func (Depreciation) Estimate(r models.ResolvedAttributes) float64 {
	rate, ok := annualRates[r.Category]
	if !ok {
		rate = defaultRate
	}
	conditionMul := math.Max(0.1, float64(r.Condition)/5)
	qualityMul := math.Max(0.8, 0.8+float64(r.BuildQuality-3)*0.1)

	years := math.Min(r.UsedDuration, r.UserLifespan)
	value := r.OriginalPrice * math.Pow(1-rate, years) * conditionMul * qualityMul
	value = math.Max(value, r.OriginalPrice*minValueFrac)
	return math.Max(0, math.Round(value))
}

var _ domsvc.Estimator = (*Depreciation)(nil)

package province

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/i474232898/cuba-rates/internal/exchange"
)

var hundred = decimal.NewFromInt(100)

// StaticEstimator applies the fixed variance table to the national rate.
type StaticEstimator struct {
	now func() time.Time
}

func NewStaticEstimator() *StaticEstimator {
	return &StaticEstimator{now: time.Now}
}

func (e *StaticEstimator) Name() string {
	return "static"
}

// Estimate always returns all 16 entries.
func (e *StaticEstimator) Estimate(_ context.Context, nationalRate float64) exchange.ProvinceData {
	provinces := make([]exchange.ProvinceRate, 0, len(table))
	for _, entry := range table {
		provinces = append(provinces, exchange.ProvinceRate{
			ID:          entry.ID,
			Name:        entry.Name,
			USDRate:     ApplyVariance(nationalRate, entry.VariancePercent),
			Variance:    entry.VariancePercent,
			Coordinates: entry.Coordinates,
		})
	}

	return exchange.ProvinceData{
		Provinces:    provinces,
		NationalRate: nationalRate,
		LastUpdated:  e.now().UTC(),
	}
}

// ApplyVariance returns round(nationalRate * (1 + variancePercent/100)) in whole CUP.
// Halves round away from zero.
func ApplyVariance(nationalRate, variancePercent float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(variancePercent).Div(hundred))
	return decimal.NewFromFloat(nationalRate).Mul(factor).Round(0).InexactFloat64()
}

// VarianceOf returns ((rate - nationalRate) / nationalRate) * 100 rounded to one decimal.
// A zero national rate yields zero.
func VarianceOf(rate, nationalRate float64) float64 {
	if nationalRate == 0 {
		return 0
	}
	national := decimal.NewFromFloat(nationalRate)
	return decimal.NewFromFloat(rate).Sub(national).Div(national).Mul(hundred).Round(1).InexactFloat64()
}

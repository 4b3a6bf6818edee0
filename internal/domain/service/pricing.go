package service

import (
	"AgriPulse/internal/domain/models"
)

// Forecaster produces a fixed-horizon price forecast from a daily history.
type Forecaster interface {
	Forecast(history []models.DailyPrice) ([]models.ForecastPoint, error)
}

// ConfidenceScorer summarizes completeness and stability of a price series.
// Dense scoring is for gap-free trading-day series; sparse scoring is for
// histories that carry explicit nil gaps over their nominal window. The two
// coverage definitions intentionally stay separate and selectable.
type ConfidenceScorer interface {
	Dense(prices []float64) models.Confidence
	Sparse(samples []*float64) models.Confidence
}

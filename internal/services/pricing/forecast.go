package pricing

import (
	"fmt"
	"math"

	"AgriPulse/internal/domain/models"
	domsvc "AgriPulse/internal/domain/service"
	"AgriPulse/pkg/util"
)

const (
	// DefaultHorizon is the number of future days a forecast covers.
	DefaultHorizon = 14
	// DefaultMAWindow is the moving-average window blended into the trend.
	DefaultMAWindow = 7

	trendWeight = 0.5
	baseWeight  = 0.5
)

// TrendForecaster produces a point forecast by blending an OLS linear trend
// with a short moving average. No clamping, no intervals.
type TrendForecaster struct {
	horizon  int
	maWindow int
}

func NewTrendForecaster(horizon, maWindow int) *TrendForecaster {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if maWindow <= 0 {
		maWindow = DefaultMAWindow
	}
	return &TrendForecaster{horizon: horizon, maWindow: maWindow}
}

// Forecast returns exactly `horizon` points on consecutive calendar days
// starting the day after the last historical date. An empty history is a
// contract violation (ErrInvalidInput); a single point forecasts flat.
func (f *TrendForecaster) Forecast(history []models.DailyPrice) ([]models.ForecastPoint, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrInvalidInput)
	}

	last := history[len(history)-1]
	lastDate, err := util.ParseROCKey(last.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad history date %q", ErrInvalidInput, last.Date)
	}

	slope := olsSlope(history)
	base := movingAverage(history, f.maWindow)

	out := make([]models.ForecastPoint, 0, f.horizon)
	for h := 1; h <= f.horizon; h++ {
		trend := last.Price + slope*float64(h)
		out = append(out, models.ForecastPoint{
			Date:  util.ROCKey(lastDate.AddDate(0, 0, h)),
			Price: round2(trendWeight*trend + baseWeight*base),
		})
	}
	return out, nil
}

// olsSlope fits price against positional index 0..n-1. A degenerate
// denominator (n < 2) yields slope 0.
func olsSlope(history []models.DailyPrice) float64 {
	n := len(history)
	if n < 2 {
		return 0
	}

	meanIdx := float64(n-1) / 2
	var meanPrice float64
	for _, p := range history {
		meanPrice += p.Price
	}
	meanPrice /= float64(n)

	var num, den float64
	for i, p := range history {
		di := float64(i) - meanIdx
		num += di * (p.Price - meanPrice)
		den += di * di
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// movingAverage averages the trailing min(window, n) prices.
func movingAverage(history []models.DailyPrice, window int) float64 {
	n := len(history)
	if window > n {
		window = n
	}
	var sum float64
	for _, p := range history[n-window:] {
		sum += p.Price
	}
	return sum / float64(window)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ domsvc.Forecaster = (*TrendForecaster)(nil)

package usecase

import (
	"context"
	"fmt"
	"time"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
	domsvc "AgriPulse/internal/domain/service"
	"AgriPulse/internal/services/pricing"
)

// DefaultMarket is the wholesale market assumed when a lookup omits one.
const DefaultMarket = "台北一"

// QuoteUseCase serves live lookups: fetch raw transactions over a trailing
// calendar window, aggregate to daily prices, window to the requested number
// of trading days, and score. When the ingest backend keeps a record store,
// its aggregated daily history is preferred over a live fetch.
type QuoteUseCase struct {
	source     drepo.TransSource
	records    drepo.RecordStore
	forecaster domsvc.Forecaster
	scorer     domsvc.ConfidenceScorer
	metrics    drepo.Metrics
	windowDays int
	now        func() time.Time
}

func NewQuoteUseCase(
	source drepo.TransSource,
	records drepo.RecordStore,
	forecaster domsvc.Forecaster,
	scorer domsvc.ConfidenceScorer,
	metrics drepo.Metrics,
	windowDays int,
) *QuoteUseCase {
	if windowDays <= 0 {
		windowDays = 180
	}
	return &QuoteUseCase{
		source:     source,
		records:    records,
		forecaster: forecaster,
		scorer:     scorer,
		metrics:    metrics,
		windowDays: windowDays,
		now:        time.Now,
	}
}

type QuoteParams struct {
	Crop         string
	Market       string
	Days         int
	WithForecast bool
}

func (uc *QuoteUseCase) GetQuote(ctx context.Context, p QuoteParams) (*models.QuoteResult, error) {
	if p.Crop == "" {
		return nil, fmt.Errorf("%w: crop required", pricing.ErrInvalidInput)
	}
	if p.Market == "" {
		p.Market = DefaultMarket
	}
	if p.Days <= 0 {
		p.Days = 3
	}

	start := uc.now()
	end := start.UTC().Truncate(24 * time.Hour)
	from := end.AddDate(0, 0, -uc.windowDays)

	series := uc.storedHistory(ctx, p.Crop, p.Market, from, end)
	if len(series) == 0 {
		records, err := uc.source.FetchRange(ctx, p.Market, from, end)
		if err != nil {
			uc.metrics.RecordError("fetch")
			return nil, fmt.Errorf("fetch records: %w", err)
		}
		uc.metrics.RecordFetch(p.Market, len(records))

		series, err = pricing.Aggregate(records, p.Crop)
		if err != nil {
			return nil, err
		}
	}
	history := pricing.LastN(series, p.Days)

	result := &models.QuoteResult{
		Crop:       p.Crop,
		Market:     p.Market,
		History:    history,
		Confidence: uc.scorer.Sparse(presentPrices(history)),
	}

	if p.WithForecast {
		fc, err := uc.forecaster.Forecast(history)
		if err != nil {
			return nil, fmt.Errorf("forecast: %w", err)
		}
		result.Forecast = fc
	}

	last := history[len(history)-1]
	uc.metrics.RecordLastPrice(p.Crop, p.Market, last.Price)
	uc.metrics.RecordLatency("quote", time.Since(start).Seconds())
	return result, nil
}

// storedHistory serves the aggregated daily series from the local record
// store. An absent store, a store error, or an empty result all fall back
// to the live source, so a cold store never breaks lookups.
func (uc *QuoteUseCase) storedHistory(ctx context.Context, crop, market string, from, to time.Time) []models.DailyPrice {
	if uc.records == nil {
		return nil
	}
	series, err := uc.records.DailyHistory(ctx, crop, market, from, to)
	if err != nil {
		uc.metrics.RecordError("history_store")
		return nil
	}
	return series
}

// presentPrices wraps a gap-free daily series for the scorer, which treats
// slice length as the nominal window.
func presentPrices(history []models.DailyPrice) []*float64 {
	out := make([]*float64, len(history))
	for i := range history {
		out[i] = &history[i].Price
	}
	return out
}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
	domsvc "AgriPulse/internal/domain/service"
)

// LibraryUseCase serves the prebuilt dataset: the index for the library view
// and per-item detail. Item histories are already aggregated, so detail skips
// the aggregator but still runs the scorer and, when the stored forecast
// series is missing, the forecaster.
type LibraryUseCase struct {
	store      drepo.DatasetStore
	forecaster domsvc.Forecaster
	scorer     domsvc.ConfidenceScorer
	metrics    drepo.Metrics
}

func NewLibraryUseCase(
	store drepo.DatasetStore,
	forecaster domsvc.Forecaster,
	scorer domsvc.ConfidenceScorer,
	metrics drepo.Metrics,
) *LibraryUseCase {
	return &LibraryUseCase{
		store:      store,
		forecaster: forecaster,
		scorer:     scorer,
		metrics:    metrics,
	}
}

type ListParams struct {
	Keyword string
	Crop    string
	Market  string
	Sort    string // alpha or recent
}

func (uc *LibraryUseCase) List(ctx context.Context, p ListParams) ([]models.DatasetIndexItem, error) {
	items, err := uc.store.Index(ctx)
	if err != nil {
		uc.metrics.RecordError("index")
		return nil, err
	}

	kw := strings.ToLower(strings.TrimSpace(p.Keyword))
	out := make([]models.DatasetIndexItem, 0, len(items))
	for _, it := range items {
		if kw != "" && !strings.Contains(strings.ToLower(it.Crop+it.Market), kw) {
			continue
		}
		if p.Crop != "" && it.Crop != p.Crop {
			continue
		}
		if p.Market != "" && it.Market != p.Market {
			continue
		}
		out = append(out, it)
	}

	switch p.Sort {
	case "recent":
		// zero-padded date keys sort chronologically as strings
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LastObsDate > out[j].LastObsDate
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Crop != out[j].Crop {
				return out[i].Crop < out[j].Crop
			}
			return out[i].Market < out[j].Market
		})
	}
	return out, nil
}

func (uc *LibraryUseCase) Detail(ctx context.Context, id string) (*models.DetailResult, error) {
	start := time.Now()

	item, err := uc.store.Item(ctx, id)
	if err != nil {
		uc.metrics.RecordError("detail")
		return nil, err
	}

	samples := make([]*float64, len(item.History))
	for i := range item.History {
		samples[i] = item.History[i].Price
	}

	result := &models.DetailResult{
		ID:          item.ID,
		Crop:        item.Crop,
		Market:      item.Market,
		History:     item.History,
		Forecast:    item.ForecastSeries,
		Confidence:  uc.scorer.Sparse(samples),
		LastObsDate: item.LastObsDate,
		LastPrice:   item.LastPrice,
		Model:       item.Model,
	}

	if len(result.Forecast) == 0 {
		if dense := validDaily(item.History); len(dense) > 0 {
			fc, err := uc.forecaster.Forecast(dense)
			if err != nil {
				return nil, fmt.Errorf("forecast item %s: %w", id, err)
			}
			result.Forecast = fc
		}
	}

	uc.metrics.RecordLatency("detail", time.Since(start).Seconds())
	return result, nil
}

// validDaily drops the gaps from a sparse stored history.
func validDaily(history []models.HistoryPoint) []models.DailyPrice {
	out := make([]models.DailyPrice, 0, len(history))
	for _, h := range history {
		if h.Price == nil {
			continue
		}
		out = append(out, models.DailyPrice{Date: h.Date, Price: *h.Price, Volume: h.Volume})
	}
	return out
}

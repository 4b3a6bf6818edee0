package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
	domsvc "AgriPulse/internal/domain/service"
	"AgriPulse/internal/services/pricing"
	"AgriPulse/pkg/config"
	"AgriPulse/pkg/logger"
	"AgriPulse/pkg/util"
)

// RefreshNotifier receives the ids of dataset items that changed in a
// rebuild. The websocket hub implements it.
type RefreshNotifier interface {
	NotifyRefresh(ids []string)
}

// DatasetBuilder rebuilds the prebuilt dataset: for each tracked pair it
// fetches the trailing transaction window, aggregates, forecasts, scores,
// and writes the item plus a fresh index. Raw records are optionally routed
// to the ingest backend on the way through.
type DatasetBuilder struct {
	source     drepo.TransSource
	store      drepo.DatasetStore
	forecaster domsvc.Forecaster
	scorer     domsvc.ConfidenceScorer
	processor  *RecordProcessor
	notifier   RefreshNotifier
	metrics    drepo.Metrics
	log        *logger.Logger

	pairs       []config.Pair
	windowDays  int
	historyDays int
	now         func() time.Time
}

const defaultHistoryDays = 150

func NewDatasetBuilder(
	source drepo.TransSource,
	store drepo.DatasetStore,
	forecaster domsvc.Forecaster,
	scorer domsvc.ConfidenceScorer,
	processor *RecordProcessor,
	notifier RefreshNotifier,
	metrics drepo.Metrics,
	log *logger.Logger,
	pairs []config.Pair,
	windowDays int,
) *DatasetBuilder {
	if windowDays <= 0 {
		windowDays = 180
	}
	return &DatasetBuilder{
		source:      source,
		store:       store,
		forecaster:  forecaster,
		scorer:      scorer,
		processor:   processor,
		notifier:    notifier,
		metrics:     metrics,
		log:         log,
		pairs:       pairs,
		windowDays:  windowDays,
		historyDays: defaultHistoryDays,
		now:         time.Now,
	}
}

// BuildAll rebuilds every tracked pair. A pair with no data is logged and
// skipped; any other failure aborts the run so a half-built index is never
// published.
func (b *DatasetBuilder) BuildAll(ctx context.Context) error {
	start := b.now()
	end := start.UTC().Truncate(24 * time.Hour)
	from := end.AddDate(0, 0, -b.windowDays)

	// fetch once per market, pairs often share one
	byMarket := make(map[string][]models.TransRecord)

	index := make([]models.DatasetIndexItem, 0, len(b.pairs))
	changed := make([]string, 0, len(b.pairs))

	for _, pair := range b.pairs {
		records, ok := byMarket[pair.Market]
		if !ok {
			var err error
			records, err = b.source.FetchRange(ctx, pair.Market, from, end)
			if err != nil {
				b.metrics.RecordError("build_fetch")
				return fmt.Errorf("fetch %s: %w", pair.Market, err)
			}
			b.metrics.RecordFetch(pair.Market, len(records))
			byMarket[pair.Market] = records

			if b.processor != nil {
				if err := b.processor.ProcessBatch(ctx, records); err != nil {
					b.log.Error("ingest failed", logger.String("market", pair.Market), logger.Error(err))
				}
			}
		}

		item, err := b.buildItem(pair, records)
		if err != nil {
			if errors.Is(err, pricing.ErrNoData) {
				b.log.Warn("no data for pair",
					logger.String("crop", pair.Crop),
					logger.String("market", pair.Market))
				continue
			}
			return fmt.Errorf("build %s/%s: %w", pair.Crop, pair.Market, err)
		}

		if err := b.store.PutItem(ctx, item); err != nil {
			return fmt.Errorf("put item %s: %w", item.ID, err)
		}
		index = append(index, models.DatasetIndexItem{
			ID:          item.ID,
			Crop:        item.Crop,
			Market:      item.Market,
			LastObsDate: item.LastObsDate,
			LastPrice:   item.LastPrice,
			Score:       item.Score,
		})
		changed = append(changed, item.ID)
		b.metrics.RecordLastPrice(item.Crop, item.Market, item.LastPrice)
	}

	if err := b.store.PutIndex(ctx, index); err != nil {
		return fmt.Errorf("put index: %w", err)
	}

	if b.notifier != nil && len(changed) > 0 {
		b.notifier.NotifyRefresh(changed)
	}

	b.metrics.RecordLatency("build_all", time.Since(start).Seconds())
	b.log.Info("dataset rebuilt",
		logger.Int("items", len(index)),
		logger.Int("pairs", len(b.pairs)))
	return nil
}

func (b *DatasetBuilder) buildItem(pair config.Pair, records []models.TransRecord) (*models.DatasetItem, error) {
	series, err := pricing.Aggregate(records, pair.Crop)
	if err != nil {
		return nil, err
	}

	forecast, err := b.forecaster.Forecast(series)
	if err != nil {
		return nil, err
	}

	last := series[len(series)-1]
	history := calendarize(series, b.historyDays)

	conf := b.scorer.Dense(seriesPrices(series))
	mae, mape := naiveBacktest(series)

	return &models.DatasetItem{
		ID:             pairID(pair),
		Crop:           pair.Crop,
		Market:         pair.Market,
		History:        history,
		ForecastSeries: forecast,
		LastObsDate:    last.Date,
		LastPrice:      round2(last.Price),
		Score:          conf.Score,
		Model:          &models.ModelInfo{Name: "trend-ma", MAE: mae, MAPE: mape},
	}, nil
}

func seriesPrices(series []models.DailyPrice) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Price
	}
	return out
}

func pairID(pair config.Pair) string {
	if pair.ID != "" {
		return pair.ID
	}
	h := fnv.New32a()
	h.Write([]byte(pair.Crop))
	h.Write([]byte{0})
	h.Write([]byte(pair.Market))
	return fmt.Sprintf("pair-%08x", h.Sum32())
}

// calendarize expands a trading-day series onto a contiguous calendar window
// ending at the last observation, with nil prices on non-trading days. The
// dashboard chart spans these gaps; the scorer counts them against coverage.
func calendarize(series []models.DailyPrice, days int) []models.HistoryPoint {
	lastDate, err := util.ParseROCKey(series[len(series)-1].Date)
	if err != nil {
		// series dates come from the aggregator, already normalized
		return nil
	}

	byDate := make(map[string]models.DailyPrice, len(series))
	for _, p := range series {
		byDate[p.Date] = p
	}

	out := make([]models.HistoryPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := util.ROCKey(lastDate.AddDate(0, 0, -i))
		if p, ok := byDate[key]; ok {
			price := round2(p.Price)
			out = append(out, models.HistoryPoint{Date: key, Price: &price, Volume: p.Volume})
		} else {
			out = append(out, models.HistoryPoint{Date: key})
		}
	}
	return out
}

// naiveBacktest measures one-step error of a previous-value predictor over
// the series. Crude, but enough to rank dataset quality in the UI.
func naiveBacktest(series []models.DailyPrice) (mae, mape float64) {
	if len(series) < 2 {
		return 0, 0
	}
	var absSum, pctSum float64
	n := 0
	for i := 1; i < len(series); i++ {
		diff := math.Abs(series[i].Price - series[i-1].Price)
		absSum += diff
		if series[i].Price > 0 {
			pctSum += diff / series[i].Price
		}
		n++
	}
	return round2(absSum / float64(n)), round2(100 * pctSum / float64(n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

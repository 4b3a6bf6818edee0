package pricing

import (
	"sort"
	"strings"

	"AgriPulse/internal/domain/models"
	"AgriPulse/pkg/util"
)

// Aggregate collapses raw transaction records into a volume-weighted daily
// price series for one crop. Records are kept when the crop name contains
// the target substring (case-sensitive) and both price and volume are
// strictly positive; malformed dates are skipped per record. The result is
// sorted ascending by canonical date key, one point per trading day.
// Zero surviving days yields ErrNoData.
func Aggregate(records []models.TransRecord, crop string) ([]models.DailyPrice, error) {
	type acc struct {
		pv float64 // Σ(price·volume)
		v  float64 // Σ(volume)
	}
	groups := make(map[string]*acc)

	for _, r := range records {
		if !strings.Contains(r.CropName, crop) {
			continue
		}
		if r.AvgPrice <= 0 || r.Volume <= 0 {
			continue
		}
		key, err := util.NormalizeROCKey(r.TradeDate)
		if err != nil {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &acc{}
			groups[key] = g
		}
		g.pv += r.AvgPrice * r.Volume
		g.v += r.Volume
	}

	out := make([]models.DailyPrice, 0, len(groups))
	for key, g := range groups {
		if g.v <= 0 {
			continue
		}
		out = append(out, models.DailyPrice{
			Date:   key,
			Price:  g.pv / g.v,
			Volume: g.v,
		})
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}

	// canonical keys are zero-padded, so string order is date order
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// LastN windows an aggregated series to its most recent n trading days.
// Windowing is always a slice on the ordered output, never a calendar-span
// filter on raw records: non-trading days contribute nothing.
func LastN(series []models.DailyPrice, n int) []models.DailyPrice {
	if n <= 0 || n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

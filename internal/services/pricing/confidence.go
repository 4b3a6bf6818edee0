package pricing

import (
	"math"

	"AgriPulse/internal/domain/models"
	domsvc "AgriPulse/internal/domain/service"
)

// DefaultScoreWindow is the nominal window length for dense coverage.
const DefaultScoreWindow = 30

// Scorer computes the completeness/stability heuristic:
// score = round(100·(0.6·coverage + 0.4·stability)), stability = 1/(1+cv).
// Two coverage modes exist on purpose: dense for gap-free trading-day
// series (coverage vs. a configured nominal window) and sparse for
// histories whose slice already spans the nominal window with nil gaps.
type Scorer struct {
	window int
}

func NewScorer(window int) *Scorer {
	if window <= 0 {
		window = DefaultScoreWindow
	}
	return &Scorer{window: window}
}

// Dense scores a gap-free series: coverage = min(len, L)/L for the
// configured nominal window L.
func (s *Scorer) Dense(prices []float64) models.Confidence {
	n := len(prices)
	if n > s.window {
		n = s.window
	}
	coverage := float64(n) / float64(s.window)
	return build(prices, coverage)
}

// Sparse scores a nominal-window slice that may carry nil gaps:
// coverage = validCount / len(samples).
func (s *Scorer) Sparse(samples []*float64) models.Confidence {
	if len(samples) == 0 {
		return models.Confidence{}
	}
	valid := make([]float64, 0, len(samples))
	for _, p := range samples {
		if p != nil {
			valid = append(valid, *p)
		}
	}
	coverage := float64(len(valid)) / float64(len(samples))
	return build(valid, coverage)
}

func build(valid []float64, coverage float64) models.Confidence {
	coveragePct := int(math.Round(coverage * 100))

	var stability float64
	var cv *float64
	if len(valid) >= 2 {
		mean := 0.0
		for _, v := range valid {
			mean += v
		}
		mean /= float64(len(valid))

		variance := 0.0
		for _, v := range valid {
			d := v - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(valid)))

		// cv defined as 1 when mean is non-positive: avoids the division
		// and penalizes degenerate series
		c := 1.0
		if mean > 0 {
			c = std / mean
		}
		stability = round2(1 / (1 + c))
		rounded := round2(c)
		cv = &rounded
	}

	score := int(math.Round(100 * (0.6*float64(coveragePct)/100 + 0.4*stability)))
	return models.Confidence{
		Score:     score,
		Coverage:  coveragePct,
		Stability: stability,
		CV:        cv,
	}
}

var _ domsvc.ConfidenceScorer = (*Scorer)(nil)

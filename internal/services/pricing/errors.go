package pricing

import "errors"

var (
	// ErrNoData means aggregation produced zero trading days. This is an
	// expected outcome for unmatched crop/market combinations and must stay
	// distinguishable from upstream fetch failures.
	ErrNoData = errors.New("pricing: no data for query")

	// ErrInvalidInput means a caller violated a contract, e.g. forecasting
	// from an empty history.
	ErrInvalidInput = errors.New("pricing: invalid input")
)

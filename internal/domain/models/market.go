package models

// TransRecord is one reported trade observation from the wholesale market feed.
// Prices and volumes may arrive as strings upstream; by the time a record
// reaches the domain they are parsed numbers.
type TransRecord struct {
	CropName   string  `json:"crop_name"`
	MarketName string  `json:"market_name"`
	TradeDate  string  `json:"trade_date"` // ROC dotted form, e.g. "114.08.10"
	AvgPrice   float64 `json:"avg_price"`
	Volume     float64 `json:"volume"`
}

// DailyPrice is one aggregated trading day: the volume-weighted average price
// over every valid transaction of that calendar day.
type DailyPrice struct {
	Date   string  `json:"date"` // canonical ROC key "114-08-10", sortable
	Price  float64 `json:"price"`
	Volume float64 `json:"volume,omitempty"`
}

// ForecastPoint is one predicted day, contiguous after the last observed date.
type ForecastPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Confidence summarizes data completeness and price stability for a series.
// It is a display heuristic, not a calibrated confidence interval.
type Confidence struct {
	Score     int      `json:"score"`     // 0..100
	Coverage  int      `json:"coverage"`  // percent, 0..100
	Stability float64  `json:"stability"` // 0..1, 1/(1+cv)
	CV        *float64 `json:"cv,omitempty"`
}

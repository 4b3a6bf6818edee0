package models

// DatasetIndexItem is one row of the prebuilt dataset index consumed by the
// dashboard library view.
type DatasetIndexItem struct {
	ID          string  `json:"id"`
	Crop        string  `json:"crop"`
	Market      string  `json:"market"`
	LastObsDate string  `json:"last_obs_date"`
	LastPrice   float64 `json:"last_price"`
	Score       int     `json:"score"`
}

// HistoryPoint is one day of a prebuilt item history. Price is nullable:
// sparse datasets carry explicit gaps over a nominal window.
type HistoryPoint struct {
	Date   string   `json:"date"`
	Price  *float64 `json:"price"`
	Volume float64  `json:"volume,omitempty"`
}

// ModelInfo describes the model that produced a prebuilt forecast series.
type ModelInfo struct {
	Name string  `json:"name"`
	MAE  float64 `json:"mae,omitempty"`
	MAPE float64 `json:"mape,omitempty"`
}

// DatasetItem is one prebuilt per-item record: full history, an optional
// forecast series, and model metadata. History is already aggregated, so it
// bypasses the aggregator but still feeds the scorer and, when the forecast
// series is missing, the forecaster.
type DatasetItem struct {
	ID             string          `json:"id"`
	Crop           string          `json:"crop"`
	Market         string          `json:"market"`
	History        []HistoryPoint  `json:"history"`
	ForecastSeries []ForecastPoint `json:"forecast_series,omitempty"`
	LastObsDate    string          `json:"last_obs_date"`
	LastPrice      float64         `json:"last_price"`
	Score          int             `json:"score"`
	Model          *ModelInfo      `json:"model,omitempty"`
}

// QuoteResult is the live-lookup pipeline output.
type QuoteResult struct {
	Crop       string          `json:"crop"`
	Market     string          `json:"market"`
	History    []DailyPrice    `json:"history"`
	Forecast   []ForecastPoint `json:"forecast,omitempty"`
	Confidence Confidence      `json:"confidence"`
}

// DetailResult is the library detail pipeline output.
type DetailResult struct {
	ID          string          `json:"id"`
	Crop        string          `json:"crop"`
	Market      string          `json:"market"`
	History     []HistoryPoint  `json:"history"`
	Forecast    []ForecastPoint `json:"forecast,omitempty"`
	Confidence  Confidence      `json:"confidence"`
	LastObsDate string          `json:"last_obs_date"`
	LastPrice   float64         `json:"last_price"`
	Model       *ModelInfo      `json:"model,omitempty"`
}

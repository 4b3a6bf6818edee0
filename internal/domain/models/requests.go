package models

// Requests for the dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type QuoteRequest struct {
	Crop     string `query:"crop" json:"crop" validate:"required"`
	Market   string `query:"market" json:"market" default:"台北一"`
	Days     int    `query:"days" json:"days" default:"3" validate:"oneof=3 30"`
	Forecast bool   `query:"forecast" json:"forecast"`
}

type LibraryListRequest struct {
	Keyword string `query:"q" json:"q"`
	Crop    string `query:"crop" json:"crop"`
	Market  string `query:"market" json:"market"`
	Sort    string `query:"sort" json:"sort" default:"alpha" validate:"oneof=alpha recent"`
}

type LibraryItemRequest struct {
	ID string `param:"id" json:"id" validate:"required"`
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"AgriPulse/internal/domain/models"
	icache "AgriPulse/internal/service/cache"
	"AgriPulse/internal/services/pricing"
	"AgriPulse/internal/usecase"
	"AgriPulse/pkg/logger"
)

type stubSource struct {
	records []models.TransRecord
	calls   int
}

func (s *stubSource) FetchRange(ctx context.Context, market string, from, to time.Time) ([]models.TransRecord, error) {
	s.calls++
	return s.records, nil
}

type stubStore struct {
	index []models.DatasetIndexItem
	items map[string]*models.DatasetItem
}

func (s *stubStore) Index(ctx context.Context) ([]models.DatasetIndexItem, error) {
	return s.index, nil
}

func (s *stubStore) Item(ctx context.Context, id string) (*models.DatasetItem, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, pricing.ErrNoData
}

func (s *stubStore) PutItem(ctx context.Context, item *models.DatasetItem) error { return nil }

func (s *stubStore) PutIndex(ctx context.Context, items []models.DatasetIndexItem) error { return nil }

type stubMetrics struct{}

func (stubMetrics) RecordFetch(string, int)                 {}
func (stubMetrics) RecordError(string)                      {}
func (stubMetrics) RecordLatency(string, float64)           {}
func (stubMetrics) RecordLastPrice(string, string, float64) {}

func newTestHandler(src *stubSource, store *stubStore) *MarketHandler {
	forecaster := pricing.NewTrendForecaster(0, 0)
	scorer := pricing.NewScorer(0)
	quote := usecase.NewQuoteUseCase(src, nil, forecaster, scorer, stubMetrics{}, 180)
	library := usecase.NewLibraryUseCase(store, forecaster, scorer, stubMetrics{})
	return NewMarketHandler(quote, library, logger.Nop(), time.Minute, time.Minute)
}

func doRequest(h *MarketHandler, target string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func quoteRecords() []models.TransRecord {
	return []models.TransRecord{
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.10", AvgPrice: 10, Volume: 100},
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.11", AvgPrice: 11, Volume: 30},
	}
}

func TestQuoteEndpoint(t *testing.T) {
	src := &stubSource{records: quoteRecords()}
	h := newTestHandler(src, &stubStore{})

	rec := doRequest(h, "/api/quote?crop=甘藍&days=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("http status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != 200 {
		t.Fatalf("envelope status = %d, body %s", env.Status, rec.Body.String())
	}

	var res models.QuoteResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(res.History) != 2 {
		t.Errorf("history length = %d, want 2", len(res.History))
	}
	if res.Market != "台北一" {
		t.Errorf("default market not applied: %q", res.Market)
	}
}

func TestQuoteEndpointValidation(t *testing.T) {
	h := newTestHandler(&stubSource{}, &stubStore{})

	env := decodeEnvelope(t, doRequest(h, "/api/quote"))
	if env.Status != 400 {
		t.Errorf("missing crop: envelope status = %d, want 400", env.Status)
	}

	env = decodeEnvelope(t, doRequest(h, "/api/quote?crop=x&days=7"))
	if env.Status != 400 {
		t.Errorf("days=7: envelope status = %d, want 400", env.Status)
	}
}

func TestQuoteEndpointNoData(t *testing.T) {
	h := newTestHandler(&stubSource{}, &stubStore{})

	env := decodeEnvelope(t, doRequest(h, "/api/quote?crop=不存在"))
	if env.Status != 404 {
		t.Errorf("envelope status = %d, want 404", env.Status)
	}
}

func TestQuoteEndpointCaches(t *testing.T) {
	src := &stubSource{records: quoteRecords()}
	h := newTestHandler(src, &stubStore{})
	h.SetCache(icache.NewTTLCache(16))

	first := doRequest(h, "/api/quote?crop=甘藍&days=3")
	second := doRequest(h, "/api/quote?crop=甘藍&days=3")

	if src.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 after cache hit", src.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("cached body differs")
	}
}

func TestLibraryEndpoint(t *testing.T) {
	store := &stubStore{
		index: []models.DatasetIndexItem{
			{ID: "b", Crop: "蘿蔔", Market: "台北一", LastObsDate: "114-08-10", LastPrice: 20},
			{ID: "a", Crop: "甘藍", Market: "台北一", LastObsDate: "114-08-11", LastPrice: 11},
		},
	}
	h := newTestHandler(&stubSource{}, store)

	env := decodeEnvelope(t, doRequest(h, "/api/library"))
	if env.Status != 200 {
		t.Fatalf("envelope status = %d", env.Status)
	}
	var list struct {
		Rows  []models.DatasetIndexItem `json:"rows"`
		Total int64                     `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 2 {
		t.Errorf("total = %d, want 2", list.Total)
	}
	if list.Rows[0].ID != "a" {
		t.Errorf("default sort should be alphabetical, first id %q", list.Rows[0].ID)
	}
}

func TestLibraryItemEndpoint(t *testing.T) {
	p := 10.0
	store := &stubStore{
		items: map[string]*models.DatasetItem{
			"a": {
				ID: "a", Crop: "甘藍", Market: "台北一",
				History: []models.HistoryPoint{
					{Date: "114-08-10", Price: &p, Volume: 100},
					{Date: "114-08-11", Price: &p, Volume: 100},
				},
				LastObsDate: "114-08-11",
				LastPrice:   10,
			},
		},
	}
	h := newTestHandler(&stubSource{}, store)

	env := decodeEnvelope(t, doRequest(h, "/api/library/a"))
	if env.Status != 200 {
		t.Fatalf("envelope status = %d, body %s", env.Status, env.Data)
	}
	var res models.DetailResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if res.Confidence.Coverage != 100 {
		t.Errorf("coverage = %d, want 100", res.Confidence.Coverage)
	}
	if len(res.Forecast) != pricing.DefaultHorizon {
		t.Errorf("forecast length = %d", len(res.Forecast))
	}

	env = decodeEnvelope(t, doRequest(h, "/api/library/absent"))
	if env.Status != 404 {
		t.Errorf("missing item: envelope status = %d, want 404", env.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(&stubSource{}, &stubStore{})
	rec := doRequest(h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}

	h.SetHealthCheck(func(context.Context) error { return nil })
	if rec := doRequest(h, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("health status with passing probe = %d", rec.Code)
	}

	h.SetHealthCheck(func(context.Context) error { return errors.New("backend down") })
	if rec := doRequest(h, "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("health status with failing probe = %d, want 503", rec.Code)
	}
}

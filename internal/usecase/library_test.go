package usecase

import (
	"context"
	"errors"
	"testing"

	"AgriPulse/internal/domain/models"
	"AgriPulse/internal/services/pricing"
	apphttp "AgriPulse/pkg/http"
)

func newLibraryUC(store *fakeStore) *LibraryUseCase {
	return NewLibraryUseCase(
		store,
		pricing.NewTrendForecaster(0, 0),
		pricing.NewScorer(0),
		nopMetrics{},
	)
}

func seedIndex(store *fakeStore) {
	store.index = []models.DatasetIndexItem{
		{ID: "b", Crop: "甘藍", Market: "高雄", LastObsDate: "114-08-09", LastPrice: 9},
		{ID: "a", Crop: "甘藍", Market: "台北一", LastObsDate: "114-08-11", LastPrice: 11},
		{ID: "c", Crop: "蘿蔔", Market: "台北一", LastObsDate: "114-08-10", LastPrice: 20},
	}
}

func TestListSortsAlphabetically(t *testing.T) {
	store := newFakeStore()
	seedIndex(store)
	uc := newLibraryUC(store)

	got, err := uc.List(context.Background(), ListParams{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	wantIDs := []string{"a", "b", "c"}
	for i, w := range wantIDs {
		if got[i].ID != w {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, w)
		}
	}
}

func TestListSortsByRecency(t *testing.T) {
	store := newFakeStore()
	seedIndex(store)
	uc := newLibraryUC(store)

	got, err := uc.List(context.Background(), ListParams{Sort: "recent"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	wantIDs := []string{"a", "c", "b"}
	for i, w := range wantIDs {
		if got[i].ID != w {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, w)
		}
	}
}

func TestListFilters(t *testing.T) {
	store := newFakeStore()
	seedIndex(store)
	uc := newLibraryUC(store)

	tests := []struct {
		name string
		p    ListParams
		want []string
	}{
		{"keyword over crop and market", ListParams{Keyword: "蘿蔔"}, []string{"c"}},
		{"keyword matches market", ListParams{Keyword: "高雄"}, []string{"b"}},
		{"exact crop", ListParams{Crop: "甘藍"}, []string{"a", "b"}},
		{"exact market", ListParams{Market: "台北一"}, []string{"a", "c"}},
		{"crop and market", ListParams{Crop: "甘藍", Market: "台北一"}, []string{"a"}},
		{"no match", ListParams{Keyword: "洋蔥"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.List(context.Background(), tt.p)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].ID != w {
					t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, w)
				}
			}
		})
	}
}

func TestDetailScoresSparseHistory(t *testing.T) {
	store := newFakeStore()
	p1, p2 := 10.0, 12.0
	store.items["a"] = &models.DatasetItem{
		ID:     "a",
		Crop:   "甘藍",
		Market: "台北一",
		History: []models.HistoryPoint{
			{Date: "114-08-08", Price: &p1, Volume: 100},
			{Date: "114-08-09"},
			{Date: "114-08-10", Price: &p2, Volume: 80},
			{Date: "114-08-11"},
		},
		ForecastSeries: []models.ForecastPoint{{Date: "114-08-12", Price: 11}},
		LastObsDate:    "114-08-10",
		LastPrice:      12,
	}
	uc := newLibraryUC(store)

	got, err := uc.Detail(context.Background(), "a")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if got.Confidence.Coverage != 50 {
		t.Errorf("coverage = %d, want 50", got.Confidence.Coverage)
	}
	if len(got.Forecast) != 1 {
		t.Errorf("stored forecast should be served as-is, got %d points", len(got.Forecast))
	}
	if len(got.History) != 4 {
		t.Errorf("history should keep gaps, got %d points", len(got.History))
	}
}

func TestDetailComputesMissingForecast(t *testing.T) {
	store := newFakeStore()
	p := 10.0
	store.items["a"] = &models.DatasetItem{
		ID:     "a",
		Crop:   "甘藍",
		Market: "台北一",
		History: []models.HistoryPoint{
			{Date: "114-08-10", Price: &p, Volume: 100},
			{Date: "114-08-11", Price: &p, Volume: 100},
		},
	}
	uc := newLibraryUC(store)

	got, err := uc.Detail(context.Background(), "a")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if len(got.Forecast) != pricing.DefaultHorizon {
		t.Fatalf("forecast length = %d, want %d", len(got.Forecast), pricing.DefaultHorizon)
	}
	if got.Forecast[0].Price != 10 {
		t.Errorf("flat history forecast = %v, want 10", got.Forecast[0].Price)
	}
}

func TestDetailMissingItem(t *testing.T) {
	uc := newLibraryUC(newFakeStore())

	var appErr *apphttp.AppError
	if _, err := uc.Detail(context.Background(), "absent"); !errors.As(err, &appErr) || appErr.Status != 404 {
		t.Fatalf("err = %v, want 404 AppError", err)
	}
}

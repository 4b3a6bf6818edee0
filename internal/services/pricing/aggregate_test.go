package pricing

import (
	"errors"
	"math"
	"testing"

	"AgriPulse/internal/domain/models"
)

func TestAggregateVolumeWeighting(t *testing.T) {
	records := []models.TransRecord{
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.10", AvgPrice: 10, Volume: 100},
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.10", AvgPrice: 12, Volume: 50},
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.11", AvgPrice: 11, Volume: 30},
	}

	series, err := Aggregate(records, "甘藍")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("got %d days, want 2", len(series))
	}

	if series[0].Date != "114-08-10" {
		t.Errorf("day 0 date = %q, want 114-08-10", series[0].Date)
	}
	want := (10.0*100 + 12.0*50) / 150.0
	if math.Abs(series[0].Price-want) > 1e-9 {
		t.Errorf("day 0 price = %v, want %v", series[0].Price, want)
	}
	if series[0].Volume != 150 {
		t.Errorf("day 0 volume = %v, want 150", series[0].Volume)
	}

	if series[1].Date != "114-08-11" {
		t.Errorf("day 1 date = %q, want 114-08-11", series[1].Date)
	}
	if math.Abs(series[1].Price-11) > 1e-9 {
		t.Errorf("day 1 price = %v, want 11", series[1].Price)
	}
}

func TestAggregateFiltering(t *testing.T) {
	tests := []struct {
		name    string
		records []models.TransRecord
		crop    string
		want    int
		wantErr error
	}{
		{
			name: "substring match keeps variants",
			records: []models.TransRecord{
				{CropName: "甘藍-初秋", TradeDate: "114.08.10", AvgPrice: 10, Volume: 1},
				{CropName: "蘿蔔", TradeDate: "114.08.10", AvgPrice: 10, Volume: 1},
			},
			crop: "甘藍",
			want: 1,
		},
		{
			name: "non-positive price and volume dropped",
			records: []models.TransRecord{
				{CropName: "甘藍", TradeDate: "114.08.10", AvgPrice: 0, Volume: 100},
				{CropName: "甘藍", TradeDate: "114.08.10", AvgPrice: 10, Volume: 0},
				{CropName: "甘藍", TradeDate: "114.08.10", AvgPrice: -5, Volume: 100},
				{CropName: "甘藍", TradeDate: "114.08.11", AvgPrice: 10, Volume: 1},
			},
			crop: "甘藍",
			want: 1,
		},
		{
			name: "malformed date skipped per record",
			records: []models.TransRecord{
				{CropName: "甘藍", TradeDate: "not-a-date", AvgPrice: 10, Volume: 1},
				{CropName: "甘藍", TradeDate: "114.08.11", AvgPrice: 10, Volume: 1},
			},
			crop: "甘藍",
			want: 1,
		},
		{
			name: "no survivors",
			records: []models.TransRecord{
				{CropName: "蘿蔔", TradeDate: "114.08.10", AvgPrice: 10, Volume: 1},
			},
			crop:    "甘藍",
			wantErr: ErrNoData,
		},
		{
			name:    "empty input",
			records: nil,
			crop:    "甘藍",
			wantErr: ErrNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := Aggregate(tt.records, tt.crop)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			if len(series) != tt.want {
				t.Errorf("got %d days, want %d", len(series), tt.want)
			}
		})
	}
}

func TestAggregateOrdering(t *testing.T) {
	// out-of-order input, including a month boundary where string order on
	// unpadded dates would go wrong
	records := []models.TransRecord{
		{CropName: "甘藍", TradeDate: "114.10.02", AvgPrice: 10, Volume: 1},
		{CropName: "甘藍", TradeDate: "114.9.30", AvgPrice: 10, Volume: 1},
		{CropName: "甘藍", TradeDate: "114.10.01", AvgPrice: 10, Volume: 1},
	}

	series, err := Aggregate(records, "甘藍")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	wantDates := []string{"114-09-30", "114-10-01", "114-10-02"}
	for i, w := range wantDates {
		if series[i].Date != w {
			t.Errorf("series[%d].Date = %q, want %q", i, series[i].Date, w)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	records := []models.TransRecord{
		{CropName: "甘藍", TradeDate: "114.08.10", AvgPrice: 10, Volume: 100},
		{CropName: "甘藍", TradeDate: "114.08.10", AvgPrice: 12, Volume: 50},
	}

	first, err := Aggregate(records, "甘藍")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	second, err := Aggregate(records, "甘藍")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("point %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLastN(t *testing.T) {
	series := []models.DailyPrice{
		{Date: "114-08-10", Price: 1},
		{Date: "114-08-11", Price: 2},
		{Date: "114-08-12", Price: 3},
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"window smaller than series", 2, []string{"114-08-11", "114-08-12"}},
		{"window equals series", 3, []string{"114-08-10", "114-08-11", "114-08-12"}},
		{"window larger than series", 30, []string{"114-08-10", "114-08-11", "114-08-12"}},
		{"zero window returns all", 0, []string{"114-08-10", "114-08-11", "114-08-12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastN(series, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d points, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Date != w {
					t.Errorf("got[%d].Date = %q, want %q", i, got[i].Date, w)
				}
			}
		})
	}
}

package usecase

import (
	"context"
	"testing"

	"AgriPulse/internal/services/pricing"
	"AgriPulse/pkg/config"
	"AgriPulse/pkg/logger"
)

func newBuilder(src *fakeSource, store *fakeStore, proc *RecordProcessor, notifier RefreshNotifier, pairs []config.Pair) *DatasetBuilder {
	return NewDatasetBuilder(
		src,
		store,
		pricing.NewTrendForecaster(0, 0),
		pricing.NewScorer(0),
		proc,
		notifier,
		nopMetrics{},
		logger.Nop(),
		pairs,
		180,
	)
}

func TestBuildAllWritesItemsAndIndex(t *testing.T) {
	src := &fakeSource{records: sampleRecords()}
	store := newFakeStore()
	notifier := &fakeNotifier{}
	pairs := []config.Pair{
		{ID: "cabbage-taipei1", Crop: "甘藍", Market: "台北一"},
		{ID: "radish-taipei1", Crop: "蘿蔔", Market: "台北一"},
	}

	b := newBuilder(src, store, nil, notifier, pairs)
	if err := b.BuildAll(context.Background()); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}

	if src.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 shared fetch per market", src.calls)
	}
	if len(store.index) != 2 {
		t.Fatalf("index length = %d, want 2", len(store.index))
	}

	item := store.items["cabbage-taipei1"]
	if item == nil {
		t.Fatal("cabbage item not written")
	}
	if item.LastObsDate != "114-08-11" {
		t.Errorf("LastObsDate = %q, want 114-08-11", item.LastObsDate)
	}
	if item.LastPrice != 11 {
		t.Errorf("LastPrice = %v, want 11", item.LastPrice)
	}
	if len(item.ForecastSeries) != pricing.DefaultHorizon {
		t.Errorf("forecast length = %d, want %d", len(item.ForecastSeries), pricing.DefaultHorizon)
	}
	if len(item.History) != defaultHistoryDays {
		t.Errorf("history length = %d, want %d", len(item.History), defaultHistoryDays)
	}
	lastPoint := item.History[len(item.History)-1]
	if lastPoint.Date != "114-08-11" || lastPoint.Price == nil {
		t.Errorf("last history point = %+v", lastPoint)
	}
	if item.History[0].Price != nil {
		t.Errorf("calendar gap days should carry nil prices")
	}
	if item.Model == nil || item.Model.Name != "trend-ma" {
		t.Errorf("model = %+v", item.Model)
	}
	// 4 trading days against a 30-day nominal window, low variance
	if item.Score != 45 {
		t.Errorf("Score = %d, want 45", item.Score)
	}
	for _, row := range store.index {
		if row.ID == "cabbage-taipei1" && row.Score != item.Score {
			t.Errorf("index score = %d, want %d", row.Score, item.Score)
		}
	}

	if len(notifier.got) != 2 {
		t.Errorf("notified ids = %v, want both items", notifier.got)
	}
}

func TestBuildAllSkipsEmptyPairs(t *testing.T) {
	src := &fakeSource{records: sampleRecords()}
	store := newFakeStore()
	pairs := []config.Pair{
		{ID: "cabbage-taipei1", Crop: "甘藍", Market: "台北一"},
		{ID: "onion-taipei1", Crop: "洋蔥", Market: "台北一"},
	}

	b := newBuilder(src, store, nil, nil, pairs)
	if err := b.BuildAll(context.Background()); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(store.index) != 1 {
		t.Errorf("index length = %d, want 1 after skipping empty pair", len(store.index))
	}
}

func TestBuildAllRoutesRecordsToIngest(t *testing.T) {
	src := &fakeSource{records: sampleRecords()}
	store := newFakeStore()
	pub := &fakePublisher{}
	proc := NewRecordProcessor(pub, nil, nopMetrics{}, "kafka", 2)

	b := newBuilder(src, store, proc, nil, []config.Pair{{ID: "x", Crop: "甘藍", Market: "台北一"}})
	if err := b.BuildAll(context.Background()); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pub.published) != len(sampleRecords()) {
		t.Errorf("published %d records, want %d", len(pub.published), len(sampleRecords()))
	}
}

func TestPairIDDerivation(t *testing.T) {
	a := pairID(config.Pair{Crop: "甘藍", Market: "台北一"})
	b := pairID(config.Pair{Crop: "甘藍", Market: "高雄"})
	if a == b {
		t.Error("distinct pairs derived the same id")
	}
	if a != pairID(config.Pair{Crop: "甘藍", Market: "台北一"}) {
		t.Error("id derivation not stable")
	}
	if got := pairID(config.Pair{ID: "named", Crop: "x", Market: "y"}); got != "named" {
		t.Errorf("explicit id ignored: %q", got)
	}
}

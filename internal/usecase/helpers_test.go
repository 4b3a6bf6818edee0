package usecase

import (
	"context"
	"time"

	"AgriPulse/internal/domain/models"
	apphttp "AgriPulse/pkg/http"
)

type fakeSource struct {
	records []models.TransRecord
	err     error

	gotMarket string
	gotFrom   time.Time
	gotTo     time.Time
	calls     int
}

func (f *fakeSource) FetchRange(ctx context.Context, market string, from, to time.Time) ([]models.TransRecord, error) {
	f.gotMarket, f.gotFrom, f.gotTo = market, from, to
	f.calls++
	return f.records, f.err
}

type fakeStore struct {
	items map[string]*models.DatasetItem
	index []models.DatasetIndexItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]*models.DatasetItem)}
}

func (f *fakeStore) Index(ctx context.Context) ([]models.DatasetIndexItem, error) {
	if f.index == nil {
		return nil, apphttp.NotFoundError("dataset index")
	}
	return f.index, nil
}

func (f *fakeStore) Item(ctx context.Context, id string) (*models.DatasetItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apphttp.NotFoundError("dataset item")
	}
	return item, nil
}

func (f *fakeStore) PutItem(ctx context.Context, item *models.DatasetItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeStore) PutIndex(ctx context.Context, items []models.DatasetIndexItem) error {
	f.index = items
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, int)                 {}
func (nopMetrics) RecordError(string)                      {}
func (nopMetrics) RecordLatency(string, float64)           {}
func (nopMetrics) RecordLastPrice(string, string, float64) {}

type fakeNotifier struct {
	got []string
}

func (f *fakeNotifier) NotifyRefresh(ids []string) {
	f.got = append(f.got, ids...)
}

type fakePublisher struct {
	published []models.TransRecord
}

func (f *fakePublisher) PublishBatch(ctx context.Context, records []models.TransRecord) error {
	f.published = append(f.published, records...)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeRecordStore struct {
	stored []models.TransRecord

	history      []models.DailyPrice
	historyErr   error
	historyCalls int
	gotCrop      string
	gotMarket    string
}

func (f *fakeRecordStore) Init(ctx context.Context) error { return nil }

func (f *fakeRecordStore) StoreBatch(ctx context.Context, records []models.TransRecord) error {
	f.stored = append(f.stored, records...)
	return nil
}

func (f *fakeRecordStore) DailyHistory(ctx context.Context, crop, market string, from, to time.Time) ([]models.DailyPrice, error) {
	f.historyCalls++
	f.gotCrop = crop
	f.gotMarket = market
	return f.history, f.historyErr
}

func (f *fakeRecordStore) Health(ctx context.Context) error { return nil }
func (f *fakeRecordStore) Close() error                     { return nil }

func sampleRecords() []models.TransRecord {
	return []models.TransRecord{
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.08", AvgPrice: 9, Volume: 80},
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.09", AvgPrice: 9.5, Volume: 120},
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.10", AvgPrice: 10, Volume: 100},
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.10", AvgPrice: 12, Volume: 50},
		{CropName: "甘藍", MarketName: "台北一", TradeDate: "114.08.11", AvgPrice: 11, Volume: 30},
		{CropName: "蘿蔔", MarketName: "台北一", TradeDate: "114.08.11", AvgPrice: 20, Volume: 10},
	}
}

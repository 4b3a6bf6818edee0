package repository

import (
	"context"
	"time"

	"AgriPulse/internal/domain/models"
)

// TransSource fetches raw transaction records for a market over a date range.
type TransSource interface {
	FetchRange(ctx context.Context, market string, from, to time.Time) ([]models.TransRecord, error)
}

// DatasetStore provides access to the prebuilt dataset (index + per-item records).
type DatasetStore interface {
	Index(ctx context.Context) ([]models.DatasetIndexItem, error)
	Item(ctx context.Context, id string) (*models.DatasetItem, error)
	PutItem(ctx context.Context, item *models.DatasetItem) error
	PutIndex(ctx context.Context, items []models.DatasetIndexItem) error
}

// RecordStore persists raw transaction records and serves aggregated daily history.
type RecordStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, records []models.TransRecord) error
	DailyHistory(ctx context.Context, crop, market string, from, to time.Time) ([]models.DailyPrice, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher streams raw transaction records to a message broker.
type Publisher interface {
	PublishBatch(ctx context.Context, records []models.TransRecord) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordFetch(market string, rows int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordLastPrice(crop, market string, price float64)
}

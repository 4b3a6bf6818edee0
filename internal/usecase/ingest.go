package usecase

import (
	"context"
	"fmt"
	"time"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
)

// RecordProcessor routes fetched transaction records to the configured
// ingest backend: a Kafka topic for asynchronous pipelines or ClickHouse
// for direct storage.
type RecordProcessor struct {
	pub     drepo.Publisher
	store   drepo.RecordStore
	metrics drepo.Metrics
	backend string
	batchSz int
}

func NewRecordProcessor(
	pub drepo.Publisher,
	store drepo.RecordStore,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
) *RecordProcessor {
	if batchSz <= 0 {
		batchSz = 500
	}
	return &RecordProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
	}
}

// ProcessBatch forwards records in chunks to the configured backend.
func (p *RecordProcessor) ProcessBatch(ctx context.Context, records []models.TransRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	for begin := 0; begin < len(records); begin += p.batchSz {
		end := begin + p.batchSz
		if end > len(records) {
			end = len(records)
		}
		chunk := records[begin:end]

		var err error
		switch p.backend {
		case "kafka":
			err = p.pub.PublishBatch(ctx, chunk)
		case "clickhouse":
			err = p.store.StoreBatch(ctx, chunk)
		default:
			err = fmt.Errorf("unknown backend: %s", p.backend)
		}
		if err != nil {
			p.metrics.RecordError("ingest")
			return fmt.Errorf("ingest batch: %w", err)
		}
	}

	p.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	return nil
}

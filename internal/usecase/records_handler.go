package usecase

import (
	"context"
	"encoding/json"
	"time"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
	pkgkafka "AgriPulse/pkg/kafka"
)

// KafkaRecordsHandler consumes transaction records from Kafka and writes
// them to the record store.
type KafkaRecordsHandler struct {
	topic   string
	store   drepo.RecordStore
	metrics drepo.Metrics
}

func NewKafkaRecordsHandler(topic string, store drepo.RecordStore, metrics drepo.Metrics) *KafkaRecordsHandler {
	return &KafkaRecordsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaRecordsHandler) Topic() string { return h.topic }

func (h *KafkaRecordsHandler) Handle(ctx context.Context, b []byte) error {
	var r models.TransRecord
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	if err := h.store.StoreBatch(ctx, []models.TransRecord{r}); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("ch_insert", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRecordsHandler)(nil)

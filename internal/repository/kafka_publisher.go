package repository

import (
	"context"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
	pkgkafka "AgriPulse/pkg/kafka"
)

// KafkaRecordPublisher implements Publisher for Kafka. Messages are keyed by
// market so one market's records stay ordered within a partition.
type KafkaRecordPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaRecordPublisher(producer *pkgkafka.Producer, topic string) drepo.Publisher {
	return &KafkaRecordPublisher{producer: producer, topic: topic}
}

func (p *KafkaRecordPublisher) PublishBatch(ctx context.Context, records []models.TransRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.MarketName),
			Value: r,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaRecordPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

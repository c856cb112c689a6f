package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/example/commute-matching/internal/models"
)

const DefaultTopic = "driver-status"

type KafkaProducer struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := &kafka.Writer{Addr: kafka.TCP(brokers...), Topic: topic, Balancer: &kafka.Hash{}}
	return &KafkaProducer{writer: w, timeout: 2 * time.Second}
}

// PublishStatus writes an availability update keyed by driver id, so
// updates for one driver stay ordered within a partition.
func (k *KafkaProducer) PublishStatus(ctx context.Context, st models.DriverStatus) error {
	const op = "KafkaProducer.PublishStatus"
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(st.DriverID), Value: b}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

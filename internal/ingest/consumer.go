package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/example/commute-matching/internal/models"
	"github.com/example/commute-matching/internal/observability"
)

const maxBackoff = 30 * time.Second

// StatusApplier is the driver directory side of the consumer.
type StatusApplier interface {
	ApplyStatus(ctx context.Context, st models.DriverStatus) error
}

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// Consumer applies driver status events from Kafka to a directory.
type Consumer struct {
	reader   MessageReader
	dir      StatusApplier
	logger   *slog.Logger
	attempts int
	delay    time.Duration
	sleep    func(context.Context, time.Duration)
}

func NewConsumer(cfg ConsumerConfig, dir StatusApplier, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{Brokers: cfg.Brokers, Topic: cfg.Topic, GroupID: cfg.Group, MinBytes: 10e3, MaxBytes: 10e6})
	return newConsumer(r, dir, logger)
}

func newConsumer(r MessageReader, dir StatusApplier, logger *slog.Logger) *Consumer {
	return &Consumer{reader: r, dir: dir, logger: logger, attempts: 3, delay: 200 * time.Millisecond, sleep: sleepCtx}
}

// Run reads until ctx is canceled. Read errors back off exponentially up to
// maxBackoff; bad messages are counted and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	backoff := time.Second
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("shutting down consumer")
				return nil
			}
			c.logger.Warn("kafka read error", "error", err, "backoff", backoff.String())
			c.sleep(ctx, backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		if err := c.handle(ctx, m.Value); err != nil {
			c.logger.Warn("status update dropped", "key", string(m.Key), "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, value []byte) error {
	var st models.DriverStatus
	if err := json.Unmarshal(value, &st); err != nil {
		observability.StatusUpdatesTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("invalid message: %w", err)
	}
	if err := models.Validate(st); err != nil {
		observability.StatusUpdatesTotal.WithLabelValues("invalid").Inc()
		return err
	}
	if err := applyWithRetry(ctx, c.dir, st, c.attempts, c.delay, c.sleep); err != nil {
		if errors.Is(err, models.ErrInvalid) {
			observability.StatusUpdatesTotal.WithLabelValues("invalid").Inc()
			return fmt.Errorf("driver %s: %w", st.DriverID, err)
		}
		observability.StatusUpdatesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("driver %s: %w", st.DriverID, err)
	}
	observability.StatusUpdatesTotal.WithLabelValues("applied").Inc()
	return nil
}

func applyWithRetry(ctx context.Context, dir StatusApplier, st models.DriverStatus, attempts int, delay time.Duration, sleep func(context.Context, time.Duration)) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = dir.ApplyStatus(ctx, st); err == nil {
			return nil
		}
		// a rejected profile will not become valid on retry
		if errors.Is(err, models.ErrInvalid) || i == attempts-1 || ctx.Err() != nil {
			break
		}
		sleep(ctx, delay)
		delay *= 2
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

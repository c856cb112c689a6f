package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/commute-matching/internal/models"
	"github.com/example/commute-matching/internal/observability"
)

// Notifier delivers one notification over a single channel.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type Channel struct {
	Name     string
	Notifier Notifier
}

// Fanout sends every notification over all channels. It succeeds when at
// least one channel delivered.
type Fanout struct {
	channels []Channel
	logger   *slog.Logger
}

func NewFanout(logger *slog.Logger, channels ...Channel) *Fanout {
	return &Fanout{channels: channels, logger: logger}
}

func (f *Fanout) Notify(ctx context.Context, n models.Notification) error {
	if len(f.channels) == 0 {
		return nil
	}
	var errs []error
	for _, c := range f.channels {
		if err := c.Notifier.Notify(ctx, n); err != nil {
			observability.NotificationFailures.WithLabelValues(c.Name).Inc()
			f.logger.DebugContext(ctx, "notification channel failed", "channel", c.Name, "driver_id", n.DriverID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	if len(errs) == len(f.channels) {
		return errors.Join(errs...)
	}
	return nil
}

package notifier

import (
	"context"
	"log/slog"

	"github.com/leaguehq/auction-engine/internal/domain/event"
)

// LogPublisher is the sink used when no webhook endpoint is configured.
// Events are logged and otherwise discarded.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e event.Event) {
	p.logger.DebugContext(ctx, "auction event",
		"kind", string(e.EventKind()),
		"occurred_at", e.OccurredAt(),
	)
}

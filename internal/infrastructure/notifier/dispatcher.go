package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/event"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/trace"
)

const deliveryTimeout = 15 * time.Second

// AsyncDispatcher decouples event publication from delivery: Publish submits
// the event to a bounded worker pool and returns immediately, so a slow or
// down webhook endpoint never holds up bid intake or round close.
type AsyncDispatcher struct {
	pool   *ants.Pool
	sink   event.Publisher
	logger *slog.Logger
}

func NewAsyncDispatcher(sink event.Publisher, workers int, logger *slog.Logger) (*AsyncDispatcher, error) {
	if workers < 1 {
		workers = 8
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &AsyncDispatcher{
		pool:   pool,
		sink:   sink,
		logger: logger,
	}, nil
}

func (d *AsyncDispatcher) Publish(ctx context.Context, e event.Event) {
	// Keep the trace link but drop the caller's deadline; delivery outlives
	// the request that produced the event.
	spanCtx := trace.SpanContextFromContext(ctx)

	err := d.pool.Submit(func() {
		deliverCtx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if spanCtx.IsValid() {
			deliverCtx = trace.ContextWithSpanContext(deliverCtx, spanCtx)
		}
		d.sink.Publish(deliverCtx, e)
	})
	if err != nil {
		// Pool saturated or released; the event is dropped, not queued.
		d.logger.WarnContext(ctx, "event dropped, dispatcher pool unavailable",
			"kind", string(e.EventKind()),
			"error", err,
		)
	}
}

// Close waits for in-flight deliveries and releases the pool.
func (d *AsyncDispatcher) Close() {
	d.pool.Release()
}

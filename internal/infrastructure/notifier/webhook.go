// Package notifier delivers domain events to the league platform's webhook
// endpoint. Delivery is best-effort: failures are logged and counted against
// a circuit breaker, never surfaced to the caller.
package notifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/leaguehq/auction-engine/internal/domain/event"
	"github.com/leaguehq/auction-engine/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type WebhookConfig struct {
	EndpointURL string
	Token       string
	Timeout     time.Duration
}

// WebhookNotifier posts one JSON envelope per event to the configured
// endpoint.
type WebhookNotifier struct {
	client      *http.Client
	endpointURL string
	token       string
	breaker     *resilience.CircuitBreaker
	logger      *slog.Logger
}

func NewWebhookNotifier(cfg WebhookConfig, logger *slog.Logger) (*WebhookNotifier, error) {
	endpointURL, err := validateHTTPURL(cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &WebhookNotifier{
		client: &http.Client{
			Timeout: timeout,
		},
		endpointURL: endpointURL,
		token:       strings.TrimSpace(cfg.Token),
		breaker:     resilience.NewCircuitBreaker(5, 30*time.Second, 2),
		logger:      logger,
	}, nil
}

type webhookEnvelope struct {
	Kind       event.Kind  `json:"kind"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       event.Event `json:"data"`
}

func (n *WebhookNotifier) Publish(ctx context.Context, e event.Event) {
	if err := n.deliver(ctx, e); err != nil {
		n.logger.ErrorContext(ctx, "webhook delivery failed",
			"kind", string(e.EventKind()),
			"endpoint", n.endpointURL,
			"error", err,
		)
	}
}

func (n *WebhookNotifier) deliver(ctx context.Context, e event.Event) error {
	if err := n.breaker.Allow(); err != nil {
		return errors.Wrapf(err, "kind=%s", e.EventKind())
	}

	body, err := jsoniter.Marshal(webhookEnvelope{
		Kind:       e.EventKind(),
		OccurredAt: e.OccurredAt(),
		Data:       e,
	})
	if err != nil {
		n.breaker.RecordSuccess()
		return errors.Wrap(err, "marshal event envelope")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(body)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.endpoint", n.endpointURL),
			attribute.String("webhook.event_kind", string(e.EventKind())),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpointURL, strings.NewReader(buf.String()))
	if err != nil {
		n.breaker.RecordSuccess()
		return errors.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.breaker.RecordFailure()
		return errors.Wrapf(err, "post webhook kind=%s", e.EventKind())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode >= 500 {
			n.breaker.RecordFailure()
		} else {
			n.breaker.RecordSuccess()
		}
		return errors.Newf("webhook status=%d kind=%s body=%s",
			resp.StatusCode, e.EventKind(), strings.TrimSpace(string(raw)))
	}

	n.breaker.RecordSuccess()
	return nil
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", fmt.Errorf("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", candidate, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", fmt.Errorf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

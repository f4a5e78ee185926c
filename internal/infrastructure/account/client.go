// Package account verifies team bearer tokens against the league platform's
// account service via token introspection.
package account

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/leaguehq/auction-engine/internal/domain/team"
	"github.com/leaguehq/auction-engine/internal/platform/resilience"
	"github.com/leaguehq/auction-engine/internal/usecase"
)

type Client struct {
	httpClient    *http.Client
	introspectURL string
	breaker       *resilience.CircuitBreaker
	group         resilience.SingleFlight
	logger        *slog.Logger
}

func NewClient(
	httpClient *http.Client,
	baseURL, introspectPath string,
	breakerCfg resilience.CircuitBreakerConfig,
	logger *slog.Logger,
) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	client := &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(baseURL, introspectPath),
		logger:        logger,
	}
	if breakerCfg.Enabled {
		breakerCfg = resilience.NormalizeCircuitBreakerConfig(breakerCfg)
		client.breaker = resilience.NewCircuitBreaker(
			breakerCfg.FailureThreshold,
			breakerCfg.OpenTimeout,
			breakerCfg.HalfOpenMaxReq,
		)
	}

	return client
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (team.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return team.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	// Concurrent requests carrying the same token share one introspection
	// round trip.
	value, err, _ := c.group.Do(token, func() (any, error) {
		return c.introspect(ctx, token)
	})
	if err != nil {
		return team.Principal{}, err
	}

	principal, ok := value.(team.Principal)
	if !ok {
		return team.Principal{}, fmt.Errorf("unexpected introspection result type %T", value)
	}

	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (team.Principal, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return team.Principal{}, fmt.Errorf("%w: account service circuit open", usecase.ErrDependencyUnavailable)
			}
			return team.Principal{}, err
		}
	}

	principal, err := c.doIntrospect(ctx, token)
	if c.breaker != nil {
		// Auth rejections are valid answers from the dependency, only
		// transport-level failures count against the breaker.
		if err != nil && !errors.Is(err, usecase.ErrUnauthorized) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}

	return principal, err
}

func (c *Client) doIntrospect(ctx context.Context, token string) (team.Principal, error) {
	payload := introspectRequest{Token: token}
	encoded, err := jsoniter.Marshal(payload)
	if err != nil {
		return team.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return team.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return team.Principal{}, fmt.Errorf("request token introspection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return team.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return team.Principal{}, fmt.Errorf("read introspect response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "token introspection non-200",
			"status_code", resp.StatusCode,
		)
		return team.Principal{}, fmt.Errorf("token introspection failed with status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := jsoniter.Unmarshal(body, &decoded); err != nil {
		return team.Principal{}, fmt.Errorf("unmarshal introspect response: %w", err)
	}

	if !decoded.Active {
		return team.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}

	principal := team.Principal{
		TeamID: strings.TrimSpace(decoded.TeamID),
		Season: strings.TrimSpace(decoded.Season),
	}
	if err := principal.Validate(); err != nil {
		return team.Principal{}, fmt.Errorf("invalid introspect response: %v", err)
	}

	return principal, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	TeamID string `json:"team_id"`
	Season string `json:"season"`
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}

// Package hyperliquid implements the addrscan.ExchangeReader interface
// against the Hyperliquid info API.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"addresswatch/internal/addrscan"
	"addresswatch/internal/pkg/resilience"
	internalhttp "addresswatch/internal/pkg/transport/http"
)

// infoPath is the single endpoint the info API exposes; the request body
// selects the query.
const infoPath = "/info"

// client implements the addrscan.ExchangeReader interface. Calls run
// behind a circuit breaker so a degraded exchange API sheds load instead
// of queueing timeouts.
type client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// Ensure client implements the addrscan.ExchangeReader interface at compile time.
var _ addrscan.ExchangeReader = (*client)(nil)

// NewClient creates an exchange reader for the given API base URL.
func NewClient(endpoint string, opts ...internalhttp.Option) *client {
	settings := gobreaker.Settings{
		Name:        "hyperliquid-info",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &client{
		endpoint:   endpoint,
		httpClient: internalhttp.NewClient(opts...),
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// infoRequest is the query envelope of the info API.
type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// postInfo performs one info API call and returns the raw response body.
func (c *client) postInfo(ctx context.Context, reqBody infoRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+infoPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.Transient("exchange.info", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
		return nil, resilience.Transient("exchange.info", fmt.Errorf("unexpected status %d", res.StatusCode))
	default:
		return nil, resilience.Validation("exchange.info", fmt.Errorf("unexpected status %d", res.StatusCode))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, resilience.Transient("exchange.info", err)
	}

	if !json.Valid(body) {
		return nil, resilience.Validation("exchange.info", errors.New("response is not valid JSON"))
	}

	return body, nil
}

// UserState implements the addrscan.ExchangeReader interface.
func (c *client) UserState(ctx context.Context, address string) (json.RawMessage, error) {
	return c.execute(ctx, "exchange.user_state", infoRequest{Type: "userState", User: address})
}

// UserFills implements the addrscan.ExchangeReader interface.
func (c *client) UserFills(ctx context.Context, address string) (json.RawMessage, error) {
	return c.execute(ctx, "exchange.user_fills", infoRequest{Type: "userFills", User: address})
}

// execute runs one info query behind the circuit breaker. A breaker that
// is open or saturated reports the data as temporarily unavailable; the
// scanner then falls back to its defaults for this pass.
func (c *client) execute(ctx context.Context, op string, reqBody infoRequest) (json.RawMessage, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.postInfo(ctx, reqBody)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, resilience.DataUnavailable(op, err)
		}
		return nil, err
	}

	return result.(json.RawMessage), nil
}

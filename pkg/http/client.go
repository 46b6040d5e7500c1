package http

import (
	"fmt"
	"net/http"
	"time"

	"wa_scheduler/internal/config"
	"wa_scheduler/pkg/circuitbreaker"
)

// Client wraps http.Client with optional circuit breaking for calls to
// external task services. A 5xx response counts as a failure.
type Client struct {
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

// NewClient builds a Client from the circuit breaker config. When the
// breaker is disabled only the request timeout applies.
func NewClient(cfg config.CircuitBreakerConfig, timeout time.Duration) (*Client, error) {
	c := &Client{httpClient: &http.Client{Timeout: timeout}}
	if !cfg.Enabled {
		return c, nil
	}

	breakerTimeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout %q: %w", cfg.Timeout, err)
	}
	c.breaker = circuitbreaker.New(cfg.FailureThreshold, cfg.SuccessThreshold, breakerTimeout)
	return c, nil
}

// Do executes the request under breaker protection. The returned error is
// either circuitbreaker.ErrCircuitOpen or the underlying transport error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response
	_, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: received status code %d", r.StatusCode)
		}
		resp = r
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

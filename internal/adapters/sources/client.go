// Package sources holds the HTTP adapters for the external signal and library
// sources. Every adapter paces its requests and sits behind a circuit breaker.
package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/steamcompass/compass/internal/domain/signal"
	"github.com/steamcompass/compass/pkg/logger"
	"github.com/steamcompass/compass/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout      = 15 * time.Second
	defaultRatePerSec   = 2
	defaultBurst        = 2
	defaultMinRequests  = 5
	defaultFailureRatio = 0.6
	defaultOpenFor      = 30 * time.Second
	halfOpenRequests    = 1
	maxBodyBytes        = 4 << 20
	defaultUserAgent    = "compass/1.0 (+game metrics)"
)

// client is the shared transport of one source.
type client struct {
	name      string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string

	breakerMinRequests uint32
	breakerRatio       float64
	breakerOpenFor     time.Duration
	breaker            *gobreaker.CircuitBreaker[[]byte]

	logger logger.Logger
}

func newClient(name, baseURL string, opts ...Option) *client {
	c := &client{
		name:               name,
		baseURL:            baseURL,
		http:               &http.Client{Timeout: defaultTimeout},
		limiter:            rate.NewLimiter(defaultRatePerSec, defaultBurst),
		userAgent:          defaultUserAgent,
		breakerMinRequests: defaultMinRequests,
		breakerRatio:       defaultFailureRatio,
		breakerOpenFor:     defaultOpenFor,
		logger:             logger.Get().Named("source").With(logger.String("source", name)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenRequests,
		Timeout:     c.breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < c.breakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= c.breakerRatio
		},
		// A missing entry is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, signal.ErrNoMatch)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, stateValue(to))
			metrics.RecordBreakerTransition(name, to.String())
			c.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	metrics.UpdateBreakerState(name, stateValue(gobreaker.StateClosed))
	return c
}

// get fetches baseURL+path and returns the body.
func (c *client) get(ctx context.Context, path string, header http.Header) ([]byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range header {
			req.Header[k] = v
		}
		return req, nil
	})
}

// post sends body to baseURL+path and returns the response body.
func (c *client) post(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
}

// do waits for the limiter and runs one request through the breaker. A 404
// becomes signal.ErrNoMatch.
func (c *client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limit wait: %w", c.name, err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := build()
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, signal.ErrNoMatch
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordErrorByComponent("source_"+c.name, "breaker_rejected")
		}
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return body, nil
}

// stateValue maps a breaker state to the gauge value.
func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

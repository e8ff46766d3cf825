package sources

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a source client.
type Option func(*client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit paces requests to the source.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithBreaker tunes the circuit breaker: it opens once at least minRequests
// were made and the failure ratio reaches ratio, and stays open for openFor.
func WithBreaker(minRequests int, ratio float64, openFor time.Duration) Option {
	return func(c *client) {
		if minRequests > 0 {
			c.breakerMinRequests = uint32(minRequests)
		}
		if ratio > 0 && ratio <= 1 {
			c.breakerRatio = ratio
		}
		if openFor > 0 {
			c.breakerOpenFor = openFor
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

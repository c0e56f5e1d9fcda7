package http

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Option defines a functional option for configuring the HTTP client.
type Option func(*retryablehttp.Client)

// WithRetryCount sets the maximum number of retry attempts for the client.
func WithRetryCount(n int) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = n
	}
}

// WithRetryWaitTime sets the minimum wait time between retry attempts.
func WithRetryWaitTime(d time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = d
	}
}

// WithRetryMaxWaitTime sets the maximum wait time between retry attempts.
func WithRetryMaxWaitTime(d time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMax = d
	}
}

// WithTimeout sets the overall request timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.HTTPClient.Timeout = d
	}
}

// NewClient creates a standard *http.Client with retry support,
// applying any provided functional options.
func NewClient(opts ...Option) *http.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil

	for _, opt := range opts {
		opt(client)
	}

	return client.StandardClient()
}

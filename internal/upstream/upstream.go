// Package upstream holds the shared plumbing of the outbound API clients:
// a JSON GET helper that turns transport and status failures into
// *apperr.UpstreamError, and identity resolvers.
//
// Clients never retry and never cache. Each call makes exactly one
// outbound request.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/stats"
)

// DefaultTimeout is the outbound deadline of a single request.
const DefaultTimeout = 10 * time.Second

// maxBody caps the size of a decoded response body.
const maxBody = 16 << 20

// Client issues JSON GET requests against one upstream service.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	service string
	http    *http.Client
	timeout time.Duration
	headers http.Header
	logger  *zap.Logger
	stats   stats.Collector
}

// NewClient creates a client for service, e.g. "hypixel".
func NewClient(service string, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &Client{
		service: service,
		http:    o.http,
		timeout: o.timeout,
		headers: o.headers,
		logger:  o.logger.Named(service),
		stats:   o.collector,
	}
}

// Service returns the upstream name.
func (c *Client) Service() string {
	return c.service
}

// errorBody captures the reason fields upstreams put in failure bodies.
type errorBody struct {
	Cause   string `json:"cause"`
	Message string `json:"message"`
	Error   string `json:"errorMessage"`
}

func (b errorBody) reason() string {
	switch {
	case b.Cause != "":
		return b.Cause
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}

// GetJSON fetches url and decodes a 2xx body into out.
//
// 404 and 204 responses become errors matching apperr.ErrNotFound. Other
// non-2xx statuses keep the upstream status and cause. A body that does not
// decode yields apperr.StatusMalformed, and an exceeded deadline yields a
// Timeout error with apperr.StatusTimeout.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", c.service, err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.stats.IncCounter(stats.Prefixed(c.service, stats.MetricUpstreamRequests), 1)
	defer func() {
		c.stats.ObserveHistogram(stats.Prefixed(c.service, stats.MetricUpstreamSeconds), time.Since(start).Seconds())
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(c.transportError(ctx, err))
	}
	defer resp.Body.Close()
	body := io.LimitReader(resp.Body, maxBody)

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		var eb errorBody
		json.NewDecoder(body).Decode(&eb)
		cause := eb.reason()
		if cause == "" {
			cause = "not found"
		}
		return &apperr.UpstreamError{
			Service: c.service,
			Status:  http.StatusNotFound,
			Cause:   cause,
			Err:     apperr.ErrNotFound,
		}

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var eb errorBody
		json.NewDecoder(body).Decode(&eb)
		cause := eb.reason()
		if cause == "" {
			cause = http.StatusText(resp.StatusCode)
		}
		return c.fail(&apperr.UpstreamError{
			Service: c.service,
			Status:  resp.StatusCode,
			Cause:   cause,
		})
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c.fail(c.transportError(ctx, ctxErr))
		}
		return c.fail(&apperr.UpstreamError{
			Service: c.service,
			Status:  apperr.StatusMalformed,
			Cause:   "malformed response",
			Err:     err,
		})
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, err error) *apperr.UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &apperr.UpstreamError{
			Service: c.service,
			Status:  apperr.StatusTimeout,
			Cause:   "upstream timed out",
			Timeout: true,
			Err:     err,
		}
	}
	return &apperr.UpstreamError{
		Service: c.service,
		Status:  apperr.StatusDefault,
		Cause:   "upstream request failed",
		Err:     err,
	}
}

func (c *Client) fail(err *apperr.UpstreamError) error {
	c.stats.IncCounter(stats.Prefixed(c.service, stats.MetricUpstreamErrors), 1)
	c.logger.Warn("upstream request failed",
		zap.Int("status", err.Status),
		zap.String("cause", err.Cause),
		zap.Bool("timeout", err.Timeout),
		zap.Error(err.Err),
	)
	return err
}

// Fail builds an upstream error for a 2xx response whose payload reports a
// failure, and records it like any other failed request.
func (c *Client) Fail(status int, cause string) error {
	return c.fail(&apperr.UpstreamError{Service: c.service, Status: status, Cause: cause})
}

// Missing builds a NotFound error for a 2xx response whose payload holds no
// record.
func (c *Client) Missing(cause string) error {
	return &apperr.UpstreamError{
		Service: c.service,
		Status:  http.StatusNotFound,
		Cause:   cause,
		Err:     apperr.ErrNotFound,
	}
}

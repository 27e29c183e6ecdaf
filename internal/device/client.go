// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	xglog "github.com/ManuGH/netreset/internal/log"
)

const (
	opFetchCountdown = "fetch_countdown"
	opTriggerReset   = "trigger_reset"

	// DefaultTimeout bounds a single device request.
	DefaultTimeout = 30 * time.Second

	maxCountdownBody = 1 << 10
)

// Client is the HTTP Gateway implementation.
type Client struct {
	base   string
	http   *http.Client
	logger zerolog.Logger
}

var _ Gateway = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New returns a client for the device reachable at base (e.g. "http://192.168.42.1").
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: xglog.WithComponent("device"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised device base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// FetchCountdown performs GET /get_timer and parses the decimal body.
// Negative values are clamped to zero.
func (c *Client) FetchCountdown(ctx context.Context) (int, error) {
	start := time.Now()
	seconds, err := c.fetchCountdown(ctx)
	observeRequest(opFetchCountdown, start, err)
	if err != nil {
		c.logger.Warn().Err(err).Str(xglog.FieldOperation, opFetchCountdown).Msg("device request failed")
		return 0, err
	}
	c.logger.Debug().
		Str(xglog.FieldOperation, opFetchCountdown).
		Int(xglog.FieldSecondsLeft, seconds).
		Msg("countdown fetched")
	return seconds, nil
}

func (c *Client) fetchCountdown(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+PathCountdown, nil)
	if err != nil {
		return 0, &GatewayError{Sentinel: ErrTransport, Operation: opFetchCountdown, Cause: err.Error(), Err: err}
	}
	res, err := c.http.Do(req)
	if err != nil {
		return 0, transportError(opFetchCountdown, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxCountdownBody))
		return 0, statusError(opFetchCountdown, res)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxCountdownBody))
	if err != nil {
		return 0, transportError(opFetchCountdown, err)
	}
	raw := strings.TrimSpace(string(body))
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &GatewayError{
			Sentinel:  ErrBadResponse,
			Operation: opFetchCountdown,
			Status:    res.StatusCode,
			Cause:     fmt.Sprintf("invalid countdown value %q", raw),
			Err:       err,
		}
	}
	if seconds < 0 {
		seconds = 0
	}
	return seconds, nil
}

// TriggerReset performs POST /reset_dhcp. Any non-200 response is a failure; the body
// is not part of the contract.
func (c *Client) TriggerReset(ctx context.Context) error {
	start := time.Now()
	err := c.triggerReset(ctx)
	observeRequest(opTriggerReset, start, err)
	if err != nil {
		c.logger.Warn().Err(err).Str(xglog.FieldOperation, opTriggerReset).Msg("device request failed")
		return err
	}
	c.logger.Info().Str(xglog.FieldOperation, opTriggerReset).Msg("device accepted reset")
	return nil
}

func (c *Client) triggerReset(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+PathReset, strings.NewReader("{}"))
	if err != nil {
		return &GatewayError{Sentinel: ErrTransport, Operation: opTriggerReset, Cause: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return transportError(opTriggerReset, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxCountdownBody))

	if res.StatusCode != http.StatusOK {
		return statusError(opTriggerReset, res)
	}
	return nil
}

func statusError(operation string, res *http.Response) error {
	return &GatewayError{
		Sentinel:  ErrUpstreamStatus,
		Operation: operation,
		Status:    res.StatusCode,
		Cause:     statusText(res),
	}
}

// statusText returns the reason phrase of the response, e.g. "Internal Server Error".
func statusText(res *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if text == "" {
		text = http.StatusText(res.StatusCode)
	}
	if text == "" {
		text = fmt.Sprintf("HTTP %d", res.StatusCode)
	}
	return text
}

func transportError(operation string, err error) error {
	return &GatewayError{
		Sentinel:  ErrTransport,
		Operation: operation,
		Cause:     transportCause(err),
		Err:       err,
	}
}

func transportCause(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// Package api is the authenticated JSON client for the project service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/pkg/circuitbreaker"
	"github.com/johnassefatheeth/pm-f-d/pkg/metrics"
	"github.com/johnassefatheeth/pm-f-d/pkg/otel"
	"github.com/johnassefatheeth/pm-f-d/pkg/trace"
)

const defaultTimeout = 10 * time.Second

// maxBodySize caps how much of a response is read.
const maxBodySize = 4 << 20

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker // 熔断器
	logger     *zap.Logger
}

type Option func(*clientOptions)

type clientOptions struct {
	token      string
	httpClient *http.Client
	timeout    time.Duration
	breaker    circuitbreaker.Config
	logger     *zap.Logger
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithBreaker overrides the circuit breaker thresholds. IsFailure and
// OnStateChange are always set by the client.
func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(o *clientOptions) { o.breaker = cfg }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient returns a client rooted at baseURL, e.g. "http://localhost:8080/api".
func NewClient(baseURL string, opts ...Option) *Client {
	o := clientOptions{
		timeout: defaultTimeout,
		breaker: circuitbreaker.Config{
			FailureThreshold:    5,
			SuccessThreshold:    2,
			Timeout:             30 * time.Second,
			HalfOpenMaxRequests: 2,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}

	logger := o.logger.With(zap.String("component", "api_client"))
	cbConfig := o.breaker
	cbConfig.IsFailure = isBreakerFailure
	cbConfig.OnStateChange = func(from, to circuitbreaker.State) {
		metrics.RecordBreakerTransition(from.String(), to.String())
		logger.Warn("circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      o.token,
		httpClient: o.httpClient,
		cb:         circuitbreaker.NewCircuitBreaker(cbConfig),
		logger:     logger,
	}
}

// BreakerState exposes the circuit breaker for diagnostics.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.cb.GetState()
}

// isBreakerFailure counts transport errors and 5xx only. A 4xx means the
// server is healthy and said no.
func isBreakerFailure(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		return apiErr.StatusCode >= 500
	}
	return true
}

type errorBody struct {
	Message string `json:"message"`
}

// do sends one request and returns the raw body of a 2xx response. route is
// the path template used for metrics and span names.
func (c *Client) do(ctx context.Context, method, route, path string, in any) ([]byte, error) {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, &Error{Err: fmt.Errorf("encode request: %w", err)}
		}
		body = b
	}

	var out []byte
	err := c.cb.Execute(func() error {
		var err error
		out, err = c.send(ctx, method, route, path, body)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		metrics.RecordAPICall(method, route, "breaker_open", 0)
		return nil, &Error{Err: err}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, method, route, path string, body []byte) ([]byte, error) {
	start := time.Now()
	ctx, traceID := trace.Ensure(ctx)
	log := c.logger.With(
		zap.String("trace_id", traceID),
		zap.String("method", method),
		zap.String("path", path),
	)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	// 传播 trace_id
	req.Header.Set(trace.HeaderName(), traceID)

	_, span := otel.ClientSpan(ctx, req, route)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		otel.EndClientSpan(span, 0, err)
		metrics.RecordAPICall(method, route, "error", time.Since(start))
		log.Warn("api request failed", zap.Error(err))
		return nil, &Error{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	status := strconv.Itoa(resp.StatusCode)
	metrics.RecordAPICall(method, route, status, time.Since(start))
	if err != nil {
		otel.EndClientSpan(span, resp.StatusCode, err)
		return nil, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		apiErr := &Error{StatusCode: resp.StatusCode, Message: eb.Message}
		otel.EndClientSpan(span, resp.StatusCode, apiErr)
		log.Info("api request rejected", zap.Int("status", resp.StatusCode), zap.String("message", eb.Message))
		return nil, apiErr
	}

	otel.EndClientSpan(span, resp.StatusCode, nil)
	log.Debug("api request done", zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))
	return raw, nil
}

func decode(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Package api is the typed client for the catalog backend's REST API.
//
// Every backend response is wrapped in an envelope:
//
//	{"status": "success", "data": {...}}
//	{"status": "error", "message": "..."}
//
// The envelope is parsed and validated here; nothing untyped leaves this
// package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/catalog-admin/internal/metrics"
	"github.com/DukeRupert/catalog-admin/internal/requestctx"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 10 << 20

	statusSuccess = "success"
	statusError   = "error"
)

// Config contains configuration for the backend client.
type Config struct {
	BaseURL        string        // e.g. "https://api.example.com/v1"
	Token          string        // sent as a bearer token when non-empty
	Timeout        time.Duration // per-request transport timeout
	MaxRetries     int           // attempts for idempotent reads
	RetryBaseDelay time.Duration // base delay for exponential backoff
	RateLimit      float64       // requests per second; 0 disables throttling
	RateBurst      int

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	config  Config
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a backend client.
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is required")
	}

	// Set defaults
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryBaseDelay == 0 {
		config.RetryBaseDelay = 250 * time.Millisecond
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &Client{
		config:  config,
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		http:    httpClient,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// envelope is the wire wrapper of every response.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// field returns data.<key>.
func (e *envelope) field(key string) (json.RawMessage, bool) {
	if len(e.Data) == 0 {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.Data, &fields); err != nil {
		return nil, false
	}
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

// call describes one logical backend request.
type call struct {
	resource    string // metrics label, e.g. "categories"
	method      string
	path        string
	body        []byte
	contentType string
	retry       bool // only idempotent reads are retried
}

// jsonCall builds a call with a JSON body.
func jsonCall(resource, method, path string, payload any) (call, error) {
	c := call{resource: resource, method: method, path: path}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return c, fmt.Errorf("marshal request: %w", err)
		}
		c.body = b
		c.contentType = "application/json"
	}
	return c, nil
}

// send executes a call, retrying transient failures of idempotent calls
// with exponential backoff.
func (c *Client) send(ctx context.Context, req call) (*envelope, error) {
	attempts := 1
	if req.retry {
		attempts = c.config.MaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		env, err := c.sendOnce(ctx, req)
		if err == nil {
			return env, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt >= attempts {
			break
		}

		// Calculate backoff delay (exponential: base * 2^(attempt-1))
		delay := c.config.RetryBaseDelay * time.Duration(1<<(attempt-1))
		c.logger.Info("retrying backend request",
			"method", req.method,
			"path", req.path,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		metrics.APIRetried(req.resource)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &Error{Method: req.method, Path: req.path, Err: ctx.Err()}
		}
	}

	return nil, lastErr
}

// sendOnce executes a single HTTP round trip and validates the envelope.
func (c *Client) sendOnce(ctx context.Context, req call) (*envelope, error) {
	start := time.Now()
	env, err := c.roundTrip(ctx, req)
	metrics.APICall(req.resource, req.method, outcome(err), time.Since(start))
	return env, err
}

func (c *Client) roundTrip(ctx context.Context, req call) (*envelope, error) {
	fail := func(status int, message string, err error) *Error {
		return &Error{Method: req.method, Path: req.path, Status: status, Message: message, Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(0, "", err)
		}
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, fail(0, "", fmt.Errorf("create request: %w", err))
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	requestID := requestctx.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fail(0, "", ctx.Err())
		}
		return nil, fail(0, "", fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fail(resp.StatusCode, "", fmt.Errorf("%w: read body: %v", ErrUnavailable, err))
	}

	// A decoded envelope is useful even on error statuses for its message.
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fail(resp.StatusCode, env.Message, ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fail(resp.StatusCode, env.Message, ErrUnavailable)
	case resp.StatusCode >= 400:
		return nil, fail(resp.StatusCode, env.Message, ErrRejected)
	case resp.StatusCode == http.StatusNoContent:
		return &envelope{Status: statusSuccess}, nil
	}

	if decodeErr != nil {
		return nil, fail(resp.StatusCode, "", fmt.Errorf("%w: %v", ErrMalformed, decodeErr))
	}

	switch env.Status {
	case statusSuccess:
		return &env, nil
	case statusError:
		return nil, fail(resp.StatusCode, env.Message, ErrRejected)
	default:
		return nil, fail(resp.StatusCode, env.Message, fmt.Errorf("%w: unknown status %q", ErrMalformed, env.Status))
	}
}

// outcome is the metrics label for a call result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "error"
	}
}

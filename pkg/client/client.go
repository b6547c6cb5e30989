// Package client provides the HTTP transport for batch RPC procedure calls
// with retries, request ids and metrics.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/emuready-client/pkg/envelope"
	"github.com/Sternrassler/emuready-client/pkg/metrics"
	"github.com/Sternrassler/emuready-client/pkg/pagination"
	"github.com/Sternrassler/emuready-client/pkg/rpcerr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public service root.
const DefaultBaseURL = "https://www.emuready.com"

// procedurePath is appended to the base URL, followed by the procedure name.
const procedurePath = "/api/trpc/"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// factory registers the client metrics with metrics.Registry.
var factory = promauto.With(metrics.Registry)

var (
	rpcRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_requests_total",
		Help: "Total RPC requests by procedure and status",
	}, []string{"procedure", "status"})

	rpcRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rpc_request_duration_seconds",
		Help:    "RPC request duration in seconds by procedure, retries included",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"procedure"})

	rpcErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_errors_total",
		Help: "Total transport errors by class",
	}, []string{"class"})
)

// TokenSource returns the bearer token attached to a call. An empty token
// sends no Authorization header.
type TokenSource func(ctx context.Context) (string, error)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the service root, without the procedure path.
	BaseURL string

	// User-Agent header (REQUIRED)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout per HTTP attempt.
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration

	// Token is optional. Credential storage stays with the caller.
	Token TokenSource
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		UserAgent:      userAgent,
		Timeout:        30 * time.Second,
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// Client performs procedure calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		config:     cfg,
		logger:     log.With().Str("component", "rpc-client").Logger(),
	}, nil
}

// Query calls a read procedure with GET, the envelope in the input parameter.
func (c *Client) Query(ctx context.Context, procedure string, input any) ([]byte, error) {
	return c.call(ctx, http.MethodGet, procedure, input)
}

// Mutate calls a write procedure with POST, the envelope as body.
func (c *Client) Mutate(ctx context.Context, procedure string, input any) ([]byte, error) {
	return c.call(ctx, http.MethodPost, procedure, input)
}

// Fetcher adapts a query procedure to a pagination fetcher. build turns the
// page key and size into the procedure input.
func (c *Client) Fetcher(procedure string, build func(key, pageSize int) any) pagination.Fetcher {
	return func(ctx context.Context, key, pageSize int) ([]byte, error) {
		return c.Query(ctx, procedure, build(key, pageSize))
	}
}

// call returns the raw response envelope. Errors are transport failures
// only; an error envelope is a successful call for this layer.
func (c *Client) call(ctx context.Context, method, procedure string, input any) ([]byte, error) {
	encoded, err := envelope.Encode(input)
	if err != nil {
		return nil, &rpcerr.Error{Kind: rpcerr.KindValidation, Message: "encode input", Err: err}
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, &rpcerr.Error{Kind: rpcerr.KindUnauthorized, Message: "obtain token", Err: err}
	}

	requestID := uuid.NewString()
	logger := c.logger.With().
		Str("procedure", procedure).
		Str("request_id", requestID).
		Logger()

	startTime := time.Now()
	defer func() {
		rpcRequestDuration.WithLabelValues(procedure).Observe(time.Since(startTime).Seconds())
	}()

	logger.Debug().
		Str("method", method).
		Msg("Executing RPC request")

	var body []byte
	retryErr := retryWithBackoff(ctx, c.config.retryConfig(), func() error {
		b, status, reqErr := c.attempt(ctx, method, procedure, encoded, requestID, token)
		if reqErr != nil {
			logger.Error().Err(reqErr).Msg("HTTP request failed")
			rpcErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			rpcRequestsTotal.WithLabelValues(procedure, "network_error").Inc()
			return &RequestError{
				Procedure:  procedure,
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		rpcRequestsTotal.WithLabelValues(procedure, strconv.Itoa(status)).Inc()

		if status >= http.StatusBadRequest && !hasEnvelope(b) {
			errClass := classifyStatus(status)
			rpcErrorsTotal.WithLabelValues(string(errClass)).Inc()
			logger.Warn().
				Int("status", status).
				Str("error_class", string(errClass)).
				Msg("RPC request error without envelope")
			return &RequestError{
				Procedure:  procedure,
				StatusCode: status,
				ErrorClass: errClass,
				Message:    http.StatusText(status),
			}
		}

		body = b
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	logger.Debug().
		Int("bytes", len(body)).
		Dur("duration", time.Since(startTime)).
		Msg("RPC request complete")

	return body, nil
}

// attempt performs one HTTP round trip and reads the body.
func (c *Client) attempt(ctx context.Context, method, procedure, encoded, requestID, token string) ([]byte, int, error) {
	req, err := c.newRequest(ctx, method, procedure, encoded)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.config.Token == nil {
		return "", nil
	}
	return c.config.Token(ctx)
}

func (c *Client) newRequest(ctx context.Context, method, procedure, encoded string) (*http.Request, error) {
	endpoint := c.baseURL + procedurePath + url.PathEscape(procedure)

	if method == http.MethodGet {
		query := url.Values{"batch": {"1"}, "input": {encoded}}
		req, err := http.NewRequestWithContext(ctx, method, endpoint+"?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		return req, nil
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint+"?batch=1", bytes.NewReader([]byte(encoded)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// classifyStatus classifies an HTTP failure that carries no envelope.
func classifyStatus(status int) ErrorClass {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrorClassGateway
	default:
		return ErrorClassHTTP
	}
}

func hasEnvelope(body []byte) bool {
	_, err := envelope.Parse(body)
	return err == nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/emuready-client/internal/testutil"
	"github.com/Sternrassler/emuready-client/pkg/envelope"
	"github.com/Sternrassler/emuready-client/pkg/metrics"
	"github.com/Sternrassler/emuready-client/pkg/rpcerr"
	"github.com/google/uuid"
)

const testUserAgent = "TestApp/1.0.0 (test@example.com)"

// newTestClient creates a client against the mock server with fast retries.
func newTestClient(t *testing.T, mock *testutil.MockRPC) *Client {
	t.Helper()

	cfg := DefaultConfig(testUserAgent)
	cfg.BaseURL = mock.URL()
	cfg.InitialBackoff = 10 * time.Millisecond

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(testUserAgent),
			expectError: false,
		},
		{
			name: "empty user agent",
			config: Config{
				BaseURL: DefaultBaseURL,
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "empty base url",
			config: Config{
				UserAgent: testUserAgent,
			},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name: "relative base url",
			config: Config{
				BaseURL:   "/api",
				UserAgent: testUserAgent,
			},
			expectError: true,
			errorMsg:    `invalid base url "/api"`,
		},
		{
			name: "negative retries",
			config: Config{
				BaseURL:    DefaultBaseURL,
				UserAgent:  testUserAgent,
				MaxRetries: -1,
			},
			expectError: true,
			errorMsg:    "max_retries must be >= 0 (got -1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if client == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(testUserAgent)

	if cfg.UserAgent != testUserAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, testUserAgent)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, should be > 0", cfg.Timeout)
	}
	if cfg.MaxRetries < 0 {
		t.Errorf("MaxRetries = %d, should be >= 0", cfg.MaxRetries)
	}
}

func TestQuery_Request(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()

	var rawQuery string
	mock.SetHandler("mobile.getGames", func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		body, _ := envelope.Result([]string{"a"})
		w.Write(body)
	})

	client := newTestClient(t, mock)

	input := map[string]any{"limit": 20, "offset": 0, "search": nil}
	body, err := client.Query(context.Background(), "mobile.getGames", input)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	got, err := envelope.Decode[[]string](body)
	if err != nil || len(got) != 1 || got[0] != "a" {
		t.Errorf("Decode() = %v, %v", got, err)
	}

	if mock.LastMethod != http.MethodGet {
		t.Errorf("Method = %q, want GET", mock.LastMethod)
	}
	if !strings.Contains(rawQuery, "batch=1") {
		t.Errorf("query %q missing batch=1", rawQuery)
	}
	if lastInput := string(mock.GetLastInput()); lastInput != `{"limit":20,"offset":0}` {
		t.Errorf("input = %s, want null members dropped", lastInput)
	}
	if ua := mock.GetLastHeader("User-Agent"); ua != testUserAgent {
		t.Errorf("User-Agent = %q, want %q", ua, testUserAgent)
	}
	if _, err := uuid.Parse(mock.GetLastHeader("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID is not a uuid: %v", err)
	}
}

// requestCount reads rpc_requests_total the way the stats command does.
func requestCount(t *testing.T) float64 {
	t.Helper()
	samples, err := metrics.Snapshot(metrics.Gatherer, "rpc_requests_total")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	for _, s := range samples {
		if s.Name == "rpc_requests_total" {
			return s.Value
		}
	}
	return 0
}

func TestQuery_MetricsGatheredFromRegistry(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetResult("mobile.getGames", []string{"a"})

	client := newTestClient(t, mock)
	before := requestCount(t)

	for i := 0; i < 2; i++ {
		if _, err := client.Query(context.Background(), "mobile.getGames", map[string]any{"limit": 1}); err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
	}

	if got := requestCount(t) - before; got != 2 {
		t.Errorf("rpc_requests_total grew by %v, want 2", got)
	}
}

func TestQuery_RequestIDPerCall(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetResult("mobile.getGames", []int{})

	client := newTestClient(t, mock)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		if _, err := client.Query(context.Background(), "mobile.getGames", map[string]any{"limit": 1}); err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		seen[mock.GetLastHeader("X-Request-ID")] = true
	}
	if len(seen) != 3 {
		t.Errorf("distinct request ids = %d, want 3", len(seen))
	}
}

func TestMutate_Request(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetResult("mobile.createVote", map[string]bool{"ok": true})

	client := newTestClient(t, mock)

	body, err := client.Mutate(context.Background(), "mobile.createVote", map[string]any{"listingId": "l1", "value": true})
	if err != nil {
		t.Fatalf("Mutate() failed: %v", err)
	}
	if mock.LastMethod != http.MethodPost {
		t.Errorf("Method = %q, want POST", mock.LastMethod)
	}
	if lastInput := string(mock.GetLastInput()); lastInput != `{"listingId":"l1","value":true}` {
		t.Errorf("input = %s", lastInput)
	}

	got, err := envelope.Decode[map[string]bool](body)
	if err != nil || !got["ok"] {
		t.Errorf("Decode() = %v, %v", got, err)
	}
}

func TestQuery_ErrorEnvelopeIsReturned(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetError("mobile.getGameById", "NOT_FOUND", "Game not found", http.StatusNotFound)

	client := newTestClient(t, mock)

	body, err := client.Query(context.Background(), "mobile.getGameById", map[string]string{"id": "x"})
	if err != nil {
		t.Fatalf("Query() error = %v, want envelope body", err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("requests = %d, want 1 (no retry on enveloped errors)", mock.GetRequestCount())
	}

	_, err = envelope.Decode[json.RawMessage](body)
	if !rpcerr.Is(err, rpcerr.KindNotFound) {
		t.Errorf("Decode() error kind = %q, want not_found", rpcerr.KindOf(err))
	}
}

func TestQuery_GatewayRetry(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()

	var calls atomic.Int32
	gateway := testutil.NewGatewayResponse(http.StatusBadGateway)
	mock.SetHandler("mobile.getGames", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(gateway.StatusCode)
			w.Write([]byte(gateway.Body))
			return
		}
		body, _ := envelope.Result([]int{1})
		w.Write(body)
	})

	client := newTestClient(t, mock)

	if _, err := client.Query(context.Background(), "mobile.getGames", map[string]any{"limit": 1}); err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestQuery_GatewayRetryExhausted(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetResponse("mobile.getGames", testutil.NewGatewayResponse(http.StatusServiceUnavailable))

	client := newTestClient(t, mock)

	_, err := client.Query(context.Background(), "mobile.getGames", nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	if !rpcerr.Is(err, rpcerr.KindTransport) {
		t.Errorf("Kind = %q, want transport", rpcerr.KindOf(err))
	}
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("requests = %d, want 3 (1 + MaxRetries)", got)
	}
}

func TestQuery_HTTPErrorWithoutEnvelope(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetResponse("mobile.getGames", testutil.NewGatewayResponse(http.StatusInternalServerError))

	client := newTestClient(t, mock)

	_, err := client.Query(context.Background(), "mobile.getGames", nil)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected *RequestError, got %T (%v)", err, err)
	}
	if reqErr.ErrorClass != ErrorClassHTTP || reqErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("RequestError = %+v", reqErr)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestQuery_Token(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetResult("mobile.getGames", []int{})

	tests := []struct {
		name       string
		token      TokenSource
		expectAuth string
		expectKind rpcerr.Kind
	}{
		{
			name:       "no token source",
			token:      nil,
			expectAuth: "",
		},
		{
			name:       "bearer token",
			token:      func(ctx context.Context) (string, error) { return "secret", nil },
			expectAuth: "Bearer secret",
		},
		{
			name:       "token failure",
			token:      func(ctx context.Context) (string, error) { return "", errors.New("expired") },
			expectKind: rpcerr.KindUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.Reset()

			cfg := DefaultConfig(testUserAgent)
			cfg.BaseURL = mock.URL()
			cfg.Token = tt.token
			client, err := New(cfg)
			if err != nil {
				t.Fatalf("Failed to create client: %v", err)
			}

			_, err = client.Query(context.Background(), "mobile.getGames", nil)
			if tt.expectKind != "" {
				if !rpcerr.Is(err, tt.expectKind) {
					t.Errorf("Kind = %q, want %q", rpcerr.KindOf(err), tt.expectKind)
				}
				if mock.GetRequestCount() != 0 {
					t.Error("no request should be sent without a token")
				}
				return
			}
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if got := mock.GetLastHeader("Authorization"); got != tt.expectAuth {
				t.Errorf("Authorization = %q, want %q", got, tt.expectAuth)
			}
		})
	}
}

func TestQuery_UnencodableInput(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()

	client := newTestClient(t, mock)

	_, err := client.Query(context.Background(), "mobile.getGames", map[string]any{"bad": make(chan int)})
	if !rpcerr.Is(err, rpcerr.KindValidation) {
		t.Errorf("Kind = %q, want validation", rpcerr.KindOf(err))
	}
	if mock.GetRequestCount() != 0 {
		t.Error("no request should be sent for unencodable input")
	}
}

func TestQuery_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetResponse("mobile.getGames", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"result":{"data":{"json":[]}}}`,
		Delay:      500 * time.Millisecond,
	})

	client := newTestClient(t, mock)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Query(ctx, "mobile.getGames", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded in chain, got %v", err)
	}
	if !rpcerr.Is(err, rpcerr.KindTransport) {
		t.Errorf("Kind = %q, want transport", rpcerr.KindOf(err))
	}
}

func TestFetcher(t *testing.T) {
	mock := testutil.NewMockRPC()
	defer mock.Close()
	mock.SetResult("mobile.getGames", []int{1, 2})

	client := newTestClient(t, mock)

	fetch := client.Fetcher("mobile.getGames", func(key, pageSize int) any {
		return map[string]int{"offset": key, "limit": pageSize}
	})

	body, err := fetch(context.Background(), 40, 20)
	if err != nil {
		t.Fatalf("fetch() failed: %v", err)
	}
	if lastInput := string(mock.GetLastInput()); lastInput != `{"limit":20,"offset":40}` {
		t.Errorf("input = %s", lastInput)
	}

	rows, err := envelope.Decode[[]int](body)
	if err != nil || len(rows) != 2 {
		t.Errorf("Decode() = %v, %v", rows, err)
	}
}

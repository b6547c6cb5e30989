// Package testutil provides a mock batch RPC server for client tests.
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/emuready-client/pkg/envelope"
)

// ProcedurePrefix is the path under which procedures are served.
const ProcedurePrefix = "/api/trpc/"

// MockResponse defines a canned response for one procedure.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// InputHandler builds a result from the decoded procedure input.
// Returning a non-nil error sends it as an INTERNAL_SERVER_ERROR envelope.
type InputHandler func(input json.RawMessage) (any, error)

// MockRPC is a configurable mock RPC server for testing.
type MockRPC struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount      int
	ProcedureCounts   map[string]int
	LastRequestHeader http.Header
	LastInput         json.RawMessage
	LastMethod        string
}

// NewMockRPC starts a new mock server.
func NewMockRPC() *MockRPC {
	mock := &MockRPC{
		handlers:        make(map[string]http.HandlerFunc),
		ProcedureCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		procedure := strings.TrimPrefix(r.URL.Path, ProcedurePrefix)

		mock.mu.Lock()
		mock.RequestCount++
		mock.ProcedureCounts[procedure]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastMethod = r.Method
		input := readInput(r)
		mock.LastInput = input
		handler, exists := mock.handlers[procedure]
		mock.mu.Unlock()

		r = r.WithContext(context.WithValue(r.Context(), inputKey{}, input))

		if exists {
			handler(w, r)
			return
		}

		writeEnvelope(w, http.StatusNotFound, mustError("NOT_FOUND", "No procedure found on path \""+procedure+"\"", http.StatusNotFound, procedure))
	}))

	return mock
}

// URL returns the mock server base URL.
func (m *MockRPC) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockRPC) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockRPC) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ProcedureCounts = make(map[string]int)
	m.LastRequestHeader = nil
	m.LastInput = nil
	m.LastMethod = ""
}

// SetHandler sets a custom handler for a procedure.
func (m *MockRPC) SetHandler(procedure string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[procedure] = handler
}

// SetResponse configures a canned response for a procedure.
func (m *MockRPC) SetResponse(procedure string, resp MockResponse) {
	m.SetHandler(procedure, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetResult makes a procedure always answer with v in the success branch.
func (m *MockRPC) SetResult(procedure string, v any) {
	m.SetResponse(procedure, NewResultResponse(v))
}

// SetError makes a procedure always answer with an error envelope.
func (m *MockRPC) SetError(procedure, code, message string, httpStatus int) {
	m.SetResponse(procedure, NewErrorResponse(code, message, httpStatus, procedure))
}

// SetInputHandler answers a procedure from its decoded input.
func (m *MockRPC) SetInputHandler(procedure string, fn InputHandler) {
	m.SetHandler(procedure, func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(Input(r))
		if err != nil {
			writeEnvelope(w, http.StatusInternalServerError, mustError("INTERNAL_SERVER_ERROR", err.Error(), http.StatusInternalServerError, procedure))
			return
		}
		body, err := envelope.Result(out)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeEnvelope(w, http.StatusOK, body)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockRPC) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetProcedureCount returns the number of requests made for one procedure.
func (m *MockRPC) GetProcedureCount(procedure string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ProcedureCounts[procedure]
}

// GetLastInput returns the input payload of the last request.
func (m *MockRPC) GetLastInput() json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastInput
}

// GetLastHeader returns a header value from the last request.
func (m *MockRPC) GetLastHeader(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LastRequestHeader == nil {
		return ""
	}
	return m.LastRequestHeader.Get(name)
}

type inputKey struct{}

// Input returns the decoded procedure input of a request served by MockRPC.
func Input(r *http.Request) json.RawMessage {
	input, _ := r.Context().Value(inputKey{}).(json.RawMessage)
	return input
}

// NewResultResponse creates a 200 OK success envelope around v.
func NewResultResponse(v any) MockResponse {
	body, err := envelope.Result(v)
	if err != nil {
		panic(err)
	}
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewErrorResponse creates an error envelope with the matching HTTP status.
func NewErrorResponse(code, message string, httpStatus int, path string) MockResponse {
	return MockResponse{
		StatusCode: httpStatus,
		Body:       string(mustError(code, message, httpStatus, path)),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewGatewayResponse creates a bare proxy failure without an envelope.
func NewGatewayResponse(status int) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       "<html><body>" + http.StatusText(status) + "</body></html>",
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}

// readInput extracts the data.json value of slot 0 from the query string
// (GET) or body (POST).
func readInput(r *http.Request) json.RawMessage {
	raw := r.URL.Query().Get("input")
	if r.Method == http.MethodPost && r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err == nil {
			raw = string(body)
		}
	}
	if raw == "" {
		return nil
	}

	var batch map[string]struct {
		JSON json.RawMessage `json:"json"`
	}
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		return nil
	}
	return batch["0"].JSON
}

func writeEnvelope(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func mustError(code, message string, httpStatus int, path string) []byte {
	body, err := envelope.ErrorResult(code, message, httpStatus, path)
	if err != nil {
		panic(err)
	}
	return body
}

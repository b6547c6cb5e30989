package rpcerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/Sternrassler/emuready-client/pkg/envelope"
)

func TestKindForCode(t *testing.T) {
	tests := []struct {
		code     string
		expected Kind
	}{
		{code: "NOT_FOUND", expected: KindNotFound},
		{code: "BAD_REQUEST", expected: KindValidation},
		{code: "PARSE_ERROR", expected: KindValidation},
		{code: "UNPROCESSABLE_CONTENT", expected: KindValidation},
		{code: "UNAUTHORIZED", expected: KindUnauthorized},
		{code: "FORBIDDEN", expected: KindUnauthorized},
		{code: "INTERNAL_SERVER_ERROR", expected: KindServerFault},
		{code: "TIMEOUT", expected: KindServerFault},
		{code: "WEIRD_CODE", expected: KindUnknown},
		{code: "not_found", expected: KindUnknown},
		{code: "", expected: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := KindForCode(tt.code); got != tt.expected {
				t.Errorf("KindForCode(%q) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "decoded not found",
			err:      &envelope.DecodedError{Code: "NOT_FOUND", Message: "Game not found"},
			expected: KindNotFound,
		},
		{
			name:     "wrapped decoded error",
			err:      fmt.Errorf("load page: %w", &envelope.DecodedError{Code: "FORBIDDEN"}),
			expected: KindUnauthorized,
		},
		{
			name:     "decoding failure",
			err:      fmt.Errorf("%w: neither result nor error present", envelope.ErrDecoding),
			expected: KindDecoding,
		},
		{
			name:     "empty result",
			err:      envelope.ErrEmptyResult,
			expected: KindEmptyResult,
		},
		{
			name:     "network failure",
			err:      netErr,
			expected: KindTransport,
		},
		{
			name:     "context cancellation",
			err:      context.Canceled,
			expected: KindTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err)
			if got == nil {
				t.Fatal("Translate returned nil for non-nil error")
			}
			if got.Kind != tt.expected {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.expected)
			}
			if !errors.Is(got, tt.err) {
				t.Error("translated error should wrap the original")
			}
		})
	}
}

func TestTranslate_UnknownPreservesCode(t *testing.T) {
	got := Translate(&envelope.DecodedError{Code: "WEIRD_CODE", Message: "something odd"})

	if got.Kind != KindUnknown {
		t.Errorf("Kind = %q, want %q", got.Kind, KindUnknown)
	}
	if got.Code != "WEIRD_CODE" {
		t.Errorf("Code = %q, want WEIRD_CODE", got.Code)
	}
	if got.Message != "something odd" {
		t.Errorf("Message = %q, want %q", got.Message, "something odd")
	}
}

func TestTranslate_NilAndIdempotent(t *testing.T) {
	if Translate(nil) != nil {
		t.Error("Translate(nil) should be nil")
	}

	first := Translate(&envelope.DecodedError{Code: "NOT_FOUND"})
	second := Translate(fmt.Errorf("outer: %w", first))
	if first != second {
		t.Error("translating an already translated error should return it unchanged")
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "code and message",
			err:      &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Game not found"},
			expected: "not_found error (code NOT_FOUND): Game not found",
		},
		{
			name:     "code only",
			err:      &Error{Kind: KindUnknown, Code: "WEIRD_CODE"},
			expected: "unknown error (code WEIRD_CODE)",
		},
		{
			name:     "wrapped cause",
			err:      &Error{Kind: KindTransport, Err: errors.New("connection reset")},
			expected: "transport error: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("fetch: %w", &envelope.DecodedError{Code: "UNAUTHORIZED"})

	if !Is(err, KindUnauthorized) {
		t.Error("Is(err, KindUnauthorized) = false, want true")
	}
	if Is(err, KindNotFound) {
		t.Error("Is(err, KindNotFound) = true, want false")
	}
	if Is(nil, KindTransport) {
		t.Error("Is(nil, ...) should be false")
	}
}

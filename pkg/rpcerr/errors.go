// Package rpcerr translates transport failures and decoded envelope errors
// into the closed set of error kinds callers handle.
package rpcerr

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/emuready-client/pkg/envelope"
)

// Kind is a client-facing error category.
type Kind string

const (
	// KindNotFound means the requested entity does not exist.
	KindNotFound Kind = "not_found"

	// KindValidation means the service rejected the input.
	KindValidation Kind = "validation"

	// KindUnauthorized means credentials are missing or insufficient.
	KindUnauthorized Kind = "unauthorized"

	// KindServerFault means the service failed while handling a valid call.
	KindServerFault Kind = "server_fault"

	// KindTransport means no response was obtained (I/O failure, cancellation).
	KindTransport Kind = "transport"

	// KindDecoding means the response envelope was malformed.
	KindDecoding Kind = "decoding"

	// KindEmptyResult means a success envelope without payload.
	KindEmptyResult Kind = "empty_result"

	// KindUnknown means an error code this client does not recognize.
	KindUnknown Kind = "unknown"
)

// codeKinds maps wire error codes (exact, case-sensitive) to kinds.
var codeKinds = map[string]Kind{
	"NOT_FOUND": KindNotFound,

	"BAD_REQUEST":           KindValidation,
	"PARSE_ERROR":           KindValidation,
	"UNPROCESSABLE_CONTENT": KindValidation,
	"PAYLOAD_TOO_LARGE":     KindValidation,

	"UNAUTHORIZED": KindUnauthorized,
	"FORBIDDEN":    KindUnauthorized,

	"INTERNAL_SERVER_ERROR": KindServerFault,
	"NOT_IMPLEMENTED":       KindServerFault,
	"BAD_GATEWAY":           KindServerFault,
	"SERVICE_UNAVAILABLE":   KindServerFault,
	"GATEWAY_TIMEOUT":       KindServerFault,
	"TIMEOUT":               KindServerFault,
}

// Error is the translated error surfaced to callers.
type Error struct {
	Kind Kind

	// Code and Message are copied from the wire error when there was one.
	Code    string
	Message string

	HTTPStatus int
	Path       string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s error (code %s): %s", e.Kind, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s error (code %s)", e.Kind, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindForCode looks up the kind of a wire error code.
func KindForCode(code string) Kind {
	if kind, ok := codeKinds[code]; ok {
		return kind
	}
	return KindUnknown
}

// Translate maps any error to exactly one kind. A nil error stays nil and an
// already translated *Error is returned unchanged.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}

	var translated *Error
	if errors.As(err, &translated) {
		return translated
	}

	var decoded *envelope.DecodedError
	if errors.As(err, &decoded) {
		return &Error{
			Kind:       KindForCode(decoded.Code),
			Code:       decoded.Code,
			Message:    decoded.Message,
			HTTPStatus: decoded.HTTPStatus,
			Path:       decoded.Path,
			Err:        err,
		}
	}

	switch {
	case errors.Is(err, envelope.ErrEmptyResult):
		return &Error{Kind: KindEmptyResult, Err: err}
	case errors.Is(err, envelope.ErrDecoding):
		return &Error{Kind: KindDecoding, Err: err}
	default:
		return &Error{Kind: KindTransport, Err: err}
	}
}

// KindOf returns the kind of err, or "" when err is nil.
func KindOf(err error) Kind {
	if t := Translate(err); t != nil {
		return t.Kind
	}
	return ""
}

// Is reports whether err translates to kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Package envelope encodes procedure inputs into the batch wire envelope and
// decodes batch responses into typed results or structured errors.
//
// Request shape (single batch slot, always "0"):
//
//	{"0":{"json": <input-or-null>}}
//
// Response shape, exactly one branch populated:
//
//	{"result":{"data":{"json": <output>}}}
//	{"error":{"code": "NOT_FOUND", "message": "...", "data": {"code": "...", "httpStatus": 404, "path": "..."}}}
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// batchSlot is the only batch index this client ever uses.
const batchSlot = "0"

var (
	// ErrDecoding is returned when a response is not valid JSON or does not
	// carry exactly one of the result and error branches.
	ErrDecoding = errors.New("malformed response envelope")

	// ErrEmptyResult is returned when the success branch carries no payload.
	ErrEmptyResult = errors.New("empty result")
)

// DecodedError is the error branch of a response envelope.
type DecodedError struct {
	Code       string
	Message    string
	HTTPStatus int
	Path       string
}

// Error implements the error interface.
func (e *DecodedError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rpc error %s on %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("rpc error %s: %s", e.Code, e.Message)
}

// Response is either Success or Failure.
type Response interface {
	isResponse()
}

// Success is the result branch. Data holds the inner data.json value.
type Success struct {
	Data json.RawMessage
}

// Empty reports whether the success branch carried no payload.
func (s Success) Empty() bool {
	trimmed := bytes.TrimSpace(s.Data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Failure is the error branch.
type Failure struct {
	Err *DecodedError
}

func (Success) isResponse() {}
func (Failure) isResponse() {}

type request struct {
	JSON json.RawMessage `json:"json"`
}

type wireResponse struct {
	Result *wireResult `json:"result,omitempty"`
	Error  *wireError  `json:"error,omitempty"`
}

type wireResult struct {
	Data *wireData `json:"data,omitempty"`
}

type wireData struct {
	JSON json.RawMessage `json:"json"`
}

type wireError struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Data    *wireErrorData  `json:"data,omitempty"`
}

type wireErrorData struct {
	Code       string `json:"code,omitempty"`
	HTTPStatus int    `json:"httpStatus,omitempty"`
	Path       string `json:"path,omitempty"`
}

// Encode wraps input into the request envelope. Object members holding null
// are dropped so the service never sees an explicit null for an absent field.
// Object keys come out sorted, so equal inputs always encode to equal text.
func Encode(input any) (string, error) {
	payload, err := normalize(input)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(map[string]request{batchSlot: {JSON: payload}})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(out), nil
}

func normalize(input any) (json.RawMessage, error) {
	if input == nil {
		return nil, nil
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("normalize input: %w", err)
	}

	tree = pruneNulls(tree)
	if tree == nil {
		return nil, nil
	}
	return json.Marshal(tree)
}

// pruneNulls removes null object members at any depth. Array elements are
// positional and are kept as-is.
func pruneNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			t[k] = pruneNulls(child)
		}
		return t
	case []any:
		for i := range t {
			t[i] = pruneNulls(t[i])
		}
		return t
	default:
		return v
	}
}

// Parse reads a response envelope. A batch array is accepted and its first
// slot is read.
func Parse(body []byte) (Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDecoding)
	}

	if body[0] == '[' {
		var slots []json.RawMessage
		if err := json.Unmarshal(body, &slots); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
		}
		if len(slots) == 0 {
			return nil, fmt.Errorf("%w: empty batch", ErrDecoding)
		}
		body = slots[0]
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	switch {
	case wire.Result != nil && wire.Error != nil:
		return nil, fmt.Errorf("%w: both result and error present", ErrDecoding)
	case wire.Error != nil:
		return Failure{Err: wire.Error.decoded()}, nil
	case wire.Result != nil:
		if wire.Result.Data == nil {
			return Success{}, nil
		}
		return Success{Data: wire.Result.Data.JSON}, nil
	default:
		return nil, fmt.Errorf("%w: neither result nor error present", ErrDecoding)
	}
}

func (w *wireError) decoded() *DecodedError {
	out := &DecodedError{Message: w.Message}
	if w.Data != nil {
		out.HTTPStatus = w.Data.HTTPStatus
		out.Path = w.Data.Path
	}

	code := bytes.TrimSpace(w.Code)
	var text string
	switch {
	case len(code) > 0 && code[0] == '"' && json.Unmarshal(code, &text) == nil:
		out.Code = text
	case w.Data != nil && w.Data.Code != "":
		// JSON-RPC numeric code; the textual code lives in data.
		out.Code = w.Data.Code
	case len(code) > 0 && !bytes.Equal(code, []byte("null")):
		out.Code = string(code)
	}
	return out
}

// Decode parses body and converts the success payload into T.
//
// The error is *DecodedError for the error branch, ErrEmptyResult for a
// success without payload and ErrDecoding (wrapped) for anything malformed.
func Decode[T any](body []byte) (T, error) {
	var zero T

	resp, err := Parse(body)
	if err != nil {
		return zero, err
	}

	switch r := resp.(type) {
	case Failure:
		return zero, r.Err
	case Success:
		if r.Empty() {
			return zero, ErrEmptyResult
		}
		var out T
		if err := json.Unmarshal(r.Data, &out); err != nil {
			return zero, fmt.Errorf("%w: payload: %v", ErrDecoding, err)
		}
		return out, nil
	default:
		return zero, ErrDecoding
	}
}

// Result builds a success response envelope around v.
func Result(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return json.Marshal(wireResponse{Result: &wireResult{Data: &wireData{JSON: payload}}})
}

// ErrorResult builds an error response envelope.
func ErrorResult(code, message string, httpStatus int, path string) ([]byte, error) {
	rawCode, err := json.Marshal(code)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireResponse{Error: &wireError{
		Code:    rawCode,
		Message: message,
		Data:    &wireErrorData{Code: code, HTTPStatus: httpStatus, Path: path},
	}})
}

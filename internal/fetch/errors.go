package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAPI is matched by failed calls: non-2xx answers and unreachable hosts
	ErrAPI = errors.New("token api request failed")

	// ErrDecode is matched when a 2xx body does not have the expected shape
	ErrDecode = errors.New("token api response malformed")
)

const maxMessageLen = 512

// APIError is a rejected or failed call. StatusCode is 0 when no response arrived.
type APIError struct {
	Endpoint   string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token api %s: request failed: %v", e.Endpoint, e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("token api %s: status %d (%s): %s", e.Endpoint, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("token api %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool { return target == ErrAPI }

// Temporary reports whether retrying the same call may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// DecodeError is a 2xx body that could not be mapped onto the result type
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("token api %s: decoding response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// errorBody is the JSON error document the service returns on failure
type errorBody struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewStatusError maps a non-2xx answer to an *APIError, reading a JSON error body when present
func NewStatusError(endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{Endpoint: endpoint, StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && (eb.Message != "" || eb.Code != "" || eb.Error != "") {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	apiErr.Message = msg
	return apiErr
}

func newTransportError(endpoint string, err error) *APIError {
	return &APIError{Endpoint: endpoint, Err: err, Message: err.Error()}
}

package tokenapi

import (
	"errors"

	"github.com/yourorg/tokenapi/internal/config"
	"github.com/yourorg/tokenapi/internal/fetch"
	"github.com/yourorg/tokenapi/internal/validation"
)

// Error types. Match them with errors.As, or match the sentinels below with errors.Is.
type (
	// ConfigError is returned by New when the client cannot be built
	ConfigError = config.Error

	// ValidationError is returned before any request is sent
	ValidationError = validation.Error

	// APIError carries the HTTP status and server message of a failed call.
	// StatusCode is 0 when the host could not be reached.
	APIError = fetch.APIError

	// DecodeError means the service answered 2xx with an unexpected body
	DecodeError = fetch.DecodeError
)

var (
	ErrConfig     = config.ErrConfig
	ErrValidation = validation.ErrInvalidInput
	ErrAPI        = fetch.ErrAPI
	ErrDecode     = fetch.ErrDecode

	// ErrClosed is returned by calls made after Close
	ErrClosed = errors.New("tokenapi: client closed")
)

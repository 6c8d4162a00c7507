package client

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/hitclient/packages/cancel"
)

// Sentinel errors raised by the pipeline itself.
var (
	// ErrNoAdapter is returned when neither the request nor the client names an adapter.
	ErrNoAdapter = errors.New("hitclient: no adapter configured")

	// ErrNilConfig is returned when a request interceptor yields a nil configuration.
	ErrNilConfig = errors.New("hitclient: request interceptor returned nil config")
)

// Error codes set by the bundled adapter and interceptors.
const (
	CodeNetwork     = "ERR_NETWORK"
	CodeTimeout     = "ECONNABORTED"
	CodeBadResponse = "ERR_BAD_RESPONSE"
	CodeBadRequest  = "ERR_BAD_REQUEST"
	CodeSchema      = "ERR_SCHEMA"
)

// Error is a transport-level failure. Response is set when the server
// answered but the exchange still failed, and nil otherwise.
type Error struct {
	Message  string
	Code     string
	Config   *Config
	Response *Response
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError builds an Error for cfg. resp may be nil.
func NewError(message, code string, cfg *Config, resp *Response, cause error) *Error {
	return &Error{
		Message:  message,
		Code:     code,
		Config:   cfg,
		Response: resp,
		Cause:    cause,
	}
}

// AsError unwraps err to a *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCancel reports whether err is a cancellation raised through a cancel token.
func IsCancel(err error) bool {
	return cancel.IsCancel(err)
}

package http

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRequestLine = errors.New("http: malformed request line")
	ErrUnsupportedVersion   = errors.New("http: unsupported protocol version")
	ErrUnknownMethod        = errors.New("http: unknown method")
	ErrMalformedHeader      = errors.New("http: malformed header line")
	ErrInvalidContentLength = errors.New("http: invalid content-length")

	ErrNegotiation = errors.New("http: unparseable accept-encoding")

	ErrInvalidPoolSize = errors.New("http: pool size must be positive")
	ErrPoolClosed      = errors.New("http: pool closed")

	ErrServerStarted = errors.New("http: server already started")
	ErrServerClosed  = errors.New("http: server closed")
	ErrNotBound      = errors.New("http: server is not bound to an address")
	ErrAlreadyBound  = errors.New("http: server already bound")
)

// DecodeError is returned when a request could not be read off the wire.
// Timeouts and other read failures are reported as DecodeErrors as well.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "http: decode request: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// BindError is returned when the listening socket cannot be opened.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("http: bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// PatternError reports a route pattern that cannot be compiled.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("http: invalid route pattern %q: %s", e.Pattern, e.Reason)
}

func decodeError(err error) error {
	return &DecodeError{Err: err}
}

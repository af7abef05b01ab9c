package cdp

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when a command is sent on a connection that is not open.
	ErrNotConnected = errors.New("not connected")

	// ErrClosed is returned for commands still pending when the connection closed.
	ErrClosed = errors.New("connection closed")

	// ErrMalformedResult marks a response whose result does not decode into the
	// caller's result type.
	ErrMalformedResult = errors.New("malformed result")

	// ErrMalformedEvent marks an event whose params do not decode into the
	// subscriber's event type.
	ErrMalformedEvent = errors.New("malformed event")

	errNoOutcome    = errors.New("response has neither result nor error")
	errUnknownShape = errors.New("frame is neither a response nor an event")
)

// TransportError reports a failure of the underlying connection.
// It wraps ErrNotConnected, ErrClosed or the transport's own error.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("cdp %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a command failure reported by the remote side, or a result that
// could not be decoded into the expected shape.
type ProtocolError struct {
	Method  string
	Code    int
	Message string
	Data    string

	// Err is set for local decode failures and wraps ErrMalformedResult or ErrMalformedEvent.
	Err error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cdp %s: %v", e.Method, e.Err)
	}
	if e.Data != "" {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func remoteError(method string, e *Error) *ProtocolError {
	pe := &ProtocolError{Method: method, Code: e.Code, Message: e.Message}
	if len(e.Data) > 0 {
		pe.Data = unquote(e.Data)
	}
	return pe
}

func decodeError(method string, sentinel, err error) *ProtocolError {
	return &ProtocolError{
		Method:  method,
		Message: sentinel.Error(),
		Err:     fmt.Errorf("%w: %w", sentinel, err),
	}
}

// MalformedFrameError describes an inbound frame that matches no known envelope.
// The frame is dropped and the connection stays up.
type MalformedFrameError struct {
	Frame string
	Err   error
}

// Error implements the error interface.
func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed CDP frame: %v: %s", e.Err, e.Frame)
}

func (e *MalformedFrameError) Unwrap() error { return e.Err }

// UnknownCorrelationError describes a response whose id matches no pending command,
// either because it was already answered or because it was never sent.
type UnknownCorrelationError struct {
	ID uint64
}

// Error implements the error interface.
func (e *UnknownCorrelationError) Error() string {
	return fmt.Sprintf("response for unknown command id %d", e.ID)
}

// unquote renders error data as text. Chrome sends a string; anything else is kept as raw JSON.
func unquote(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}

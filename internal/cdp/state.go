package cdp

import (
	"errors"

	"github.com/coder/websocket"
)

// State represents the lifecycle state of a Client.
type State int32

const (
	// StateConnecting is held while a Client is built, before its read loop starts.
	// Dial finishes the handshake before building the Client, so callers of Dial and
	// NewClient first observe StateOpen, or a later state if the transport already failed.
	StateConnecting State = iota
	// StateOpen indicates commands may be sent and events are published.
	StateOpen
	// StateClosing indicates teardown has started.
	StateClosing
	// StateClosed indicates the read loop has exited and all pending work was failed.
	StateClosed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason describes why a connection ended.
type CloseReason int

const (
	// ReasonUnknown is the default when reason cannot be determined.
	ReasonUnknown CloseReason = iota
	// ReasonGraceful indicates a normal close (codes 1000, 1001) or a local Close.
	ReasonGraceful
	// ReasonAbnormal indicates unexpected disconnect (code 1006, network error).
	ReasonAbnormal
)

// String returns a human-readable name for the close reason.
func (r CloseReason) String() string {
	switch r {
	case ReasonGraceful:
		return "graceful"
	case ReasonAbnormal:
		return "abnormal"
	default:
		return "unknown"
	}
}

// ClassifyClose determines how a connection ended from the error that ended it.
func ClassifyClose(err error) CloseReason {
	if err == nil || errors.Is(err, ErrClosed) {
		return ReasonGraceful
	}

	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return ReasonGraceful
	default:
		// Includes -1: not a close frame at all (timeout, reset, EOF)
		return ReasonAbnormal
	}
}

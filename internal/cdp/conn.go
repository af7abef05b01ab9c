// Package cdp implements the connection core of a Chrome DevTools Protocol client:
// command/response correlation over one websocket and per-method event fan-out.
//
// Domain facades build on three entry points: Call (and its asynchronous form Go)
// for commands, Subscribe for events, and Client for the connection lifecycle.
package cdp

import (
	"context"

	"github.com/coder/websocket"
)

// Conn is the message transport under a Client. *websocket.Conn satisfies it; tests
// substitute scripted fakes.
//
// Read is only ever called from the client's receive loop. Writes are serialized by
// the client, and Close must unblock a pending Read.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

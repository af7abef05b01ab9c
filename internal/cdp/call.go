package cdp

import (
	"context"
	"encoding/json"
	"fmt"
)

// Future is the handle for one dispatched command. It resolves exactly once, to a
// decoded T, a *ProtocolError or a *TransportError.
type Future[T any] struct {
	c     *Client
	call  *call
	value T
}

// Go sends a command without waiting for its answer. ctx bounds only the rate limiter
// wait and the transport write; use Wait to bound the answer.
//
// Errors that prevent sending (connection not open, params that do not marshal, write
// failures) resolve the returned Future immediately.
func Go[T any](ctx context.Context, c *Client, method string, params any) *Future[T] {
	f := &Future[T]{c: c}
	f.call = newCall(method, func(raw json.RawMessage) error {
		return json.Unmarshal(raw, &f.value)
	})
	if err := c.dispatch(ctx, f.call, params); err != nil {
		f.call.complete(err)
	}
	return f
}

// Call sends a command and waits for its result decoded into T.
func Call[T any](ctx context.Context, c *Client, method string, params any) (T, error) {
	return Go[T](ctx, c, method, params).Wait(ctx)
}

// ID returns the command id assigned on the wire, or 0 if the command was never sent.
func (f *Future[T]) ID() uint64 {
	return f.call.id
}

// Method returns the command method.
func (f *Future[T]) Method() string {
	return f.call.method
}

// Done is closed once the future has resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.call.done
}

// Wait blocks until the command resolves or ctx is done.
//
// Giving up does not revoke the command on the wire; the future resolves with the
// context error and a late answer is dropped.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.call.done:
	case <-ctx.Done():
		if f.call.complete(fmt.Errorf("waiting for %s response: %w", f.call.method, ctx.Err())) {
			f.c.pending.remove(f.call)
		}
		<-f.call.done
	}

	if f.call.err != nil {
		var zero T
		return zero, f.call.err
	}
	return f.value, nil
}

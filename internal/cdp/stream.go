package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"sync"
)

// Stream is a live, cancellable sequence of events for one method, decoded into T.
// Events published before the stream existed are not replayed.
type Stream[T any] struct {
	sub    *subscriber
	cancel func()
	drop   func(error)

	mu      sync.Mutex
	iterErr error // error that stopped All, other than a clean end
}

// Subscribe registers a new stream for events named method. It never blocks and never
// fails: on a closed client the returned stream has already ended.
//
// Params are decoded into T by each subscriber when it reads the event, so the decode
// cost is paid once per subscriber.
func Subscribe[T any](c *Client, method string) *Stream[T] {
	sub := c.events.add(method)
	c.log.Debug().Str("method", method).Msg("subscribe")
	return &Stream[T]{
		sub:    sub,
		cancel: func() { c.events.remove(sub) },
		drop:   c.report,
	}
}

// Method returns the event method the stream is subscribed to.
func (s *Stream[T]) Method() string {
	return s.sub.method
}

// Next returns the next event in publish order.
//
// It returns io.EOF once the stream has ended. A Next call that is blocked when the
// connection tears down returns the *TransportError instead, once. A payload that does
// not decode into T yields a *ProtocolError wrapping ErrMalformedEvent; the stream
// stays usable.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var out T
	evt, err := s.sub.next(ctx)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(evt.Params, &out); err != nil {
		return out, decodeError(evt.Method, ErrMalformedEvent, err)
	}
	return out, nil
}

// All returns the stream as a lazy sequence. Iteration stops at the end of the stream
// or on ctx cancellation. Events that do not decode into T are skipped and passed to
// the client's error handler; Err reports a connection error that ended iteration.
func (s *Stream[T]) All(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := s.Next(ctx)
			if errors.Is(err, ErrMalformedEvent) {
				s.drop(err)
				continue
			}
			if err != nil {
				s.stopped(err)
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// stopped records why All ended. A clean end or the caller's own context is not an error.
func (s *Stream[T]) stopped(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.iterErr == nil {
		s.iterErr = err
	}
}

// Done is closed when the stream has ended.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.sub.done
}

// Err returns the connection error that ended the stream, or nil if it is live or was
// cancelled.
func (s *Stream[T]) Err() error {
	if err := s.sub.err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterErr
}

// Cancel removes the subscription. Events not yet returned by Next are discarded.
// It is safe to call more than once.
func (s *Stream[T]) Cancel() {
	s.cancel()
}

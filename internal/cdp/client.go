package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default timeout for CDP commands.
const DefaultTimeout = 30 * time.Second

// Client is a CDP connection. It is safe for concurrent use: any number of goroutines
// may send commands and subscribe to events while a single read loop routes inbound
// frames.
type Client struct {
	id      string
	conn    Conn
	log     zerolog.Logger
	limiter *rate.Limiter
	onError func(error)

	// writeMu serializes id allocation, registration and the transport write so that
	// ids reach the wire in increasing order.
	writeMu sync.Mutex
	nextID  uint64

	pending *pendingTable
	events  *registry

	state atomic.Int32

	closeMu  sync.Mutex
	closeErr error

	// done is closed once the read loop has exited and teardown has run
	done chan struct{}
}

// NewClient creates a new CDP client with the given, already connected, transport.
func NewClient(conn Conn, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newClient(conn, o)
}

func newClient(conn Conn, o options) *Client {
	id := uuid.NewString()
	c := &Client{
		id:      id,
		conn:    conn,
		log:     o.logger.With().Str("conn", id).Logger(),
		limiter: o.limiter,
		onError: o.onError,
		pending: newPendingTable(),
		events:  newRegistry(),
		done:    make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))
	go c.readLoop()
	c.setState(StateConnecting, StateOpen)
	if o.heartbeatInterval > 0 {
		go c.heartbeat(o.heartbeatInterval, o.heartbeatTimeout)
	}
	return c
}

// Dial connects to a CDP websocket endpoint and returns an open client.
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	o.logger.Debug().Str("url", wsURL).Msg("dialing")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	if o.readLimit != 0 {
		conn.SetReadLimit(o.readLimit)
	}
	return newClient(conn, o), nil
}

// ID returns a unique identifier for this connection, used in log fields.
func (c *Client) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// IsOpen reports whether commands can be sent.
func (c *Client) IsOpen() bool {
	return c.State() == StateOpen
}

// Done is closed once the connection has reached StateClosed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the transport error that closed the connection, or nil if it is still
// open or was closed locally.
func (c *Client) Err() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closeErr
}

// Send sends a CDP command and waits for the raw result.
// Uses the default timeout.
func (c *Client) Send(method string, params any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return c.SendContext(ctx, method, params)
}

// SendContext sends a CDP command with a context for cancellation and returns the raw result.
func (c *Client) SendContext(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return Call[json.RawMessage](ctx, c, method, params)
}

// SubscribeFunc calls handler for every event named method until the returned cancel
// function is called or the connection closes. Handlers for one subscription run
// sequentially on their own goroutine, in publish order.
func (c *Client) SubscribeFunc(method string, handler func(Event)) (cancel func()) {
	sub := c.events.add(method)
	go func() {
		for {
			evt, err := sub.next(context.Background())
			if err != nil {
				return
			}
			handler(evt)
		}
	}()
	return func() { c.events.remove(sub) }
}

// Close closes the connection, fails every pending command with ErrClosed and ends
// every event stream. It waits for the read loop to exit and is safe to call more
// than once.
func (c *Client) Close() error {
	if !c.setState(StateOpen, StateClosing) && !c.setState(StateConnecting, StateClosing) {
		<-c.done
		return nil // Already closing or closed
	}

	err := c.conn.Close(websocket.StatusNormalClosure, "client closing")

	// Wait for read loop to exit
	<-c.done

	return err
}

// dispatch allocates an id for cl, registers it and writes the request.
func (c *Client) dispatch(ctx context.Context, cl *call, params any) error {
	if c.State() != StateOpen {
		return &TransportError{Op: "send", Err: ErrNotConnected}
	}

	raw, err := marshalParams(params)
	if err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	c.writeMu.Lock()
	c.nextID++
	cl.id = c.nextID
	data, err := encodeRequest(cl.id, cl.method, raw)
	if err != nil {
		c.writeMu.Unlock()
		return err
	}
	if err := c.pending.add(cl); err != nil {
		c.writeMu.Unlock()
		return err
	}
	err = c.conn.Write(ctx, websocket.MessageText, data)
	c.writeMu.Unlock()

	if err != nil {
		c.pending.remove(cl)
		terr := &TransportError{Op: "write", Err: err}
		c.fail(terr)
		return terr
	}

	c.log.Debug().Uint64("id", cl.id).Str("method", cl.method).Msg("sent")
	return nil
}

// fail starts teardown after a transport fault outside the read loop.
func (c *Client) fail(err error) {
	if !c.setState(StateOpen, StateClosing) {
		return
	}
	c.setCloseErr(err)
	_ = c.conn.Close(websocket.StatusInternalError, "transport failure")
}

// readLoop reads messages from the connection and routes them until the transport fails.
func (c *Client) readLoop() {
	defer c.teardown()

	ctx := context.Background()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if c.setState(StateOpen, StateClosing) || c.setState(StateConnecting, StateClosing) {
				c.setCloseErr(err)
			}
			c.log.Debug().Err(err).Str("reason", ClassifyClose(c.Err()).String()).Msg("read loop exiting")
			return
		}

		fr, err := decodeFrame(data)
		if err != nil {
			c.report(err)
			continue // Skip malformed messages
		}

		switch fr.kind {
		case frameResponse, frameError:
			c.dispatchResponse(fr)
		case frameEvent:
			c.dispatchEvent(fr)
		}
	}
}

// dispatchResponse completes the pending call for the frame's id.
func (c *Client) dispatchResponse(fr frame) {
	cl, ok := c.pending.take(fr.id)
	if !ok {
		c.report(&UnknownCorrelationError{ID: fr.id})
		return
	}

	if fr.kind == frameError {
		cl.complete(remoteError(cl.method, fr.err))
	} else {
		cl.resolve(fr.result)
	}
	c.log.Debug().Uint64("id", fr.id).Str("method", cl.method).Msg("received")
}

// dispatchEvent publishes an event to every subscriber of its method.
func (c *Client) dispatchEvent(fr frame) {
	n := c.events.publish(Event{Method: fr.method, Params: fr.params})
	c.log.Trace().Str("method", fr.method).Int("subscribers", n).Msg("event")
}

// teardown fails all pending work and moves the client to StateClosed.
func (c *Client) teardown() {
	cause := c.Err()
	closedErr := ErrClosed
	if cause != nil {
		closedErr = fmt.Errorf("%w: %w", ErrClosed, cause)
	}

	calls := c.pending.drain()
	for _, cl := range calls {
		cl.complete(&TransportError{Op: cl.method, Err: closedErr})
	}
	c.events.close(&TransportError{Op: "receive", Err: closedErr})

	c.state.Store(int32(StateClosed))
	c.log.Info().
		Str("state", StateClosed.String()).
		Str("reason", ClassifyClose(cause).String()).
		Int("failed", len(calls)).
		Msg("connection closed")
	close(c.done)
}

func (c *Client) setState(from, to State) bool {
	if !c.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	c.log.Debug().Str("state", to.String()).Msg("state change")
	return true
}

func (c *Client) setCloseErr(err error) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closeErr == nil {
		c.closeErr = err
	}
}

func (c *Client) report(err error) {
	c.log.Warn().Err(err).Msg("dropped frame")
	if c.onError != nil {
		c.onError(err)
	}
}

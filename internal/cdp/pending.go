package cdp

import (
	"encoding/json"
	"fmt"
	"sync"
)

// call is a pending command entry: a single-assignment completion slot plus the
// caller's result decoder.
type call struct {
	id     uint64
	method string
	decode func(json.RawMessage) error

	once sync.Once
	done chan struct{}
	err  error
}

func newCall(method string, decode func(json.RawMessage) error) *call {
	return &call{
		method: method,
		decode: decode,
		done:   make(chan struct{}),
	}
}

// complete fills the slot. Only the first completion wins; it reports whether this
// call filled it.
func (c *call) complete(err error) bool {
	filled := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		filled = true
	})
	return filled
}

// resolve decodes a successful result into the caller's target and completes the call.
func (c *call) resolve(result json.RawMessage) {
	c.once.Do(func() {
		if c.decode != nil {
			if err := c.decode(result); err != nil {
				c.err = decodeError(c.method, ErrMalformedResult, err)
			}
		}
		close(c.done)
	})
}

// pendingTable maps command ids to waiting calls.
type pendingTable struct {
	mu     sync.Mutex
	calls  map[uint64]*call
	closed bool
}

func newPendingTable() *pendingTable {
	return &pendingTable{calls: make(map[uint64]*call)}
}

// add registers a call. It fails once the table has been drained.
func (t *pendingTable) add(c *call) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return &TransportError{Op: "send", Err: ErrClosed}
	}
	if _, dup := t.calls[c.id]; dup {
		return fmt.Errorf("command id %d already pending", c.id)
	}
	t.calls[c.id] = c
	return nil
}

// take removes and returns the call for id, if any.
func (t *pendingTable) take(id uint64) (*call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	return c, ok
}

// remove drops the call for id only if it is still the given call.
func (t *pendingTable) remove(c *call) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.calls[c.id] == c {
		delete(t.calls, c.id)
	}
}

// drain closes the table and returns every call still pending.
func (t *pendingTable) drain() []*call {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	calls := make([]*call, 0, len(t.calls))
	for id, c := range t.calls {
		calls = append(calls, c)
		delete(t.calls, id)
	}
	return calls
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

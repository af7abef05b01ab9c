package cdp

import (
	"context"
	"io"
	"sync"
)

// subscriber is one live subscription: an unbounded queue of raw events for a single method.
// Publishing never blocks on a slow consumer.
type subscriber struct {
	method string

	mu      sync.Mutex
	queue   []Event
	ended   bool
	cause   error // connection error that ended the stream; nil after Cancel
	waiting int   // Next calls currently blocked
	report  bool  // a blocked Next still owes the subscriber the cause
	notify  chan struct{}
	done    chan struct{}
}

func newSubscriber(method string) *subscriber {
	return &subscriber{
		method: method,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// deliver appends evt to the queue. It reports false if the subscription has ended.
func (s *subscriber) deliver(evt Event) bool {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, evt)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return true
}

// end stops the subscription and discards undelivered events.
func (s *subscriber) end(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	s.ended = true
	s.cause = cause
	s.report = cause != nil && s.waiting > 0
	s.queue = nil
	close(s.done)
}

// next blocks until an event is queued, the subscription ends or ctx is done.
func (s *subscriber) next(ctx context.Context) (Event, error) {
	s.mu.Lock()
	s.waiting++
	defer func() {
		s.mu.Lock()
		s.waiting--
		s.mu.Unlock()
	}()

	for {
		if s.ended {
			err := error(io.EOF)
			if s.report {
				s.report = false
				err = s.cause
			}
			s.mu.Unlock()
			return Event{}, err
		}
		if len(s.queue) > 0 {
			evt := s.queue[0]
			s.queue[0] = Event{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return evt, nil
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
		s.mu.Lock()
	}
}

func (s *subscriber) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// registry maps event methods to their live subscribers.
type registry struct {
	mu     sync.RWMutex
	subs   map[string][]*subscriber
	closed bool
	cause  error
}

func newRegistry() *registry {
	return &registry{subs: make(map[string][]*subscriber)}
}

// add registers a new subscriber for method. After close it returns an ended subscriber.
func (r *registry) add(method string) *subscriber {
	s := newSubscriber(method)

	r.mu.Lock()
	if r.closed {
		cause := r.cause
		r.mu.Unlock()
		s.end(cause)
		return s
	}
	// Copy on write so publish can iterate a snapshot without holding the lock
	current := r.subs[method]
	next := make([]*subscriber, len(current), len(current)+1)
	copy(next, current)
	r.subs[method] = append(next, s)
	r.mu.Unlock()
	return s
}

// remove unregisters s and ends it.
func (r *registry) remove(s *subscriber) {
	r.mu.Lock()
	current := r.subs[s.method]
	for i, sub := range current {
		if sub == s {
			next := make([]*subscriber, 0, len(current)-1)
			next = append(next, current[:i]...)
			next = append(next, current[i+1:]...)
			if len(next) == 0 {
				delete(r.subs, s.method)
			} else {
				r.subs[s.method] = next
			}
			break
		}
	}
	r.mu.Unlock()

	s.end(nil)
}

// publish delivers evt to every current subscriber of its method and returns how many
// received it.
func (r *registry) publish(evt Event) int {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return 0
	}
	subs := r.subs[evt.Method]
	r.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if s.deliver(evt) {
			delivered++
		}
	}
	return delivered
}

// close ends every subscriber with cause and refuses further publishes.
func (r *registry) close(cause error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cause = cause
	all := r.subs
	r.subs = make(map[string][]*subscriber)
	r.mu.Unlock()

	for _, subs := range all {
		for _, s := range subs {
			s.end(cause)
		}
	}
}

func (r *registry) count(method string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[method])
}

package cdp

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultReadLimit is the largest inbound frame accepted by Dial. Screenshots and
// large DOM snapshots easily exceed the websocket library's 32 KiB default.
const DefaultReadLimit = 64 << 20

// Option configures a Client.
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	limiter   *rate.Limiter
	onError   func(error)
	readLimit int64

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
}

func defaultOptions() options {
	return options{
		logger:    zerolog.Nop(),
		readLimit: DefaultReadLimit,
	}
}

// WithLogger sets the logger used for traffic, state changes and diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRateLimit throttles outgoing commands to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithErrorHandler registers fn to observe input the client had to drop:
// *MalformedFrameError and *UnknownCorrelationError from the read loop, and events
// skipped by Stream.All because they did not decode. fn must not block.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithReadLimit sets the maximum inbound frame size for connections made by Dial.
func WithReadLimit(n int64) Option {
	return func(o *options) { o.readLimit = n }
}

// WithHeartbeat probes the connection with Browser.getVersion every interval. When a
// probe gets no answer within timeout the connection is closed and everything pending
// fails with a *TransportError. A non-positive interval disables the heartbeat.
func WithHeartbeat(interval, timeout time.Duration) Option {
	return func(o *options) {
		o.heartbeatInterval = interval
		o.heartbeatTimeout = timeout
		if timeout <= 0 {
			o.heartbeatTimeout = interval
		}
	}
}

package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// HeartbeatMethod is the command used to probe the connection. Every browser target
// answers it and it has no side effects.
const HeartbeatMethod = "Browser.getVersion"

// heartbeat probes the connection every interval and tears it down when a probe gets
// no answer within timeout. It exits when the client closes.
func (c *Client) heartbeat(interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.probe(timeout); err != nil {
				c.log.Warn().Err(err).Msg("heartbeat failed")
				c.fail(&TransportError{Op: "heartbeat", Err: err})
				return
			}
		}
	}
}

// probe sends one heartbeat command. An error answer still proves the peer is alive.
func (c *Client) probe(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := Call[json.RawMessage](ctx, c, HeartbeatMethod, nil)
	var pe *ProtocolError
	if err == nil || errors.As(err, &pe) {
		c.log.Trace().Msg("heartbeat ok")
		return nil
	}
	return err
}

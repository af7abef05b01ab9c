package cdp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Request represents a CDP command request.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents a CDP command response.
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Event represents a CDP event notification.
type Event struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Error is the error object carried by a CDP error response.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// frameKind classifies a decoded inbound frame.
type frameKind int

const (
	frameResponse frameKind = iota + 1
	frameError
	frameEvent
)

// frame is a decoded inbound envelope. Result and Params stay raw; decoding them is
// left to whoever knows the expected shape.
type frame struct {
	kind   frameKind
	id     uint64
	result json.RawMessage
	err    *Error
	method string
	params json.RawMessage
}

// message is used internally to determine message type during parsing.
type message struct {
	ID     *uint64         `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
	Params json.RawMessage `json:"params"`
}

var nullParams = json.RawMessage("null")

// encodeRequest serializes an outgoing command envelope.
func encodeRequest(id uint64, method string, params json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(Request{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

// marshalParams converts caller params to raw JSON. Nil and JSON null params, typed or
// raw, are omitted from the wire.
func marshalParams(params any) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(p) == 0 || bytes.Equal(bytes.TrimSpace(p), nullParams) {
			return nil, nil
		}
		return p, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	if bytes.Equal(data, nullParams) {
		return nil, nil
	}
	return data, nil
}

// decodeFrame parses a raw CDP message into a response, error or event frame.
// Anything else is returned as a *MalformedFrameError.
func decodeFrame(data []byte) (frame, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return frame{}, &MalformedFrameError{Frame: truncate(data), Err: err}
	}

	// Messages with an ID are responses to commands
	if msg.ID != nil {
		switch {
		case msg.Error != nil:
			return frame{kind: frameError, id: *msg.ID, err: msg.Error}, nil
		case len(msg.Result) > 0:
			return frame{kind: frameResponse, id: *msg.ID, result: msg.Result}, nil
		}
		return frame{}, &MalformedFrameError{Frame: truncate(data), Err: errNoOutcome}
	}

	// Messages with a method but no ID are events
	if msg.Method != "" {
		params := msg.Params
		if len(params) == 0 {
			params = nullParams
		}
		return frame{kind: frameEvent, method: msg.Method, params: params}, nil
	}

	return frame{}, &MalformedFrameError{Frame: truncate(data), Err: errUnknownShape}
}

const maxFrameExcerpt = 256

func truncate(data []byte) string {
	if len(data) <= maxFrameExcerpt {
		return string(data)
	}
	return string(data[:maxFrameExcerpt]) + "..."
}

package cdp

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeFrame_Response(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantID     uint64
		wantResult string
	}{
		{
			name:       "successful response",
			input:      `{"id":1,"result":{"frameId":"ABC123"}}`,
			wantID:     1,
			wantResult: `{"frameId":"ABC123"}`,
		},
		{
			name:       "response with null result",
			input:      `{"id":42,"result":null}`,
			wantID:     42,
			wantResult: `null`,
		},
		{
			name:       "response with empty result",
			input:      `{"id":5,"result":{}}`,
			wantID:     5,
			wantResult: `{}`,
		},
		{
			name:       "id zero is still a response",
			input:      `{"id":0,"result":{}}`,
			wantID:     0,
			wantResult: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fr, err := decodeFrame([]byte(tt.input))
			if err != nil {
				t.Fatalf("decodeFrame() unexpected error: %v", err)
			}
			if fr.kind != frameResponse {
				t.Fatalf("expected response frame, got kind %d", fr.kind)
			}
			if fr.id != tt.wantID {
				t.Errorf("expected ID %d, got %d", tt.wantID, fr.id)
			}
			if string(fr.result) != tt.wantResult {
				t.Errorf("expected result %s, got %s", tt.wantResult, string(fr.result))
			}
		})
	}
}

func TestDecodeFrame_ResponseWithError(t *testing.T) {
	t.Parallel()

	input := `{"id":2,"error":{"code":-32000,"message":"No stylesheet","data":"extra info"}}`

	fr, err := decodeFrame([]byte(input))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if fr.kind != frameError {
		t.Fatalf("expected error frame, got kind %d", fr.kind)
	}
	if fr.id != 2 {
		t.Errorf("expected ID 2, got %d", fr.id)
	}
	if fr.err.Code != -32000 {
		t.Errorf("expected error code -32000, got %d", fr.err.Code)
	}
	if fr.err.Message != "No stylesheet" {
		t.Errorf("expected message 'No stylesheet', got %s", fr.err.Message)
	}

	pe := remoteError("CSS.getStyleSheetText", fr.err)
	if pe.Data != "extra info" {
		t.Errorf("expected data 'extra info', got %s", pe.Data)
	}
	if pe.Error() != "cdp error -32000: No stylesheet (extra info)" {
		t.Errorf("unexpected error text: %s", pe.Error())
	}
}

func TestDecodeFrame_Event(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantMethod string
		wantParams string
	}{
		{
			name:       "simple event",
			input:      `{"method":"Page.loadEventFired","params":{"timestamp":123.456}}`,
			wantMethod: "Page.loadEventFired",
			wantParams: `{"timestamp":123.456}`,
		},
		{
			name:       "event with empty params",
			input:      `{"method":"CSS.fontsUpdated","params":{}}`,
			wantMethod: "CSS.fontsUpdated",
			wantParams: `{}`,
		},
		{
			name:       "event without params",
			input:      `{"method":"CSS.mediaQueryResultChanged"}`,
			wantMethod: "CSS.mediaQueryResultChanged",
			wantParams: `null`,
		},
		{
			name:       "event with nested params",
			input:      `{"method":"CSS.styleSheetAdded","params":{"header":{"styleSheetId":"S1","origin":"regular"}}}`,
			wantMethod: "CSS.styleSheetAdded",
			wantParams: `{"header":{"styleSheetId":"S1","origin":"regular"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fr, err := decodeFrame([]byte(tt.input))
			if err != nil {
				t.Fatalf("decodeFrame() unexpected error: %v", err)
			}
			if fr.kind != frameEvent {
				t.Fatalf("expected event frame, got kind %d", fr.kind)
			}
			if fr.method != tt.wantMethod {
				t.Errorf("expected method %s, got %s", tt.wantMethod, fr.method)
			}
			if string(fr.params) != tt.wantParams {
				t.Errorf("expected params %s, got %s", tt.wantParams, string(fr.params))
			}
		})
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid JSON", input: `{not json`},
		{name: "empty object", input: `{}`},
		{name: "id without outcome", input: `{"id":7}`},
		{name: "id with method only", input: `{"id":7,"method":"Target.attachedToTarget"}`},
		{name: "array", input: `[1,2,3]`},
		{name: "string id", input: `{"id":"abc","result":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := decodeFrame([]byte(tt.input))
			var mfe *MalformedFrameError
			if !errors.As(err, &mfe) {
				t.Fatalf("expected *MalformedFrameError, got %T: %v", err, err)
			}
			if mfe.Frame != tt.input {
				t.Errorf("expected frame excerpt %q, got %q", tt.input, mfe.Frame)
			}
		})
	}
}

func TestDecodeFrame_TruncatesLargeMalformedFrames(t *testing.T) {
	t.Parallel()

	big := make([]byte, 1024)
	for i := range big {
		big[i] = 'x'
	}

	_, err := decodeFrame(big)
	var mfe *MalformedFrameError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected *MalformedFrameError, got %v", err)
	}
	if len(mfe.Frame) != maxFrameExcerpt+3 {
		t.Errorf("expected excerpt of %d bytes, got %d", maxFrameExcerpt+3, len(mfe.Frame))
	}
}

func TestEncodeRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		id     uint64
		method string
		params any
		want   string
	}{
		{
			name:   "without params",
			id:     1,
			method: "CSS.enable",
			params: nil,
			want:   `{"id":1,"method":"CSS.enable"}`,
		},
		{
			name:   "struct params",
			id:     2,
			method: "CSS.getStyleSheetText",
			params: struct {
				StyleSheetID string `json:"styleSheetId"`
			}{"S1"},
			want: `{"id":2,"method":"CSS.getStyleSheetText","params":{"styleSheetId":"S1"}}`,
		},
		{
			name:   "raw params",
			id:     3,
			method: "Runtime.evaluate",
			params: json.RawMessage(`{"expression":"1+1"}`),
			want:   `{"id":3,"method":"Runtime.evaluate","params":{"expression":"1+1"}}`,
		},
		{
			name:   "nil map params are omitted",
			id:     4,
			method: "Page.enable",
			params: map[string]any(nil),
			want:   `{"id":4,"method":"Page.enable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw, err := marshalParams(tt.params)
			if err != nil {
				t.Fatalf("marshalParams() error: %v", err)
			}
			data, err := encodeRequest(tt.id, tt.method, raw)
			if err != nil {
				t.Fatalf("encodeRequest() error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, string(data))
			}
		})
	}
}

func TestMarshalParams_RejectsUnmarshalable(t *testing.T) {
	t.Parallel()

	_, err := marshalParams(map[string]any{"fn": func() {}})
	if err == nil {
		t.Fatal("expected marshal error, got nil")
	}
}

func TestMarshalParams_NullIsOmitted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params any
	}{
		{"nil", nil},
		{"typed nil map", map[string]any(nil)},
		{"raw null", json.RawMessage("null")},
		{"raw null with spaces", json.RawMessage(" null\n")},
		{"empty raw", json.RawMessage{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw, err := marshalParams(tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if raw != nil {
				t.Errorf("expected params to be omitted, got %s", raw)
			}
		})
	}
}

package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// newFakeBrowser starts a websocket endpoint that answers every command with
// {"method": <method>} and follows each answer with a "Test.echoed" event.
func newFakeBrowser(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var req Request
			if err := json.Unmarshal(data, &req); err != nil {
				return
			}

			var resp []byte
			if req.Method == "Test.fail" {
				resp, _ = json.Marshal(Response{ID: req.ID, Error: &Error{Code: -32601, Message: "method not found"}})
			} else {
				result, _ := json.Marshal(map[string]string{"method": req.Method})
				resp, _ = json.Marshal(Response{ID: req.ID, Result: result})
			}
			if err := conn.Write(ctx, websocket.MessageText, resp); err != nil {
				return
			}

			evt, _ := json.Marshal(Event{Method: "Test.echoed", Params: json.RawMessage(`{"seen":"` + req.Method + `"}`)})
			if err := conn.Write(ctx, websocket.MessageText, evt); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDial_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, newFakeBrowser(t))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if !client.IsOpen() {
		t.Fatalf("expected open client, got %s", client.State())
	}
	if client.ID() == "" {
		t.Error("expected connection id")
	}

	echoed := Subscribe[struct {
		Seen string `json:"seen"`
	}](client, "Test.echoed")
	defer echoed.Cancel()

	got, err := Call[struct {
		Method string `json:"method"`
	}](ctx, client, "Browser.getVersion", nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got.Method != "Browser.getVersion" {
		t.Errorf("expected echoed method, got %q", got.Method)
	}

	evt, err := echoed.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if evt.Seen != "Browser.getVersion" {
		t.Errorf("expected event for Browser.getVersion, got %q", evt.Seen)
	}

	_, err = client.SendContext(ctx, "Test.fail", nil)
	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.Code != -32601 {
		t.Errorf("expected ProtocolError(-32601), got %v", err)
	}

	client.Close()
	if client.State() != StateClosed {
		t.Errorf("expected closed state, got %s", client.State())
	}
}

func TestDial_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, "ws://127.0.0.1:1/devtools/browser/none")
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "dial" {
		t.Fatalf("expected dial TransportError, got %v", err)
	}
}

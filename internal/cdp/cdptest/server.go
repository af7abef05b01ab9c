// Package cdptest provides a scripted CDP endpoint for tests: a websocket that answers
// commands from registered handlers, plus the /json/version and /json/list discovery
// endpoints pointing at it.
package cdptest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/grantcarthew/cdpctl/internal/cdp"
)

// BrowserPath is the websocket path served for the browser target.
const BrowserPath = "/devtools/browser/cdptest"

// HandlerFunc answers one command. Returning a *cdp.Error sends an error envelope;
// any other error is sent as code -32000 with the error text.
type HandlerFunc func(params json.RawMessage) (any, error)

// Server is a fake browser endpoint.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	requests []cdp.Request
	conns    map[*websocket.Conn]struct{}
}

// NewServer starts a server and closes it when the test ends.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		handlers: make(map[string]HandlerFunc),
		conns:    make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(BrowserPath, s.serveWebSocket)
	mux.HandleFunc("/json/version", s.serveVersion)
	mux.HandleFunc("/json/list", s.serveList)
	s.srv = httptest.NewServer(mux)

	t.Cleanup(s.Close)
	return s
}

// URL returns the http base URL for discovery.
func (s *Server) URL() string {
	return s.srv.URL
}

// WebSocketURL returns the websocket URL of the browser target.
func (s *Server) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + BrowserPath
}

// Handle registers fn for method, replacing any previous handler.
func (s *Server) Handle(method string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = fn
}

// HandleResult registers a handler that always answers with result.
func (s *Server) HandleResult(method string, result any) {
	s.Handle(method, func(json.RawMessage) (any, error) { return result, nil })
}

// Emit sends an event to every connected client.
func (s *Server) Emit(method string, params any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(cdp.Event{Method: method, Params: data})
	if err != nil {
		return err
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.Write(context.Background(), websocket.MessageText, frame); err != nil {
			return err
		}
	}
	return nil
}

// Requests returns every command received so far, in arrival order.
func (s *Server) Requests() []cdp.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]cdp.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Close disconnects all clients and stops the server.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "server closing")
	}
	s.srv.Close()
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var req cdp.Request
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		fn := s.handlers[req.Method]
		s.mu.Unlock()

		resp := answer(req, fn)
		if err := conn.Write(ctx, websocket.MessageText, resp); err != nil {
			return
		}
	}
}

func answer(req cdp.Request, fn HandlerFunc) []byte {
	if fn == nil {
		return mustMarshal(cdp.Response{ID: req.ID, Error: &cdp.Error{
			Code:    -32601,
			Message: fmt.Sprintf("'%s' wasn't found", req.Method),
		}})
	}

	result, err := fn(req.Params)
	if err != nil {
		var cdpErr *cdp.Error
		if !errors.As(err, &cdpErr) {
			cdpErr = &cdp.Error{Code: -32000, Message: err.Error()}
		}
		return mustMarshal(cdp.Response{ID: req.ID, Error: cdpErr})
	}
	if result == nil {
		result = struct{}{}
	}
	return mustMarshal(cdp.Response{ID: req.ID, Result: mustMarshal(result)})
}

func (s *Server) serveVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"Browser":              "HeadlessChrome/120.0.0.0",
		"Protocol-Version":     "1.3",
		"webSocketDebuggerUrl": s.WebSocketURL(),
	})
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode([]map[string]string{{
		"id":                   "cdptest",
		"type":                 "page",
		"title":                "about:blank",
		"url":                  "about:blank",
		"webSocketDebuggerUrl": s.WebSocketURL(),
	}})
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

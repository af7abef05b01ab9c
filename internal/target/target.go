// Package target resolves a debugger endpoint descriptor to a websocket URL using the
// browser's HTTP discovery endpoints (/json/list and /json/version).
package target

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoPageTarget is returned when a page target was requested but none is open.
var ErrNoPageTarget = errors.New("no page target available")

// InspectorTab describes one debuggable target as listed by /json/list.
type InspectorTab struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	Description          string `json:"description,omitempty"`
	DevtoolsFrontendURL  string `json:"devtoolsFrontendUrl,omitempty"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// VersionInfo contains browser version information from /json/version.
type VersionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	UserAgent            string `json:"User-Agent"`
	V8Version            string `json:"V8-Version"`
	WebKitVersion        string `json:"WebKit-Version"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Kind selects which websocket Resolve returns for an HTTP endpoint.
type Kind string

const (
	// KindBrowser resolves to the browser-wide target from /json/version.
	KindBrowser Kind = "browser"
	// KindPage resolves to the first page target from /json/list.
	KindPage Kind = "page"
)

// IsWebSocket reports whether endpoint is already a websocket URL.
func IsWebSocket(endpoint string) bool {
	return strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://")
}

// BaseURL normalizes an endpoint descriptor to its HTTP origin. A bare "host:port"
// gets an http:// scheme, websocket schemes map to their HTTP pair, and any path is
// dropped.
func BaseURL(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("empty endpoint")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Resolve returns the websocket URL for endpoint. Websocket URLs are returned as is;
// HTTP endpoints are looked up according to kind.
func Resolve(ctx context.Context, client *http.Client, endpoint string, kind Kind) (string, error) {
	if IsWebSocket(endpoint) {
		return endpoint, nil
	}

	switch kind {
	case KindPage:
		tabs, err := ListTabs(ctx, client, endpoint)
		if err != nil {
			return "", err
		}
		tab := FindPage(tabs)
		if tab == nil {
			return "", ErrNoPageTarget
		}
		return tab.WebSocketDebuggerURL, nil
	case KindBrowser, "":
		info, err := FetchVersion(ctx, client, endpoint)
		if err != nil {
			return "", err
		}
		if info.WebSocketDebuggerURL == "" {
			return "", errors.New("browser did not report a websocket URL")
		}
		return info.WebSocketDebuggerURL, nil
	default:
		return "", fmt.Errorf("unknown target kind %q", kind)
	}
}

// ListTabs retrieves the list of available targets from the endpoint.
// Callers must provide a context with timeout when client has none.
func ListTabs(ctx context.Context, client *http.Client, endpoint string) ([]InspectorTab, error) {
	var tabs []InspectorTab
	if err := getJSON(ctx, client, endpoint, "/json/list", &tabs); err != nil {
		return nil, fmt.Errorf("fetch targets: %w", err)
	}
	return tabs, nil
}

// FetchVersion retrieves browser version info from the endpoint.
func FetchVersion(ctx context.Context, client *http.Client, endpoint string) (*VersionInfo, error) {
	var info VersionInfo
	if err := getJSON(ctx, client, endpoint, "/json/version", &info); err != nil {
		return nil, fmt.Errorf("fetch version: %w", err)
	}
	return &info, nil
}

// FindPage returns the first page-type target from the list.
func FindPage(tabs []InspectorTab) *InspectorTab {
	for i := range tabs {
		if tabs[i].Type == "page" {
			return &tabs[i]
		}
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint, path string, out any) error {
	base, err := BaseURL(endpoint)
	if err != nil {
		return err
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

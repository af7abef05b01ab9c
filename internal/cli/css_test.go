package cli

import (
	"encoding/json"
	"testing"

	"github.com/grantcarthew/cdpctl/internal/cdp"
	"github.com/grantcarthew/cdpctl/internal/cdp/cdptest"
	"github.com/grantcarthew/cdpctl/internal/domain/css"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCSSServer answers CSS.enable by announcing two stylesheets, the way a browser
// reports the sheets that already exist.
func newCSSServer(t *testing.T, text string) *cdptest.Server {
	srv := cdptest.NewServer(t)
	srv.Handle("CSS.enable", func(json.RawMessage) (any, error) {
		_ = srv.Emit("CSS.styleSheetAdded", css.StyleSheetAddedEvent{Header: css.StyleSheetHeader{
			StyleSheetID: "s1",
			Origin:       css.OriginRegular,
			SourceURL:    "https://example.com/site.css",
		}})
		_ = srv.Emit("CSS.styleSheetAdded", css.StyleSheetAddedEvent{Header: css.StyleSheetHeader{
			StyleSheetID: "s2",
			Origin:       css.OriginRegular,
			IsInline:     true,
		}})
		return nil, nil
	})
	srv.HandleResult("CSS.getStyleSheetText", map[string]string{"text": text})
	srv.HandleResult("CSS.collectClassNames", map[string][]string{"classNames": {"btn", "nav"}})
	return srv
}

func TestCSSSheets(t *testing.T) {
	srv := newCSSServer(t, "")

	stdout, _, err := runCLI(t, "css", "sheets", "--wait", "200ms", "--endpoint", srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "s1 regular https://example.com/site.css\ns2 regular <inline>\n", stdout)
}

func TestCSSSheets_SkipsMalformedEvent(t *testing.T) {
	srv := cdptest.NewServer(t)
	srv.Handle("CSS.enable", func(json.RawMessage) (any, error) {
		_ = srv.Emit("CSS.styleSheetAdded", css.StyleSheetAddedEvent{Header: css.StyleSheetHeader{
			StyleSheetID: "s1",
			Origin:       css.OriginRegular,
			SourceURL:    "https://example.com/a.css",
		}})
		_ = srv.Emit("CSS.styleSheetAdded", map[string]any{"header": map[string]any{"styleSheetId": 5}})
		_ = srv.Emit("CSS.styleSheetAdded", css.StyleSheetAddedEvent{Header: css.StyleSheetHeader{
			StyleSheetID: "s3",
			Origin:       css.OriginRegular,
			SourceURL:    "https://example.com/c.css",
		}})
		return nil, nil
	})

	stdout, _, err := runCLI(t, "css", "sheets", "--wait", "200ms", "--endpoint", srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "s1 regular https://example.com/a.css\ns3 regular https://example.com/c.css\n", stdout)
}

func TestCSSSheets_JSON(t *testing.T) {
	srv := newCSSServer(t, "")

	stdout, _, err := runCLI(t, "css", "sheets", "--wait", "200ms", "--json", "--endpoint", srv.URL())
	require.NoError(t, err)

	var resp struct {
		Data []css.StyleSheetHeader `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, css.StyleSheetID("s1"), resp.Data[0].StyleSheetID)
	assert.True(t, resp.Data[1].IsInline)
}

func TestCSSSheets_None(t *testing.T) {
	srv := cdptest.NewServer(t)
	srv.HandleResult("CSS.enable", nil)

	stdout, _, err := runCLI(t, "css", "sheets", "--wait", "50ms", "--endpoint", srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "No stylesheets\n", stdout)
}

func TestCSSText_Formatted(t *testing.T) {
	srv := newCSSServer(t, "body{margin:0;}a{color:red;}")

	stdout, _, err := runCLI(t, "css", "text", "s1", "--endpoint", srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "body {\n  margin:0;\n}\n\na {\n  color:red;\n}\n", stdout)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "CSS.enable", reqs[0].Method)
	assert.JSONEq(t, `{"styleSheetId":"s1"}`, string(reqs[1].Params))
}

func TestCSSText_Raw(t *testing.T) {
	srv := newCSSServer(t, "body{margin:0;}")

	stdout, _, err := runCLI(t, "css", "text", "s1", "--raw", "--endpoint", srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0;}\n", stdout)
}

func TestCSSText_UnformattableFallsBackToRaw(t *testing.T) {
	srv := newCSSServer(t, "body{margin:0;")

	stdout, _, err := runCLI(t, "css", "text", "s1", "--endpoint", srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0;\n", stdout)
}

func TestCSSText_UnknownSheet(t *testing.T) {
	srv := cdptest.NewServer(t)
	srv.HandleResult("CSS.enable", nil)
	srv.Handle("CSS.getStyleSheetText", func(json.RawMessage) (any, error) {
		return nil, &cdp.Error{Code: -32000, Message: "No style sheet with given id found"}
	})

	_, stderr, err := runCLI(t, "css", "text", "zz", "--endpoint", srv.URL())
	require.Error(t, err)
	assert.Contains(t, stderr, "CSS.getStyleSheetText failed: No style sheet with given id found (code -32000)")
}

func TestCSSClasses(t *testing.T) {
	srv := newCSSServer(t, "")

	stdout, _, err := runCLI(t, "css", "classes", "s1", "--endpoint", srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "btn\nnav\n", stdout)
}

func TestStorageClear(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantTypes string
	}{
		{"all types", nil, "all"},
		{"selected types", []string{"--types", "cookies,local_storage"}, "cookies,local_storage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := cdptest.NewServer(t)
			srv.HandleResult("Storage.clearDataForOrigin", nil)

			args := append([]string{"storage", "clear", "https://example.com", "--endpoint", srv.URL()}, tt.args...)
			stdout, _, err := runCLI(t, args...)
			require.NoError(t, err)
			assert.Equal(t, "OK\n", stdout)

			reqs := srv.Requests()
			require.Len(t, reqs, 1)
			assert.JSONEq(t, `{"origin":"https://example.com","storageTypes":"`+tt.wantTypes+`"}`, string(reqs[0].Params))
		})
	}
}

func TestStorageClear_JSON(t *testing.T) {
	srv := cdptest.NewServer(t)
	srv.HandleResult("Storage.clearDataForOrigin", nil)

	stdout, _, err := runCLI(t, "storage", "clear", "https://example.com", "--json", "--endpoint", srv.URL())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, stdout)
}

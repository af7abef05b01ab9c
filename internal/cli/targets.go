package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/grantcarthew/cdpctl/internal/target"
	"github.com/spf13/cobra"
)

func newTargetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List debuggable targets",
		Long: `Lists the targets the browser exposes on its discovery endpoint (/json/list).

Examples:
  cdpctl targets
  cdpctl targets --endpoint 127.0.0.1:9333
  cdpctl targets --json | jq '.data[] | select(.type == "page") | .url'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			tabs, err := target.ListTabs(ctx, a.http, a.cfg.Endpoint)
			if err != nil {
				return a.fail(cmd, err)
			}

			w := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(w, map[string]any{"ok": true, "data": tabs})
			}
			if len(tabs) == 0 {
				_, err := fmt.Fprintln(w, "No targets")
				return err
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, tab := range tabs {
				kind := tab.Type
				if a.useColor(w) && tab.Type == "page" {
					kind = color.New(color.FgGreen).Sprint(tab.Type)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tab.ID, kind, tab.Title, tab.URL)
			}
			return tw.Flush()
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show browser and protocol version",
		Long: `Shows the browser version reported by the discovery endpoint (/json/version).

Use --version for the version of cdpctl itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			info, err := target.FetchVersion(ctx, a.http, a.cfg.Endpoint)
			if err != nil {
				return a.fail(cmd, err)
			}

			w := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(w, map[string]any{"ok": true, "data": info})
			}

			tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
			fmt.Fprintf(tw, "Browser:\t%s\n", info.Browser)
			fmt.Fprintf(tw, "Protocol:\t%s\n", info.ProtocolVersion)
			if info.V8Version != "" {
				fmt.Fprintf(tw, "V8:\t%s\n", info.V8Version)
			}
			if info.UserAgent != "" {
				fmt.Fprintf(tw, "User-Agent:\t%s\n", info.UserAgent)
			}
			fmt.Fprintf(tw, "WebSocket:\t%s\n", info.WebSocketDebuggerURL)
			return tw.Flush()
		},
	}
}

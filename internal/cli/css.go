package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grantcarthew/cdpctl/internal/cssformat"
	"github.com/grantcarthew/cdpctl/internal/domain/css"
	"github.com/spf13/cobra"
)

func newCSSCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "css",
		Short: "CSS domain commands",
		Long: `Inspects stylesheets of a page target.

Subcommands:
  sheets            List stylesheets reported after CSS.enable
  text <id>         Print the text of one stylesheet
  classes <id>      List class names used in one stylesheet

These commands need a page target. With an http endpoint, set target = "page" in
the config file or CDPCTL_TARGET=page, or pass a page websocket URL.`,
	}

	var wait time.Duration
	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "List stylesheets",
		Long: `Enables the CSS domain and lists the stylesheets the browser reports.

The browser announces existing stylesheets with CSS.styleSheetAdded events right
after CSS.enable; --wait controls how long to collect them.

Examples:
  cdpctl css sheets
  cdpctl css sheets --wait 2s --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCSSSheets(cmd, wait)
		},
	}
	sheetsCmd.Flags().DurationVar(&wait, "wait", 500*time.Millisecond, "How long to collect stylesheet events")

	var raw bool
	textCmd := &cobra.Command{
		Use:   "text <styleSheetId>",
		Short: "Print stylesheet text",
		Long: `Prints the text of a stylesheet, reformatted one declaration per line.

Examples:
  cdpctl css text 1234.5
  cdpctl css text 1234.5 --raw > sheet.css`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCSSText(cmd, css.StyleSheetID(args[0]), raw)
		},
	}
	textCmd.Flags().BoolVar(&raw, "raw", false, "Skip CSS formatting (return as-is from browser)")

	classesCmd := &cobra.Command{
		Use:   "classes <styleSheetId>",
		Short: "List class names used in a stylesheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCSSClasses(cmd, css.StyleSheetID(args[0]))
		},
	}

	cmd.AddCommand(sheetsCmd, textCmd, classesCmd)
	return cmd
}

func (a *app) runCSSSheets(cmd *cobra.Command, wait time.Duration) error {
	client, err := a.connect(cmd.Context())
	if err != nil {
		return a.fail(cmd, err)
	}
	defer client.Close()

	domain := css.New(client)
	added := domain.StyleSheetAdded()
	defer added.Cancel()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()
	if err := domain.Enable(ctx); err != nil {
		return a.fail(cmd, err)
	}

	collectCtx, stop := context.WithTimeout(cmd.Context(), wait)
	defer stop()

	var headers []css.StyleSheetHeader
	for evt := range added.All(collectCtx) {
		headers = append(headers, evt.Header)
	}
	if err := added.Err(); err != nil {
		return a.fail(cmd, err)
	}

	w := cmd.OutOrStdout()
	if a.jsonOutput {
		if headers == nil {
			headers = []css.StyleSheetHeader{}
		}
		return outputJSON(w, map[string]any{"ok": true, "data": headers})
	}
	if len(headers) == 0 {
		_, err := fmt.Fprintln(w, "No stylesheets")
		return err
	}
	for _, h := range headers {
		source := h.SourceURL
		if h.IsInline || source == "" {
			source = "<inline>"
		}
		fmt.Fprintf(w, "%s %s %s\n", h.StyleSheetID, h.Origin, source)
	}
	return nil
}

func (a *app) runCSSText(cmd *cobra.Command, id css.StyleSheetID, raw bool) error {
	client, err := a.connect(cmd.Context())
	if err != nil {
		return a.fail(cmd, err)
	}
	defer client.Close()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	domain := css.New(client)
	if err := domain.Enable(ctx); err != nil {
		return a.fail(cmd, err)
	}
	text, err := domain.GetStyleSheetText(ctx, id)
	if err != nil {
		return a.fail(cmd, err)
	}

	if !raw {
		formatted, err := cssformat.Format(text)
		if err != nil {
			a.log.Debug().Err(err).Msg("css formatting failed, printing raw text")
		} else {
			text = formatted
		}
	}

	w := cmd.OutOrStdout()
	if a.jsonOutput {
		return outputJSON(w, map[string]any{"ok": true, "data": text})
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err = fmt.Fprint(w, text)
	return err
}

func (a *app) runCSSClasses(cmd *cobra.Command, id css.StyleSheetID) error {
	client, err := a.connect(cmd.Context())
	if err != nil {
		return a.fail(cmd, err)
	}
	defer client.Close()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	domain := css.New(client)
	if err := domain.Enable(ctx); err != nil {
		return a.fail(cmd, err)
	}
	names, err := domain.CollectClassNames(ctx, id)
	if err != nil {
		return a.fail(cmd, err)
	}

	w := cmd.OutOrStdout()
	if a.jsonOutput {
		return outputJSON(w, map[string]any{"ok": true, "data": names})
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

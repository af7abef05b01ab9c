package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/grantcarthew/cdpctl/internal/cdp"
	"github.com/spf13/cobra"
)

type listenOptions struct {
	count    int
	duration time.Duration
	enable   []string
}

func newListenCmd(a *app) *cobra.Command {
	var opts listenOptions

	cmd := &cobra.Command{
		Use:   "listen <event>...",
		Short: "Print events as they arrive",
		Long: `Subscribes to one or more events and prints each one as it arrives.

Listening stops after --count events, after --duration, when the browser closes
the connection, or on Ctrl-C. Most domains only emit events once enabled; use
--enable to send <Domain>.enable after subscribing.

Examples:
  cdpctl listen Target.targetCreated Target.targetDestroyed
  cdpctl listen CSS.styleSheetAdded --enable DOM --enable CSS --count 5
  cdpctl listen Page.loadEventFired --enable Page --duration 30s --json

Output format:
  Text: <event> <params>
  JSON: one {"method": ..., "params": ...} object per line`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runListen(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "Stop after this many events (0 = no limit)")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "Stop after this long (0 = no limit)")
	cmd.Flags().StringSliceVar(&opts.enable, "enable", nil, "Domains to enable after subscribing")
	return cmd
}

func (a *app) runListen(cmd *cobra.Command, events []string, opts listenOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	client, err := a.connect(ctx)
	if err != nil {
		return a.fail(cmd, err)
	}
	defer client.Close()

	// Subscriptions come first so nothing emitted by the enable calls is missed.
	received := make(chan cdp.Event)
	for _, method := range events {
		cancel := client.SubscribeFunc(method, func(evt cdp.Event) {
			select {
			case received <- evt:
			case <-ctx.Done():
			}
		})
		defer cancel()
	}

	for _, domain := range opts.enable {
		callCtx, cancel := a.withTimeout(ctx)
		_, err := client.SendContext(callCtx, strings.TrimSuffix(domain, ".enable")+".enable", nil)
		cancel()
		if err != nil {
			return a.fail(cmd, err)
		}
	}
	a.log.Debug().Strs("events", events).Msg("listening")

	seen := 0
	for opts.count == 0 || seen < opts.count {
		select {
		case evt := <-received:
			seen++
			if err := a.printEvent(cmd, evt); err != nil {
				return err
			}
		case <-client.Done():
			if err := client.Err(); err != nil {
				return a.fail(cmd, err)
			}
			return nil
		case <-ctx.Done():
			a.log.Debug().Int("events", seen).Msg("listen finished")
			return nil
		}
	}
	return nil
}

func (a *app) printEvent(cmd *cobra.Command, evt cdp.Event) error {
	w := cmd.OutOrStdout()
	if a.jsonOutput {
		return outputJSON(w, evt)
	}
	if a.useColor(w) {
		color.New(color.FgCyan).Fprint(w, evt.Method)
		_, err := fmt.Fprintf(w, " %s\n", evt.Params)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s\n", evt.Method, evt.Params)
	return err
}

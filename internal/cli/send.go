package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <method> [params-json]",
		Short: "Send one command and print its result",
		Long: `Sends a single protocol command and prints the result object.

Params are a JSON object. Omit them for commands that take none.

Examples:
  cdpctl send Browser.getVersion
  cdpctl send Target.getTargets
  cdpctl send Target.createTarget '{"url":"about:blank"}'
  cdpctl send Browser.getVersion --json | jq .data.product

Error cases:
  - "<method> failed: <message> (code N)" - the browser rejected the command
  - "timed out" - no answer within --timeout`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSend(cmd, args)
		},
	}
}

func (a *app) runSend(cmd *cobra.Command, args []string) error {
	method := args[0]

	var params json.RawMessage
	if len(args) > 1 {
		params = json.RawMessage(bytes.TrimSpace([]byte(args[1])))
		if !json.Valid(params) {
			return a.fail(cmd, errors.New("params must be valid JSON"))
		}
		if params[0] != '{' {
			return a.fail(cmd, errors.New("params must be a JSON object"))
		}
	}

	client, err := a.connect(cmd.Context())
	if err != nil {
		return a.fail(cmd, err)
	}
	defer client.Close()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	result, err := client.SendContext(ctx, method, params)
	if err != nil {
		return a.fail(cmd, err)
	}

	w := cmd.OutOrStdout()
	if a.jsonOutput {
		return outputJSON(w, map[string]any{
			"ok":   true,
			"data": result,
		})
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		buf.Reset()
		buf.Write(result)
	}
	_, err = fmt.Fprintln(w, buf.String())
	return err
}

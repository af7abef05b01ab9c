package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/grantcarthew/cdpctl/internal/cdp"
	"github.com/grantcarthew/cdpctl/internal/config"
	"github.com/grantcarthew/cdpctl/internal/logging"
	"github.com/grantcarthew/cdpctl/internal/target"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time.
var Version = "dev"

// lookupEnv reads environment overrides; replaced in tests.
var lookupEnv = os.LookupEnv

// printedError marks an error that has already been written to stderr.
type printedError struct{ msg string }

func (e *printedError) Error() string { return e.msg }

// IsPrintedError reports whether err was already reported to the user.
func IsPrintedError(err error) bool {
	var pe *printedError
	return errors.As(err, &pe)
}

// app holds the global flags and everything derived from them for one invocation.
type app struct {
	endpoint   string
	configPath string
	timeout    time.Duration
	jsonOutput bool
	debug      bool
	noColor    bool

	cfg  config.Config
	log  zerolog.Logger
	http *http.Client
}

// NewRootCmd builds the cdpctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "cdpctl",
		Short:         "Talk to a browser over the DevTools protocol",
		Long:          "cdpctl sends DevTools protocol commands to a running browser and prints the results and events it receives.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.endpoint, "endpoint", "", "Browser endpoint: ws:// URL or http://host:port")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (.toml or .yaml)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Timeout for each command (default from config)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format (default is text)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable verbose debug output")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")
	root.SetVersionTemplate(`cdpctl version {{.Version}}
`)

	root.AddCommand(
		newSendCmd(a),
		newListenCmd(a),
		newTargetsCmd(a),
		newVersionCmd(a),
		newCSSCmd(a),
		newStorageCmd(a),
	)
	return root
}

// Execute runs the root command.
// Supports command abbreviation via unique prefix matching.
func Execute() error {
	root := NewRootCmd()
	args := os.Args[1:]
	if len(args) > 0 {
		if expanded := tryExpandCommand(root, args[0]); expanded != "" {
			args[0] = expanded
		}
	}
	root.SetArgs(args)
	return root.Execute()
}

// tryExpandCommand attempts to expand a command abbreviation.
// Returns the expanded command if exactly one match is found, empty string otherwise.
func tryExpandCommand(root *cobra.Command, prefix string) string {
	var matches []string
	for _, cmd := range root.Commands() {
		name := cmd.Name()
		if name == prefix {
			return ""
		}
		if len(prefix) < len(name) && name[:len(prefix)] == prefix {
			matches = append(matches, name)
		}
	}

	if len(matches) == 1 {
		return matches[0]
	}
	return ""
}

// setup loads configuration, applies environment and flag overrides and builds the
// logger. Flags win over the environment, which wins over the file.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()

	path, explicit := a.configPath, a.configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}
	if path != "" {
		loaded, err := config.Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case explicit || !errors.Is(err, os.ErrNotExist):
			return a.fail(cmd, err)
		}
	}

	if err := config.ApplyEnv(&cfg, lookupEnv); err != nil {
		return a.fail(cmd, err)
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = a.endpoint
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if a.noColor {
		cfg.Log.NoColor = true
	}
	if a.debug {
		cfg.Log.Level = config.LevelDebug
	}

	if err := cfg.Validate(); err != nil {
		return a.fail(cmd, fmt.Errorf("invalid config: %w", err))
	}

	a.cfg = cfg
	a.log = logging.New(cfg.Log, cmd.ErrOrStderr())
	a.http = &http.Client{Timeout: cfg.Timeout}
	a.log.Debug().Str("endpoint", cfg.Endpoint).Dur("timeout", cfg.Timeout).Msg("configured")
	return nil
}

// connect resolves the configured endpoint and dials it.
func (a *app) connect(ctx context.Context) (*cdp.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	wsURL, err := target.Resolve(ctx, a.http, a.cfg.Endpoint, target.Kind(a.cfg.Target))
	if err != nil {
		return nil, err
	}

	opts := []cdp.Option{cdp.WithLogger(a.log)}
	if a.cfg.Heartbeat > 0 {
		opts = append(opts, cdp.WithHeartbeat(a.cfg.Heartbeat, a.cfg.Timeout))
	}
	if a.cfg.RateLimit.PerSecond > 0 {
		opts = append(opts, cdp.WithRateLimit(a.cfg.RateLimit.PerSecond, a.cfg.RateLimit.Burst))
	}
	return cdp.Dial(ctx, wsURL, opts...)
}

// withTimeout bounds a single command round trip.
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

// outputJSON writes a JSON value to w.
// Pretty prints if w is a terminal, compact otherwise.
func outputJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if isTerminal(w) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// outputSuccess reports a command that produced no data.
func (a *app) outputSuccess(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	if a.jsonOutput {
		return outputJSON(w, map[string]any{"ok": true})
	}
	if a.useColor(w) {
		color.New(color.FgGreen).Fprintln(w, "OK")
		return nil
	}
	_, err := fmt.Fprintln(w, "OK")
	return err
}

// fail writes err to stderr and returns it marked as printed.
// Uses text format by default, JSON if --json flag is set.
func (a *app) fail(cmd *cobra.Command, err error) error {
	msg := describeError(err)
	w := cmd.ErrOrStderr()

	if a.jsonOutput {
		resp := map[string]any{
			"ok":    false,
			"error": msg,
		}
		var pe *cdp.ProtocolError
		if errors.As(err, &pe) {
			resp["code"] = pe.Code
		}
		_ = outputJSON(w, resp)
	} else if a.useColor(w) {
		color.New(color.FgRed).Fprint(w, "Error:")
		fmt.Fprintf(w, " %s\n", msg)
	} else {
		fmt.Fprintf(w, "Error: %s\n", msg)
	}
	return &printedError{msg: msg}
}

// describeError turns core errors into one-line messages for the terminal.
func describeError(err error) string {
	var pe *cdp.ProtocolError
	if errors.As(err, &pe) && pe.Err == nil {
		msg := fmt.Sprintf("%s failed: %s (code %d)", pe.Method, pe.Message, pe.Code)
		if pe.Data != "" {
			msg += ": " + pe.Data
		}
		return msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timed out: %v", err)
	}
	return err.Error()
}

// useColor determines if color output should be used for w.
func (a *app) useColor(w io.Writer) bool {
	if a.jsonOutput || a.cfg.Log.NoColor || a.noColor {
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

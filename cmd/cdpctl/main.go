package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/grantcarthew/cdpctl/internal/cli"
)

// formatCobraError converts verbose Cobra errors to user-friendly messages.
func formatCobraError(err error) string {
	msg := err.Error()

	// Cobra appends its own suggestion block after a blank line.
	if i := strings.Index(msg, "\n\n"); i >= 0 {
		msg = msg[:i]
	}

	switch {
	case strings.HasPrefix(msg, "unknown command"),
		strings.HasPrefix(msg, "unknown flag"),
		strings.HasPrefix(msg, "unknown shorthand flag"),
		strings.Contains(msg, "arg(s), received"):
		return msg + " (see cdpctl --help)"
	}
	return msg
}

func main() {
	if err := cli.Execute(); err != nil {
		// Handlers print their own errors; cobra usage errors land here.
		if !cli.IsPrintedError(err) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", formatCobraError(err))
		}
		os.Exit(1)
	}
}

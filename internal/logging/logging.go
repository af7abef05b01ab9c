// Package logging builds the zerolog logger used by cdpctl.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/grantcarthew/cdpctl/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// New returns a logger writing to w. Format "auto" picks the console writer when w is
// a terminal and JSON lines otherwise.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, ok := ParseLevel(cfg.Level)
	if !ok {
		level = zerolog.WarnLevel
	}

	out := w
	if useConsole(cfg.Format, w) {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor || !isTerminal(w),
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("app", "cdpctl").Logger()
}

// ParseLevel maps a level name or alias to a zerolog level. Unknown names return false.
func ParseLevel(raw string) (zerolog.Level, bool) {
	name, ok := config.LogLevel(raw)
	if !ok {
		return zerolog.NoLevel, false
	}
	switch name {
	case config.LevelTrace:
		return zerolog.TraceLevel, true
	case config.LevelDebug:
		return zerolog.DebugLevel, true
	case config.LevelInfo:
		return zerolog.InfoLevel, true
	case config.LevelError:
		return zerolog.ErrorLevel, true
	case config.LevelOff:
		return zerolog.Disabled, true
	}
	return zerolog.WarnLevel, true
}

func useConsole(format string, w io.Writer) bool {
	switch format {
	case config.FormatConsole:
		return true
	case config.FormatJSON:
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Package cssformat pretty-prints stylesheet text returned by CSS.getStyleSheetText.
package cssformat

import (
	"errors"
	"strings"
)

var (
	// ErrUnbalanced is returned when braces do not pair up.
	ErrUnbalanced = errors.New("unbalanced braces")
	// ErrUnterminated is returned for an unclosed string or comment.
	ErrUnterminated = errors.New("unterminated string or comment")
)

// Options controls Format output.
type Options struct {
	// Indent is repeated once per nesting level. Defaults to two spaces.
	Indent string
}

// Format reformats CSS one declaration per line with two-space indentation and a blank
// line between top-level rules. Strings, comments and parenthesised values are kept
// intact.
func Format(input string) (string, error) {
	return FormatWith(input, Options{})
}

// FormatWith is Format with explicit options.
func FormatWith(input string, opts Options) (string, error) {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	p := &printer{indent: opts.Indent}

	for i := 0; i < len(input); i++ {
		ch := input[i]

		switch {
		case ch == '"' || ch == '\'':
			end, ok := scanString(input, i)
			if !ok {
				return "", ErrUnterminated
			}
			p.pending.WriteString(input[i:end])
			i = end - 1

		case ch == '/' && i+1 < len(input) && input[i+1] == '*':
			end := strings.Index(input[i+2:], "*/")
			if end < 0 {
				return "", ErrUnterminated
			}
			comment := input[i : i+2+end+2]
			if strings.TrimSpace(p.pending.String()) == "" {
				p.pending.Reset()
				p.line(comment)
			} else {
				p.pending.WriteString(comment)
			}
			i += 2 + end + 1

		case ch == '(':
			p.parens++
			p.pending.WriteByte(ch)

		case ch == ')':
			if p.parens > 0 {
				p.parens--
			}
			p.pending.WriteByte(ch)

		case p.parens > 0:
			p.pending.WriteByte(ch)

		case ch == '{':
			p.line(strings.TrimSpace(p.pending.String()) + " {")
			p.pending.Reset()
			p.depth++

		case ch == '}':
			if p.depth == 0 {
				return "", ErrUnbalanced
			}
			p.flush("")
			p.depth--
			p.line("}")
			if p.depth == 0 {
				p.out.WriteByte('\n')
			}

		case ch == ';':
			p.flush(";")

		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f':
			if s := p.pending.String(); s != "" && s[len(s)-1] != ' ' {
				p.pending.WriteByte(' ')
			}

		default:
			p.pending.WriteByte(ch)
		}
	}

	if p.depth != 0 {
		return "", ErrUnbalanced
	}
	p.flush("")

	out := strings.TrimRight(p.out.String(), "\n")
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

type printer struct {
	out     strings.Builder
	pending strings.Builder
	indent  string
	depth   int
	parens  int
}

// line writes s on its own line at the current depth. Blank input is skipped.
func (p *printer) line(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	p.out.WriteString(strings.Repeat(p.indent, p.depth))
	p.out.WriteString(s)
	p.out.WriteByte('\n')
}

// flush writes the pending text followed by suffix.
func (p *printer) flush(suffix string) {
	text := strings.TrimSpace(p.pending.String())
	p.pending.Reset()
	if text == "" {
		return
	}
	p.line(text + suffix)
}

// scanString returns the index just past the string literal starting at start.
func scanString(s string, start int) (int, bool) {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1, true
		}
	}
	return 0, false
}

// Package locale loads Fluent (.fluent) translation resources and
// answers message queries. Resources arrive as plain FTL strings or
// as ZIP language packs, flat (en-US.fluent) or nested
// (en-US/main.fluent). Bundles are reference-counted and safe for
// concurrent queries.
//
// The supported FTL subset covers messages with text patterns,
// variable placeables ({ $name }), multi-line continuations and
// comments. Attributes and select expressions are tolerated by the
// parser but not formatted.
package locale

import (
	"fmt"
	"strings"
)

// SyntaxError is one problem found in an FTL source, positioned by
// 1-based line and column.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

// Error formats as "line:column: message".
func (e SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// segment is one piece of a message pattern: literal text or a
// variable reference.
type segment struct {
	text string
	vari string // non-empty for { $vari }
}

// pattern is a parsed message value.
type pattern []segment

// format substitutes args into the pattern. Unknown variables render
// as their placeable, matching Fluent's error recovery.
func (p pattern) format(args map[string]any) string {
	var b strings.Builder
	for _, s := range p {
		if s.vari == "" {
			b.WriteString(s.text)
			continue
		}
		v, ok := args[s.vari]
		if !ok {
			b.WriteString("{$")
			b.WriteString(s.vari)
			b.WriteString("}")
			continue
		}
		fmt.Fprintf(&b, "%v", v)
	}
	return b.String()
}

// parseFTL parses Fluent source into message patterns. Parsing is
// line-oriented: "id = value" starts a message, indented lines
// continue it, "#" starts a comment. Malformed lines are collected as
// syntax errors and skipped.
func parseFTL(source string) (map[string]pattern, []SyntaxError) {
	msgs := make(map[string]pattern)
	var errs []SyntaxError

	lines := strings.Split(source, "\n")
	var (
		curID    string
		curValue []string
	)
	flush := func(line int) {
		if curID == "" {
			return
		}
		value := strings.Join(curValue, "\n")
		if strings.TrimSpace(value) == "" {
			errs = append(errs, SyntaxError{Line: line, Column: 1, Message: "message has no value: " + curID})
		} else {
			msgs[curID] = parsePattern(value)
		}
		curID, curValue = "", nil
	}

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimRight(raw, "\r")
		switch {
		case strings.TrimSpace(trimmed) == "":
			continue
		case strings.HasPrefix(trimmed, "#"):
			continue
		case strings.HasPrefix(trimmed, " ") || strings.HasPrefix(trimmed, "\t"):
			// Continuation or attribute of the open message.
			if curID == "" {
				errs = append(errs, SyntaxError{Line: lineNo, Column: 1, Message: "continuation without a message"})
				continue
			}
			body := strings.TrimSpace(trimmed)
			if strings.HasPrefix(body, ".") {
				// Attribute lines are accepted but not formatted.
				continue
			}
			curValue = append(curValue, body)
		default:
			flush(lineNo)
			id, value, ok := strings.Cut(trimmed, "=")
			id = strings.TrimSpace(id)
			if !ok || !validMessageID(id) {
				errs = append(errs, SyntaxError{Line: lineNo, Column: 1, Message: "expected message: " + trimmed})
				continue
			}
			curID = id
			if v := strings.TrimSpace(value); v != "" {
				curValue = append(curValue, v)
			}
		}
	}
	flush(len(lines))
	return msgs, errs
}

// parsePattern splits a message value into text and variable
// segments. Unterminated placeables degrade to literal text.
func parsePattern(value string) pattern {
	var p pattern
	for len(value) > 0 {
		open := strings.Index(value, "{")
		if open < 0 {
			p = append(p, segment{text: value})
			break
		}
		closing := strings.Index(value[open:], "}")
		if closing < 0 {
			p = append(p, segment{text: value})
			break
		}
		closing += open
		if open > 0 {
			p = append(p, segment{text: value[:open]})
		}
		inner := strings.TrimSpace(value[open+1 : closing])
		if name, ok := strings.CutPrefix(inner, "$"); ok && validMessageID(name) {
			p = append(p, segment{vari: name})
		} else {
			// Non-variable placeables pass through verbatim.
			p = append(p, segment{text: value[open : closing+1]})
		}
		value = value[closing+1:]
	}
	return p
}

// validMessageID checks the Fluent identifier grammar: a letter
// followed by letters, digits, '_' or '-'.
func validMessageID(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 {
			if !letter {
				return false
			}
			continue
		}
		if !letter && !(r >= '0' && r <= '9') && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// CheckSyntax validates FTL source without loading it. A nil result
// means the source parses cleanly.
func CheckSyntax(source string) []SyntaxError {
	_, errs := parseFTL(source)
	return errs
}

// Package syntax rejects rendered TypeScript that does not parse, before it
// reaches the project. The check needs cgo; without it every body passes.
package syntax

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language is a grammar the checker knows.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

// LanguageFor maps a file path to its grammar. Paths of other kinds are not
// checked.
func LanguageFor(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	}
	return "", false
}

// Error locates the first parse error in a body.
type Error struct {
	Path   string
	Line   int // 1-based
	Column int // 1-based
	Near   string
}

func (e *Error) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Column)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error near %q", e.Path, e.Line, e.Column, e.Near)
}

// excerpt is the start of the offending source, cut at the first line break.
func excerpt(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

//go:build cgo

package syntax

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Checker parses bodies with tree-sitter. One parser is shared, so checks
// are serialized.
type Checker struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewChecker creates a checker.
func NewChecker() *Checker {
	return &Checker{parser: sitter.NewParser()}
}

// Available reports whether bodies are really parsed.
func Available() bool {
	return true
}

func grammar(lang Language) *sitter.Language {
	if lang == LangTSX {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

// Check parses source as the language of path. It returns an *Error for the
// first error or missing node, and nil for paths it has no grammar for.
func (c *Checker) Check(ctx context.Context, path string, source []byte) error {
	lang, ok := LanguageFor(path)
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.parser.SetLanguage(grammar(lang))
	tree, err := c.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	pt := bad.StartPoint()
	return &Error{
		Path:   path,
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
		Near:   excerpt(string(source[bad.StartByte():])),
	}
}

// firstError walks n depth-first for the first ERROR or MISSING node.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

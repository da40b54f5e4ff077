//go:build !cgo

package syntax

import "context"

// Checker accepts every body when tree-sitter is unavailable.
type Checker struct{}

// NewChecker creates a checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Available reports whether bodies are really parsed.
func Available() bool {
	return false
}

// Check always succeeds in builds without cgo.
func (c *Checker) Check(ctx context.Context, path string, source []byte) error {
	return nil
}

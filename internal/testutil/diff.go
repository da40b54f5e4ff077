package testutil

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// AssertText fails with a line diff when got differs from want.
func AssertText(t *testing.T, name, want, got string) {
	t.Helper()
	if want != got {
		t.Fatalf("%s mismatch:\n%s", name, Diff(want, got))
	}
}

// Diff produces a simple line-oriented diff of want against got with a little
// context around each differing run.
func Diff(want, got string) string {
	var buf bytes.Buffer
	wantLines := strings.Split(want, "\n")
	gotLines := strings.Split(got, "\n")

	fmt.Fprintln(&buf, "--- want")
	fmt.Fprintln(&buf, "+++ got")

	n := max(len(wantLines), len(gotLines))
	lastPrinted := -1
	for i := 0; i < n; i++ {
		var w, g string
		if i < len(wantLines) {
			w = wantLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if w == g {
			continue
		}
		start := max(lastPrinted+1, i-2)
		if start > lastPrinted+1 {
			fmt.Fprintf(&buf, "@@ line %d @@\n", start+1)
		}
		for j := start; j < i && j < len(wantLines); j++ {
			fmt.Fprintln(&buf, " "+wantLines[j])
		}
		if i < len(wantLines) {
			fmt.Fprintln(&buf, "-"+w)
		}
		if i < len(gotLines) {
			fmt.Fprintln(&buf, "+"+g)
		}
		lastPrinted = i
	}
	return buf.String()
}

package validation

import (
	"fmt"
	"strings"

	"orivus/internal/spec"
)

// BatchResult holds one Result per spec, in input order.
type BatchResult struct {
	Valid   bool     `json:"valid"`
	Results []Result `json:"results"`
}

// ValidateBatch validates every spec with the models and module names of the
// whole batch as known relation targets. A module name that repeats an earlier
// one ignoring case is an error on the later spec.
func ValidateBatch(specs []*spec.ModuleSpec) BatchResult {
	var known []string
	for _, s := range specs {
		if s == nil {
			continue
		}
		known = append(known, s.Name)
		known = append(known, s.ModelNames()...)
	}

	br := BatchResult{Valid: true, Results: make([]Result, 0, len(specs))}
	seen := make(map[string]string, len(specs))
	for _, s := range specs {
		r := ValidateWith(s, known)
		if s != nil && strings.TrimSpace(s.Name) != "" {
			key := strings.ToLower(s.Name)
			if first, dup := seen[key]; dup {
				r.Errors = append(r.Errors, Finding{
					Code:       "DUPLICATE_MODULE_NAME",
					Message:    fmt.Sprintf("Module name '%s' is already used by module '%s' in this batch", s.Name, first),
					Path:       "name",
					Suggestion: "Give every module in a batch a unique name",
				})
				r.Valid = false
			} else {
				seen[key] = s.Name
			}
		}
		if !r.Valid {
			br.Valid = false
		}
		br.Results = append(br.Results, r)
	}
	return br
}

// ErrorCount sums the errors of every result.
func (b BatchResult) ErrorCount() int {
	n := 0
	for _, r := range b.Results {
		n += len(r.Errors)
	}
	return n
}

// WarningCount sums the warnings of every result.
func (b BatchResult) WarningCount() int {
	n := 0
	for _, r := range b.Results {
		n += len(r.Warnings)
	}
	return n
}

// Format renders r as the multi-line report printed by `orivus validate`.
func Format(r Result) string {
	var b strings.Builder
	title := "Spec validation"
	if r.Module != "" {
		title += " for '" + r.Module + "'"
	}
	if r.Valid {
		b.WriteString("✔ " + title + " passed")
	} else {
		b.WriteString("✘ " + title + " failed")
	}

	if len(r.Errors) > 0 {
		b.WriteString("\n\nErrors:")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "\n  ✘ [%s] %s", e.Code, e.Message)
			fmt.Fprintf(&b, "\n     Path: %s", e.Path)
			if e.Suggestion != "" {
				fmt.Fprintf(&b, "\n     Fix:  %s", e.Suggestion)
			}
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n\nWarnings:")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "\n  ! [%s] %s", w.Code, w.Message)
			fmt.Fprintf(&b, "\n     Path: %s", w.Path)
		}
	}
	return b.String()
}

// FormatBatch renders every result followed by a one-line total.
func FormatBatch(b BatchResult) string {
	parts := make([]string, 0, len(b.Results)+1)
	for _, r := range b.Results {
		parts = append(parts, Format(r))
	}
	parts = append(parts, fmt.Sprintf("%d spec(s), %d error(s), %d warning(s)", len(b.Results), b.ErrorCount(), b.WarningCount()))
	return strings.Join(parts, "\n\n")
}

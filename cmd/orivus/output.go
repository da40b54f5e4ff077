package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"orivus/internal/generator"
	"orivus/internal/registry"
	"orivus/internal/synth"
)

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func formatModule(b *strings.Builder, m *generator.ModuleResult) {
	fmt.Fprintf(b, "%s\n", m.Module)
	for _, f := range m.Files {
		line := fmt.Sprintf("  %-9s %s", f.Status, f.Path)
		if f.Status == synth.StatusConflict {
			line += " -> " + f.ConflictPath
		}
		b.WriteString(line + "\n")
	}
	for _, r := range m.Registries {
		if r.Status == registry.StatusUnchanged {
			continue
		}
		line := fmt.Sprintf("  registry  %s %s", r.Registry, r.Status)
		if len(r.Changes) > 0 {
			line += " (" + strings.Join(r.Changes, ", ") + ")"
		}
		b.WriteString(line + "\n")
	}
	for _, w := range m.Warnings {
		fmt.Fprintf(b, "  warning   %s\n", w)
	}
}

func formatModuleHuman(m *generator.ModuleResult) string {
	var b strings.Builder
	formatModule(&b, m)
	if m.SchemaSynced {
		b.WriteString("\nDatabase schema synced.\n")
	}
	fmt.Fprintf(&b, "\nSummary: %s\n", synth.Summarize(m.Files))
	if n := m.Conflicts(); n > 0 {
		fmt.Fprintf(&b, "%d file(s) were edited by hand; review the new content beside them or rerun with --force.\n", n)
	}
	return b.String()
}

func formatBatchHuman(r *generator.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generation order: %s\n", strings.Join(r.Order, " -> "))
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	var files []synth.Result
	for _, m := range r.Modules {
		b.WriteString("\n")
		formatModule(&b, m)
		files = append(files, m.Files...)
	}
	if r.SchemaSynced {
		b.WriteString("\nDatabase schema synced.\n")
	}
	fmt.Fprintf(&b, "\nSummary: %d module(s), %s\n", len(r.Modules), synth.Summarize(files))
	if n := r.Conflicts(); n > 0 {
		fmt.Fprintf(&b, "%d file(s) were edited by hand; review the new content beside them or rerun with --force.\n", n)
	}
	return b.String()
}

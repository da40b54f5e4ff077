package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"orivus/internal/generator"
	"orivus/internal/spec"
	"orivus/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [spec-dir]",
	Short: "Regenerate whenever a spec changes",
	Long: `Runs a batch generation, then watches the spec directory and runs it again
each time spec files change. Edits are debounced by watch.debounceMs. Stop
with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	addGenerateFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	dir := e.specDir(args)
	g, release := e.generator()
	defer release()

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	runs := make(chan struct{}, 1)
	regenerate := func() {
		rebuild(ctx, out, e, g, dir)
	}
	regenerate()

	w, err := watcher.New(watcher.Config{
		Debounce: time.Duration(e.cfg.Watch.DebounceMs) * time.Millisecond,
		Ignore:   e.cfg.Watch.Ignore,
		Match:    watchable,
	}, e.logger, func(events []watcher.Event) {
		for _, ev := range events {
			e.logger.Info("spec changed", "path", e.layout.Rel(ev.Path), "op", ev.Type.String())
		}
		select {
		case runs <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.AddRoot(dir); err != nil {
		return err
	}
	w.Start(ctx)
	fmt.Fprintf(out, "\nWatching %s for changes (Ctrl-C to stop)\n", e.layout.Rel(dir))

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nStopped.")
			return nil
		case <-runs:
			regenerate()
		}
	}
}

// watchable selects spec files and batch manifests.
func watchable(path string) bool {
	if spec.IsSpecFile(path) {
		return true
	}
	base := filepath.Base(path)
	for _, m := range spec.ManifestNames {
		if base == m {
			return true
		}
	}
	return false
}

// rebuild reloads and regenerates the batch. Failures are printed and the
// watch continues.
func rebuild(ctx context.Context, out io.Writer, e *env, g *generator.Generator, dir string) {
	b, err := spec.LoadBatch(dir, e.cfg.Specs.Include, e.cfg.Specs.Exclude)
	if err != nil {
		printError(out, err)
		return
	}
	res, err := g.GenerateBatch(ctx, b.Specs, genOpts)
	if err != nil {
		printError(out, err)
		return
	}
	fmt.Fprint(out, formatBatchHuman(res))
}

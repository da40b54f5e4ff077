package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orivus/internal/spec"
)

var batchCmd = &cobra.Command{
	Use:   "batch [spec-dir]",
	Short: "Generate every spec of a directory in dependency order",
	Long: `Loads the specs of a directory (in _manifest order when one exists), validates
them together, and generates each module after the modules it depends on.
Relation cycles are reported as warnings and do not stop the run. Defaults to
the configured spec directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	addGenerateFlags(batchCmd)
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	b, err := spec.LoadBatch(e.specDir(args), e.cfg.Specs.Include, e.cfg.Specs.Exclude)
	if err != nil {
		return err
	}
	g, release := e.generator()
	defer release()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := g.GenerateBatch(ctx, b.Specs, genOpts)
	out := cmd.OutOrStdout()
	if err != nil {
		printInvalid(cmd, err)
		if res != nil && len(res.Modules) > 0 {
			// Modules written before the failure.
			if jsonOutput() {
				_ = writeJSON(out, res)
			} else {
				fmt.Fprint(out, formatBatchHuman(res))
			}
		}
		return err
	}
	if jsonOutput() {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, formatBatchHuman(res))
	}
	if res.Conflicts() > 0 {
		return &exitError{code: exitConflicts}
	}
	return nil
}

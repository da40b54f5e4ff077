package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orivus/internal/kernel"
	"orivus/internal/spec"
)

var graphCmd = &cobra.Command{
	Use:   "graph [spec-dir]",
	Short: "Show the relation graph of a spec directory",
	Long: `Builds the relation graph of every spec in a directory and prints its modules,
relations, generation order and any circular dependencies.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	b, err := spec.LoadBatch(e.specDir(args), e.cfg.Specs.Include, e.cfg.Specs.Exclude)
	if err != nil {
		return err
	}
	parsed, err := spec.ParseAll(b.Specs)
	if err != nil {
		return err
	}
	g := kernel.Build(parsed)

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, g.Report())
	}
	fmt.Fprintln(out, kernel.Summarize(g))
	return nil
}

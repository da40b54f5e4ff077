package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	oerrors "orivus/internal/errors"
	"orivus/internal/generator"
	"orivus/internal/spec"
	"orivus/internal/validation"
)

var genOpts generator.Options

var generateCmd = &cobra.Command{
	Use:   "generate <spec-file>",
	Short: "Generate one module from a spec file",
	Long: `Validates the spec, renders its module and writes the files, then registers
the module in the schema, router and navigation files and syncs the database
schema.

Exit status: 0 on success, 1 on a fatal error, 2 when validation fails and
3 when files edited by hand were left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&genOpts.Force, "force", "f", false, "Overwrite files edited since generation")
	cmd.Flags().BoolVar(&genOpts.SkipSchemaSync, "skip-schema-sync", false, "Do not push the schema to the database")
	cmd.Flags().BoolVar(&genOpts.SkipRegistries, "skip-registries", false, "Write module files only")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	s, err := spec.LoadFile(args[0])
	if err != nil {
		return err
	}
	g, release := e.generator()
	defer release()

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	res, err := g.GenerateSpec(ctx, s, genOpts)
	if err != nil {
		printInvalid(cmd, err)
		if res != nil && len(res.Files) > 0 {
			if jsonOutput() {
				_ = writeJSON(out, res)
			} else {
				fmt.Fprint(out, formatModuleHuman(res))
			}
		}
		return err
	}
	if jsonOutput() {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, formatModuleHuman(res))
	}
	if res.Conflicts() > 0 {
		return &exitError{code: exitConflicts}
	}
	return nil
}

// printInvalid writes the validation report carried by a SPEC_INVALID error.
func printInvalid(cmd *cobra.Command, err error) {
	if oerrors.CodeOf(err) != oerrors.SpecInvalid {
		return
	}
	oe, ok := err.(*oerrors.OrivusError)
	if !ok {
		return
	}
	out := cmd.OutOrStdout()
	switch d := oe.Details.(type) {
	case validation.Result:
		if jsonOutput() {
			_ = writeJSON(out, d)
			return
		}
		fmt.Fprintln(out, validation.Format(d))
	case validation.BatchResult:
		if jsonOutput() {
			_ = writeJSON(out, d)
			return
		}
		fmt.Fprintln(out, validation.FormatBatch(d))
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	oerrors "orivus/internal/errors"
	"orivus/internal/spec"
	"orivus/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate [spec-file|spec-dir]",
	Short: "Validate specs without generating",
	Long: `Validates one spec file, or every spec of a directory against the whole batch.
Defaults to the configured spec directory. Exits with status 2 when any spec
has errors; warnings never fail validation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	target := e.specDir(args)
	info, err := os.Stat(target)
	if err != nil {
		return oerrors.NewOrivusError(oerrors.SpecNotFound, fmt.Sprintf("%s not found", target), err, nil)
	}

	out := cmd.OutOrStdout()
	if !info.IsDir() {
		s, err := spec.LoadFile(target)
		if err != nil {
			return err
		}
		r := validation.Validate(s)
		if jsonOutput() {
			if err := writeJSON(out, r); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out, validation.Format(r))
		}
		if !r.Valid {
			return &exitError{code: exitValidation}
		}
		return nil
	}

	b, err := spec.LoadBatch(target, e.cfg.Specs.Include, e.cfg.Specs.Exclude)
	if err != nil {
		return err
	}
	r := validation.ValidateBatch(b.Specs)
	if jsonOutput() {
		if err := writeJSON(out, r); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, validation.FormatBatch(r))
	}
	if !r.Valid {
		return &exitError{code: exitValidation}
	}
	return nil
}

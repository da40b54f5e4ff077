package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orivus/internal/syntax"
	"orivus/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version.Full())
		gate := "available"
		if !syntax.Available() {
			gate = "unavailable (built without cgo)"
		}
		fmt.Fprintf(out, "syntax check: %s\n", gate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

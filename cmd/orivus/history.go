package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	oerrors "orivus/internal/errors"
	"orivus/internal/history"
	"orivus/internal/paths"
)

var (
	historyLimit int
	historyKeep  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded generation runs",
	Long: `Lists the runs recorded in the history journal, newest first. The journal is
kept only when history.enabled is true in .orivus/config.json.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the files written by a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySnapshotCmd = &cobra.Command{
	Use:   "snapshot <run-id> <path>",
	Short: "Print the content a run rendered for a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistorySnapshot,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	historyPruneCmd.Flags().IntVar(&historyKeep, "keep", 50, "Number of runs to keep")
	historyCmd.AddCommand(historyShowCmd, historySnapshotCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func withHistory(cmd *cobra.Command, fn func(*env, *history.Store) error) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	store, err := e.openHistory()
	if err != nil {
		return oerrors.NewOrivusError(oerrors.InternalError, "cannot open run history", err, nil)
	}
	if store == nil {
		return oerrors.Newf(oerrors.ConfigInvalid, "run history is disabled; set history.enabled to true in .orivus/config.json")
	}
	defer store.Close()
	return fn(e, store)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(e *env, store *history.Store) error {
		runs, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			if runs == nil {
				runs = []history.Run{}
			}
			return writeJSON(out, runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTARTED\tCOMMAND\tSTATUS\tMODULES")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID[:8], r.StartedAt.Local().Format(time.DateTime),
				r.Command, r.Status, strings.Join(r.Modules, ","))
		}
		return tw.Flush()
	})
}

// resolveRun accepts a full run ID or a unique prefix of a recent one.
func resolveRun(cmd *cobra.Command, store *history.Store, id string) (*history.Run, error) {
	if run, err := store.Get(cmd.Context(), id); err != nil || run != nil {
		return run, err
	}
	runs, err := store.Recent(cmd.Context(), 1000)
	if err != nil {
		return nil, err
	}
	var match string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, id) {
			if match != "" {
				return nil, fmt.Errorf("run id %q is ambiguous", id)
			}
			match = r.ID
		}
	}
	if match == "" {
		return nil, fmt.Errorf("no run %q", id)
	}
	return store.Get(cmd.Context(), match)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(e *env, store *history.Store) error {
		run, err := resolveRun(cmd, store, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return writeJSON(out, run)
		}
		fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Command)
		fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
		fmt.Fprintf(out, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		fmt.Fprintf(out, "Status:   %s\n", run.Status)
		if run.Error != "" {
			fmt.Fprintf(out, "Error:    %s\n", run.Error)
		}
		if len(run.Files) > 0 {
			fmt.Fprintln(out)
		}
		for _, f := range run.Files {
			fmt.Fprintf(out, "  %-9s %s\n", f.Status, f.Path)
		}
		return nil
	})
}

func runHistorySnapshot(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(e *env, store *history.Store) error {
		run, err := resolveRun(cmd, store, args[0])
		if err != nil {
			return err
		}
		body, err := store.Snapshot(cmd.Context(), run.ID, paths.NormalizePath(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), body)
		return nil
	})
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(e *env, store *history.Store) error {
		n, err := store.Prune(cmd.Context(), historyKeep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s).\n", n)
		return nil
	})
}

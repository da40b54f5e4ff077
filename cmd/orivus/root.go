package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"orivus/internal/config"
	oerrors "orivus/internal/errors"
	"orivus/internal/generator"
	"orivus/internal/history"
	"orivus/internal/paths"
	"orivus/internal/slogutil"
	"orivus/internal/version"
)

// Process exit codes.
const (
	exitOK         = 0
	exitFatal      = 1
	exitValidation = 2
	exitConflicts  = 3
)

var (
	rootDir      string
	verbosity    int
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "orivus",
	Short: "orivus - spec-driven feature generator",
	Long: `orivus turns declarative module specs into the feature slices of a
full-stack TypeScript project: schemas, services, routers, tests, UI and pages,
registered in the project's schema, router and navigation files.

Generated files carry a fingerprint so they can be regenerated at any time;
files edited by hand are never overwritten without --force.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("orivus version {{.Version}}\n")
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootDir, "root", "", "Project root (default: current directory)")
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Silence all logging")
	pf.StringVar(&outputFormat, "format", "human", "Output format (human, json)")
}

// exitError ends the process with code. err, when set, is printed first.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

func execute() int {
	return exitCode(rootCmd.Execute(), rootCmd.ErrOrStderr())
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			printError(stderr, ee.err)
		}
		return ee.code
	}
	printError(stderr, err)
	if oerrors.CodeOf(err) == oerrors.SpecInvalid {
		return exitValidation
	}
	return exitFatal
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var oe *oerrors.OrivusError
	if errors.As(err, &oe) {
		for _, fix := range oe.SuggestedFixes {
			switch {
			case fix.Command != "":
				fmt.Fprintf(w, "  Try: %s (%s)\n", fix.Command, fix.Description)
			case fix.Description != "":
				fmt.Fprintf(w, "  Hint: %s\n", fix.Description)
			}
		}
	}
}

// env is the project a command runs against.
type env struct {
	root    string
	cfg     *config.Config
	layout  *paths.Layout
	logger  *slog.Logger
	factory *slogutil.LoggerFactory
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	root := rootDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, oerrors.NewOrivusError(oerrors.InternalError, "failed to get current directory", err, nil)
		}
		root = cwd
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, oerrors.NewOrivusError(oerrors.ConfigInvalid, "cannot load configuration", err, nil)
	}

	var level *slog.Level
	if quiet || cmd.Flags().Changed("verbose") {
		l := slogutil.LevelFromVerbosity(verbosity, quiet)
		level = &l
	}
	layout := paths.NewLayout(root, cfg.Layout)
	factory := slogutil.NewLoggerFactory(layout.LogsDir(), cfg.Logging, level)
	return &env{
		root:    root,
		cfg:     cfg,
		layout:  layout,
		logger:  factory.Logger(cmd.ErrOrStderr()),
		factory: factory,
	}, nil
}

func (e *env) close() {
	_ = e.factory.Close()
}

// openHistory opens the run journal, or returns nil when history is off.
func (e *env) openHistory() (*history.Store, error) {
	if !e.cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(e.layout.Resolve(e.cfg.History.Path), e.logger)
}

// generator builds a Generator, journaling runs when history is enabled. The
// returned func releases the journal.
func (e *env) generator() (*generator.Generator, func()) {
	var opts []generator.Option
	store, err := e.openHistory()
	if err != nil {
		e.logger.Warn("run history unavailable", "error", err.Error())
	}
	if store != nil {
		opts = append(opts, generator.WithHistory(store))
	}
	g := generator.New(e.root, e.cfg, e.logger, opts...)
	return g, func() {
		if store != nil {
			store.Close()
		}
	}
}

// specDir resolves the spec directory argument, defaulting to specs.dir.
func (e *env) specDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return e.layout.Resolve(e.cfg.Specs.Dir)
}

func jsonOutput() bool {
	return outputFormat == "json"
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"orivus/internal/config"
	oerrors "orivus/internal/errors"
	"orivus/internal/paths"
	"orivus/internal/synth"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize orivus in a project",
	Long: `Creates .orivus/config.json with the default configuration, an example spec
and any missing registry file (schema, router, navigation).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

const exampleSpec = `{
  "name": "task",
  "description": "A simple to-do list",
  "models": {
    "Task": {
      "title": { "type": "string", "description": "What needs doing" },
      "done": { "type": "boolean", "default": false },
      "dueDate": { "type": "date", "required": false }
    }
  },
  "actions": {
    "createTask": {
      "type": "create",
      "input": {
        "title": { "type": "string" },
        "dueDate": { "type": "date", "required": false }
      },
      "output": { "kind": "model", "modelName": "Task" }
    },
    "listTasks": {
      "type": "list",
      "output": { "kind": "model", "modelName": "Task", "isArray": true }
    }
  }
}
`

const schemaScaffold = `generator client {
  provider = "prisma-client-js"
}

datasource db {
  provider = "sqlite"
  url      = env("DATABASE_URL")
}
`

const routerScaffold = `import { router } from "./router";

export const appRouter = router({
});

export type AppRouter = typeof appRouter;
`

const navigationScaffold = `export const navigation = [
  { name: 'Dashboard', href: '/', icon: 'Home' },
  // ORIVUS_INJECTION_POINT
];
`

func runInit(cmd *cobra.Command, args []string) error {
	root := rootDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return oerrors.NewOrivusError(oerrors.InternalError, "failed to get current directory", err, nil)
		}
		root = cwd
	}
	out := cmd.OutOrStdout()

	if config.Exists(root) && !initForce {
		fmt.Fprintln(out, "orivus already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", filepath.Join(root, paths.StateDirName, "config.json"))
		fmt.Fprintln(out, "\nRun 'orivus init --force' to reinitialize.")
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.Project.Name = filepath.Base(root)
	if err := cfg.Save(root); err != nil {
		return oerrors.NewOrivusError(oerrors.InternalError, "failed to write config file", err, nil)
	}
	layout := paths.NewLayout(root, cfg.Layout)

	scaffold := []struct{ path, content string }{
		{layout.Resolve(cfg.Specs.Dir + "/task.spec.json"), exampleSpec},
		{layout.SchemaRegistry(), schemaScaffold},
		{layout.RouterRegistry(), routerScaffold},
		{layout.NavigationRegistry(), navigationScaffold},
	}
	for _, f := range scaffold {
		if _, err := os.Stat(f.path); err == nil {
			continue
		}
		if err := synth.WriteAtomic(f.path, f.content); err != nil {
			return oerrors.NewOrivusError(oerrors.WriteFailed, "failed to write "+layout.Rel(f.path), err, nil)
		}
		fmt.Fprintf(out, "created %s\n", layout.Rel(f.path))
	}

	fmt.Fprintln(out, "orivus initialized successfully!")
	fmt.Fprintf(out, "Configuration written to: %s\n", filepath.Join(paths.StateDirName, "config.json"))
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Run 'orivus validate %s' to check the example spec\n", cfg.Specs.Dir)
	fmt.Fprintln(out, "  2. Run 'orivus batch' to generate every spec")
	return nil
}

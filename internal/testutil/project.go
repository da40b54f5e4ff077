// Package testutil builds throwaway host projects for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orivus/internal/config"
	"orivus/internal/paths"
)

// SchemaSkeleton is the schema registry of a fresh project.
const SchemaSkeleton = `generator client {
  provider = "prisma-client-js"
}

datasource db {
  provider = "sqlite"
  url      = env("DATABASE_URL")
}
`

// RouterSkeleton is the router registry of a fresh project.
const RouterSkeleton = `import { router } from "./router";

export const appRouter = router({
});

export type AppRouter = typeof appRouter;
`

// NavigationSkeleton is the navigation registry of a fresh project.
const NavigationSkeleton = `export const navigation = [
  { name: 'Dashboard', href: '/', icon: 'Home' },
  // ORIVUS_INJECTION_POINT
];
`

// Project is a temporary host project with the default layout.
type Project struct {
	t      *testing.T
	Root   string
	Config *config.Config
	Layout *paths.Layout
}

// NewProject creates a project in t.TempDir() with all three registry files.
// Schema sync and the syntax gate are disabled so tests need neither npx
// nor cgo.
func NewProject(t *testing.T) *Project {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SchemaSync.Enabled = false
	cfg.SyntaxCheck.Enabled = false

	root := t.TempDir()
	p := &Project{t: t, Root: root, Config: cfg, Layout: paths.NewLayout(root, cfg.Layout)}
	p.WriteFile(cfg.Layout.SchemaRegistry, SchemaSkeleton)
	p.WriteFile(cfg.Layout.RouterRegistry, RouterSkeleton)
	p.WriteFile(cfg.Layout.NavigationRegistry, NavigationSkeleton)
	return p
}

// Path resolves a root-relative, slash-separated path.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// WriteFile writes content at rel, creating parent directories.
func (p *Project) WriteFile(rel, content string) string {
	p.t.Helper()
	path := p.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		p.t.Fatalf("WriteFile(%s): %v", rel, err)
	}
	return path
}

// ReadFile returns the content at rel, failing the test when absent.
func (p *Project) ReadFile(rel string) string {
	p.t.Helper()
	data, err := os.ReadFile(p.Path(rel))
	if err != nil {
		p.t.Fatalf("ReadFile(%s): %v", rel, err)
	}
	return string(data)
}

// Exists reports whether rel exists.
func (p *Project) Exists(rel string) bool {
	_, err := os.Stat(p.Path(rel))
	return err == nil
}

// Remove deletes rel.
func (p *Project) Remove(rel string) {
	p.t.Helper()
	if err := os.Remove(p.Path(rel)); err != nil {
		p.t.Fatalf("Remove(%s): %v", rel, err)
	}
}

// Snapshot reads every regular file under the project keyed by its
// slash-separated relative path.
func (p *Project) Snapshot() map[string]string {
	p.t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(p.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(p.Root, path)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		p.t.Fatalf("Snapshot: %v", err)
	}
	return out
}

// Count returns how many times sub occurs in the file at rel.
func (p *Project) Count(rel, sub string) int {
	p.t.Helper()
	return strings.Count(p.ReadFile(rel), sub)
}

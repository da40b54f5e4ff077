// Package generator runs a generation: it renders the artifacts of a module,
// gates them through the syntax checker, writes them through the synthesizer
// and then registers the module in the shared registry files.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"orivus/internal/config"
	oerrors "orivus/internal/errors"
	"orivus/internal/history"
	"orivus/internal/paths"
	"orivus/internal/registry"
	"orivus/internal/render"
	"orivus/internal/slogutil"
	"orivus/internal/spec"
	"orivus/internal/synth"
	"orivus/internal/syntax"
	"orivus/internal/validation"
)

// Options tune one run.
type Options struct {
	// Force overwrites files edited since they were generated.
	Force bool
	// SkipSchemaSync leaves the database untouched.
	SkipSchemaSync bool
	// SkipRegistries writes the module files only.
	SkipRegistries bool
}

// ModuleResult is the outcome of generating one module.
type ModuleResult struct {
	Module       string            `json:"module"`
	Files        []synth.Result    `json:"files"`
	Registries   []registry.Result `json:"registries,omitempty"`
	SchemaSynced bool              `json:"schemaSynced"`
	Warnings     []string          `json:"warnings,omitempty"`

	bodies map[string]string
}

// Conflicts counts files whose new content was written aside.
func (r *ModuleResult) Conflicts() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == synth.StatusConflict {
			n++
		}
	}
	return n
}

// SchemaSyncFunc pushes the schema registry to the database.
type SchemaSyncFunc func(ctx context.Context) error

// Generator holds the collaborators of a run. It is safe to reuse across
// runs but runs must not overlap on one project.
type Generator struct {
	cfg        *config.Config
	layout     *paths.Layout
	renderer   render.Renderer
	synth      *synth.Synthesizer
	registries *registry.Manager
	checker    *syntax.Checker
	journal    *history.Store
	schemaSync SchemaSyncFunc
	logger     *slog.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRenderer replaces the default template pack.
func WithRenderer(r render.Renderer) Option {
	return func(g *Generator) { g.renderer = r }
}

// WithHistory records every run in journal.
func WithHistory(journal *history.Store) Option {
	return func(g *Generator) { g.journal = journal }
}

// WithSchemaSync replaces the configured schema sync command.
func WithSchemaSync(fn SchemaSyncFunc) Option {
	return func(g *Generator) { g.schemaSync = fn }
}

// New builds a Generator for the project at root.
func New(root string, cfg *config.Config, logger *slog.Logger, opts ...Option) *Generator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger = slogutil.OrDiscard(logger)
	layout := paths.NewLayout(root, cfg.Layout)
	g := &Generator{
		cfg:        cfg,
		layout:     layout,
		renderer:   render.New(cfg.Layout),
		synth:      synth.New(cfg.Synth, logger),
		registries: registry.NewManager(layout, logger),
		logger:     logger.With(slogutil.ComponentKey, "generator"),
	}
	if cfg.SyntaxCheck.Enabled {
		g.checker = syntax.NewChecker()
	}
	if cfg.SchemaSync.Enabled {
		g.schemaSync = commandSync(root, cfg.SchemaSync, g.logger)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Layout is the project layout the generator writes into.
func (g *Generator) Layout() *paths.Layout { return g.layout }

// GenerateSpec validates s, refusing to generate when it has errors, then
// parses and generates it. Validation warnings are carried on the result.
func (g *Generator) GenerateSpec(ctx context.Context, s *spec.ModuleSpec, opts Options) (*ModuleResult, error) {
	vr := validation.Validate(s)
	if !vr.Valid {
		var modules []string
		if vr.Module != "" {
			modules = []string{vr.Module}
		}
		err := oerrors.Newf(oerrors.SpecInvalid, "spec %q has %d validation error(s)", vr.Module, len(vr.Errors)).WithDetails(vr)
		g.record(ctx, "generate", modules, nil, err)
		return nil, err
	}
	parsed, err := spec.Parse(s)
	if err != nil {
		g.record(ctx, "generate", []string{vr.Module}, nil, err)
		return nil, err
	}
	res, err := g.Generate(ctx, parsed, opts)
	if res != nil {
		res.Warnings = append(findingWarnings(vr), res.Warnings...)
	}
	return res, err
}

// Generate renders, writes and registers one parsed module, then syncs the
// schema when enabled.
func (g *Generator) Generate(ctx context.Context, p *spec.ParsedModuleSpec, opts Options) (*ModuleResult, error) {
	pl, err := g.plan(p)
	if err != nil {
		g.record(ctx, "generate", []string{p.ModuleName}, nil, err)
		return nil, err
	}
	res, err := g.apply(ctx, pl, opts)
	if err == nil && !opts.SkipSchemaSync {
		synced, warning := g.syncSchema(ctx)
		res.SchemaSynced = synced
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
	}
	g.record(ctx, "generate", []string{p.ModuleName}, []*ModuleResult{res}, err)
	return res, err
}

// plan is a module's rendered output, ready to be written.
type plan struct {
	parsed    *spec.ParsedModuleSpec
	artifacts []render.Artifact
	models    []string
	hasPage   bool
}

func (g *Generator) plan(p *spec.ParsedModuleSpec) (*plan, error) {
	artifacts, err := g.renderer.RenderModule(p)
	if err != nil {
		return nil, oerrors.NewOrivusError(oerrors.RenderFailed, fmt.Sprintf("cannot render module %s", p.ModuleName), err, nil)
	}
	pl := &plan{parsed: p, artifacts: artifacts}
	for _, a := range artifacts {
		if !paths.IsWithinRoot(g.layout.Resolve(a.Path), g.layout.Root) {
			return nil, oerrors.Newf(oerrors.RenderFailed, "rendered %s of module %s is outside the project root", a.Path, p.ModuleName)
		}
		if a.Kind == render.KindPage {
			pl.hasPage = true
		}
	}
	for i := range p.Models {
		block, err := g.renderer.RenderSchemaModel(&p.Models[i])
		if err != nil {
			return nil, oerrors.NewOrivusError(oerrors.RenderFailed, fmt.Sprintf("cannot render schema model %s", p.Models[i].Name), err, nil)
		}
		pl.models = append(pl.models, block)
	}
	return pl, nil
}

// apply gates, writes and registers a planned module. Nothing is written when
// the syntax gate fails; a write failure leaves earlier writes in place.
func (g *Generator) apply(ctx context.Context, pl *plan, opts Options) (*ModuleResult, error) {
	module := pl.parsed.ModuleName
	log := g.logger.With("module", module)
	log.Info("generating module", "artifacts", len(pl.artifacts))

	if err := g.checkSyntax(ctx, pl.artifacts); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.layout.ModuleDir(module), 0o755); err != nil {
		return nil, oerrors.NewOrivusError(oerrors.WriteFailed, fmt.Sprintf("cannot create module directory for %s", module), err, nil)
	}

	res := &ModuleResult{Module: module, bodies: make(map[string]string, len(pl.artifacts))}
	files, err := g.writeAll(pl.artifacts, opts)
	res.Files = files
	for _, a := range pl.artifacts {
		res.bodies[a.Path] = a.Body
	}
	if err != nil {
		return res, err
	}
	for _, f := range res.Files {
		log.Info("file "+string(f.Status), "path", f.Path)
	}

	if opts.SkipRegistries {
		return res, nil
	}
	regs, warnings, err := g.register(pl)
	res.Registries = regs
	res.Warnings = append(res.Warnings, warnings...)
	if err != nil {
		return res, err
	}
	log.Info("module generated", "summary", synth.Summarize(res.Files).String())
	return res, nil
}

func (g *Generator) checkSyntax(ctx context.Context, artifacts []render.Artifact) error {
	if g.checker == nil {
		return nil
	}
	for _, a := range artifacts {
		if _, ok := syntax.LanguageFor(a.Path); !ok {
			continue
		}
		if err := g.checker.Check(ctx, a.Path, []byte(a.Body)); err != nil {
			return oerrors.NewOrivusError(oerrors.SyntaxCheckFailed, fmt.Sprintf("rendered %s does not parse", a.Path), err, nil)
		}
	}
	return nil
}

// writeAll writes every artifact concurrently. Results keep artifact order
// with root-relative paths; the first error wins.
func (g *Generator) writeAll(artifacts []render.Artifact, opts Options) ([]synth.Result, error) {
	results := make([]synth.Result, len(artifacts))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, a := range artifacts {
		wg.Add(1)
		go func(i int, a render.Artifact) {
			defer wg.Done()
			r, err := g.synth.Write(g.layout.Resolve(a.Path), a.Body, synth.Options{Force: opts.Force})
			r.Path = a.Path
			if r.ConflictPath != "" {
				r.ConflictPath = g.layout.Rel(r.ConflictPath)
			}
			results[i] = r
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(i, a)
	}
	wg.Wait()
	return results, firstErr
}

// register updates the shared registries one after another.
func (g *Generator) register(pl *plan) ([]registry.Result, []string, error) {
	module := pl.parsed.ModuleName
	var schema []registry.Result
	for _, block := range pl.models {
		r, err := g.registries.EnsureSchemaModel(block)
		if err != nil {
			return nil, nil, err
		}
		schema = append(schema, r)
	}
	results := mergeSchemaResults(schema)

	r, err := g.registries.RegisterRouter(module)
	if err != nil {
		return results, nil, err
	}
	results = append(results, r)

	if pl.hasPage {
		r, err := g.registries.RegisterNavigation(module)
		if err != nil {
			return results, nil, err
		}
		results = append(results, r)
	}

	var warnings []string
	for _, r := range results {
		if r.Status == registry.StatusMissing {
			warnings = append(warnings, fmt.Sprintf("%s registry %s not found, %s not registered", r.Registry, r.Path, module))
		}
	}
	return results, warnings, nil
}

// mergeSchemaResults folds the per-model schema updates into one result.
func mergeSchemaResults(in []registry.Result) []registry.Result {
	if len(in) == 0 {
		return nil
	}
	merged := in[0]
	merged.Changes = append([]string(nil), merged.Changes...)
	for _, r := range in[1:] {
		merged.Changes = append(merged.Changes, r.Changes...)
		if r.Status == registry.StatusUpdated {
			merged.Status = registry.StatusUpdated
		}
	}
	return []registry.Result{merged}
}

func (g *Generator) syncSchema(ctx context.Context) (bool, string) {
	if g.schemaSync == nil {
		return false, ""
	}
	if _, err := os.Stat(g.layout.SchemaRegistry()); err != nil {
		return false, ""
	}
	if err := g.schemaSync(ctx); err != nil {
		g.logger.Warn("schema sync failed, generated source is unaffected", "error", err.Error())
		return false, "schema sync failed: " + err.Error()
	}
	return true, ""
}

func findingWarnings(r validation.Result) []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, fmt.Sprintf("%s: %s (%s)", w.Code, w.Message, w.Path))
	}
	return out
}

// record journals a run when history is enabled. Journal failures are logged
// and never fail the run.
func (g *Generator) record(ctx context.Context, command string, modules []string, results []*ModuleResult, runErr error) {
	if g.journal == nil {
		return
	}
	run := history.NewRun(command)
	run.Modules = modules
	conflicts := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		conflicts += res.Conflicts()
		for _, f := range res.Files {
			run.Files = append(run.Files, history.File{
				Module:      res.Module,
				Path:        f.Path,
				Status:      string(f.Status),
				Fingerprint: f.Fingerprint,
				Body:        res.bodies[f.Path],
			})
		}
	}
	sort.SliceStable(run.Files, func(i, j int) bool { return run.Files[i].Path < run.Files[j].Path })
	status := history.RunSucceeded
	switch {
	case runErr != nil:
		status = history.RunFailed
	case conflicts > 0:
		status = history.RunConflicts
	}
	run.Finish(status, runErr)
	if err := g.journal.Record(context.WithoutCancel(ctx), run); err != nil {
		g.logger.Warn("failed to record run history", "error", err.Error(), "path", filepath.Base(g.journal.Path()))
	}
}

package generator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	oerrors "orivus/internal/errors"
	"orivus/internal/kernel"
	"orivus/internal/spec"
	"orivus/internal/validation"
)

// BatchResult is the outcome of a batch run.
type BatchResult struct {
	Validation   validation.BatchResult `json:"validation"`
	Order        []string               `json:"order"`
	Cycles       [][]string             `json:"cycles,omitempty"`
	Modules      []*ModuleResult        `json:"modules"`
	SchemaSynced bool                   `json:"schemaSynced"`
	Warnings     []string               `json:"warnings,omitempty"`
}

// Conflicts counts conflicting files across all modules.
func (b *BatchResult) Conflicts() int {
	n := 0
	for _, m := range b.Modules {
		n += m.Conflicts()
	}
	return n
}

// GenerateBatch validates every spec against the whole batch, refuses to
// generate when any has errors, and otherwise generates the modules in
// dependency order. Relation cycles are reported and do not stop the run.
// The schema is synced once after the last module.
func (g *Generator) GenerateBatch(ctx context.Context, specs []*spec.ModuleSpec, opts Options) (*BatchResult, error) {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}

	res := &BatchResult{Validation: validation.ValidateBatch(specs)}
	if n := res.Validation.ErrorCount(); n > 0 {
		err := oerrors.Newf(oerrors.SpecInvalid, "batch has %d validation error(s)", n).WithDetails(res.Validation)
		g.record(ctx, "batch", names, nil, err)
		return res, err
	}

	parsed, err := spec.ParseAll(specs)
	if err != nil {
		g.record(ctx, "batch", names, nil, err)
		return res, err
	}

	graph := kernel.Build(parsed)
	res.Cycles = graph.DetectCircularDependencies()
	for _, c := range res.Cycles {
		msg := "circular dependency: " + strings.Join(c, " -> ")
		g.logger.Warn("circular dependency, generation order is best effort", "cycle", strings.Join(c, " -> "))
		res.Warnings = append(res.Warnings, msg)
	}
	res.Order = graph.GetGenerationOrder()

	byName := make(map[string]*spec.ParsedModuleSpec, len(parsed))
	for _, p := range parsed {
		byName[strings.ToLower(p.ModuleName)] = p
	}
	ordered := make([]*spec.ParsedModuleSpec, 0, len(res.Order))
	for _, name := range res.Order {
		if p, ok := byName[strings.ToLower(name)]; ok {
			ordered = append(ordered, p)
		}
	}

	plans, err := g.planAll(ordered)
	if err != nil {
		g.record(ctx, "batch", names, nil, err)
		return res, err
	}

	findings := make(map[string]validation.Result, len(res.Validation.Results))
	for _, r := range res.Validation.Results {
		findings[r.Module] = r
	}
	for _, pl := range plans {
		if err := ctx.Err(); err != nil {
			g.record(ctx, "batch", names, res.Modules, err)
			return res, err
		}
		m, err := g.apply(ctx, pl, opts)
		if m != nil {
			m.Warnings = append(findingWarnings(findings[pl.parsed.ModuleName]), m.Warnings...)
			res.Modules = append(res.Modules, m)
		}
		if err != nil {
			err = fmt.Errorf("module %s: %w", pl.parsed.ModuleName, err)
			g.record(ctx, "batch", names, res.Modules, err)
			return res, err
		}
	}

	if !opts.SkipSchemaSync {
		synced, warning := g.syncSchema(ctx)
		res.SchemaSynced = synced
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
	}
	g.record(ctx, "batch", names, res.Modules, nil)
	return res, nil
}

// planAll renders every module concurrently. Plans keep the input order.
func (g *Generator) planAll(parsed []*spec.ParsedModuleSpec) ([]*plan, error) {
	plans := make([]*plan, len(parsed))
	errs := make([]error, len(parsed))
	var wg sync.WaitGroup
	for i, p := range parsed {
		wg.Add(1)
		go func(i int, p *spec.ParsedModuleSpec) {
			defer wg.Done()
			plans[i], errs[i] = g.plan(p)
		}(i, p)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return plans, nil
}

package generator

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orivus/internal/config"
	oerrors "orivus/internal/errors"
	"orivus/internal/history"
	"orivus/internal/registry"
	"orivus/internal/render"
	"orivus/internal/spec"
	"orivus/internal/synth"
	"orivus/internal/testutil"
)

const userSpec = `{
  "name": "user",
  "models": {
    "User": {
      "email": { "type": "string" },
      "name": { "type": "string" }
    }
  },
  "actions": {
    "createUser": {
      "type": "create",
      "input": { "email": { "type": "string" }, "name": { "type": "string" } },
      "output": { "kind": "model", "modelName": "User" }
    },
    "listUsers": {
      "type": "list",
      "output": { "kind": "model", "modelName": "User", "isArray": true }
    }
  }
}`

var userFiles = []string{
	"src/domain/user/user.schema.ts",
	"src/domain/user/user.service.ts",
	"src/domain/user/user.router.ts",
	"src/domain/user/user.test.ts",
	"src/domain/user/ui/UserList.tsx",
	"src/domain/user/ui/CreateUserForm.tsx",
	"src/domain/user/ui/index.ts",
	"src/app/users/page.tsx",
}

func decode(t *testing.T, doc string) *spec.ModuleSpec {
	t.Helper()
	s, err := spec.Decode([]byte(doc), spec.FormatJSON)
	require.NoError(t, err)
	return s
}

func newGenerator(p *testutil.Project, opts ...Option) *Generator {
	return New(p.Root, p.Config, nil, opts...)
}

func filePaths(files []synth.Result) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func statuses(files []synth.Result) map[synth.Status]int {
	out := make(map[synth.Status]int)
	for _, f := range files {
		out[f.Status]++
	}
	return out
}

func registryResult(t *testing.T, res *ModuleResult, kind registry.Kind) registry.Result {
	t.Helper()
	for _, r := range res.Registries {
		if r.Registry == kind {
			return r
		}
	}
	t.Fatalf("no %s registry result in %+v", kind, res.Registries)
	return registry.Result{}
}

func TestGenerateSpec_FreshProject(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	res, err := g.GenerateSpec(context.Background(), decode(t, userSpec), Options{})
	require.NoError(t, err)

	assert.Equal(t, "user", res.Module)
	assert.Equal(t, userFiles, filePaths(res.Files))
	assert.Equal(t, map[synth.Status]int{synth.StatusCreated: len(userFiles)}, statuses(res.Files))
	for _, f := range userFiles {
		assert.True(t, p.Exists(f), f)
	}
	assert.True(t, strings.HasPrefix(p.ReadFile("src/domain/user/user.service.ts"), synth.HeaderPrefix))

	schema := registryResult(t, res, registry.KindSchema)
	assert.Equal(t, registry.StatusUpdated, schema.Status)
	assert.Equal(t, []string{"model User"}, schema.Changes)
	assert.Equal(t, registry.StatusUpdated, registryResult(t, res, registry.KindRouter).Status)
	assert.Equal(t, registry.StatusUpdated, registryResult(t, res, registry.KindNavigation).Status)

	assert.Contains(t, p.ReadFile("prisma/schema.prisma"), "model User {")
	assert.Contains(t, p.ReadFile("src/server/trpc/index.ts"), "user: userRouter,")
	assert.Contains(t, p.ReadFile("src/config/navigation.ts"), "href: '/users'")
	assert.False(t, res.SchemaSynced)
	assert.Zero(t, res.Conflicts())
}

func TestGenerateSpec_Idempotent(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)
	ctx := context.Background()

	_, err := g.GenerateSpec(ctx, decode(t, userSpec), Options{})
	require.NoError(t, err)
	before := p.Snapshot()

	res, err := g.GenerateSpec(ctx, decode(t, userSpec), Options{})
	require.NoError(t, err)

	assert.Equal(t, map[synth.Status]int{synth.StatusSkipped: len(userFiles)}, statuses(res.Files))
	for _, r := range res.Registries {
		assert.Equal(t, registry.StatusUnchanged, r.Status, r.Registry)
	}
	assert.Equal(t, before, p.Snapshot())
}

func TestGenerateSpec_ConflictAndForce(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)
	ctx := context.Background()

	_, err := g.GenerateSpec(ctx, decode(t, userSpec), Options{})
	require.NoError(t, err)

	const service = "src/domain/user/user.service.ts"
	edited := p.ReadFile(service) + "// hand-written helper\n"
	p.WriteFile(service, edited)

	res, err := g.GenerateSpec(ctx, decode(t, userSpec), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conflicts())
	for _, f := range res.Files {
		if f.Path == service {
			assert.Equal(t, synth.StatusConflict, f.Status)
			assert.Equal(t, service+".orivus-new", f.ConflictPath)
		}
	}
	assert.Equal(t, edited, p.ReadFile(service))
	assert.True(t, p.Exists(service+".orivus-new"))

	res, err = g.GenerateSpec(ctx, decode(t, userSpec), Options{Force: true})
	require.NoError(t, err)
	assert.Zero(t, res.Conflicts())
	assert.NotContains(t, p.ReadFile(service), "hand-written helper")
}

func TestGenerateSpec_InvalidIsRefused(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	bad := strings.Replace(userSpec, `"modelName": "User" }`, `"modelName": "Account" }`, 1)
	res, err := g.GenerateSpec(context.Background(), decode(t, bad), Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, oerrors.SpecInvalid, oerrors.CodeOf(err))
	assert.False(t, p.Exists("src/domain/user"))
	assert.Equal(t, testutil.SchemaSkeleton, p.ReadFile("prisma/schema.prisma"))
}

func TestGenerateSpec_NilSpec(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	res, err := g.GenerateSpec(context.Background(), nil, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, oerrors.SpecInvalid, oerrors.CodeOf(err))
}

type escapingRenderer struct {
	render.Renderer
}

func (e escapingRenderer) RenderModule(p *spec.ParsedModuleSpec) ([]render.Artifact, error) {
	artifacts, err := e.Renderer.RenderModule(p)
	if err != nil {
		return nil, err
	}
	artifacts[len(artifacts)-1].Path = "../outside/page.tsx"
	return artifacts, nil
}

func TestGenerate_ArtifactOutsideRootIsRefused(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p, WithRenderer(escapingRenderer{render.New(p.Config.Layout)}))

	res, err := g.GenerateSpec(context.Background(), decode(t, userSpec), Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, oerrors.RenderFailed, oerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "../outside/page.tsx")
	assert.False(t, p.Exists("src/domain/user"))
}

func TestGenerateSpec_WarningsCarried(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	doc := strings.Replace(userSpec, `"name": { "type": "string" }
    }`, `"name": { "type": "string" },
      "createdAt": { "type": "date" }
    }`, 1)
	res, err := g.GenerateSpec(context.Background(), decode(t, doc), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "RESERVED_FIELD_NAME")
}

func TestGenerate_SkipRegistries(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	res, err := g.GenerateSpec(context.Background(), decode(t, userSpec), Options{SkipRegistries: true})
	require.NoError(t, err)
	assert.Empty(t, res.Registries)
	assert.Equal(t, testutil.SchemaSkeleton, p.ReadFile("prisma/schema.prisma"))
	assert.Equal(t, testutil.RouterSkeleton, p.ReadFile("src/server/trpc/index.ts"))
	assert.Equal(t, testutil.NavigationSkeleton, p.ReadFile("src/config/navigation.ts"))
}

func TestGenerate_MissingRegistryWarns(t *testing.T) {
	p := testutil.NewProject(t)
	p.Remove("src/config/navigation.ts")
	g := newGenerator(p)

	res, err := g.GenerateSpec(context.Background(), decode(t, userSpec), Options{})
	require.NoError(t, err)
	assert.Equal(t, registry.StatusMissing, registryResult(t, res, registry.KindNavigation).Status)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "navigation registry src/config/navigation.ts not found")
	assert.False(t, p.Exists("src/config/navigation.ts"))
}

func TestGenerate_MalformedRegistryFails(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteFile("src/server/trpc/index.ts", "export const appRouter = {};\n")
	g := newGenerator(p)

	res, err := g.GenerateSpec(context.Background(), decode(t, userSpec), Options{})
	require.Error(t, err)
	assert.Equal(t, oerrors.RegistryMalformed, oerrors.CodeOf(err))
	require.NotNil(t, res)
	assert.Len(t, res.Files, len(userFiles))
}

func TestGenerate_NoUIWithoutNavigation(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	doc := strings.Replace(userSpec, `"name": "user",`, `"name": "user", "skipUI": true,`, 1)
	res, err := g.GenerateSpec(context.Background(), decode(t, doc), Options{})
	require.NoError(t, err)
	assert.Len(t, res.Files, 4)
	for _, r := range res.Registries {
		assert.NotEqual(t, registry.KindNavigation, r.Registry)
	}
	assert.Equal(t, testutil.NavigationSkeleton, p.ReadFile("src/config/navigation.ts"))
}

func TestGenerate_SchemaSync(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := testutil.NewProject(t)
		calls := 0
		g := newGenerator(p, WithSchemaSync(func(context.Context) error {
			calls++
			return nil
		}))
		res, err := g.GenerateSpec(context.Background(), decode(t, userSpec), Options{})
		require.NoError(t, err)
		assert.True(t, res.SchemaSynced)
		assert.Equal(t, 1, calls)
	})

	t.Run("failure is a warning", func(t *testing.T) {
		p := testutil.NewProject(t)
		g := newGenerator(p, WithSchemaSync(func(context.Context) error {
			return errors.New("database unreachable")
		}))
		res, err := g.GenerateSpec(context.Background(), decode(t, userSpec), Options{})
		require.NoError(t, err)
		assert.False(t, res.SchemaSynced)
		assert.Contains(t, res.Warnings, "schema sync failed: database unreachable")
	})

	t.Run("skipped", func(t *testing.T) {
		p := testutil.NewProject(t)
		g := newGenerator(p, WithSchemaSync(func(context.Context) error {
			t.Fatal("schema sync must not run")
			return nil
		}))
		_, err := g.GenerateSpec(context.Background(), decode(t, userSpec), Options{SkipSchemaSync: true})
		require.NoError(t, err)
	})
}

func configSync(command string, timeout int) config.SchemaSyncConfig {
	return config.SchemaSyncConfig{Enabled: true, Command: command, TimeoutSeconds: timeout}
}

func TestCommandSync(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	if _, err := exec.LookPath("true"); err == nil {
		assert.NoError(t, commandSync(root, configSync("true", 30), nil)(ctx))
	}
	if _, err := exec.LookPath("false"); err == nil {
		assert.Error(t, commandSync(root, configSync("false", 30), nil)(ctx))
	}

	missing := commandSync(root, configSync("orivus-no-such-binary push", 5), nil)
	assert.Error(t, missing(ctx))

	empty := commandSync(root, configSync("  ", 5), nil)
	assert.EqualError(t, empty(ctx), "no schema sync command configured")
}

func TestGenerate_RecordsHistory(t *testing.T) {
	p := testutil.NewProject(t)
	store, err := history.Open(p.Path(".orivus/history.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	g := newGenerator(p, WithHistory(store))
	ctx := context.Background()
	_, err = g.GenerateSpec(ctx, decode(t, userSpec), Options{})
	require.NoError(t, err)

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "generate", runs[0].Command)
	assert.Equal(t, history.RunSucceeded, runs[0].Status)
	assert.Equal(t, []string{"user"}, runs[0].Modules)

	files, err := store.Files(ctx, runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, files, len(userFiles))

	snap, err := store.Snapshot(ctx, runs[0].ID, "src/domain/user/user.router.ts")
	require.NoError(t, err)
	assert.Contains(t, snap, "export const userRouter = router({")
}

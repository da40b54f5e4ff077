package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "orivus/internal/errors"
	"orivus/internal/history"
	"orivus/internal/spec"
	"orivus/internal/synth"
	"orivus/internal/testutil"
)

func loadBlog(t *testing.T) []*spec.ModuleSpec {
	t.Helper()
	b, err := spec.LoadBatch("../spec/testdata/blog", nil, nil)
	require.NoError(t, err)
	return b.Specs
}

func TestGenerateBatch_Blog(t *testing.T) {
	p := testutil.NewProject(t)
	syncs := 0
	g := newGenerator(p, WithSchemaSync(func(context.Context) error {
		syncs++
		return nil
	}))

	res, err := g.GenerateBatch(context.Background(), loadBlog(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"user", "post", "comment"}, res.Order)
	assert.Empty(t, res.Cycles)
	require.Len(t, res.Modules, 3)
	for i, name := range res.Order {
		assert.Equal(t, name, res.Modules[i].Module)
	}
	assert.True(t, res.SchemaSynced)
	assert.Equal(t, 1, syncs)

	schema := p.ReadFile("prisma/schema.prisma")
	assert.Less(t, strings.Index(schema, "model User {"), strings.Index(schema, "model Post {"))
	assert.Less(t, strings.Index(schema, "model Post {"), strings.Index(schema, "model Comment {"))
	assert.Contains(t, schema, "author User @relation(fields: [authorId], references: [id])")
	assert.Contains(t, schema, "posts Post[]")
	assert.Contains(t, schema, "comments Comment[]")

	router := p.ReadFile("src/server/trpc/index.ts")
	for _, key := range []string{"user: userRouter,", "post: postRouter,", "comment: commentRouter,"} {
		assert.Contains(t, router, key)
	}
	assert.Equal(t, 1, p.Count("src/config/navigation.ts", "href: '/comments'"))
}

func TestGenerateBatch_Rerun(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)
	ctx := context.Background()

	_, err := g.GenerateBatch(ctx, loadBlog(t), Options{})
	require.NoError(t, err)
	before := p.Snapshot()

	res, err := g.GenerateBatch(ctx, loadBlog(t), Options{})
	require.NoError(t, err)
	for _, m := range res.Modules {
		for _, f := range m.Files {
			assert.Equal(t, synth.StatusSkipped, f.Status, f.Path)
		}
	}
	assert.Equal(t, before, p.Snapshot())
}

func TestGenerateBatch_InvalidIsRefused(t *testing.T) {
	p := testutil.NewProject(t)
	store, err := history.Open(p.Path(".orivus/history.db"), nil)
	require.NoError(t, err)
	defer store.Close()
	g := newGenerator(p, WithHistory(store))

	specs := loadBlog(t)
	specs[0].Name = "Comment"

	res, err := g.GenerateBatch(context.Background(), specs, Options{})
	require.Error(t, err)
	assert.Equal(t, oerrors.SpecInvalid, oerrors.CodeOf(err))
	require.NotNil(t, res)
	assert.False(t, res.Validation.Valid)
	assert.Empty(t, res.Modules)
	assert.False(t, p.Exists("src/domain"))

	runs, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.RunFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "SPEC_INVALID")
}

func TestGenerateBatch_DuplicateModuleNameIsRefused(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	specs := loadBlog(t)
	specs[1].Name = specs[0].Name

	res, err := g.GenerateBatch(context.Background(), specs, Options{})
	require.Error(t, err)
	assert.Equal(t, oerrors.SpecInvalid, oerrors.CodeOf(err))
	require.NotNil(t, res)
	assert.Empty(t, res.Modules)
	assert.False(t, p.Exists("src/domain"))

	var found bool
	for _, r := range res.Validation.Results {
		if r.HasCode("DUPLICATE_MODULE_NAME") {
			found = true
		}
	}
	assert.True(t, found, "the repeated module name is reported")
}

const alphaSpec = `{
  "name": "alpha",
  "models": {
    "Alpha": {
      "label": { "type": "string" },
      "beta": { "type": "relation", "target": "Beta", "relationType": "belongsTo", "required": false }
    }
  },
  "actions": {
    "listAlphas": { "output": { "kind": "model", "modelName": "Alpha", "isArray": true } }
  }
}`

const betaSpec = `{
  "name": "beta",
  "models": {
    "Beta": {
      "label": { "type": "string" },
      "alpha": { "type": "relation", "target": "Alpha", "relationType": "belongsTo", "required": false }
    }
  },
  "actions": {
    "listBetas": { "output": { "kind": "model", "modelName": "Beta", "isArray": true } }
  }
}`

func TestGenerateBatch_CycleStillGenerates(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	res, err := g.GenerateBatch(context.Background(), []*spec.ModuleSpec{decode(t, alphaSpec), decode(t, betaSpec)}, Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Cycles)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "circular dependency")
	assert.ElementsMatch(t, []string{"alpha", "beta"}, res.Order)
	require.Len(t, res.Modules, 2)

	schema := p.ReadFile("prisma/schema.prisma")
	assert.Contains(t, schema, "model Alpha {")
	assert.Contains(t, schema, "model Beta {")
	assert.Contains(t, schema, "alphas Alpha[]")
	assert.Contains(t, schema, "betas Beta[]")

	// list only: page without a form
	assert.True(t, p.Exists("src/app/alphas/page.tsx"))
	assert.False(t, p.Exists("src/domain/alpha/ui/CreateAlphaForm.tsx"))
}

func TestGenerateBatch_CancelledContext(t *testing.T) {
	p := testutil.NewProject(t)
	g := newGenerator(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := g.GenerateBatch(ctx, loadBlog(t), Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Modules)
}

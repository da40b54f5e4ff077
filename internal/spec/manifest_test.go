package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "orivus/internal/errors"
)

var defaultInclude = []string{"**/*.spec.json", "**/*.spec.yaml", "**/*.spec.yml", "**/*.spec.toml"}

func TestLoadBatch_ManifestOrder(t *testing.T) {
	b, err := LoadBatch(filepath.Join("testdata", "blog"), defaultInclude, nil)
	require.NoError(t, err)

	require.NotNil(t, b.Manifest)
	assert.Equal(t, "blog", b.Manifest.Name)
	require.Len(t, b.Specs, 3)
	assert.Equal(t, "comment", b.Specs[0].Name)
	assert.Equal(t, "post", b.Specs[1].Name)
	assert.Equal(t, "user", b.Specs[2].Name)
	assert.Equal(t, filepath.Join("testdata", "blog", "user.toml"), b.Specs[2].Source)

	user := b.Specs[2]
	assert.Equal(t, []string{"email", "name", "age"}, fieldNames(user.Models[0].Fields))
	assert.Equal(t, []string{"createUser", "listUsers"}, actionNames(user.Actions))
	assert.Equal(t, []string{"email", "name"}, fieldNames(user.Actions[0].Input))

	parsed, err := ParseAll(b.Specs)
	require.NoError(t, err)
	assert.Len(t, parsed, 3)
}

func TestLoadBatch_Discovery(t *testing.T) {
	b, err := LoadBatch(filepath.Join("testdata", "mixed"), defaultInclude, []string{"**/_*/**"})
	require.NoError(t, err)

	assert.Nil(t, b.Manifest)
	require.Len(t, b.Specs, 2)
	assert.Equal(t, "customer", b.Specs[0].Name)
	assert.Equal(t, "invoice", b.Specs[1].Name)
}

func TestDiscover(t *testing.T) {
	files, err := Discover(filepath.Join("testdata", "mixed"), defaultInclude, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"_drafts/old.spec.json", "customer.spec.yaml", "invoice.spec.json"}, files)

	files, err = Discover(filepath.Join("testdata", "mixed"), defaultInclude, []string{"**/_*/**", "invoice*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"customer.spec.yaml"}, files)

	_, err = Discover(filepath.Join("testdata", "mixed"), []string{"[broken"}, nil)
	assert.Error(t, err)
}

func TestLoadManifest_Formats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"_manifest.yaml", "name: crm\nexecutionOrder:\n  - a.json\n  - b.json\n"},
		{"_manifest.toml", "name = \"crm\"\nexecutionOrder = [\"a.json\", \"b.json\"]\n"},
		{"_manifest.json", `{"name":"crm","executionOrder":["a.json","b.json"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0o644))

			m, err := LoadManifest(dir)
			require.NoError(t, err)
			require.NotNil(t, m)
			assert.Equal(t, "crm", m.Name)
			assert.Equal(t, []string{"a.json", "b.json"}, m.ExecutionOrder)
			assert.Equal(t, filepath.Join(dir, tt.file), m.Path)
		})
	}
}

func TestLoadManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"name":`},
		{"empty order", `{"name":"x","executionOrder":[]}`},
		{"duplicate", `{"name":"x","executionOrder":["a.json","a.json"]}`},
		{"absolute", `{"name":"x","executionOrder":["/etc/a.json"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "_manifest.json"), []byte(tt.content), 0o644))

			_, err := LoadManifest(dir)
			require.Error(t, err)
			assert.Equal(t, oerrors.ManifestInvalid, oerrors.CodeOf(err))
		})
	}
}

func TestLoadManifest_None(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadBatch_MissingListedSpec(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_manifest.json"), []byte(`{"name":"x","executionOrder":["ghost.json"]}`), 0o644))

	_, err := LoadBatch(dir, defaultInclude, nil)
	require.Error(t, err)
	assert.Equal(t, oerrors.ManifestInvalid, oerrors.CodeOf(err))
}

func TestLoadBatch_Errors(t *testing.T) {
	_, err := LoadBatch(filepath.Join(t.TempDir(), "nope"), defaultInclude, nil)
	assert.Equal(t, oerrors.SpecNotFound, oerrors.CodeOf(err))

	_, err = LoadBatch(t.TempDir(), defaultInclude, nil)
	assert.Equal(t, oerrors.SpecNotFound, oerrors.CodeOf(err), "empty directory")
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "user.json"))
	assert.Equal(t, oerrors.SpecNotFound, oerrors.CodeOf(err))

	dir := t.TempDir()
	path := filepath.Join(dir, "user.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": `), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Equal(t, oerrors.SpecSyntax, oerrors.CodeOf(err))
}

func TestIsSpecFile(t *testing.T) {
	assert.True(t, IsSpecFile("specs/user.json"))
	assert.True(t, IsSpecFile("specs/user.spec.toml"))
	assert.False(t, IsSpecFile("specs/_manifest.json"))
	assert.False(t, IsSpecFile("specs/README.md"))
}

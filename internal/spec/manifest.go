package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	oerrors "orivus/internal/errors"
)

// ManifestNames are probed in order inside a batch directory.
var ManifestNames = []string{"_manifest.json", "_manifest.yaml", "_manifest.yml", "_manifest.toml"}

// Manifest names a collection of specs and the order they should be loaded in.
type Manifest struct {
	Name           string   `json:"name" yaml:"name" toml:"name"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	ExecutionOrder []string `json:"executionOrder" yaml:"executionOrder" toml:"executionOrder"`

	// Path is the manifest file itself.
	Path string `json:"-" yaml:"-" toml:"-"`
}

// LoadManifest reads the first manifest found in dir. It returns nil, nil
// when dir has none.
func LoadManifest(dir string) (*Manifest, error) {
	for _, name := range ManifestNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, oerrors.NewOrivusError(oerrors.ManifestInvalid, fmt.Sprintf("cannot read %s", path), err, nil)
		}

		var m Manifest
		switch filepath.Ext(name) {
		case ".json":
			err = json.Unmarshal(data, &m)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &m)
		case ".toml":
			err = toml.Unmarshal(data, &m)
		}
		if err != nil {
			return nil, oerrors.NewOrivusError(oerrors.ManifestInvalid, fmt.Sprintf("cannot decode %s", path), err, nil)
		}
		if len(m.ExecutionOrder) == 0 {
			return nil, oerrors.NewOrivusError(oerrors.ManifestInvalid, fmt.Sprintf("%s lists no specs under executionOrder", path), nil, nil)
		}
		seen := make(map[string]bool, len(m.ExecutionOrder))
		for _, entry := range m.ExecutionOrder {
			if filepath.IsAbs(entry) {
				return nil, oerrors.NewOrivusError(oerrors.ManifestInvalid, fmt.Sprintf("%s: entry %q must be relative", path, entry), nil, nil)
			}
			if seen[entry] {
				return nil, oerrors.NewOrivusError(oerrors.ManifestInvalid, fmt.Sprintf("%s: entry %q listed twice", path, entry), nil, nil)
			}
			seen[entry] = true
		}
		m.Path = path
		return &m, nil
	}
	return nil, nil
}

// Discover returns the files under dir matching any include glob and no
// exclude glob, as dir-relative slash paths in lexical order.
func Discover(dir string, include, exclude []string) ([]string, error) {
	fsys := os.DirFS(dir)
	set := make(map[string]bool)
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			set[m] = true
		}
	}

	files := make([]string, 0, len(set))
	for m := range set {
		excluded, err := matchAny(exclude, m)
		if err != nil {
			return nil, err
		}
		if !excluded {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func matchAny(patterns []string, path string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, path)
		if err != nil {
			return false, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Batch is a set of specs loaded from one directory.
type Batch struct {
	Dir      string
	Manifest *Manifest
	Files    []string
	Specs    []*ModuleSpec
}

// LoadBatch loads every spec of dir: in manifest order when a manifest
// exists, otherwise in discovery order.
func LoadBatch(dir string, include, exclude []string) (*Batch, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.NewOrivusError(oerrors.SpecNotFound, fmt.Sprintf("spec directory %s not found", dir), nil, nil)
		}
		return nil, oerrors.NewOrivusError(oerrors.SpecNotFound, dir, err, nil)
	}
	if !info.IsDir() {
		return nil, oerrors.NewOrivusError(oerrors.SpecNotFound, fmt.Sprintf("%s is not a directory", dir), nil, nil)
	}

	b := &Batch{Dir: dir}
	if b.Manifest, err = LoadManifest(dir); err != nil {
		return nil, err
	}

	var rel []string
	if b.Manifest != nil {
		rel = b.Manifest.ExecutionOrder
	} else {
		if rel, err = Discover(dir, include, exclude); err != nil {
			return nil, err
		}
	}
	if len(rel) == 0 {
		return nil, oerrors.NewOrivusError(oerrors.SpecNotFound, fmt.Sprintf("no spec files found in %s", dir), nil, nil)
	}

	for _, r := range rel {
		path := filepath.Join(dir, filepath.FromSlash(r))
		s, err := LoadFile(path)
		if err != nil {
			if b.Manifest != nil && oerrors.HasCode(err, oerrors.SpecNotFound) {
				return nil, oerrors.NewOrivusError(oerrors.ManifestInvalid,
					fmt.Sprintf("%s lists %s, which does not exist", b.Manifest.Path, r), err, nil)
			}
			return nil, err
		}
		b.Files = append(b.Files, path)
		b.Specs = append(b.Specs, s)
	}
	return b, nil
}

// IsSpecFile reports whether path has a spec extension and is not a manifest.
func IsSpecFile(path string) bool {
	if _, err := FormatFromPath(path); err != nil {
		return false
	}
	base := filepath.Base(path)
	for _, m := range ManifestNames {
		if base == m {
			return false
		}
	}
	return true
}

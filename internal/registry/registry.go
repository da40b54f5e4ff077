// Package registry edits the shared files every generated module registers
// itself in: the database schema, the API router and the navigation config.
// Each file is parsed into blocks or entries, changed, and written back only
// when something was added, so repeated runs leave it byte-identical.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	oerrors "orivus/internal/errors"
	"orivus/internal/naming"
	"orivus/internal/paths"
	"orivus/internal/slogutil"
	"orivus/internal/synth"
)

// Kind names a registry.
type Kind string

const (
	KindSchema     Kind = "schema"
	KindRouter     Kind = "router"
	KindNavigation Kind = "navigation"
)

// Status is the outcome of one registry update.
type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusUpdated   Status = "updated"
	StatusMissing   Status = "missing"
)

// Result describes one registry update.
type Result struct {
	Registry Kind     `json:"registry"`
	Path     string   `json:"path"`
	Status   Status   `json:"status"`
	Changes  []string `json:"changes,omitempty"`
}

// Manager applies registry updates for a project layout.
type Manager struct {
	mu     sync.Mutex
	layout *paths.Layout
	logger *slog.Logger
}

// NewManager returns a Manager for layout.
func NewManager(layout *paths.Layout, logger *slog.Logger) *Manager {
	return &Manager{
		layout: layout,
		logger: slogutil.OrDiscard(logger).With(slogutil.ComponentKey, "registry"),
	}
}

// Route is the page route of a module, e.g. "/blog-posts" for blogPost.
func Route(module string) string {
	return "/" + paths.RouteSegment(module)
}

// EnsureSchemaModel adds a model block to the schema registry and links the
// inverse side of its relations.
func (m *Manager) EnsureSchemaModel(block string) (Result, error) {
	return m.update(KindSchema, m.layout.SchemaRegistry(), func(content string) (string, []string, error) {
		s, err := ParseSchema(content)
		if err != nil {
			return "", nil, err
		}
		changes, err := s.EnsureModel(block)
		if err != nil {
			return "", nil, err
		}
		return s.String(), changes, nil
	})
}

// RegisterRouter mounts the router of module in the application router.
func (m *Manager) RegisterRouter(module string) (Result, error) {
	path := m.layout.RouterRegistry()
	entry := RouterEntry{
		Key:        module,
		Symbol:     module + "Router",
		ImportPath: paths.ImportPath(filepath.Dir(path), filepath.Join(m.layout.ModuleDir(module), module+".router.ts")),
	}
	return m.update(KindRouter, path, func(content string) (string, []string, error) {
		f, err := ParseRouter(content)
		if err != nil {
			return "", nil, err
		}
		changes, err := f.Register(entry)
		if err != nil {
			return "", nil, err
		}
		return f.String(), changes, nil
	})
}

// RegisterNavigation adds the sidebar entry of module.
func (m *Manager) RegisterNavigation(module string) (Result, error) {
	item := NavItem{Name: naming.Label(naming.Plural(module)), Href: Route(module), Icon: "Folder"}
	return m.update(KindNavigation, m.layout.NavigationRegistry(), func(content string) (string, []string, error) {
		f, err := ParseNavigation(content)
		if err != nil {
			return "", nil, err
		}
		if !f.Register(item) {
			return content, nil, nil
		}
		return f.String(), []string{"entry " + item.Href}, nil
	})
}

type editFunc func(content string) (string, []string, error)

func (m *Manager) update(kind Kind, path string, edit editFunc) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := Result{Registry: kind, Path: m.layout.Rel(path)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		res.Status = StatusMissing
		m.logger.Warn("registry file not found, skipping", "registry", string(kind), "path", res.Path)
		return res, nil
	}
	if err != nil {
		return res, oerrors.NewOrivusError(oerrors.RegistryFailed, fmt.Sprintf("cannot read %s registry %s", kind, res.Path), err, nil)
	}

	updated, changes, err := edit(string(data))
	if err != nil {
		return res, oerrors.NewOrivusError(oerrors.RegistryMalformed, fmt.Sprintf("%s registry %s: %v", kind, res.Path, err), err, nil)
	}
	if len(changes) == 0 || updated == string(data) {
		res.Status = StatusUnchanged
		return res, nil
	}

	if err := synth.WriteAtomic(path, updated); err != nil {
		return res, oerrors.NewOrivusError(oerrors.RegistryFailed, fmt.Sprintf("cannot write %s registry %s", kind, res.Path), err, nil)
	}
	res.Status = StatusUpdated
	res.Changes = changes
	m.logger.Info("registry updated", "registry", string(kind), "path", res.Path, "changes", strings.Join(changes, ", "))
	return res, nil
}

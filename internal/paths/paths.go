// Package paths resolves host-project locations for generated output.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"orivus/internal/config"
	"orivus/internal/naming"
)

// StateDirName is the per-project directory holding config, logs and history.
const StateDirName = ".orivus"

// Layout resolves the configured project layout against a root directory.
type Layout struct {
	Root   string
	config config.LayoutConfig
}

// NewLayout returns a Layout for root. root is made absolute when possible.
func NewLayout(root string, cfg config.LayoutConfig) *Layout {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Layout{Root: root, config: cfg}
}

// ModuleDir is the directory receiving a module's generated sources.
func (l *Layout) ModuleDir(module string) string {
	return JoinRepoPath(l.Root, l.config.DomainDir+"/"+module)
}

// RouteSegment is the URL segment of a module's page: the kebab-cased plural
// of the module name, "blog-posts" for blogPost.
func RouteSegment(module string) string {
	return naming.Kebab(naming.Plural(module))
}

func (l *Layout) SchemaRegistry() string {
	return JoinRepoPath(l.Root, l.config.SchemaRegistry)
}

func (l *Layout) RouterRegistry() string {
	return JoinRepoPath(l.Root, l.config.RouterRegistry)
}

func (l *Layout) NavigationRegistry() string {
	return JoinRepoPath(l.Root, l.config.NavigationRegistry)
}

// StateDir is <root>/.orivus.
func (l *Layout) StateDir() string {
	return filepath.Join(l.Root, StateDirName)
}

// LogsDir is <root>/.orivus/logs.
func (l *Layout) LogsDir() string {
	return filepath.Join(l.StateDir(), "logs")
}

// Resolve joins a root-relative path, leaving absolute paths untouched.
func (l *Layout) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return JoinRepoPath(l.Root, p)
}

// Rel returns p relative to the root with forward slashes, or p itself when
// it cannot be expressed relative to the root.
func (l *Layout) Rel(p string) string {
	rel, err := CanonicalizePath(p, l.Root)
	if err != nil || strings.HasPrefix(rel, "..") {
		return NormalizePath(p)
	}
	return rel
}

// CanonicalizePath converts an absolute path to a root-relative path with
// forward slashes, resolving symlinks where the path exists.
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = root
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithinRoot reports whether path lies inside root.
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "\\", "/")
}

// JoinRepoPath joins root with a forward-slash relative path.
func JoinRepoPath(root string, canonicalPath string) string {
	parts := strings.Split(NormalizePath(canonicalPath), "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

// ImportPath is the relative module specifier of target, without its
// extension, as written in a source file located in fromDir.
func ImportPath(fromDir, target string) string {
	target = strings.TrimSuffix(target, filepath.Ext(target))
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		return NormalizePath(target)
	}
	rel = NormalizePath(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

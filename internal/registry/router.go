package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	routerOpenRe  = regexp.MustCompile(`^(\s*)export const appRouter = router\(\{\s*(\}\);?)?\s*$`)
	routerEntryRe = regexp.MustCompile(`^\s*(\w+)\s*:`)
)

// RouterEntry registers one module router in the application router.
type RouterEntry struct {
	Key        string // property name, e.g. "user"
	Symbol     string // exported router, e.g. "userRouter"
	ImportPath string // module specifier, e.g. "../../domain/user/user.router"
}

// ImportLine is the import statement for e.
func (e RouterEntry) ImportLine() string {
	return fmt.Sprintf("import { %s } from %q;", e.Symbol, e.ImportPath)
}

// RouterFile is the application router: import lines followed by an
// `appRouter = router({ ... })` literal whose lines are the entries.
type RouterFile struct {
	lines  []string
	open   int
	close  int
	indent string
}

// ParseRouter locates the router literal in content.
func ParseRouter(content string) (*RouterFile, error) {
	f := &RouterFile{lines: strings.Split(content, "\n")}
	if err := f.index(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RouterFile) index() error {
	f.open, f.close = -1, -1
	for i, line := range f.lines {
		m := routerOpenRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[2] != "" {
			// router({}) on one line: split it so entries have a place to go.
			f.lines = append(f.lines[:i], append([]string{m[1] + "export const appRouter = router({", m[1] + m[2]}, f.lines[i+1:]...)...)
		}
		f.open = i
		break
	}
	if f.open < 0 {
		return errors.New("no 'export const appRouter = router({' found")
	}
	for i := f.open + 1; i < len(f.lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(f.lines[i]), "})") {
			f.close = i
			break
		}
	}
	if f.close < 0 {
		return errors.New("appRouter literal is never closed")
	}

	f.indent = "  "
	for i := f.open + 1; i < f.close; i++ {
		line := f.lines[i]
		if strings.TrimSpace(line) != "" {
			f.indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			break
		}
	}
	return nil
}

// Keys lists the registered router keys in order.
func (f *RouterFile) Keys() []string {
	var keys []string
	for i := f.open + 1; i < f.close; i++ {
		if m := routerEntryRe.FindStringSubmatch(f.lines[i]); m != nil {
			keys = append(keys, m[1])
		}
	}
	return keys
}

// imports reports whether the import section already binds symbol, whatever
// the quoting or grouping of the statement.
func (f *RouterFile) imports(symbol string) bool {
	re := regexp.MustCompile(`import\s+(?:type\s+)?\{[^}]*\b` + regexp.QuoteMeta(symbol) + `\b[^}]*\}`)
	return re.MatchString(strings.Join(f.lines[:f.open], "\n"))
}

// Register adds the import and the entry of e when missing and reports what
// changed.
func (f *RouterFile) Register(e RouterEntry) ([]string, error) {
	var changes []string
	if !f.imports(e.Symbol) {
		last := -1
		for i := 0; i < f.open; i++ {
			if strings.HasPrefix(strings.TrimSpace(f.lines[i]), "import ") {
				last = i
			}
		}
		f.lines = append(f.lines[:last+1], append([]string{e.ImportLine()}, f.lines[last+1:]...)...)
		if err := f.index(); err != nil {
			return nil, err
		}
		changes = append(changes, "import "+e.Symbol)
	}

	for _, k := range f.Keys() {
		if k == e.Key {
			return changes, nil
		}
	}
	entry := fmt.Sprintf("%s%s: %s,", f.indent, e.Key, e.Symbol)
	if prev := strings.TrimRight(f.lines[f.close-1], " \t"); f.close-1 > f.open && prev != "" &&
		!strings.HasSuffix(prev, ",") && !strings.HasSuffix(prev, "{") {
		f.lines[f.close-1] = prev + ","
	}
	f.lines = append(f.lines[:f.close], append([]string{entry}, f.lines[f.close:]...)...)
	if err := f.index(); err != nil {
		return nil, err
	}
	return append(changes, "entry "+e.Key), nil
}

// String serializes the file.
func (f *RouterFile) String() string {
	return strings.Join(f.lines, "\n")
}

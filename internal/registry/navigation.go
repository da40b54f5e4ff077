package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// InjectionMarker is the line before which navigation entries are inserted.
const InjectionMarker = "// ORIVUS_INJECTION_POINT"

var hrefRe = regexp.MustCompile(`href:\s*['"]([^'"]*)['"]`)

// NavItem is one sidebar entry.
type NavItem struct {
	Name string
	Href string
	Icon string
}

// Line renders item in the navigation array syntax.
func (n NavItem) Line(indent string) string {
	icon := n.Icon
	if icon == "" {
		icon = "Folder"
	}
	return fmt.Sprintf("%s{ name: '%s', href: '%s', icon: '%s' },", indent, escapeSingle(n.Name), escapeSingle(n.Href), escapeSingle(icon))
}

func escapeSingle(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// NavigationFile is the navigation config: entry lines and the marker.
type NavigationFile struct {
	lines  []string
	marker int
}

// ParseNavigation locates the injection marker in content.
func ParseNavigation(content string) (*NavigationFile, error) {
	f := &NavigationFile{lines: strings.Split(content, "\n")}
	if err := f.index(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *NavigationFile) index() error {
	f.marker = -1
	for i, l := range f.lines {
		if strings.TrimSpace(l) == InjectionMarker {
			f.marker = i
			return nil
		}
	}
	return fmt.Errorf("injection marker %q not found", InjectionMarker)
}

// Hrefs lists the href of every entry, in file order.
func (f *NavigationFile) Hrefs() []string {
	var out []string
	for _, l := range f.lines {
		if m := hrefRe.FindStringSubmatch(l); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

// Register inserts item before the marker unless an entry already links to
// the same href. It reports whether the file changed.
func (f *NavigationFile) Register(item NavItem) bool {
	for _, h := range f.Hrefs() {
		if h == item.Href {
			return false
		}
	}
	marker := f.lines[f.marker]
	indent := marker[:len(marker)-len(strings.TrimLeft(marker, " \t"))]
	f.lines = append(f.lines[:f.marker], append([]string{item.Line(indent)}, f.lines[f.marker:]...)...)
	f.marker++
	return true
}

// String serializes the file.
func (f *NavigationFile) String() string {
	return strings.Join(f.lines, "\n")
}

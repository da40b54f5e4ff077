package registry

import (
	"fmt"
	"regexp"
	"strings"

	"orivus/internal/naming"
)

var (
	blockHeaderRe = regexp.MustCompile(`^\s*(model|enum|generator|datasource|view|type)\s+(\w+)\s*\{`)
	relationRe    = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\??\s+@relation\(.*\bfields:`)
)

// Block is one top-level declaration of a schema file. Start and End are the
// line indexes of its header and closing brace.
type Block struct {
	Kind  string
	Name  string
	Start int
	End   int
}

// Field is one field line of a model block.
type Field struct {
	Name string
	Type string
	Line int
}

// Schema is a Prisma schema as an ordered list of lines with the top-level
// blocks indexed. Lines outside blocks (comments, blank lines) are kept as
// they are, so an unchanged schema serializes byte for byte.
type Schema struct {
	lines  []string
	blocks []Block
}

// ParseSchema splits content into blocks. An unterminated block is an error.
func ParseSchema(content string) (*Schema, error) {
	s := &Schema{lines: strings.Split(content, "\n")}
	if err := s.index(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) index() error {
	s.blocks = s.blocks[:0]
	for i := 0; i < len(s.lines); i++ {
		m := blockHeaderRe.FindStringSubmatch(s.lines[i])
		if m == nil {
			continue
		}
		depth := braceDelta(s.lines[i])
		j := i
		for depth > 0 {
			j++
			if j >= len(s.lines) {
				return fmt.Errorf("%s %s opened on line %d is never closed", m[1], m[2], i+1)
			}
			depth += braceDelta(s.lines[j])
		}
		s.blocks = append(s.blocks, Block{Kind: m[1], Name: m[2], Start: i, End: j})
		i = j
	}
	return nil
}

func braceDelta(line string) int {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return strings.Count(line, "{") - strings.Count(line, "}")
}

// String serializes the schema.
func (s *Schema) String() string {
	return strings.Join(s.lines, "\n")
}

// Blocks returns the top-level blocks in file order.
func (s *Schema) Blocks() []Block {
	return append([]Block(nil), s.blocks...)
}

// Model returns the model block called name.
func (s *Schema) Model(name string) (Block, bool) {
	for _, b := range s.blocks {
		if b.Kind == "model" && b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// Fields lists the field lines of b, skipping comments and block attributes.
func (s *Schema) Fields(b Block) []Field {
	var out []Field
	for i := b.Start + 1; i < b.End; i++ {
		trimmed := strings.TrimSpace(s.lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "@@") {
			continue
		}
		parts := strings.Fields(trimmed)
		if len(parts) < 2 {
			continue
		}
		out = append(out, Field{Name: parts[0], Type: parts[1], Line: i})
	}
	return out
}

// parents lists the models b points at through a foreign-key relation.
func (s *Schema) parents(b Block) []string {
	var out []string
	for i := b.Start + 1; i < b.End; i++ {
		if m := relationRe.FindStringSubmatch(s.lines[i]); m != nil {
			out = append(out, m[2])
		}
	}
	return out
}

// EnsureModel appends block (the full text of one model declaration) unless
// a model of that name exists, then adds every missing inverse list field
// between that model and the models it is related to. It returns a
// description of each change; none means the schema is unchanged.
func (s *Schema) EnsureModel(block string) ([]string, error) {
	parsed, err := ParseSchema(strings.TrimSpace(block))
	if err != nil {
		return nil, err
	}
	if len(parsed.blocks) != 1 || parsed.blocks[0].Kind != "model" {
		return nil, fmt.Errorf("expected a single model block, got %d blocks", len(parsed.blocks))
	}
	name := parsed.blocks[0].Name

	var changes []string
	if _, ok := s.Model(name); !ok {
		s.appendLines(parsed.lines)
		if err := s.index(); err != nil {
			return nil, err
		}
		changes = append(changes, "model "+name)
	}

	own, _ := s.Model(name)
	for _, parent := range s.parents(own) {
		if parent == name {
			continue
		}
		c, ok, err := s.ensureInverse(parent, name)
		if err != nil {
			return nil, err
		}
		if ok {
			changes = append(changes, c)
		}
	}
	for _, b := range s.Blocks() {
		if b.Kind != "model" || b.Name == name {
			continue
		}
		for _, parent := range s.parents(b) {
			if parent != name {
				continue
			}
			c, ok, err := s.ensureInverse(name, b.Name)
			if err != nil {
				return nil, err
			}
			if ok {
				changes = append(changes, c)
			}
		}
	}
	return changes, nil
}

// appendLines adds lines after the existing content, separated by one blank
// line and ending with a newline.
func (s *Schema) appendLines(lines []string) {
	for len(s.lines) > 0 && strings.TrimSpace(s.lines[len(s.lines)-1]) == "" {
		s.lines = s.lines[:len(s.lines)-1]
	}
	if len(s.lines) > 0 {
		s.lines = append(s.lines, "")
	}
	s.lines = append(s.lines, lines...)
	s.lines = append(s.lines, "")
}

// ensureInverse gives parent a list field of child unless it has one.
func (s *Schema) ensureInverse(parent, child string) (string, bool, error) {
	b, ok := s.Model(parent)
	if !ok {
		return "", false, nil
	}
	fields := s.Fields(b)
	for _, f := range fields {
		if f.Type == child+"[]" {
			return "", false, nil
		}
	}

	field := naming.Uncapitalize(naming.Plural(child))
	for _, f := range fields {
		if f.Name == field {
			field += "List"
			break
		}
	}

	indent := "  "
	if len(fields) > 0 {
		line := s.lines[fields[0].Line]
		indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	entry := fmt.Sprintf("%s%s %s[]", indent, field, child)

	s.lines = append(s.lines[:b.End], append([]string{entry}, s.lines[b.End:]...)...)
	if err := s.index(); err != nil {
		return "", false, err
	}
	return parent + "." + field, true, nil
}

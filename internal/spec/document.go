package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a spec document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported spec extension %q (want .json, .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// object is a decoded mapping that remembers key order. Values are *object,
// []any, string, bool, int64, float64, nil or a TOML date/time.
type object struct {
	keys   []string
	values map[string]any
}

func newObject() *object {
	return &object{values: make(map[string]any)}
}

func (o *object) set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *object) get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// decodeDocument parses data into an ordered tree.
func decodeDocument(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatTOML:
		return decodeTOML(data)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := readJSONValue(dec)
	if err != nil {
		return nil, jsonError(err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, jsonError(err)
		}
		return nil, fmt.Errorf("unexpected %v after top-level value", tok)
	}
	return v, nil
}

func jsonError(err error) error {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return fmt.Errorf("offset %d: %s", syn.Offset, syn.Error())
	}
	if errors.Is(err, io.EOF) {
		return errors.New("unexpected end of document")
	}
	return err
}

func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := newObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", keyTok)
				}
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return t, nil
	}
}

func decodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return yamlValue(&doc)
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			val, err := yamlValue(v)
			if err != nil {
				return nil, err
			}
			if k.Tag == "!!merge" {
				merged, ok := val.(*object)
				if !ok {
					return nil, fmt.Errorf("line %d: merge value must be a mapping", k.Line)
				}
				for _, mk := range merged.keys {
					if _, exists := obj.get(mk); !exists {
						obj.set(mk, merged.values[mk])
					}
				}
				continue
			}
			obj.set(k.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		if i, ok := v.(int); ok {
			return int64(i), nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

// decodeTOML rebuilds declaration order from MetaData.Keys, which lists
// every key path in the order it was defined.
func decodeTOML(data []byte) (any, error) {
	raw := map[string]any{}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}

	root := newObject()
	for _, key := range md.Keys() {
		insertTOMLKey(root, raw, key)
	}
	fillTOMLMissing(root, raw)
	return root, nil
}

func insertTOMLKey(root *object, raw map[string]any, key toml.Key) {
	cur, curRaw := root, raw
	for _, part := range key {
		v, ok := curRaw[part]
		if !ok {
			return
		}
		sub, isTable := v.(map[string]any)
		if !isTable {
			if _, exists := cur.get(part); !exists {
				cur.set(part, convertTOML(v))
			}
			return
		}
		next, exists := cur.get(part)
		child, isObj := next.(*object)
		if !exists || !isObj {
			child = newObject()
			cur.set(part, child)
		}
		cur, curRaw = child, sub
	}
}

func fillTOMLMissing(obj *object, raw map[string]any) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		existing, ok := obj.get(k)
		if !ok {
			obj.set(k, convertTOML(raw[k]))
			continue
		}
		if child, isObj := existing.(*object); isObj {
			if sub, isTable := raw[k].(map[string]any); isTable {
				fillTOMLMissing(child, sub)
			}
		}
	}
}

func convertTOML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		obj := newObject()
		fillTOMLMissing(obj, t)
		return obj
	case []map[string]any:
		arr := make([]any, 0, len(t))
		for _, m := range t {
			arr = append(arr, convertTOML(m))
		}
		return arr
	case []any:
		arr := make([]any, 0, len(t))
		for _, e := range t {
			arr = append(arr, convertTOML(e))
		}
		return arr
	default:
		return v
	}
}

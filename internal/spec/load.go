package spec

import (
	"fmt"
	"os"

	oerrors "orivus/internal/errors"
)

// Decode reads one ModuleSpec from data. Malformed documents and values of
// the wrong shape yield a SPEC_SYNTAX error.
func Decode(data []byte, format Format) (*ModuleSpec, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, oerrors.NewOrivusError(oerrors.SpecSyntax, fmt.Sprintf("malformed %s document", format), err, nil)
	}
	s, err := buildModuleSpec(doc)
	if err != nil {
		return nil, oerrors.NewOrivusError(oerrors.SpecSyntax, "unexpected spec shape", err, nil)
	}
	return s, nil
}

// LoadFile reads and decodes the spec at path, choosing the format from the
// extension.
func LoadFile(path string) (*ModuleSpec, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, oerrors.NewOrivusError(oerrors.SpecSyntax, path, err, nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.NewOrivusError(oerrors.SpecNotFound, fmt.Sprintf("spec file %s not found", path), nil, nil)
		}
		return nil, oerrors.NewOrivusError(oerrors.SpecNotFound, fmt.Sprintf("cannot read %s", path), err, nil)
	}

	s, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

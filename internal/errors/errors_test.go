package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewOrivusError(t *testing.T) {
	cause := errors.New("underlying error")
	fixes := []FixAction{{Type: RunCommand, Command: "orivus validate specs/user.spec.json"}}

	err := NewOrivusError(SpecInvalid, "spec has 2 errors", cause, fixes)

	if err.Code != SpecInvalid {
		t.Errorf("Code = %v, want %v", err.Code, SpecInvalid)
	}
	if err.Message != "spec has 2 errors" {
		t.Errorf("Message = %q, want %q", err.Message, "spec has 2 errors")
	}
	if len(err.SuggestedFixes) != 1 || err.SuggestedFixes[0].Command != fixes[0].Command {
		t.Errorf("SuggestedFixes = %+v, want %+v", err.SuggestedFixes, fixes)
	}
}

func TestNewOrivusError_DefaultFixes(t *testing.T) {
	err := NewOrivusError(ConfigInvalid, "bad config", nil, nil)
	if len(err.SuggestedFixes) != len(ErrorActions[ConfigInvalid]) {
		t.Errorf("len(SuggestedFixes) = %d, want %d", len(err.SuggestedFixes), len(ErrorActions[ConfigInvalid]))
	}

	none := NewOrivusError(RenderFailed, "template", nil, nil)
	if none.SuggestedFixes != nil {
		t.Errorf("SuggestedFixes = %+v, want nil", none.SuggestedFixes)
	}
}

func TestOrivusError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *OrivusError
		want string
	}{
		{
			name: "with cause",
			err:  NewOrivusError(WriteFailed, "cannot write user.schema.ts", errors.New("permission denied"), nil),
			want: "[WRITE_FAILED] cannot write user.schema.ts: permission denied",
		},
		{
			name: "without cause",
			err:  Newf(SpecStructure, "field %q has no type", "email"),
			want: `[SPEC_STRUCTURE] field "email" has no type`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOrivusError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewOrivusError(InternalError, "something went wrong", cause, nil)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if Newf(SpecNotFound, "missing").Unwrap() != nil {
		t.Error("Unwrap() without cause should return nil")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, WriteFailed, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	err := Wrap(errors.New("disk full"), WriteFailed, "write")
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	inner := Newf(RegistryMalformed, "no router literal")
	wrapped := fmt.Errorf("module user: %w", inner)

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"direct", inner, RegistryMalformed},
		{"wrapped", wrapped, RegistryMalformed},
		{"plain", errors.New("boom"), InternalError},
	}
	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Errorf("%s: CodeOf() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHasCode(t *testing.T) {
	inner := Newf(SpecSyntax, "unexpected token")
	outer := NewOrivusError(SpecNotFound, "load", inner, nil)

	if !HasCode(outer, SpecSyntax) {
		t.Error("HasCode should see nested SPEC_SYNTAX")
	}
	if !HasCode(outer, SpecNotFound) {
		t.Error("HasCode should see outer SPEC_NOT_FOUND")
	}
	if HasCode(outer, WriteFailed) {
		t.Error("HasCode should not report WRITE_FAILED")
	}
}

func TestOrivusError_WithDetails(t *testing.T) {
	err := Newf(SpecInvalid, "invalid").WithDetails(map[string]int{"errors": 3})
	details, ok := err.Details.(map[string]int)
	if !ok || details["errors"] != 3 {
		t.Errorf("Details = %v, want errors=3", err.Details)
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode is a stable identifier for a failure mode.
type ErrorCode string

const (
	// SpecNotFound indicates the spec file or directory does not exist
	SpecNotFound ErrorCode = "SPEC_NOT_FOUND"
	// SpecSyntax indicates a spec file could not be decoded
	SpecSyntax ErrorCode = "SPEC_SYNTAX"
	// SpecStructure indicates a decoded spec violates structural rules
	SpecStructure ErrorCode = "SPEC_STRUCTURE"
	// SpecInvalid indicates validation reported errors
	SpecInvalid ErrorCode = "SPEC_INVALID"
	// ManifestInvalid indicates a batch manifest is unreadable or inconsistent
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// RenderFailed indicates a template failed to execute
	RenderFailed ErrorCode = "RENDER_FAILED"
	// SyntaxCheckFailed indicates rendered source did not parse
	SyntaxCheckFailed ErrorCode = "SYNTAX_CHECK_FAILED"
	// WriteFailed indicates a generated file could not be written
	WriteFailed ErrorCode = "WRITE_FAILED"
	// RegistryMalformed indicates a registry file lacks its expected structure
	RegistryMalformed ErrorCode = "REGISTRY_MALFORMED"
	// RegistryFailed indicates a registry file could not be read or written
	RegistryFailed ErrorCode = "REGISTRY_FAILED"
	// ConfigInvalid indicates .orivus/config.json is invalid
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates an unexpected failure
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	RunCommand FixActionType = "run-command"
	EditFile   FixActionType = "edit-file"
	OpenDocs   FixActionType = "open-docs"
)

// FixAction is a suggested remedy attached to an error.
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Path        string        `json:"path,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// OrivusError carries a stable code, a message and optional remedies.
type OrivusError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        any         `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// NewOrivusError creates an OrivusError. When fixes is nil the registered
// fixes for code are attached.
func NewOrivusError(code ErrorCode, message string, cause error, fixes []FixAction) *OrivusError {
	if fixes == nil {
		fixes = GetSuggestedFixes(code)
	}
	return &OrivusError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: fixes,
	}
}

// Newf is NewOrivusError with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...any) *OrivusError {
	return NewOrivusError(code, fmt.Sprintf(format, args...), nil, nil)
}

// Wrap attaches code and message to cause. A nil cause yields nil.
func Wrap(cause error, code ErrorCode, message string) error {
	if cause == nil {
		return nil
	}
	return NewOrivusError(code, message, cause, nil)
}

func (e *OrivusError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *OrivusError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *OrivusError) WithDetails(details any) *OrivusError {
	e.Details = details
	return e
}

// CodeOf returns the code of the outermost OrivusError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var oe *OrivusError
	if stderrors.As(err, &oe) {
		return oe.Code
	}
	return InternalError
}

// HasCode reports whether any OrivusError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if oe, ok := err.(*OrivusError); ok && oe.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SpecNotFound: {
		{Type: RunCommand, Command: "orivus init", Safe: true, Description: "Create the project config and an example spec"},
	},
	SpecInvalid: {
		{Type: RunCommand, Command: "orivus validate <spec>", Safe: true, Description: "Print the full validation report"},
	},
	ManifestInvalid: {
		{Type: EditFile, Path: "_manifest.json", Description: "List every spec of the batch under executionOrder"},
	},
	RegistryMalformed: {
		{Type: EditFile, Description: "Restore the registry skeleton or its injection marker"},
	},
	ConfigInvalid: {
		{Type: EditFile, Path: ".orivus/config.json", Description: "Fix or delete the project config"},
		{Type: RunCommand, Command: "orivus init --force", Safe: false, Description: "Rewrite the config with defaults"},
	},
	SyntaxCheckFailed: {
		{Type: OpenDocs, Description: "A custom template produced invalid TypeScript; check the renderer output"},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

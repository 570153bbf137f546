package ir

import "fmt"

// Code is a machine-readable diagnostic code for generation-time failures.
type Code string

const (
	CodeMalformedDeclaration  Code = "malformed_declaration"
	CodeMissingRequiredField  Code = "missing_required_field"
	CodeUnsupportedMethod     Code = "unsupported_method"
	CodeUnknownField          Code = "unknown_field"
	CodeDuplicateField        Code = "duplicate_field"
	CodeDuplicateFunctionName Code = "duplicate_function_name"
	CodeUnknownTypeRef        Code = "unknown_type_ref"
)

// Diagnostic is a generation-time failure. Every diagnostic is fatal to the
// generation run and points at the offending declaration fragment.
type Diagnostic struct {
	Code Code

	// Pos locates the offending fragment in the declaration source.
	// Zero when the source format carries no positions (YAML schemas).
	Pos Pos

	// Fragment is the offending declaration fragment, e.g. a field key or
	// method token.
	Fragment string

	Message string
}

func (d *Diagnostic) Error() string {
	if d.Pos.IsZero() {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Pos.Line, d.Pos.Col, d.Code, d.Message)
}

// Diagf creates a diagnostic with a formatted message.
func Diagf(code Code, pos Pos, fragment, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		Pos:      pos,
		Fragment: fragment,
		Message:  fmt.Sprintf(format, args...),
	}
}

package resolver

import (
	"fmt"

	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/token"
)

// LookupKind classifies a resolution failure.
type LookupKind string

const (
	// DuplicateType is a type name declared twice, or a user type shadowing
	// a built-in.
	DuplicateType LookupKind = "DuplicateType"
	// UnresolvedReceiver is a member function whose receiver type is
	// neither declared nor built in.
	UnresolvedReceiver LookupKind = "UnresolvedReceiver"
	// DuplicateMain is a second main entry anywhere in the program.
	DuplicateMain LookupKind = "DuplicateMain"
)

// LookupError aborts universe construction. No partial universe is
// returned alongside it.
type LookupError struct {
	Kind LookupKind
	Name string
	Unit string
	Span token.Span
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case DuplicateType:
		return fmt.Sprintf("DuplicateType(%q): type is already declared", e.Name)
	case UnresolvedReceiver:
		return fmt.Sprintf("UnresolvedReceiver(%q): receiver type is not a declared type", e.Name)
	case DuplicateMain:
		return "DuplicateMain: a program may declare only one main entry"
	default:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Name)
	}
}

// ToDiagnostic converts the error into a shared diagnostic structure.
func (e *LookupError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageResolver,
		Severity: diag.SeverityError,
		Code:     diag.Code("RESOLVE_" + string(e.Kind)),
		Message:  e.Error(),
		Unit:     e.Unit,
		Span:     e.Span,
	}
}

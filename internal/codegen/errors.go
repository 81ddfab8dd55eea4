package codegen

import (
	"fmt"

	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/token"
)

// Generation error codes.
const (
	CodeRefReceiver         diag.Code = "GEN_REF_RECEIVER"
	CodeNotAllowedHere      diag.Code = "GEN_NOT_ALLOWED_HERE"
	CodeModifierOnNonLvalue diag.Code = "GEN_MODIFIER_ON_NON_LVALUE"
)

// GenerationError is a construct that is well formed but cannot be lowered.
type GenerationError struct {
	Code    diag.Code
	Message string
	Unit    string
	Span    token.Span
}

func (e *GenerationError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("%s:%s: %s", e.Unit, e.Span, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// ToDiagnostic converts the error into a shared diagnostic structure.
func (e *GenerationError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageCodegen,
		Severity: diag.SeverityError,
		Code:     e.Code,
		Message:  e.Message,
		Unit:     e.Unit,
		Span:     e.Span,
	}
}

package compiler

import (
	"fmt"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/token"
)

// Validation error codes (E200-E299)
const (
	ErrDuplicateMember          = "E201" // struct member declared twice
	ErrDuplicateParam           = "E202" // parameter name used twice
	ErrSelfNotFirst             = "E203" // self outside the receiver position
	ErrEmptyTuple               = "E204" // tuple type without members
	ErrDuplicateTestDescription = "E205" // two tests with the same description
)

// ValidationError is a structural problem in a parsed unit that the parser
// accepts but that has no sensible lowering.
type ValidationError struct {
	Field   string     `json:"field"`
	Message string     `json:"message"`
	Code    string     `json:"code"`
	Unit    string     `json:"unit,omitempty"`
	Span    token.Span `json:"span"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("[%s] %s:%s: %s: %s", e.Code, e.Unit, e.Span, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ToDiagnostic converts the error into a shared diagnostic structure.
func (e ValidationError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageValidate,
		Severity: diag.SeverityError,
		Code:     diag.Code(e.Code),
		Message:  e.Message,
		Unit:     e.Unit,
		Span:     e.Span,
	}
}

// Validate checks one parsed unit.
// Returns all errors found (does not fail-fast), in declaration order.
func Validate(file *ast.File) []ValidationError {
	var errs []ValidationError
	tests := make(map[string]bool)

	for _, d := range file.Decls {
		switch d := d.(type) {
		case *ast.TypeDecl:
			errs = append(errs, validateTypeDecl(d)...)
		case *ast.FnDecl:
			errs = append(errs, validateFn(d)...)
		case *ast.TestDecl:
			// E205: described tests must be distinguishable
			if d.Description == "" {
				continue
			}
			if tests[d.Description] {
				errs = append(errs, ValidationError{
					Field:   "test",
					Message: fmt.Sprintf("duplicate test description %q", d.Description),
					Code:    ErrDuplicateTestDescription,
					Span:    d.Span,
				})
			}
			tests[d.Description] = true
		}
	}

	for i := range errs {
		errs[i].Unit = file.Name
	}
	return errs
}

func validateTypeDecl(d *ast.TypeDecl) []ValidationError {
	var errs []ValidationError

	switch body := d.Body.(type) {
	case *ast.StructBody:
		// E201: duplicate member
		seen := make(map[string]bool)
		for _, m := range body.Members {
			if seen[m.Name] {
				errs = append(errs, ValidationError{
					Field:   d.Name + "." + m.Name,
					Message: fmt.Sprintf("duplicate member %q in type %s", m.Name, d.Name),
					Code:    ErrDuplicateMember,
					Span:    m.Span,
				})
			}
			seen[m.Name] = true
		}
	case *ast.TupleBody:
		// E204: a tuple type needs at least one member
		if len(body.Members) == 0 {
			errs = append(errs, ValidationError{
				Field:   d.Name,
				Message: fmt.Sprintf("tuple type %s has no members", d.Name),
				Code:    ErrEmptyTuple,
				Span:    d.Span,
			})
		}
	}

	return errs
}

func validateFn(fn *ast.FnDecl) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for i, p := range fn.Params {
		// E202: duplicate parameter
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.params[%d]", fn.Name, i),
				Message: fmt.Sprintf("duplicate parameter %q in function %s", p.Name, fn.Name),
				Code:    ErrDuplicateParam,
				Span:    p.Span,
			})
		}
		seen[p.Name] = true

		// E203: self is only meaningful as the receiver
		if p.IsSelf() && i > 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.params[%d]", fn.Name, i),
				Message: fmt.Sprintf("`self` must be the first parameter of %s", fn.Name),
				Code:    ErrSelfNotFirst,
				Span:    p.Span,
			})
		}
	}

	return errs
}

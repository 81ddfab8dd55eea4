package parser

import (
	"fmt"

	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/token"
)

// Parse error codes.
const (
	CodeUnexpectedToken     diag.Code = "PARSE_UNEXPECTED_TOKEN"
	CodeUnexpectedEOF       diag.Code = "PARSE_UNEXPECTED_EOF"
	CodeDuplicateModifier   diag.Code = "PARSE_DUPLICATE_MODIFIER"
	CodeDisallowedModifier  diag.Code = "PARSE_DISALLOWED_MODIFIER"
	CodeDanglingModifier    diag.Code = "PARSE_DANGLING_MODIFIER"
	CodeMalformedTypeDecl   diag.Code = "PARSE_MALFORMED_TYPE_DECL"
	CodeInvalidIdentifier   diag.Code = "PARSE_INVALID_IDENTIFIER"
	CodeInvalidType         diag.Code = "PARSE_INVALID_TYPE"
	CodeReservedKeyword     diag.Code = "PARSE_RESERVED_KEYWORD"
	CodeInvalidAssignTarget diag.Code = "PARSE_INVALID_ASSIGNMENT_TARGET"
)

// ParseError is the first fault found in a translation unit. Parsing does
// not recover; the unit is abandoned.
type ParseError struct {
	Code    diag.Code
	Message string
	Span    token.Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// Incomplete reports whether the error was caused by input ending early,
// as opposed to input that is wrong. Interactive callers keep reading when
// this is true.
func (e *ParseError) Incomplete() bool {
	return e.Code == CodeUnexpectedEOF
}

// ToDiagnostic converts the error into a shared diagnostic structure.
func (e *ParseError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: diag.SeverityError,
		Code:     e.Code,
		Message:  e.Message,
		Span:     e.Span,
	}
}

func errorf(code diag.Code, span token.Span, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

func unexpected(tok token.Token, context string) *ParseError {
	if context == "" {
		return errorf(CodeUnexpectedToken, tok.Span, "unexpected token `%s`", tok)
	}
	return errorf(CodeUnexpectedToken, tok.Span, "%s, found `%s`", context, tok)
}

func eof(span token.Span, format string, args ...any) *ParseError {
	return errorf(CodeUnexpectedEOF, span, format, args...)
}

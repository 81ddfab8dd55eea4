// Package diag defines the structured diagnostics produced by every stage of
// the compiler and the sink they are delivered to.
//
// Rendering (colours, source excerpts) is left to consumers. The core only
// produces a message, a byte range and a severity.
package diag

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/roach88/galvan/internal/token"
)

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer    Stage = "lexer"
	StageParser   Stage = "parser"
	StageValidate Stage = "validate"
	StageResolver Stage = "resolver"
	StageCodegen  Stage = "codegen"
	StageConfig   Stage = "config"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Code is a stable identifier for a diagnostic.
type Code string

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage    Stage      `json:"stage"`
	Severity Severity   `json:"severity"`
	Code     Code       `json:"code,omitempty"`
	Message  string     `json:"message"`
	Unit     string     `json:"unit,omitempty"`
	Span     token.Span `json:"span"`
}

func (d Diagnostic) String() string {
	if d.Unit != "" {
		return fmt.Sprintf("%s:%s: %s: %s", d.Unit, d.Span, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, d.Message)
}

// Sink accepts diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// Collector is a Sink that keeps diagnostics in arrival order.
// Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// HasErrors reports whether any error-severity diagnostic was reported.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Diagnoser is implemented by stage errors that know their diagnostic form.
type Diagnoser interface {
	error
	ToDiagnostic() Diagnostic
}

// FromError converts err into a diagnostic attributed to unit.
// Errors that do not implement Diagnoser become a generic error diagnostic.
func FromError(unit string, err error) Diagnostic {
	var d Diagnoser
	if errors.As(err, &d) {
		out := d.ToDiagnostic()
		if out.Unit == "" {
			out.Unit = unit
		}
		return out
	}
	return Diagnostic{
		Severity: SeverityError,
		Message:  err.Error(),
		Unit:     unit,
	}
}

// Locate converts a byte offset into a 1-based line and column. Columns
// count characters, not bytes. Offsets past the end of src are clamped to
// the end.
func Locate(src string, offset int) (line, column int) {
	if offset > len(src) {
		offset = len(src)
	}
	line, column = 1, 1
	for i := 0; i < offset; {
		r, size := utf8.DecodeRuneInString(src[i:])
		i += size
		if r == '\n' {
			line++
			column = 1
			continue
		}
		column++
	}
	return line, column
}

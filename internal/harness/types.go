package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/galvan/internal/codegen"
	"github.com/roach88/galvan/internal/diag"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Units are the generated units of a successful compilation.
	Units []codegen.Unit `json:"units,omitempty"`

	// Diagnostics are the reported problems, first one first.
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`

	// BuildID is the ID the units were recorded under.
	BuildID string `json:"build_id,omitempty"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// contents maps unit names to sources, for rendering diagnostics.
	contents map[string]string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Unit returns the unit named name.
func (r *Result) Unit(name string) (codegen.Unit, bool) {
	for _, u := range r.Units {
		if u.Name == name {
			return u, true
		}
	}
	return codegen.Unit{}, false
}

// UnitNames lists the unit names in emission order.
func (r *Result) UnitNames() []string {
	names := make([]string, len(r.Units))
	for i, u := range r.Units {
		names[i] = u.Name
	}
	return names
}

// Snapshot renders the result for golden comparison: each unit under a
// `// unit:` header, or each diagnostic with its line and column.
func (r *Result) Snapshot() []byte {
	var parts []string
	if len(r.Diagnostics) > 0 {
		for _, d := range r.Diagnostics {
			parts = append(parts, r.renderDiagnostic(d))
		}
		return []byte("// diagnostics\n" + strings.Join(parts, "\n") + "\n")
	}
	for _, u := range r.Units {
		parts = append(parts, "// unit: "+u.Name+"\n"+u.Content)
	}
	return []byte(strings.Join(parts, "\n"))
}

func (r *Result) renderDiagnostic(d diag.Diagnostic) string {
	src, ok := r.contents[d.Unit]
	if !ok {
		return fmt.Sprintf("%s: %s[%s]: %s", d.Unit, d.Severity, d.Code, d.Message)
	}
	line, col := diag.Locate(src, d.Span.Start)
	return fmt.Sprintf("%s:%d:%d: %s[%s]: %s", d.Unit, line, col, d.Severity, d.Code, d.Message)
}

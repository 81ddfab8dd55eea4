package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ExpectationError is a single unmet expectation.
type ExpectationError struct {
	Type     string // which expectation failed
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expectation failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateExpectations checks result against expect and returns one
// message per unmet expectation.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var errs []error

	if expect.Failure() {
		errs = append(errs, checkFailure(result, expect)...)
	} else {
		errs = append(errs, checkSuccess(result, expect)...)
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}

func checkFailure(result *Result, expect Expect) []error {
	if len(result.Diagnostics) == 0 {
		return []error{&ExpectationError{
			Type:     "failure",
			Expected: "compilation to be rejected",
			Actual:   fmt.Sprintf("succeeded with units %v", result.UnitNames()),
		}}
	}

	var errs []error
	first := result.Diagnostics[0]
	if expect.ErrorCode != "" && string(first.Code) != expect.ErrorCode {
		errs = append(errs, &ExpectationError{Type: "error_code", Expected: expect.ErrorCode, Actual: fmt.Sprintf("%s (%s)", first.Code, first.Message)})
	}
	if expect.ErrorUnit != "" && first.Unit != expect.ErrorUnit {
		errs = append(errs, &ExpectationError{Type: "error_unit", Expected: expect.ErrorUnit, Actual: first.Unit})
	}
	if len(expect.Codes) > 0 {
		got := make([]string, len(result.Diagnostics))
		for i, d := range result.Diagnostics {
			got[i] = string(d.Code)
		}
		if !slices.Equal(got, expect.Codes) {
			errs = append(errs, &ExpectationError{Type: "codes", Expected: fmt.Sprint(expect.Codes), Actual: fmt.Sprint(got)})
		}
	}
	return errs
}

func checkSuccess(result *Result, expect Expect) []error {
	if len(result.Diagnostics) > 0 {
		return []error{&ExpectationError{
			Type:     "success",
			Expected: "compilation to succeed",
			Actual:   result.renderDiagnostic(result.Diagnostics[0]),
		}}
	}

	var errs []error
	if len(expect.Units) > 0 && !slices.Equal(result.UnitNames(), expect.Units) {
		errs = append(errs, &ExpectationError{Type: "units", Expected: fmt.Sprint(expect.Units), Actual: fmt.Sprint(result.UnitNames())})
	}

	// Deterministic report order.
	names := make([]string, 0, len(expect.Contains))
	for name := range expect.Contains {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		unit, ok := result.Unit(name)
		if !ok {
			errs = append(errs, &ExpectationError{Type: "contains", Expected: "unit " + name, Actual: fmt.Sprintf("units %v", result.UnitNames())})
			continue
		}
		for _, sub := range expect.Contains[name] {
			if !strings.Contains(unit.Content, sub) {
				errs = append(errs, &ExpectationError{Type: "contains", Expected: fmt.Sprintf("%s to contain %q", name, sub), Actual: unit.Content})
			}
		}
	}
	return errs
}

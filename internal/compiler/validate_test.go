package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/parser"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := parser.ParseSource("unit.gv", src)
	require.NoError(t, err)
	return f
}

// =============================================================================
// Valid units
// =============================================================================

func TestValidateValid(t *testing.T) {
	f := parse(t, `
type Point {
    x: Float
    y: Float
}
type Pair(Int, Int)
fn dist(self: Point, other: Point) -> Float {
}
test "one" {
}
test "two" {
}
test {
}
test {
}
`)
	errs := Validate(f)
	assert.Empty(t, errs, "valid unit should have no errors")
}

// =============================================================================
// Error codes
// =============================================================================

func TestValidateDuplicateMember(t *testing.T) {
	errs := Validate(parse(t, "type P {\n    x: Int\n    y: Int\n    x: Float\n}"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateMember, errs[0].Code)
	assert.Equal(t, "P.x", errs[0].Field)
	assert.Equal(t, "unit.gv", errs[0].Unit)
}

func TestValidateDuplicateParam(t *testing.T) {
	errs := Validate(parse(t, "fn f(a: Int, b: Int, a: Float) {\n}"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateParam, errs[0].Code)
	assert.Equal(t, "f.params[2]", errs[0].Field)
}

func TestValidateSelfNotFirst(t *testing.T) {
	errs := Validate(parse(t, "type P(Int)\nfn f(a: Int, self: P) {\n}"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrSelfNotFirst, errs[0].Code)
	assert.Contains(t, errs[0].Message, "first parameter")
}

func TestValidateEmptyTuple(t *testing.T) {
	errs := Validate(parse(t, "type Nothing()"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrEmptyTuple, errs[0].Code)
}

func TestValidateDuplicateTestDescription(t *testing.T) {
	errs := Validate(parse(t, "test \"adds\" {\n}\ntest \"adds\" {\n}"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateTestDescription, errs[0].Code)
}

func TestValidateCollectsAll(t *testing.T) {
	errs := Validate(parse(t, `
type Nothing()
type P {
    a: Int
    a: Int
}
fn f(x: Int, x: Int) {
}
`))
	require.Len(t, errs, 3)
	assert.Equal(t, ErrEmptyTuple, errs[0].Code)
	assert.Equal(t, ErrDuplicateMember, errs[1].Code)
	assert.Equal(t, ErrDuplicateParam, errs[2].Code)
}

func TestValidationErrorFormatting(t *testing.T) {
	err := ValidationError{Field: "P.x", Message: "duplicate member", Code: ErrDuplicateMember}
	assert.Equal(t, "[E201] P.x: duplicate member", err.Error())

	d := err.ToDiagnostic()
	assert.Equal(t, "validate", string(d.Stage))
	assert.Equal(t, "E201", string(d.Code))
}

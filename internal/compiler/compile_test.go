package compiler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/galvan/internal/codegen"
	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/lexer"
	"github.com/roach88/galvan/internal/parser"
	"github.com/roach88/galvan/internal/resolver"
)

func TestCompileMultipleUnits(t *testing.T) {
	sources := []Source{
		{Name: "point.gv", Content: "pub type Point {\n    x: Float\n}\nfn len(self: Point) -> Float {\n    self.x\n}"},
		{Name: "main.gv", Content: "main {\n    let p = Point(x: 1.0)\n    println(p.len())\n}"},
	}

	res, err := Compile(sources, Options{})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	require.Len(t, res.Units, 2)
	assert.Equal(t, "Point", res.Units[0].Name)
	assert.Equal(t, codegen.AggregateUnitName, res.Units[1].Name)
	assert.Contains(t, res.Units[0].Content, "impl Point {")
	assert.Contains(t, res.Units[1].Content, `println!("{}", p.len());`)
}

func TestCompileAggregateOption(t *testing.T) {
	res, err := Compile([]Source{{Name: "a.gv", Content: "main {\n}"}}, Options{AggregateUnit: "app"})
	require.NoError(t, err)
	assert.Equal(t, "app", res.Units[0].Name)
}

func TestCompileStopsAtFirstError(t *testing.T) {
	tests := []struct {
		name   string
		srcs   []Source
		target any
	}{
		{"parse", []Source{{Name: "a.gv", Content: "type A = Int"}, {Name: "b.gv", Content: "pub pub fn f() {}"}}, new(*parser.ParseError)},
		{"lex", []Source{{Name: "a.gv", Content: "type A = Int\n#"}}, new(*lexer.LexError)},
		{"validate", []Source{{Name: "a.gv", Content: "type Nothing()"}}, new(ValidationError)},
		{"resolve", []Source{{Name: "a.gv", Content: "type A = Int"}, {Name: "b.gv", Content: "type A = Float"}}, new(*resolver.LookupError)},
		{"generate", []Source{{Name: "a.gv", Content: "type P(Int)\nfn f(ref self: P) {\n}"}}, new(*codegen.GenerationError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compile(tt.srcs, Options{})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.As(err, tt.target), "got %T: %v", err, err)
		})
	}
}

func TestCompileParseErrorNamesUnit(t *testing.T) {
	_, err := Compile([]Source{{Name: "broken.gv", Content: "build {}"}}, Options{})
	var ue *UnitError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "broken.gv", ue.Unit)
	assert.Contains(t, err.Error(), "broken.gv")
}

func TestParseAllPreservesOrder(t *testing.T) {
	var sources []Source
	for i := range 32 {
		sources = append(sources, Source{
			Name:    fmt.Sprintf("u%02d.gv", i),
			Content: fmt.Sprintf("type T%d = Int", i),
		})
	}
	sources[7].Content = "type = Int"

	files, errs := ParseAll(sources)
	require.Len(t, files, 32)
	require.Len(t, errs, 32)
	for i := range sources {
		if i == 7 {
			assert.Nil(t, files[i])
			assert.Error(t, errs[i])
			continue
		}
		require.NoError(t, errs[i])
		assert.Equal(t, sources[i].Name, files[i].Name)
	}
}

func TestCheckCollectsAcrossUnits(t *testing.T) {
	sources := []Source{
		{Name: "a.gv", Content: "pub pub type A = Int"},
		{Name: "b.gv", Content: "type Ok = Int"},
		{Name: "c.gv", Content: "type P {\n    x: Int\n    x: Int\n}\nfn f(a: Int, a: Int) {\n}"},
	}
	var sink diag.Collector
	ok := Check(sources, Options{}, &sink)
	assert.False(t, ok)

	diags := sink.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, "a.gv", diags[0].Unit)
	assert.Equal(t, parser.CodeDuplicateModifier, diags[0].Code)
	assert.Equal(t, "c.gv", diags[1].Unit)
	assert.Equal(t, diag.Code(ErrDuplicateMember), diags[1].Code)
	assert.Equal(t, diag.Code(ErrDuplicateParam), diags[2].Code)
}

func TestCheckReportsResolutionErrors(t *testing.T) {
	var sink diag.Collector
	ok := Check([]Source{{Name: "a.gv", Content: "fn f(self: Ghost) {\n}"}}, Options{}, &sink)
	assert.False(t, ok)
	require.Len(t, sink.Diagnostics(), 1)
	d := sink.Diagnostics()[0]
	assert.Equal(t, diag.StageResolver, d.Stage)
	assert.Equal(t, "a.gv", d.Unit)
}

func TestCheckClean(t *testing.T) {
	var sink diag.Collector
	assert.True(t, Check([]Source{{Name: "a.gv", Content: "main {\n}"}}, Options{}, &sink))
	assert.Empty(t, sink.Diagnostics())
}

func TestCacheKey(t *testing.T) {
	key := Options{}.CacheKey()
	assert.Equal(t, map[string]string{
		"aggregate_unit": codegen.AggregateUnitName,
		"builtins":       fmt.Sprint(resolver.BuiltinsVersion),
		"generator":      fmt.Sprint(codegen.Version),
	}, key)

	assert.Equal(t, key, Options{AggregateUnit: codegen.AggregateUnitName}.CacheKey())
	assert.NotEqual(t, key, Options{AggregateUnit: "app"}.CacheKey())
}

func TestSourceHash(t *testing.T) {
	a := Source{Name: "a.gv", Content: "type A = Int"}
	b := Source{Name: "b.gv", Content: "type B = Int"}

	h1 := SourceHash([]Source{a, b})
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, SourceHash([]Source{b, a}), "order independent")
	assert.NotEqual(t, h1, SourceHash([]Source{a}))

	moved := []Source{{Name: "a.gv", Content: "type A = Inttype B = Int"}, {Name: "b.gv", Content: ""}}
	assert.NotEqual(t, SourceHash([]Source{a, {Name: "b.gv", Content: "type B = Int"}}), SourceHash(moved))
}

func TestSourceHashNormalizesUnicode(t *testing.T) {
	composed := Source{Name: "caf\u00e9.gv", Content: "// caf\u00e9"}
	decomposed := Source{Name: "cafe\u0301.gv", Content: "// cafe\u0301"}
	require.NotEqual(t, composed.Name, decomposed.Name)
	assert.Equal(t, SourceHash([]Source{composed}), SourceHash([]Source{decomposed}))
}

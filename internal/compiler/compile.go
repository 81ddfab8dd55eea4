// Package compiler runs the transpilation pipeline over a set of sources:
// parse, validate, resolve, emit.
//
// Compile stops at the first error. Check keeps going across units and
// reports every unit's first error to a diagnostic sink.
package compiler

import (
	"strconv"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/codegen"
	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/resolver"
)

// Options configures a compilation.
type Options struct {
	// AggregateUnit names the unit holding free functions and entries.
	// Empty means codegen.AggregateUnitName.
	AggregateUnit string
}

// CacheKey returns the settings that, together with SourceHash, determine
// the output of a compilation: the aggregate unit name and the versions of
// the built-in seed and of the lowering rules.
func (o Options) CacheKey() map[string]string {
	aggregate := o.AggregateUnit
	if aggregate == "" {
		aggregate = codegen.AggregateUnitName
	}
	return map[string]string{
		"aggregate_unit": aggregate,
		"builtins":       strconv.Itoa(resolver.BuiltinsVersion),
		"generator":      strconv.Itoa(codegen.Version),
	}
}

// Result is a successful compilation.
type Result struct {
	Files    []*ast.File
	Universe *resolver.Universe
	Units    []codegen.Unit
}

// Compile runs the whole pipeline. Sources are parsed in parallel and then
// folded in the order given.
func Compile(sources []Source, opts Options) (*Result, error) {
	files, errs := ParseAll(sources)
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for _, f := range files {
		if verrs := Validate(f); len(verrs) > 0 {
			return nil, verrs[0]
		}
	}

	u, err := resolver.Build(files...)
	if err != nil {
		return nil, err
	}

	units, err := codegen.EmitWith(u, codegen.Options{AggregateUnit: opts.AggregateUnit})
	if err != nil {
		return nil, err
	}

	return &Result{Files: files, Universe: u, Units: units}, nil
}

// Check reports diagnostics for sources without stopping at the first
// failing unit. Each unit contributes at most its first parse error, and
// all of its validation errors. Resolution and generation run only when
// every unit parsed and validated. Returns true when nothing was reported.
func Check(sources []Source, opts Options, sink diag.Sink) bool {
	ok := true
	report := func(unit string, err error) {
		ok = false
		sink.Report(diag.FromError(unit, err))
	}

	files, errs := ParseAll(sources)
	var parsed []*ast.File
	for i, err := range errs {
		if err != nil {
			report(sources[i].Name, err)
			continue
		}
		for _, verr := range Validate(files[i]) {
			report(sources[i].Name, verr)
		}
		parsed = append(parsed, files[i])
	}
	if !ok {
		return false
	}

	u, err := resolver.Build(parsed...)
	if err != nil {
		report("", err)
		return false
	}
	if _, err := codegen.EmitWith(u, codegen.Options{AggregateUnit: opts.AggregateUnit}); err != nil {
		report("", err)
		return false
	}
	return true
}

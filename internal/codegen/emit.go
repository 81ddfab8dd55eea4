// Package codegen lowers a resolved universe to Rust source text.
//
// Output is deterministic: one unit per user type in declaration order,
// followed by a single aggregate unit holding the built-in prelude, the
// members of built-ins, free functions, the main entry and tests. The
// universe is only read.
package codegen

import (
	"strings"

	"github.com/roach88/galvan/internal/resolver"
)

// AggregateUnitName is the default name of the unit holding everything
// that does not belong to a type.
const AggregateUnitName = "galvan_module"

// Version identifies the lowering rules. It is bumped whenever the same
// universe would produce different text.
const Version = 2

// Unit is one generated text unit.
type Unit struct {
	Name    string
	Content string
}

// Options adjusts emission.
type Options struct {
	// AggregateUnit overrides AggregateUnitName when non-empty.
	AggregateUnit string
}

// Emit lowers u with default options.
func Emit(u *resolver.Universe) ([]Unit, error) {
	return EmitWith(u, Options{})
}

// EmitWith lowers u. The first generation error aborts emission.
func EmitWith(u *resolver.Universe, opts Options) ([]Unit, error) {
	aggregate := opts.AggregateUnit
	if aggregate == "" {
		aggregate = AggregateUnitName
	}

	g := &generator{u: u}
	var units []Unit

	for _, t := range u.Types() {
		items := []string{lowerTypeDecl(t.Decl)}
		if members := u.Members(t.Name); len(members) > 0 {
			impl, err := g.implBlock(t.Name, members)
			if err != nil {
				return nil, err
			}
			items = append(items, impl)
		}
		units = append(units, Unit{Name: t.Name, Content: finish(items)})
	}

	items := []string{prelude()}
	for _, b := range resolver.BuiltinTypes {
		methods := builtinMethods(u, b.Name)
		if len(methods) == 0 {
			continue
		}
		text, err := g.extensionTrait(b.Name, methods)
		if err != nil {
			return nil, err
		}
		items = append(items, text)
	}
	for _, fn := range looseFunctions(u) {
		text, err := g.function(fn.Decl, fn.Unit)
		if err != nil {
			return nil, err
		}
		items = append(items, text)
	}
	if main, ok := u.Main(); ok {
		text, err := g.main(main)
		if err != nil {
			return nil, err
		}
		items = append(items, text)
	}
	names := newTestNames()
	for _, test := range u.Tests() {
		text, err := g.test(test, names.next(test.Decl.Description))
		if err != nil {
			return nil, err
		}
		items = append(items, text)
	}
	units = append(units, Unit{Name: aggregate, Content: finish(items)})

	return units, nil
}

// prelude aliases the built-in names to their target spelling.
func prelude() string {
	var lines []string
	for _, b := range resolver.BuiltinTypes {
		if b.Name == b.Lowered {
			continue
		}
		lines = append(lines, "type "+b.Name+" = "+b.Lowered+";")
	}
	return strings.Join(lines, "\n")
}

func finish(items []string) string {
	return strings.Join(items, sepRootItems) + "\n"
}

// indent prefixes every non-empty line of s with four spaces.
func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "    " + l
		}
	}
	return strings.Join(lines, "\n")
}

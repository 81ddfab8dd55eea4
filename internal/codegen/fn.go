package codegen

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/resolver"
)

type generator struct {
	u *resolver.Universe
}

func (g *generator) implBlock(typeName string, members []*resolver.FnSymbol) (string, error) {
	fns := make([]string, 0, len(members))
	for _, m := range members {
		text, err := g.function(m.Decl, m.Unit)
		if err != nil {
			return "", err
		}
		fns = append(fns, text)
	}
	return "impl " + typeName + " {\n" + indent(strings.Join(fns, sepRootItems)) + "\n}", nil
}

// extensionTrait renders the methods of a built-in type as a trait
// implemented for it, since inherent impls on primitives are not allowed.
//
//	[pub ]trait IntExt {
//	    fn twice(&self) -> Int;
//	}
//
//	impl IntExt for Int {
//	    fn twice(&self) -> Int { ... }
//	}
func (g *generator) extensionTrait(typeName string, methods []*resolver.FnSymbol) (string, error) {
	trait := typeName + "Ext"
	vis := ""
	decls := make([]string, 0, len(methods))
	fns := make([]string, 0, len(methods))
	for _, m := range methods {
		if m.Decl.Modifiers.Visibility == ast.Public {
			vis = "pub "
		}
		sig, err := g.signature(m.Decl, m.Unit, true)
		if err != nil {
			return "", err
		}
		body, err := g.block(m.Decl.Body, m.Decl.Return != nil, m.Unit)
		if err != nil {
			return "", err
		}
		decls = append(decls, sig+";")
		fns = append(fns, sig+" "+body)
	}
	return vis + "trait " + trait + " {\n" + indent(strings.Join(decls, "\n")) + "\n}" +
		sepRootItems +
		"impl " + trait + " for " + typeName + " {\n" + indent(strings.Join(fns, sepRootItems)) + "\n}", nil
}

// function renders `[pub ][const ][async ]fn name(params)[ -> R] { body }`.
func (g *generator) function(fn *ast.FnDecl, unit string) (string, error) {
	sig, err := g.signature(fn, unit, false)
	if err != nil {
		return "", err
	}
	body, err := g.block(fn.Body, fn.Return != nil, unit)
	if err != nil {
		return "", err
	}
	return sig + " " + body, nil
}

// signature renders everything before the body. Trait items carry neither
// visibility nor const.
func (g *generator) signature(fn *ast.FnDecl, unit string, traitItem bool) (string, error) {
	params := make([]string, 0, len(fn.Params))
	for i, p := range fn.Params {
		text, err := g.param(p, i == 0, unit)
		if err != nil {
			return "", err
		}
		params = append(params, text)
	}

	var sig strings.Builder
	if !traitItem {
		sig.WriteString(visibility(fn.Modifiers.Visibility))
		if fn.Modifiers.Constness == ast.Const {
			sig.WriteString("const ")
		}
	}
	if fn.Modifiers.Asyncness == ast.Async {
		sig.WriteString("async ")
	}
	sig.WriteString("fn " + fn.Name + "(" + strings.Join(params, sepParams) + ")")
	if fn.Return != nil {
		sig.WriteString(" -> " + LowerType(fn.Return))
	}
	return sig.String(), nil
}

// looseFunctions returns the functions emitted at the top level of the
// aggregate unit in declaration order: free functions and the associated
// functions of built-ins.
func looseFunctions(u *resolver.Universe) []*resolver.FnSymbol {
	out := u.FreeFunctions()
	for _, b := range resolver.BuiltinTypes {
		for _, m := range u.Members(b.Name) {
			if !m.IsMethod() {
				out = append(out, m)
			}
		}
	}
	slices.SortFunc(out, func(a, b *resolver.FnSymbol) int { return a.Seq - b.Seq })
	return out
}

// builtinMethods returns the `self` members of a built-in.
func builtinMethods(u *resolver.Universe, name string) []*resolver.FnSymbol {
	var out []*resolver.FnSymbol
	for _, m := range u.Members(name) {
		if m.IsMethod() {
			out = append(out, m)
		}
	}
	return out
}

// param lowers one parameter according to its ownership modifier. first
// marks the receiver position.
func (g *generator) param(p ast.Param, first bool, unit string) (string, error) {
	if p.IsSelf() {
		if !first {
			return "", &GenerationError{
				Code:    CodeNotAllowedHere,
				Message: "`self` is only allowed as the first parameter",
				Unit:    unit,
				Span:    p.Span,
			}
		}
		if _, ok := p.Type.(*ast.PlainType); !ok {
			return "", &GenerationError{
				Code:    CodeNotAllowedHere,
				Message: "`self` must have a plain type, found " + ast.TypeString(p.Type),
				Unit:    unit,
				Span:    p.Span,
			}
		}
		switch p.Modifier {
		case ast.Mut:
			return "&mut self", nil
		case ast.Ref:
			return "", &GenerationError{
				Code:    CodeRefReceiver,
				Message: "a function cannot take its receiver as `ref`; declare the type as a reference instead",
				Unit:    unit,
				Span:    p.Span,
			}
		default:
			return "&self", nil
		}
	}

	ty := LowerType(p.Type)
	switch p.Modifier {
	case ast.Mut:
		return p.Name + ": &mut " + ty, nil
	case ast.Ref:
		return p.Name + ": " + sharedHandle(ty), nil
	default:
		if g.isValueParam(p) {
			return p.Name + ": " + ty, nil
		}
		return p.Name + ": &" + ty, nil
	}
}

// isValueParam reports whether p is passed by value: an unmodified or let
// parameter whose type is a plain built-in value type.
func (g *generator) isValueParam(p ast.Param) bool {
	if p.Modifier != ast.NoModifier && p.Modifier != ast.Let {
		return false
	}
	plain, ok := p.Type.(*ast.PlainType)
	return ok && g.u.IsValueType(plain.Name)
}

func (g *generator) main(m *resolver.MainSymbol) (string, error) {
	body, err := g.block(m.Decl.Body, false, m.Unit)
	if err != nil {
		return "", err
	}
	return entryPrefix(m.Decl.Modifiers) + "fn main() " + body, nil
}

func (g *generator) test(t *resolver.TestSymbol, name string) (string, error) {
	body, err := g.block(t.Decl.Body, false, t.Unit)
	if err != nil {
		return "", err
	}
	return "#[test]\n" + entryPrefix(t.Decl.Modifiers) + "fn " + name + "() " + body, nil
}

func entryPrefix(m ast.Modifiers) string {
	if m.Asyncness == ast.Async {
		return "async "
	}
	return ""
}

// testNames derives unique function names for test entries.
type testNames struct {
	used  map[string]bool
	count int
}

func newTestNames() *testNames {
	return &testNames{used: make(map[string]bool)}
}

// next returns `test_<slug>` for a described test and `test_<n>` otherwise,
// with a numeric suffix on collision.
func (n *testNames) next(description string) string {
	n.count++
	base := "test_" + strconv.Itoa(n.count)
	if slug := slugify(description); slug != "" {
		base = "test_" + slug
	}
	name := base
	for i := 2; n.used[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	n.used[name] = true
	return name
}

// slugify lowercases s and replaces every run of non-alphanumeric
// characters with one underscore.
func slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	return b.String()
}

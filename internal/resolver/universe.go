// Package resolver folds parsed translation units into a symbol universe.
//
// Construction goes through a Builder that is consumed by Build. The
// resulting Universe is read-only and may be shared freely, including by
// concurrent generators.
package resolver

import (
	"github.com/roach88/galvan/internal/ast"
)

// BuiltinsVersion identifies the built-in type seed. Changing BuiltinTypes
// changes generated output and must bump this value.
const BuiltinsVersion = 1

// Builtin is a primitive type seeded before any user declaration.
type Builtin struct {
	Name    string
	Lowered string // target spelling
}

// BuiltinTypes is the seed, in prelude order. Every built-in is a value type.
var BuiltinTypes = []Builtin{
	{Name: "Int", Lowered: "i64"},
	{Name: "Float", Lowered: "f64"},
	{Name: "String", Lowered: "String"},
}

// TypeSymbol is a named type in the universe.
type TypeSymbol struct {
	Name    string
	Unit    string
	Decl    *ast.TypeDecl // nil for built-ins
	Builtin *Builtin      // nil for user types
	members []*FnSymbol
}

// FnSymbol is a function declaration and the unit it came from.
type FnSymbol struct {
	Decl *ast.FnDecl
	Unit string
	// Seq is the declaration position across all folded units, from 1.
	Seq int
}

// Receiver returns the receiver type name for member functions.
func (f *FnSymbol) Receiver() (string, bool) {
	return f.Decl.Receiver()
}

// IsMethod reports whether f is a member taking `self`.
func (f *FnSymbol) IsMethod() bool {
	return f.Decl.IsMethod()
}

// MainSymbol is the program entry point.
type MainSymbol struct {
	Decl *ast.MainDecl
	Unit string
}

// TestSymbol is a test entry.
type TestSymbol struct {
	Decl *ast.TestDecl
	Unit string
}

// Universe is the resolved program. It is never mutated after Build.
type Universe struct {
	types     map[string]*TypeSymbol
	userOrder []*TypeSymbol

	free       []*FnSymbol
	freeByName map[string]*FnSymbol
	byMethod   map[string][]*FnSymbol
	associated map[string]*FnSymbol

	main  *MainSymbol
	tests []*TestSymbol
}

func newUniverse() *Universe {
	u := &Universe{
		types:      make(map[string]*TypeSymbol),
		freeByName: make(map[string]*FnSymbol),
		byMethod:   make(map[string][]*FnSymbol),
		associated: make(map[string]*FnSymbol),
	}
	for i := range BuiltinTypes {
		b := &BuiltinTypes[i]
		u.types[b.Name] = &TypeSymbol{Name: b.Name, Builtin: b}
	}
	return u
}

// Types returns the user-declared types in declaration order.
func (u *Universe) Types() []*TypeSymbol {
	out := make([]*TypeSymbol, len(u.userOrder))
	copy(out, u.userOrder)
	return out
}

// Type looks up a user or built-in type by name.
func (u *Universe) Type(name string) (*TypeSymbol, bool) {
	t, ok := u.types[name]
	return t, ok
}

// IsBuiltin reports whether name is a seeded built-in.
func (u *Universe) IsBuiltin(name string) bool {
	t, ok := u.types[name]
	return ok && t.Builtin != nil
}

// IsValueType reports whether values of the named type are passed by value
// at call sites. Only built-ins are value types.
func (u *Universe) IsValueType(name string) bool {
	return u.IsBuiltin(name)
}

// Members returns the member functions attached to typeName in
// declaration order. Built-ins may have members too.
func (u *Universe) Members(typeName string) []*FnSymbol {
	t, ok := u.types[typeName]
	if !ok {
		return nil
	}
	out := make([]*FnSymbol, len(t.members))
	copy(out, t.members)
	return out
}

// FreeFunctions returns the functions without a receiver in declaration
// order.
func (u *Universe) FreeFunctions() []*FnSymbol {
	out := make([]*FnSymbol, len(u.free))
	copy(out, u.free)
	return out
}

// Function looks up a free function. When a name is declared more than
// once the first declaration wins.
func (u *Universe) Function(name string) (*FnSymbol, bool) {
	f, ok := u.freeByName[name]
	return f, ok
}

// MembersNamed returns every method called method, across all receiver
// types. Associated functions are not included.
func (u *Universe) MembersNamed(method string) []*FnSymbol {
	return u.byMethod[method]
}

// Associated looks up a member function that does not take `self`. When a
// name is declared more than once the first declaration wins.
func (u *Universe) Associated(name string) (*FnSymbol, bool) {
	f, ok := u.associated[name]
	return f, ok
}

// Main returns the program entry, if one was declared.
func (u *Universe) Main() (*MainSymbol, bool) {
	return u.main, u.main != nil
}

// Tests returns the test entries in declaration order.
func (u *Universe) Tests() []*TestSymbol {
	out := make([]*TestSymbol, len(u.tests))
	copy(out, u.tests)
	return out
}

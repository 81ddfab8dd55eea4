// Package ast provides the program tree produced by the parser and consumed
// by the resolver and the code generator.
//
// This package contains type definitions only. Nodes are never mutated after
// the parser constructs them. All closed sum types (Decl, TypeBody,
// TypeElement, Stmt, Expr) are interfaces with unexported marker methods, so
// only the variants declared here can satisfy them.
package ast

import "github.com/roach88/galvan/internal/token"

// Visibility of a declaration or member.
type Visibility int

const (
	Inherited Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "pub"
	}
	return "inherited"
}

// Constness of a declaration.
type Constness int

const (
	NotConst Constness = iota
	Const
)

// Asyncness of a declaration.
type Asyncness int

const (
	NotAsync Asyncness = iota
	Async
)

// Modifiers is the snapshot of modifier keywords seen before a declaration.
type Modifiers struct {
	Visibility Visibility
	Constness  Constness
	Asyncness  Asyncness
}

// DeclModifier is the ownership modifier on a parameter, variable or
// call argument.
type DeclModifier int

const (
	NoModifier DeclModifier = iota
	Let
	Mut
	Ref
)

func (m DeclModifier) String() string {
	switch m {
	case Let:
		return "let"
	case Mut:
		return "mut"
	case Ref:
		return "ref"
	default:
		return ""
	}
}

// File is one translation unit.
type File struct {
	Name  string
	Decls []Decl
}

// Decl is a top-level declaration: *FnDecl, *TypeDecl, *MainDecl or *TestDecl.
type Decl interface {
	decl()
	Mods() Modifiers
	DeclSpan() token.Span
}

// FnDecl is `fn name(params) -> Return { body }`.
type FnDecl struct {
	Modifiers Modifiers
	Name      string
	Params    []Param
	Return    TypeElement // nil when the function returns nothing
	Body      Block
	Span      token.Span
}

// SelfName is the identifier of the implicit receiver parameter.
const SelfName = "self"

// Receiver returns the type a member function belongs to: the plain type
// of its first parameter, whatever that parameter is called.
func (f *FnDecl) Receiver() (string, bool) {
	if len(f.Params) == 0 {
		return "", false
	}
	plain, ok := f.Params[0].Type.(*PlainType)
	if !ok {
		return "", false
	}
	return plain.Name, true
}

// IsMethod reports whether f is a member taking its receiver as `self`.
// Other members are associated functions of their type.
func (f *FnDecl) IsMethod() bool {
	_, ok := f.Receiver()
	return ok && f.Params[0].IsSelf()
}

// TypeDecl is `type Name ...`.
type TypeDecl struct {
	Modifiers Modifiers
	Name      string
	Body      TypeBody
	Span      token.Span
}

// MainDecl is the program entry point.
type MainDecl struct {
	Modifiers Modifiers
	Body      Block
	Span      token.Span
}

// TestDecl is a test entry with an optional description.
type TestDecl struct {
	Modifiers   Modifiers
	Description string // unquoted; empty when absent
	Body        Block
	Span        token.Span
}

func (*FnDecl) decl()   {}
func (*TypeDecl) decl() {}
func (*MainDecl) decl() {}
func (*TestDecl) decl() {}

func (d *FnDecl) Mods() Modifiers   { return d.Modifiers }
func (d *TypeDecl) Mods() Modifiers { return d.Modifiers }
func (d *MainDecl) Mods() Modifiers { return d.Modifiers }
func (d *TestDecl) Mods() Modifiers { return d.Modifiers }

func (d *FnDecl) DeclSpan() token.Span   { return d.Span }
func (d *TypeDecl) DeclSpan() token.Span { return d.Span }
func (d *MainDecl) DeclSpan() token.Span { return d.Span }
func (d *TestDecl) DeclSpan() token.Span { return d.Span }

// TypeBody is *StructBody, *TupleBody or *AliasBody.
type TypeBody interface {
	typeBody()
}

// StructBody holds named members in declaration order.
type StructBody struct {
	Members []StructMember
}

// StructMember is `[pub] name: Type`.
type StructMember struct {
	Visibility Visibility
	Name       string
	Type       TypeElement
	Span       token.Span
}

// TupleBody holds positional members in declaration order.
type TupleBody struct {
	Members []TupleMember
}

// TupleMember is `[pub] Type`.
type TupleMember struct {
	Visibility Visibility
	Type       TypeElement
}

// AliasBody is `= Type`.
type AliasBody struct {
	Aliased TypeElement
}

func (*StructBody) typeBody() {}
func (*TupleBody) typeBody()  {}
func (*AliasBody) typeBody()  {}

// Param is `[let|mut|ref] name: Type`.
type Param struct {
	Modifier DeclModifier
	Name     string
	Type     TypeElement
	Span     token.Span
}

// IsSelf reports whether p is the implicit receiver.
func (p Param) IsSelf() bool {
	return p.Name == SelfName
}

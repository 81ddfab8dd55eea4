package ast

import "github.com/roach88/galvan/internal/token"

// Block is the body of a function, main or test entry.
type Block struct {
	Stmts []Stmt
	Span  token.Span
}

// Stmt is *DeclStmt, *AssignStmt or *ExprStmt.
type Stmt interface {
	stmt()
}

// DeclStmt is `let|mut|ref name [: Type] [= Value]`.
type DeclStmt struct {
	Modifier DeclModifier
	Name     string
	Type     TypeElement // optional
	Value    Expr        // optional
	Span     token.Span
}

// AssignStmt is `target = value`.
type AssignStmt struct {
	Target Expr
	Value  Expr
	Span   token.Span
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	Expr Expr
}

func (*DeclStmt) stmt()   {}
func (*AssignStmt) stmt() {}
func (*ExprStmt) stmt()   {}

// Expr is one of *Ident, *StringLit, *NumberLit, *CallExpr,
// *MemberCallExpr, *FieldAccess or *ConstructorExpr.
type Expr interface {
	expr()
	ExprSpan() token.Span
}

// Ident is a variable reference.
type Ident struct {
	Name string
	Span token.Span
}

// StringLit keeps the quoted source spelling.
type StringLit struct {
	Raw  string
	Span token.Span
}

// NumberLit keeps the source spelling.
type NumberLit struct {
	Raw  string
	Span token.Span
}

// CallExpr is `name(args)`.
type CallExpr struct {
	Name string
	Args []Arg
	Span token.Span
}

// MemberCallExpr is `receiver.name(args)`.
type MemberCallExpr struct {
	Receiver Expr
	Name     string
	Args     []Arg
	Span     token.Span
}

// FieldAccess is `receiver.name`.
type FieldAccess struct {
	Receiver Expr
	Name     string
	Span     token.Span
}

// ConstructorExpr is `Type(field: value, ...)`.
type ConstructorExpr struct {
	Type   string
	Fields []FieldInit
	Span   token.Span
}

// FieldInit is `name: value` inside a constructor.
type FieldInit struct {
	Name  string
	Value Expr
}

// Arg is a call argument with its ownership modifier.
type Arg struct {
	Modifier DeclModifier
	Value    Expr
	Span     token.Span
}

func (*Ident) expr()           {}
func (*StringLit) expr()       {}
func (*NumberLit) expr()       {}
func (*CallExpr) expr()        {}
func (*MemberCallExpr) expr()  {}
func (*FieldAccess) expr()     {}
func (*ConstructorExpr) expr() {}

func (e *Ident) ExprSpan() token.Span           { return e.Span }
func (e *StringLit) ExprSpan() token.Span       { return e.Span }
func (e *NumberLit) ExprSpan() token.Span       { return e.Span }
func (e *CallExpr) ExprSpan() token.Span        { return e.Span }
func (e *MemberCallExpr) ExprSpan() token.Span  { return e.Span }
func (e *FieldAccess) ExprSpan() token.Span     { return e.Span }
func (e *ConstructorExpr) ExprSpan() token.Span { return e.Span }

// IsLvalue reports whether e names a storage location (a variable or a
// field) and may therefore carry an ownership modifier.
func IsLvalue(e Expr) bool {
	switch e.(type) {
	case *Ident, *FieldAccess:
		return true
	default:
		return false
	}
}

package codegen

import (
	"fmt"
	"strings"

	"github.com/roach88/galvan/internal/ast"
)

// block renders a braced body. When tail is set a trailing expression
// statement is left without its semicolon so it becomes the return value.
func (g *generator) block(b ast.Block, tail bool, unit string) (string, error) {
	if len(b.Stmts) == 0 {
		return "{}", nil
	}
	stmts := make([]string, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		text, err := g.stmt(s, unit)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, text)
	}
	body := strings.Join(stmts, sepStmts)
	if _, isExpr := b.Stmts[len(b.Stmts)-1].(*ast.ExprStmt); !tail || !isExpr {
		body += ";"
	}
	return "{\n" + indent(body) + "\n}", nil
}

func (g *generator) stmt(s ast.Stmt, unit string) (string, error) {
	switch s := s.(type) {
	case *ast.DeclStmt:
		return g.declStmt(s, unit)
	case *ast.AssignStmt:
		target, err := g.expr(s.Target, unit)
		if err != nil {
			return "", err
		}
		value, err := g.expr(s.Value, unit)
		if err != nil {
			return "", err
		}
		return target + " = " + value, nil
	case *ast.ExprStmt:
		return g.expr(s.Expr, unit)
	default:
		panic(fmt.Sprintf("codegen: unhandled statement %T", s))
	}
}

// declStmt renders a variable declaration. A ref variable wraps its value
// in a shared handle.
func (g *generator) declStmt(s *ast.DeclStmt, unit string) (string, error) {
	var b strings.Builder
	b.WriteString("let ")
	if s.Modifier == ast.Mut {
		b.WriteString("mut ")
	}
	b.WriteString(s.Name)
	if s.Type != nil {
		ty := LowerType(s.Type)
		if s.Modifier == ast.Ref {
			ty = sharedHandle(ty)
		}
		b.WriteString(": " + ty)
	}
	if s.Value != nil {
		value, err := g.expr(s.Value, unit)
		if err != nil {
			return "", err
		}
		if s.Modifier == ast.Ref {
			value = "std::sync::Arc::new(std::sync::Mutex::new(" + value + "))"
		}
		b.WriteString(" = " + value)
	}
	return b.String(), nil
}

func (g *generator) expr(e ast.Expr, unit string) (string, error) {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name, nil
	case *ast.StringLit:
		return e.Raw, nil
	case *ast.NumberLit:
		return e.Raw, nil
	case *ast.FieldAccess:
		recv, err := g.expr(e.Receiver, unit)
		if err != nil {
			return "", err
		}
		return recv + "." + e.Name, nil
	case *ast.CallExpr:
		return g.call(e, unit)
	case *ast.MemberCallExpr:
		recv, err := g.expr(e.Receiver, unit)
		if err != nil {
			return "", err
		}
		var params []ast.Param
		if candidates := g.u.MembersNamed(e.Name); len(candidates) == 1 {
			params = candidates[0].Decl.Params[1:]
		}
		args, err := g.args(e.Args, params, unit)
		if err != nil {
			return "", err
		}
		return recv + "." + e.Name + "(" + args + ")", nil
	case *ast.ConstructorExpr:
		if len(e.Fields) == 0 {
			return e.Type + " {}", nil
		}
		fields := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			value, err := g.expr(f.Value, unit)
			if err != nil {
				return "", err
			}
			fields = append(fields, f.Name+": "+value)
		}
		return e.Type + " { " + strings.Join(fields, sepArgs) + " }", nil
	default:
		panic(fmt.Sprintf("codegen: unhandled expression %T", e))
	}
}

// printMacros maps the intercepted output functions to their macro and the
// placeholder used for each argument.
var printMacros = map[string]struct {
	macro       string
	placeholder string
}{
	"println": {"println!", "{}"},
	"print":   {"print!", "{}"},
	"debug":   {"println!", "{:?}"},
}

func (g *generator) call(c *ast.CallExpr, unit string) (string, error) {
	if pm, ok := printMacros[c.Name]; ok {
		return g.printCall(c, pm.macro, pm.placeholder, unit)
	}
	name := c.Name
	var params []ast.Param
	if fn, ok := g.u.Function(c.Name); ok {
		params = fn.Decl.Params
	} else if fn, ok := g.u.Associated(c.Name); ok {
		params = fn.Decl.Params
		if recv, _ := fn.Receiver(); !g.u.IsBuiltin(recv) {
			name = recv + "::" + c.Name
		}
	}
	args, err := g.args(c.Args, params, unit)
	if err != nil {
		return "", err
	}
	return name + "(" + args + ")", nil
}

// printCall renders an output macro with one placeholder per argument.
// Arguments are formatted in place, so they take no ownership modifier.
func (g *generator) printCall(c *ast.CallExpr, macro, placeholder, unit string) (string, error) {
	if len(c.Args) == 0 {
		if macro == "print!" {
			return `print!("")`, nil
		}
		return "println!()", nil
	}
	holders := make([]string, len(c.Args))
	values := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a.Modifier != ast.NoModifier {
			return "", &GenerationError{
				Code:    CodeNotAllowedHere,
				Message: fmt.Sprintf("`%s` is not allowed on an argument of `%s`", a.Modifier, c.Name),
				Unit:    unit,
				Span:    a.Span,
			}
		}
		value, err := g.expr(a.Value, unit)
		if err != nil {
			return "", err
		}
		holders[i] = placeholder
		values[i] = value
	}
	return macro + `("` + strings.Join(holders, " ") + `", ` + strings.Join(values, sepArgs) + ")", nil
}

// args lowers call arguments. params are the callee's parameters when the
// callee is known, and select pass-by-value for built-in value types.
func (g *generator) args(args []ast.Arg, params []ast.Param, unit string) (string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		byValue := i < len(params) && g.isValueParam(params[i])
		text, err := g.arg(a, byValue, unit)
		if err != nil {
			return "", err
		}
		out[i] = text
	}
	return strings.Join(out, sepArgs), nil
}

func (g *generator) arg(a ast.Arg, byValue bool, unit string) (string, error) {
	if a.Modifier == ast.Let {
		return "", &GenerationError{
			Code:    CodeNotAllowedHere,
			Message: "`let` is not allowed on a call argument",
			Unit:    unit,
			Span:    a.Span,
		}
	}
	if a.Modifier != ast.NoModifier && !ast.IsLvalue(a.Value) {
		return "", &GenerationError{
			Code:    CodeModifierOnNonLvalue,
			Message: fmt.Sprintf("`%s` is only allowed on variables and fields", a.Modifier),
			Unit:    unit,
			Span:    a.Span,
		}
	}

	value, err := g.expr(a.Value, unit)
	if err != nil {
		return "", err
	}
	_, isIdent := a.Value.(*ast.Ident)

	switch {
	case a.Modifier == ast.Mut:
		return "&mut " + value, nil
	case a.Modifier == ast.Ref:
		return "::std::sync::Arc::clone(&" + value + ")", nil
	case byValue && isIdent:
		return "(&" + value + ").__borrow().to_owned()", nil
	case byValue:
		return value, nil
	case isIdent:
		return "&(&" + value + ").__borrow()", nil
	default:
		return "&(" + value + ")", nil
	}
}

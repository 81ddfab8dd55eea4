package parser

import (
	"unicode"
	"unicode/utf8"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/token"
)

// parseBody parses a braced block. Statements are separated by newlines.
func parseBody(c *cursor, context string) (ast.Block, error) {
	c.skipNewlines()
	open, err := c.expect(token.LBRACE, context)
	if err != nil {
		return ast.Block{}, err
	}
	tokens, err := scanBalanced(c, open)
	if err != nil {
		return ast.Block{}, err
	}
	block := ast.Block{Span: open.Span.Cover(tokens[len(tokens)-1].Span)}

	bc := sliceCursor(inner(tokens), open.Span)
	bc.skipNewlines()
	for !bc.done() {
		stmt, err := parseStmt(bc)
		if err != nil {
			return ast.Block{}, err
		}
		block.Stmts = append(block.Stmts, stmt)
		if bc.done() {
			break
		}
		if _, err := bc.expect(token.NEWLINE, "expected newline after statement"); err != nil {
			return ast.Block{}, err
		}
		bc.skipNewlines()
	}
	return block, nil
}

func parseStmt(c *cursor) (ast.Stmt, error) {
	start, _, _ := c.peek()

	if mod := parseDeclModifier(c); mod != ast.NoModifier {
		name, err := c.ident("expected variable name after `" + mod.String() + "`")
		if err != nil {
			return nil, err
		}
		stmt := &ast.DeclStmt{Modifier: mod, Name: name.Text}
		if c.consumeIf(token.COLON) {
			if stmt.Type, err = parseTypeElement(c); err != nil {
				return nil, err
			}
		}
		if c.consumeIf(token.ASSIGN) {
			if stmt.Value, err = parseExpr(c); err != nil {
				return nil, err
			}
		}
		stmt.Span = start.Span.Cover(c.last)
		return stmt, nil
	}

	target, err := parseExpr(c)
	if err != nil {
		return nil, err
	}
	if !c.at(token.ASSIGN) {
		return &ast.ExprStmt{Expr: target}, nil
	}
	eq, _, _ := c.advance()
	if !ast.IsLvalue(target) {
		return nil, errorf(CodeInvalidAssignTarget, target.ExprSpan().Cover(eq.Span),
			"left side of `=` must be a variable or a field")
	}
	value, err := parseExpr(c)
	if err != nil {
		return nil, err
	}
	return &ast.AssignStmt{Target: target, Value: value, Span: start.Span.Cover(c.last)}, nil
}

// parseExpr parses a primary expression followed by any number of
// `.name` and `.name(args)` suffixes.
func parseExpr(c *cursor) (ast.Expr, error) {
	e, err := parsePrimary(c)
	if err != nil {
		return nil, err
	}
	for c.at(token.DOT) {
		_, _, _ = c.advance()
		name, err := c.ident("expected member name after `.`")
		if err != nil {
			return nil, err
		}
		if !c.at(token.LPAREN) {
			e = &ast.FieldAccess{Receiver: e, Name: name.Text, Span: e.ExprSpan().Cover(name.Span)}
			continue
		}
		open, _, _ := c.advance()
		args, end, err := parseArgs(c, open)
		if err != nil {
			return nil, err
		}
		e = &ast.MemberCallExpr{Receiver: e, Name: name.Text, Args: args, Span: e.ExprSpan().Cover(end)}
	}
	return e, nil
}

func parsePrimary(c *cursor) (ast.Expr, error) {
	tok, ok, err := c.advance()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, eof(c.eofSpan(), "expected expression but found end of file")
	}

	switch tok.Kind {
	case token.STRING:
		return &ast.StringLit{Raw: tok.Text, Span: tok.Span}, nil
	case token.NUMBER:
		return &ast.NumberLit{Raw: tok.Text, Span: tok.Span}, nil
	case token.LPAREN:
		tokens, err := scanBalanced(c, tok)
		if err != nil {
			return nil, err
		}
		pc := sliceCursor(trimNewlines(inner(tokens)), tok.Span)
		e, err := parseExpr(pc)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(pc, "expected `)` after expression"); err != nil {
			return nil, err
		}
		return e, nil
	case token.IDENT:
		if !c.at(token.LPAREN) {
			return &ast.Ident{Name: tok.Text, Span: tok.Span}, nil
		}
		open, _, _ := c.advance()
		if isTypeName(tok.Text) {
			return parseConstructor(c, tok, open)
		}
		args, end, err := parseArgs(c, open)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{Name: tok.Text, Args: args, Span: tok.Span.Cover(end)}, nil
	default:
		return nil, unexpected(tok, "expected expression")
	}
}

// isTypeName reports whether name starts with an upper case letter.
func isTypeName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// parseArgs parses a comma separated argument list. The open paren has been
// consumed; end is the span of the closing paren.
func parseArgs(c *cursor, open token.Token) (args []ast.Arg, end token.Span, err error) {
	tokens, err := scanBalanced(c, open)
	if err != nil {
		return nil, end, err
	}
	end = tokens[len(tokens)-1].Span

	for _, part := range splitTopLevel(inner(tokens), token.COMMA) {
		part = trimNewlines(part)
		if len(part) == 0 {
			return nil, end, errorf(CodeUnexpectedToken, end, "empty argument")
		}
		ac := sliceCursor(part, part[0].Span)
		arg := ast.Arg{Modifier: parseDeclModifier(ac)}
		if arg.Value, err = parseExpr(ac); err != nil {
			return nil, end, err
		}
		if err := expectEnd(ac, "expected `,` or `)` after argument"); err != nil {
			return nil, end, err
		}
		arg.Span = part[0].Span.Cover(ac.last)
		args = append(args, arg)
	}
	return args, end, nil
}

// parseConstructor parses `Type(field: expr, ...)`. The type name and the
// open paren have been consumed.
func parseConstructor(c *cursor, name, open token.Token) (*ast.ConstructorExpr, error) {
	tokens, err := scanBalanced(c, open)
	if err != nil {
		return nil, err
	}
	ctor := &ast.ConstructorExpr{Type: name.Text, Span: name.Span.Cover(tokens[len(tokens)-1].Span)}

	for _, part := range splitTopLevel(inner(tokens), token.COMMA) {
		part = trimNewlines(part)
		if len(part) == 0 {
			return nil, errorf(CodeUnexpectedToken, ctor.Span, "empty field in `%s` constructor", name.Text)
		}
		fc := sliceCursor(part, part[0].Span)
		field, err := fc.ident("expected field name in constructor")
		if err != nil {
			return nil, err
		}
		if _, err := fc.expect(token.COLON, "expected `:` after field name"); err != nil {
			return nil, err
		}
		value, err := parseExpr(fc)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(fc, "expected `,` or `)` after field value"); err != nil {
			return nil, err
		}
		ctor.Fields = append(ctor.Fields, ast.FieldInit{Name: field.Text, Value: value})
	}
	return ctor, nil
}

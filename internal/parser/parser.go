// Package parser builds the program tree for one translation unit from a
// token stream.
//
// The parser is hand-written recursive descent. Bracketed bodies (struct,
// tuple, parameter lists and blocks) are first extracted with a balanced
// delimiter scanner and then parsed recursively from the scanned tokens.
// The first error aborts the unit; there is no recovery.
package parser

import (
	"strconv"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/lexer"
	"github.com/roach88/galvan/internal/token"
)

// ParseSource tokenizes and parses src.
func ParseSource(name, src string) (*ast.File, error) {
	return Parse(name, lexer.Tokenize(src))
}

// Parse consumes tokens once and returns the declarations of the unit in
// source order.
func Parse(name string, tokens token.Stream) (*ast.File, error) {
	c := newCursor(tokens)
	defer c.close()

	file := &ast.File{Name: name}
	var m modifiers

	for {
		tok, ok, err := c.advance()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		var decl ast.Decl
		switch tok.Kind {
		case token.NEWLINE:
			continue
		case token.PUB, token.CONST, token.ASYNC:
			if err := m.set(tok); err != nil {
				return nil, err
			}
			continue
		case token.FN:
			decl, err = parseFn(c, tok, &m)
		case token.TYPE:
			decl, err = parseTypeDecl(c, tok, &m)
		case token.MAIN:
			if err := m.checkEntry(tok); err != nil {
				return nil, err
			}
			decl, err = parseMain(c, tok, &m)
		case token.TEST:
			if err := m.checkEntry(tok); err != nil {
				return nil, err
			}
			decl, err = parseTest(c, tok, &m)
		case token.BUILD:
			return nil, errorf(CodeReservedKeyword, tok.Span, "the `build` keyword is reserved but not implemented yet")
		default:
			return nil, unexpected(tok, "expected a declaration")
		}
		if err != nil {
			return nil, err
		}
		file.Decls = append(file.Decls, decl)
		m.reset()
	}

	if m.any() {
		return nil, errorf(CodeDanglingModifier, m.span, "modifiers must be followed by a declaration")
	}
	return file, nil
}

// parseFn parses `name(params) [-> Type] { body }`. The fn keyword has been
// consumed.
func parseFn(c *cursor, kw token.Token, m *modifiers) (*ast.FnDecl, error) {
	name, err := c.ident("expected function name")
	if err != nil {
		return nil, err
	}
	open, err := c.expect(token.LPAREN, "expected `(` after function name")
	if err != nil {
		return nil, err
	}
	paramTokens, err := scanBalanced(c, open)
	if err != nil {
		return nil, err
	}
	params, err := parseParams(inner(paramTokens), open.Span)
	if err != nil {
		return nil, err
	}

	fn := &ast.FnDecl{
		Modifiers: m.snapshot(),
		Name:      name.Text,
		Params:    params,
	}

	if c.consumeIf(token.ARROW) {
		fn.Return, err = parseTypeElement(c)
		if err != nil {
			return nil, err
		}
	}

	fn.Body, err = parseBody(c, "expected `{` to open function body")
	if err != nil {
		return nil, err
	}
	fn.Span = kw.Span.Cover(fn.Body.Span)
	return fn, nil
}

func parseParams(tokens []token.Token, open token.Span) ([]ast.Param, error) {
	var params []ast.Param
	for _, part := range splitTopLevel(tokens, token.COMMA) {
		part = trimNewlines(part)
		anchor := open
		if len(part) > 0 {
			anchor = part[0].Span
		}
		pc := sliceCursor(part, anchor)

		var p ast.Param
		p.Modifier = parseDeclModifier(pc)
		name, err := pc.ident("expected parameter name")
		if err != nil {
			return nil, err
		}
		p.Name = name.Text
		if _, err := pc.expect(token.COLON, "expected `:` after parameter name"); err != nil {
			return nil, err
		}
		p.Type, err = parseTypeElement(pc)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(pc, "expected `,` or `)` after parameter type"); err != nil {
			return nil, err
		}
		p.Span = anchor.Cover(pc.last)
		params = append(params, p)
	}
	return params, nil
}

// parseMain parses `{ body }` after the main keyword.
func parseMain(c *cursor, kw token.Token, m *modifiers) (*ast.MainDecl, error) {
	body, err := parseBody(c, "expected `{` after `main`")
	if err != nil {
		return nil, err
	}
	return &ast.MainDecl{Modifiers: m.snapshot(), Body: body, Span: kw.Span.Cover(body.Span)}, nil
}

// parseTest parses `["description"] { body }` after the test keyword.
func parseTest(c *cursor, kw token.Token, m *modifiers) (*ast.TestDecl, error) {
	test := &ast.TestDecl{Modifiers: m.snapshot()}
	if c.at(token.STRING) {
		tok, _, _ := c.advance()
		desc, err := strconv.Unquote(tok.Text)
		if err != nil {
			return nil, errorf(CodeUnexpectedToken, tok.Span, "invalid test description %s", tok.Text)
		}
		test.Description = desc
	}
	body, err := parseBody(c, "expected `{` or a test description after `test`")
	if err != nil {
		return nil, err
	}
	test.Body = body
	test.Span = kw.Span.Cover(body.Span)
	return test, nil
}

// parseDeclModifier consumes an optional let/mut/ref keyword.
func parseDeclModifier(c *cursor) ast.DeclModifier {
	switch {
	case c.consumeIf(token.LET):
		return ast.Let
	case c.consumeIf(token.MUT):
		return ast.Mut
	case c.consumeIf(token.REF):
		return ast.Ref
	default:
		return ast.NoModifier
	}
}

// expectEnd fails unless the cursor is exhausted.
func expectEnd(c *cursor, context string) error {
	tok, ok, err := c.advance()
	if err != nil {
		return err
	}
	if ok {
		return unexpected(tok, context)
	}
	return nil
}

func trimNewlines(tokens []token.Token) []token.Token {
	for len(tokens) > 0 && tokens[0].Kind == token.NEWLINE {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].Kind == token.NEWLINE {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

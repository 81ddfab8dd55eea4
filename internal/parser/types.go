package parser

import (
	"fmt"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/token"
)

// parseTypeDecl parses a type declaration. The modifiers and the type keyword
// have already been consumed.
func parseTypeDecl(c *cursor, kw token.Token, m *modifiers) (*ast.TypeDecl, error) {
	name, err := c.ident("expected type name")
	if err != nil {
		return nil, err
	}

	decl := &ast.TypeDecl{Modifiers: m.snapshot(), Name: name.Text}

	tok, ok, err := c.advance()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, eof(c.eofSpan(), "expected type body for `%s` but found end of file", name.Text)
	}

	switch tok.Kind {
	case token.LBRACE:
		tokens, err := scanBalanced(c, tok)
		if err != nil {
			return nil, err
		}
		members, err := parseStructMembers(inner(tokens), tok.Span)
		if err != nil {
			return nil, err
		}
		decl.Body = &ast.StructBody{Members: members}
	case token.LPAREN:
		tokens, err := scanBalanced(c, tok)
		if err != nil {
			return nil, err
		}
		members, err := parseTupleMembers(inner(tokens), tok.Span)
		if err != nil {
			return nil, err
		}
		decl.Body = &ast.TupleBody{Members: members}
	case token.ASSIGN:
		tokens, err := scanLine(c)
		if err != nil {
			return nil, err
		}
		tc := sliceCursor(tokens, tok.Span)
		aliased, err := parseTypeElement(tc)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(tc, "expected end of line after aliased type"); err != nil {
			return nil, err
		}
		decl.Body = &ast.AliasBody{Aliased: aliased}
	default:
		return nil, errorf(CodeMalformedTypeDecl, tok.Span, "%s", typeDeclForms(name.Text))
	}

	decl.Span = kw.Span.Cover(c.last)
	return decl, nil
}

func typeDeclForms(name string) string {
	return fmt.Sprintf(`expected one of the following:
    - type alias:  'type %[1]s = TypeA'
    - struct type: 'type %[1]s { attr: TypeA, ... }'
    - tuple type:  'type %[1]s(TypeA, TypeB, ...)'
...but found unexpected token instead`, name)
}

// parseStructMembers parses `[pub] name: Type` groups separated by newlines
// or commas. A trailing comma after a member is accepted.
func parseStructMembers(tokens []token.Token, open token.Span) ([]ast.StructMember, error) {
	c := sliceCursor(tokens, open)
	var members []ast.StructMember

	c.skipNewlines()
	for !c.done() {
		if err := c.checkErr(); err != nil {
			return nil, err
		}
		var member ast.StructMember
		start, _, _ := c.peek()
		if c.consumeIf(token.PUB) {
			member.Visibility = ast.Public
		}
		name, err := c.ident("expected member name")
		if err != nil {
			return nil, err
		}
		member.Name = name.Text
		if _, err := c.expect(token.COLON, "expected `:` after member name"); err != nil {
			return nil, err
		}
		member.Type, err = parseTypeElement(c)
		if err != nil {
			return nil, err
		}
		member.Span = start.Span.Cover(c.last)
		members = append(members, member)

		comma := c.consumeIf(token.COMMA)
		if c.done() {
			break
		}
		if comma && !c.at(token.NEWLINE) {
			continue
		}
		if _, err := c.expect(token.NEWLINE, "expected newline or `,` after struct member"); err != nil {
			return nil, err
		}
		c.skipNewlines()
	}
	return members, nil
}

// parseTupleMembers parses comma separated `[pub] Type` members. Newlines
// between members and a trailing comma are accepted.
func parseTupleMembers(tokens []token.Token, open token.Span) ([]ast.TupleMember, error) {
	c := sliceCursor(tokens, open)
	var members []ast.TupleMember

	c.skipNewlines()
	for !c.done() {
		if err := c.checkErr(); err != nil {
			return nil, err
		}
		var member ast.TupleMember
		if c.consumeIf(token.PUB) {
			member.Visibility = ast.Public
		}
		t, err := parseTypeElement(c)
		if err != nil {
			return nil, err
		}
		member.Type = t
		members = append(members, member)

		c.skipNewlines()
		if c.done() {
			break
		}
		if _, err := c.expect(token.COMMA, "expected `,` between tuple members"); err != nil {
			return nil, err
		}
		c.skipNewlines()
	}
	return members, nil
}

// parseTypeElement parses a full type:
//
//	type   := 'ref' type | base suffix*
//	base   := Ident | '[' type ']' | '[' type ':' type ']'
//	        | '{' type '}' | '{' type ':' type '}' | '(' [type {',' type}] ')'
//	suffix := '?' | '!' [base]
func parseTypeElement(c *cursor) (ast.TypeElement, error) {
	if c.consumeIf(token.REF) {
		elem, err := parseTypeElement(c)
		if err != nil {
			return nil, err
		}
		return ast.Ref(elem), nil
	}

	t, err := parseBaseType(c)
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case c.at(token.QUESTION):
			q, _, _ := c.advance()
			some, err := ast.AsOptionalElement(t)
			if err != nil {
				return nil, errorf(CodeInvalidType, q.Span, "%v", err)
			}
			t = ast.Optional(some)
		case c.at(token.BANG):
			bang, _, _ := c.advance()
			success, err := ast.AsSuccessVariant(t)
			if err != nil {
				return nil, errorf(CodeInvalidType, bang.Span, "%v", err)
			}
			var errVariant ast.ErrorVariant
			if startsErrorType(c) {
				e, err := parseBaseType(c)
				if err != nil {
					return nil, err
				}
				errVariant, err = ast.AsErrorVariant(e)
				if err != nil {
					return nil, errorf(CodeInvalidType, bang.Span.Cover(c.last), "%v", err)
				}
			}
			t = ast.Result(success, errVariant)
		default:
			return t, nil
		}
	}
}

// startsErrorType reports whether the token after `!` begins an error type.
// A brace never does, so `fn f() -> Int! { ... }` keeps its body.
func startsErrorType(c *cursor) bool {
	return c.at(token.IDENT) || c.at(token.LBRACKET) || c.at(token.LPAREN)
}

func parseBaseType(c *cursor) (ast.TypeElement, error) {
	tok, ok, err := c.advance()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, eof(c.eofSpan(), "expected type but found end of file")
	}

	switch tok.Kind {
	case token.IDENT:
		return ast.Plain(tok.Text), nil

	case token.LBRACKET, token.LBRACE:
		closeKind := closing[tok.Kind]
		c.skipNewlines()
		first, err := parseTypeElement(c)
		if err != nil {
			return nil, err
		}
		var second ast.TypeElement
		if c.consumeIf(token.COLON) {
			c.skipNewlines()
			second, err = parseTypeElement(c)
			if err != nil {
				return nil, err
			}
		}
		c.skipNewlines()
		if _, err := c.expect(closeKind, fmt.Sprintf("expected `%s` to close `%s`", closeKind, tok.Kind)); err != nil {
			return nil, err
		}
		switch {
		case tok.Kind == token.LBRACKET && second == nil:
			return ast.Array(first), nil
		case tok.Kind == token.LBRACKET:
			return ast.OrderedDict(first, second), nil
		case second == nil:
			return ast.Set(first), nil
		default:
			return ast.Dict(first, second), nil
		}

	case token.LPAREN:
		var elems []ast.TypeElement
		c.skipNewlines()
		for !c.at(token.RPAREN) {
			elem, err := parseTypeElement(c)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			c.skipNewlines()
			if !c.consumeIf(token.COMMA) {
				break
			}
			c.skipNewlines()
		}
		if _, err := c.expect(token.RPAREN, "expected `,` or `)` in tuple type"); err != nil {
			return nil, err
		}
		return ast.Tuple(elems...), nil

	default:
		return nil, unexpected(tok, "expected type")
	}
}

package parser

import (
	"github.com/roach88/galvan/internal/token"
)

var closing = map[token.Kind]token.Kind{
	token.LBRACE:   token.RBRACE,
	token.LPAREN:   token.RPAREN,
	token.LBRACKET: token.RBRACKET,
}

// scanBalanced consumes tokens after the already consumed open delimiter up
// to and including its matching close. Depth is tracked for the same
// delimiter kind only, so `{ a: {Int} }` closes on the outer brace.
func scanBalanced(c *cursor, open token.Token) ([]token.Token, error) {
	closeKind, ok := closing[open.Kind]
	if !ok {
		panic("scanBalanced: not an opening delimiter: " + string(open.Kind))
	}

	depth := 1
	var out []token.Token
	for {
		tok, ok, err := c.advance()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, eof(open.Span.Cover(c.eofSpan()),
				"unterminated `%s`: expected matching `%s` but found end of file", open.Kind, closeKind)
		}
		out = append(out, tok)
		switch tok.Kind {
		case open.Kind:
			depth++
		case closeKind:
			depth--
			if depth == 0 {
				return out, nil
			}
		}
	}
}

// scanLine consumes tokens up to the next newline or the end of input. The
// newline is consumed but not returned.
func scanLine(c *cursor) ([]token.Token, error) {
	var out []token.Token
	for {
		tok, ok, err := c.advance()
		if err != nil {
			return nil, err
		}
		if !ok || tok.Kind == token.NEWLINE {
			return out, nil
		}
		out = append(out, tok)
	}
}

// inner strips the closing delimiter returned by scanBalanced and any
// trailing newlines before it.
func inner(tokens []token.Token) []token.Token {
	if len(tokens) > 0 {
		tokens = tokens[:len(tokens)-1]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].Kind == token.NEWLINE {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// splitTopLevel splits tokens on sep at bracket depth zero, counting every
// delimiter kind.
func splitTopLevel(tokens []token.Token, sep token.Kind) [][]token.Token {
	var parts [][]token.Token
	depth := 0
	start := 0
	for i, tok := range tokens {
		switch tok.Kind {
		case token.LBRACE, token.LPAREN, token.LBRACKET:
			depth++
		case token.RBRACE, token.RPAREN, token.RBRACKET:
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, tokens[start:i])
				start = i + 1
			}
		}
	}
	if start < len(tokens) {
		parts = append(parts, tokens[start:])
	}
	return parts
}

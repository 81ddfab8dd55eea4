package parser

import (
	"iter"

	"github.com/roach88/galvan/internal/token"
)

// cursor pulls tokens from a stream with one token of lookahead.
// Lexical errors surface from peek/advance as soon as they are reached.
type cursor struct {
	pull func() (token.Token, error, bool)
	stop func()

	peeked  bool
	peekTok token.Token
	peekErr error
	peekOK  bool

	// last is the span of the most recently consumed token; errors at end
	// of input point just past it.
	last token.Span
}

func newCursor(s token.Stream) *cursor {
	pull, stop := iter.Pull2(s)
	return &cursor{pull: pull, stop: stop}
}

// sliceCursor replays tokens scanned earlier. start anchors end-of-input
// errors when tokens is empty.
func sliceCursor(tokens []token.Token, start token.Span) *cursor {
	i := 0
	return &cursor{
		pull: func() (token.Token, error, bool) {
			if i >= len(tokens) {
				return token.Token{}, nil, false
			}
			t := tokens[i]
			i++
			return t, nil, true
		},
		stop: func() {},
		last: start,
	}
}

func (c *cursor) close() {
	c.stop()
}

// peek returns the next token without consuming it. ok is false at end of
// input.
func (c *cursor) peek() (token.Token, bool, error) {
	if !c.peeked {
		c.peekTok, c.peekErr, c.peekOK = c.pull()
		c.peeked = true
	}
	return c.peekTok, c.peekOK, c.peekErr
}

// advance consumes and returns the next token.
func (c *cursor) advance() (token.Token, bool, error) {
	tok, ok, err := c.peek()
	if err != nil {
		return tok, ok, err
	}
	if ok {
		c.peeked = false
		c.last = tok.Span
	}
	return tok, ok, nil
}

// at reports whether the next token has kind k. Lexical errors are left for
// the following advance to report.
func (c *cursor) at(k token.Kind) bool {
	tok, ok, err := c.peek()
	return err == nil && ok && tok.Kind == k
}

// done reports whether the input is exhausted.
func (c *cursor) done() bool {
	_, ok, err := c.peek()
	return err == nil && !ok
}

// eofSpan is the empty span just past the last consumed token.
func (c *cursor) eofSpan() token.Span {
	return token.Span{Start: c.last.End, End: c.last.End}
}

// expect consumes the next token and checks its kind.
func (c *cursor) expect(k token.Kind, context string) (token.Token, error) {
	tok, ok, err := c.advance()
	if err != nil {
		return tok, err
	}
	if !ok {
		return tok, eof(c.eofSpan(), "%s but found end of file", context)
	}
	if tok.Kind != k {
		return tok, unexpected(tok, context)
	}
	return tok, nil
}

// ident consumes an identifier.
func (c *cursor) ident(context string) (token.Token, error) {
	tok, ok, err := c.advance()
	if err != nil {
		return tok, err
	}
	if !ok {
		return tok, eof(c.eofSpan(), "%s but found end of file", context)
	}
	if tok.Kind != token.IDENT {
		return tok, errorf(CodeInvalidIdentifier, tok.Span, "%s, found `%s`", context, tok)
	}
	return tok, nil
}

// skipNewlines consumes consecutive newline tokens.
func (c *cursor) skipNewlines() {
	for c.at(token.NEWLINE) {
		_, _, _ = c.advance()
	}
}

// consumeIf consumes the next token when it has kind k.
func (c *cursor) consumeIf(k token.Kind) bool {
	if c.at(k) {
		_, _, _ = c.advance()
		return true
	}
	return false
}

// checkErr surfaces a pending lexical error at the head of the cursor.
func (c *cursor) checkErr() error {
	_, _, err := c.peek()
	return err
}

// Package lexer turns Galvan source text into a token stream.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/token"
)

const (
	CodeIllegalCharacter   diag.Code = "LEXER_ILLEGAL_CHARACTER"
	CodeUnterminatedString diag.Code = "LEXER_UNTERMINATED_STRING"
)

// LexError is a lexical fault. It is yielded inline by the stream and the
// lexer resumes after the offending input.
type LexError struct {
	Code    diag.Code
	Message string
	Span    token.Span
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// ToDiagnostic converts a lexer error into a shared diagnostic structure.
func (e *LexError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Code:     e.Code,
		Message:  e.Message,
		Span:     e.Span,
	}
}

var punctuation = map[byte]token.Kind{
	'{': token.LBRACE,
	'}': token.RBRACE,
	'(': token.LPAREN,
	')': token.RPAREN,
	'[': token.LBRACKET,
	']': token.RBRACKET,
	':': token.COLON,
	',': token.COMMA,
	'=': token.ASSIGN,
	'.': token.DOT,
	'?': token.QUESTION,
	'!': token.BANG,
}

// Tokenize returns a lazy stream over src. The stream may be ranged over
// more than once; every pass starts from the beginning.
func Tokenize(src string) token.Stream {
	return func(yield func(token.Token, error) bool) {
		l := &lexer{src: src}
		for {
			tok, ok, err := l.next()
			if !ok {
				return
			}
			if !yield(tok, err) {
				return
			}
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) peekByte(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// next returns the next token or error; ok is false at end of input.
func (l *lexer) next() (token.Token, bool, error) {
	l.skipTrivia()
	if l.pos >= len(l.src) {
		return token.Token{}, false, nil
	}

	start := l.pos
	ch := l.src[l.pos]

	switch {
	case ch == '\n':
		l.pos++
		return l.make(token.NEWLINE, start), true, nil
	case ch == '-' && l.peekByte(1) == '>':
		l.pos += 2
		return l.make(token.ARROW, start), true, nil
	case ch == '"':
		return l.readString(start)
	case isLetter(ch):
		for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos])) {
			l.pos++
		}
		text := l.src[start:l.pos]
		return token.Token{Kind: token.Lookup(text), Text: text, Span: token.Span{Start: start, End: l.pos}}, true, nil
	case isDigit(ch):
		l.readNumber()
		return l.make(token.NUMBER, start), true, nil
	}

	if kind, ok := punctuation[ch]; ok {
		l.pos++
		return l.make(kind, start), true, nil
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	return token.Token{}, true, &LexError{
		Code:    CodeIllegalCharacter,
		Message: fmt.Sprintf("illegal character %q", r),
		Span:    token.Span{Start: start, End: l.pos},
	}
}

func (l *lexer) make(kind token.Kind, start int) token.Token {
	return token.Token{Kind: kind, Text: l.src[start:l.pos], Span: token.Span{Start: start, End: l.pos}}
}

// skipTrivia skips spaces, tabs, carriage returns and line comments.
// Newlines are significant and are not skipped.
func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		switch ch := l.src[l.pos]; {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.pos++
		case ch == '/' && l.peekByte(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) readNumber() {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
}

// readString reads a double quoted literal. The token text keeps the quotes
// and escapes exactly as written.
func (l *lexer) readString(start int) (token.Token, bool, error) {
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '"':
			l.pos++
			return l.make(token.STRING, start), true, nil
		case '\n':
			return token.Token{}, true, l.unterminated(start)
		}
		l.pos++
	}
	if l.pos > len(l.src) {
		l.pos = len(l.src)
	}
	return token.Token{}, true, l.unterminated(start)
}

func (l *lexer) unterminated(start int) *LexError {
	return &LexError{
		Code:    CodeUnterminatedString,
		Message: "unterminated string literal",
		Span:    token.Span{Start: start, End: l.pos},
	}
}

func isLetter(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Package token defines the lexical units consumed by the parser and the
// lazy stream contract that carries them.
//
// A stream yields (Token, error) pairs. A lexical error is delivered inline
// as a non-nil error element and the stream continues after it; the end of
// input is signalled by the stream ending, never by a sentinel token.
package token

import (
	"fmt"
	"iter"
)

// Kind identifies the lexical class of a token.
type Kind string

const (
	IDENT   Kind = "IDENT"
	STRING  Kind = "STRING"
	NUMBER  Kind = "NUMBER"
	NEWLINE Kind = "NEWLINE"

	LBRACE   Kind = "{"
	RBRACE   Kind = "}"
	LPAREN   Kind = "("
	RPAREN   Kind = ")"
	LBRACKET Kind = "["
	RBRACKET Kind = "]"
	COLON    Kind = ":"
	COMMA    Kind = ","
	ASSIGN   Kind = "="
	DOT      Kind = "."
	QUESTION Kind = "?"
	BANG     Kind = "!"
	ARROW    Kind = "->"

	FN    Kind = "fn"
	TYPE  Kind = "type"
	MAIN  Kind = "main"
	TEST  Kind = "test"
	BUILD Kind = "build"
	PUB   Kind = "pub"
	CONST Kind = "const"
	ASYNC Kind = "async"
	LET   Kind = "let"
	MUT   Kind = "mut"
	REF   Kind = "ref"
)

var keywords = map[string]Kind{
	"fn":    FN,
	"type":  TYPE,
	"main":  MAIN,
	"test":  TEST,
	"build": BUILD,
	"pub":   PUB,
	"const": CONST,
	"async": ASYNC,
	"let":   LET,
	"mut":   MUT,
	"ref":   REF,
}

// Lookup returns the keyword kind for ident, or IDENT.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	_, ok := keywords[string(k)]
	return ok
}

// Span is a half-open byte range [Start, End) into the original text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Token is a lexical unit together with its position.
type Token struct {
	Kind Kind
	Text string
	Span Span
}

func (t Token) String() string {
	switch t.Kind {
	case NEWLINE:
		return "newline"
	case IDENT, NUMBER, STRING:
		return t.Text
	default:
		return string(t.Kind)
	}
}

// Stream is a lazy sequence of tokens. Lexical errors are yielded inline.
type Stream = iter.Seq2[Token, error]

// FromSlice replays an already scanned sequence of tokens.
func FromSlice(tokens []Token) Stream {
	return func(yield func(Token, error) bool) {
		for _, t := range tokens {
			if !yield(t, nil) {
				return
			}
		}
	}
}

// Collect drains a stream, stopping at the first lexical error.
func Collect(s Stream) ([]Token, error) {
	var out []Token
	for t, err := range s {
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, nil
}

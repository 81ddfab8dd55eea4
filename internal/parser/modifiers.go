package parser

import (
	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/token"
)

// modifiers accumulates the modifier keywords seen since the last
// declaration. Each field may be set at most once; the top-level loop resets
// it after every declaration.
type modifiers struct {
	mods          ast.Modifiers
	hasVisibility bool
	hasConst      bool
	hasAsync      bool
	span          token.Span
}

// set records the modifier keyword tok.
func (m *modifiers) set(tok token.Token) error {
	had := m.any()
	switch tok.Kind {
	case token.PUB:
		if m.hasVisibility {
			return duplicateModifier(tok)
		}
		m.hasVisibility = true
		m.mods.Visibility = ast.Public
	case token.CONST:
		if m.hasConst {
			return duplicateModifier(tok)
		}
		m.hasConst = true
		m.mods.Constness = ast.Const
	case token.ASYNC:
		if m.hasAsync {
			return duplicateModifier(tok)
		}
		m.hasAsync = true
		m.mods.Asyncness = ast.Async
	default:
		return unexpected(tok, "expected a modifier")
	}
	if had {
		m.span = m.span.Cover(tok.Span)
	} else {
		m.span = tok.Span
	}
	return nil
}

func duplicateModifier(tok token.Token) error {
	return errorf(CodeDuplicateModifier, tok.Span, "duplicate modifier `%s`", tok.Kind)
}

func (m *modifiers) any() bool {
	return m.hasVisibility || m.hasConst || m.hasAsync
}

// checkEntry rejects visibility and const on main and test entries.
func (m *modifiers) checkEntry(keyword token.Token) error {
	if m.hasVisibility || m.hasConst {
		return errorf(CodeDisallowedModifier, m.span.Cover(keyword.Span),
			"`%s` does not accept visibility or const modifiers", keyword.Kind)
	}
	return nil
}

func (m *modifiers) snapshot() ast.Modifiers {
	return m.mods
}

func (m *modifiers) reset() {
	*m = modifiers{}
}

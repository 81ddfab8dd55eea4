package ast

import (
	"fmt"
	"strings"
)

// TypeElement is the closed type lattice. The concrete variants are
// *PlainType, *ArrayType, *SetType, *DictionaryType,
// *OrderedDictionaryType, *TupleType, *OptionalType, *ResultType and
// *RefType.
type TypeElement interface {
	typeElement()
}

// PlainType is a non-generic named type reference.
type PlainType struct {
	Name string
}

// ArrayType is `[T]`.
type ArrayType struct {
	Elem TypeElement
}

// SetType is `{T}`.
type SetType struct {
	Elem TypeElement
}

// DictionaryType is `{K: V}`.
type DictionaryType struct {
	Key   TypeElement
	Value TypeElement
}

// OrderedDictionaryType is `[K: V]`, an insertion-ordered mapping.
type OrderedDictionaryType struct {
	Key   TypeElement
	Value TypeElement
}

// TupleType is `(A, B, ...)`.
type TupleType struct {
	Elems []TypeElement
}

// OptionalType is `T?`.
type OptionalType struct {
	Some OptionalElement
}

// ResultType is `S!E`, or `S!` when Error is nil.
type ResultType struct {
	Success SuccessVariant
	Error   ErrorVariant
}

// RefType is `ref T`, a shared handle with an exclusive-access lock.
type RefType struct {
	Elem TypeElement
}

func (*PlainType) typeElement()             {}
func (*ArrayType) typeElement()             {}
func (*SetType) typeElement()               {}
func (*DictionaryType) typeElement()        {}
func (*OrderedDictionaryType) typeElement() {}
func (*TupleType) typeElement()             {}
func (*OptionalType) typeElement()          {}
func (*ResultType) typeElement()            {}
func (*RefType) typeElement()               {}

// OptionalElement is the subset of TypeElement allowed directly inside an
// optional: everything except *OptionalType and *ResultType.
type OptionalElement interface {
	TypeElement
	optionalElement()
}

// SuccessVariant is the subset of TypeElement allowed as the success side of
// a result: everything except *ResultType.
type SuccessVariant interface {
	TypeElement
	successVariant()
}

// ErrorVariant is the subset of TypeElement allowed as the error side of a
// result: everything except *OptionalType and *ResultType.
type ErrorVariant interface {
	TypeElement
	errorVariant()
}

func (*PlainType) optionalElement()             {}
func (*ArrayType) optionalElement()             {}
func (*SetType) optionalElement()               {}
func (*DictionaryType) optionalElement()        {}
func (*OrderedDictionaryType) optionalElement() {}
func (*TupleType) optionalElement()             {}
func (*RefType) optionalElement()               {}

func (*PlainType) successVariant()             {}
func (*ArrayType) successVariant()             {}
func (*SetType) successVariant()               {}
func (*DictionaryType) successVariant()        {}
func (*OrderedDictionaryType) successVariant() {}
func (*TupleType) successVariant()             {}
func (*OptionalType) successVariant()          {}
func (*RefType) successVariant()               {}

func (*PlainType) errorVariant()             {}
func (*ArrayType) errorVariant()             {}
func (*SetType) errorVariant()               {}
func (*DictionaryType) errorVariant()        {}
func (*OrderedDictionaryType) errorVariant() {}
func (*TupleType) errorVariant()             {}
func (*RefType) errorVariant()               {}

// LatticeError reports a type element that cannot be placed in a restricted
// position, such as an optional directly inside another optional.
type LatticeError struct {
	Position string // "optional", "result success" or "result error"
	Elem     TypeElement
}

func (e *LatticeError) Error() string {
	return fmt.Sprintf("%s type %s cannot be used directly as %s type", kindName(e.Elem), TypeString(e.Elem), e.Position)
}

// AsOptionalElement narrows t to the optional sub-lattice.
func AsOptionalElement(t TypeElement) (OptionalElement, error) {
	if o, ok := t.(OptionalElement); ok {
		return o, nil
	}
	return nil, &LatticeError{Position: "optional", Elem: t}
}

// AsSuccessVariant narrows t to the result-success sub-lattice.
func AsSuccessVariant(t TypeElement) (SuccessVariant, error) {
	if s, ok := t.(SuccessVariant); ok {
		return s, nil
	}
	return nil, &LatticeError{Position: "result success", Elem: t}
}

// AsErrorVariant narrows t to the result-error sub-lattice.
func AsErrorVariant(t TypeElement) (ErrorVariant, error) {
	if e, ok := t.(ErrorVariant); ok {
		return e, nil
	}
	return nil, &LatticeError{Position: "result error", Elem: t}
}

// Plain builds a plain type reference.
func Plain(name string) *PlainType { return &PlainType{Name: name} }

// Array builds `[elem]`.
func Array(elem TypeElement) *ArrayType { return &ArrayType{Elem: elem} }

// Set builds `{elem}`.
func Set(elem TypeElement) *SetType { return &SetType{Elem: elem} }

// Dict builds `{key: value}`.
func Dict(key, value TypeElement) *DictionaryType {
	return &DictionaryType{Key: key, Value: value}
}

// OrderedDict builds `[key: value]`.
func OrderedDict(key, value TypeElement) *OrderedDictionaryType {
	return &OrderedDictionaryType{Key: key, Value: value}
}

// Tuple builds `(elems...)`.
func Tuple(elems ...TypeElement) *TupleType { return &TupleType{Elems: elems} }

// Optional builds `some?`.
func Optional(some OptionalElement) *OptionalType { return &OptionalType{Some: some} }

// Result builds `success!err`; err may be nil.
func Result(success SuccessVariant, err ErrorVariant) *ResultType {
	return &ResultType{Success: success, Error: err}
}

// Ref builds `ref elem`.
func Ref(elem TypeElement) *RefType { return &RefType{Elem: elem} }

// TypeString renders t in Galvan syntax.
func TypeString(t TypeElement) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t TypeElement) {
	switch t := t.(type) {
	case *PlainType:
		b.WriteString(t.Name)
	case *ArrayType:
		b.WriteByte('[')
		writeType(b, t.Elem)
		b.WriteByte(']')
	case *SetType:
		b.WriteByte('{')
		writeType(b, t.Elem)
		b.WriteByte('}')
	case *DictionaryType:
		b.WriteByte('{')
		writeType(b, t.Key)
		b.WriteString(": ")
		writeType(b, t.Value)
		b.WriteByte('}')
	case *OrderedDictionaryType:
		b.WriteByte('[')
		writeType(b, t.Key)
		b.WriteString(": ")
		writeType(b, t.Value)
		b.WriteByte(']')
	case *TupleType:
		b.WriteByte('(')
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeType(b, e)
		}
		b.WriteByte(')')
	case *OptionalType:
		writeType(b, t.Some)
		b.WriteByte('?')
	case *ResultType:
		writeType(b, t.Success)
		b.WriteByte('!')
		if t.Error != nil {
			writeType(b, t.Error)
		}
	case *RefType:
		b.WriteString("ref ")
		writeType(b, t.Elem)
	case nil:
		b.WriteString("<nil>")
	default:
		panic(fmt.Sprintf("ast: unhandled type element %T", t))
	}
}

func kindName(t TypeElement) string {
	switch t.(type) {
	case *PlainType:
		return "plain"
	case *ArrayType:
		return "array"
	case *SetType:
		return "set"
	case *DictionaryType:
		return "dictionary"
	case *OrderedDictionaryType:
		return "ordered dictionary"
	case *TupleType:
		return "tuple"
	case *OptionalType:
		return "optional"
	case *ResultType:
		return "result"
	case *RefType:
		return "reference"
	default:
		return "unknown"
	}
}

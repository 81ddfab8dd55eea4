package codegen

import (
	"fmt"
	"strings"

	"github.com/roach88/galvan/internal/ast"
)

// Separators between sibling items. Each is a property of the item kind.
const (
	sepTypeElems     = ", "
	sepTupleMembers  = ", "
	sepStructMembers = ",\n"
	sepParams        = ", "
	sepArgs          = ", "
	sepRootItems     = "\n\n"
	sepStmts         = ";\n"
)

// join lowers every item and concatenates the results with sep. An empty
// list lowers to the empty string.
func join[T any](items []T, sep string, lower func(T) string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = lower(item)
	}
	return strings.Join(parts, sep)
}

// LowerType maps a type element to its target spelling.
func LowerType(t ast.TypeElement) string {
	switch t := t.(type) {
	case *ast.PlainType:
		return t.Name
	case *ast.ArrayType:
		return "Vec<" + LowerType(t.Elem) + ">"
	case *ast.SetType:
		return "std::collections::HashSet<" + LowerType(t.Elem) + ">"
	case *ast.DictionaryType:
		return "std::collections::HashMap<" + LowerType(t.Key) + sepTypeElems + LowerType(t.Value) + ">"
	case *ast.OrderedDictionaryType:
		return "indexmap::IndexMap<" + LowerType(t.Key) + sepTypeElems + LowerType(t.Value) + ">"
	case *ast.TupleType:
		inner := join(t.Elems, sepTypeElems, LowerType)
		if len(t.Elems) == 1 {
			inner += ","
		}
		return "(" + inner + ")"
	case *ast.OptionalType:
		return "Option<" + LowerType(t.Some) + ">"
	case *ast.ResultType:
		if t.Error == nil {
			return "anyhow::Result<" + LowerType(t.Success) + ">"
		}
		return "Result<" + LowerType(t.Success) + sepTypeElems + LowerType(t.Error) + ">"
	case *ast.RefType:
		return sharedHandle(LowerType(t.Elem))
	default:
		panic(fmt.Sprintf("codegen: unhandled type element %T", t))
	}
}

func sharedHandle(inner string) string {
	return "std::sync::Arc<std::sync::Mutex<" + inner + ">>"
}

func visibility(v ast.Visibility) string {
	if v == ast.Public {
		return "pub "
	}
	return ""
}

// lowerTypeDecl renders a user type definition.
func lowerTypeDecl(d *ast.TypeDecl) string {
	vis := visibility(d.Modifiers.Visibility)
	switch body := d.Body.(type) {
	case *ast.StructBody:
		if len(body.Members) == 0 {
			return "#[derive(Debug)]\n" + vis + "struct " + d.Name + " {}"
		}
		members := join(body.Members, sepStructMembers, func(m ast.StructMember) string {
			return "    " + visibility(m.Visibility) + m.Name + ": " + LowerType(m.Type)
		})
		return "#[derive(Debug)]\n" + vis + "struct " + d.Name + " {\n" + members + "\n}"
	case *ast.TupleBody:
		members := join(body.Members, sepTupleMembers, func(m ast.TupleMember) string {
			return visibility(m.Visibility) + LowerType(m.Type)
		})
		return "#[derive(Debug)]\n" + vis + "struct " + d.Name + "(" + members + ");"
	case *ast.AliasBody:
		return vis + "type " + d.Name + " = " + LowerType(body.Aliased) + ";"
	default:
		panic(fmt.Sprintf("codegen: unhandled type body %T", body))
	}
}

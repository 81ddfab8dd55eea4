package resolver

import (
	"github.com/roach88/galvan/internal/ast"
)

// Builder accumulates translation units. It is consumed by Build; any use
// after that panics.
type Builder struct {
	u       *Universe
	members []*FnSymbol
	seq     int
	built   bool
}

// NewBuilder returns a builder seeded with BuiltinTypes.
func NewBuilder() *Builder {
	return &Builder{u: newUniverse()}
}

// Build folds files in order and returns the resulting universe.
func Build(files ...*ast.File) (*Universe, error) {
	b := NewBuilder()
	for _, f := range files {
		if err := b.Add(f); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Add segments the declarations of file and merges its types. Member
// functions are attached in Build, so a receiver may be declared in a later
// unit.
func (b *Builder) Add(file *ast.File) error {
	b.mustBeOpen()

	for _, d := range file.Decls {
		switch d := d.(type) {
		case *ast.TypeDecl:
			if _, exists := b.u.types[d.Name]; exists {
				return &LookupError{Kind: DuplicateType, Name: d.Name, Unit: file.Name, Span: d.Span}
			}
			sym := &TypeSymbol{Name: d.Name, Unit: file.Name, Decl: d}
			b.u.types[d.Name] = sym
			b.u.userOrder = append(b.u.userOrder, sym)

		case *ast.FnDecl:
			b.seq++
			sym := &FnSymbol{Decl: d, Unit: file.Name, Seq: b.seq}
			if _, ok := d.Receiver(); ok {
				b.members = append(b.members, sym)
				continue
			}
			b.u.free = append(b.u.free, sym)
			if _, exists := b.u.freeByName[d.Name]; !exists {
				b.u.freeByName[d.Name] = sym
			}

		case *ast.MainDecl:
			if b.u.main != nil {
				return &LookupError{Kind: DuplicateMain, Name: "main", Unit: file.Name, Span: d.Span}
			}
			b.u.main = &MainSymbol{Decl: d, Unit: file.Name}

		case *ast.TestDecl:
			b.u.tests = append(b.u.tests, &TestSymbol{Decl: d, Unit: file.Name})
		}
	}
	return nil
}

// Build attaches member functions to their receiver types and returns the
// universe. A receiver that names neither a user type nor a built-in is
// rejected.
func (b *Builder) Build() (*Universe, error) {
	b.mustBeOpen()
	b.built = true

	for _, m := range b.members {
		recv, _ := m.Receiver()
		t, ok := b.u.types[recv]
		if !ok {
			return nil, &LookupError{
				Kind: UnresolvedReceiver,
				Name: recv,
				Unit: m.Unit,
				Span: m.Decl.Params[0].Span,
			}
		}
		t.members = append(t.members, m)
		if m.Decl.IsMethod() {
			b.u.byMethod[m.Decl.Name] = append(b.u.byMethod[m.Decl.Name], m)
		} else if _, exists := b.u.associated[m.Decl.Name]; !exists {
			b.u.associated[m.Decl.Name] = m
		}
	}

	u := b.u
	b.u = nil
	return u, nil
}

func (b *Builder) mustBeOpen() {
	if b.built {
		panic("resolver: Builder used after Build")
	}
}

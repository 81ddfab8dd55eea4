package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/parser"
)

// DomainSource prefixes the source hash. The version suffix changes when
// the hashed layout or the built-in seed changes.
const DomainSource = "galvan/source/v1"

// Source is one translation unit's text.
type Source struct {
	Name    string
	Content string
}

// UnitError attributes a stage error to the unit it came from.
type UnitError struct {
	Unit string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Unit, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// ToDiagnostic converts the wrapped error and fills in the unit.
func (e *UnitError) ToDiagnostic() diag.Diagnostic {
	return diag.FromError(e.Unit, e.Err)
}

// ParseAll parses every source concurrently. files and errs are indexed
// like sources; exactly one of files[i] and errs[i] is non-nil.
func ParseAll(sources []Source) (files []*ast.File, errs []error) {
	files = make([]*ast.File, len(sources))
	errs = make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range sources {
		g.Go(func() error {
			f, err := parser.ParseSource(src.Name, src.Content)
			if err != nil {
				errs[i] = &UnitError{Unit: src.Name, Err: err}
				return nil
			}
			files[i] = f
			return nil
		})
	}
	_ = g.Wait()
	return files, errs
}

// SourceHash is a content address for a set of sources. Names and contents
// are NFC normalised and hashed in name order, so the result does not
// depend on the order sources were discovered in.
func SourceHash(sources []Source) string {
	sorted := slices.Clone(sources)
	slices.SortFunc(sorted, func(a, b Source) int {
		return strings.Compare(norm.NFC.String(a.Name), norm.NFC.String(b.Name))
	})

	h := sha256.New()
	h.Write([]byte(DomainSource))
	h.Write([]byte{0x00})
	for _, src := range sorted {
		writeField(h, norm.NFC.String(src.Name))
		writeField(h, norm.NFC.String(src.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes a length-prefixed field so that adjacent fields cannot
// run into each other.
func writeField(w io.Writer, s string) {
	fmt.Fprintf(w, "%d:", len(s))
	io.WriteString(w, s)
}

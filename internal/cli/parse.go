package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/galvan/internal/ast"
	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/parser"
	"github.com/roach88/galvan/internal/token"
)

// DeclSummary is one top-level declaration of a parsed unit.
type DeclSummary struct {
	Kind      string     `json:"kind"`
	Name      string     `json:"name,omitempty"`
	Modifiers []string   `json:"modifiers,omitempty"`
	Span      token.Span `json:"span"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "parse <file>",
		Short:         "Parse one source file and list its declarations",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "reading source", err)
	}
	src := string(data)

	file, err := parser.ParseSource(path, src)
	if err != nil {
		d := diag.FromError(path, err)
		return formatter.Diagnostics(Locate([]diag.Diagnostic{d}, map[string]string{path: src}))
	}

	summaries := Summarize(file)
	if formatter.isJSON() {
		return formatter.Success(summaries)
	}

	fmt.Fprintf(formatter.Writer, "%s: %d declaration(s)\n", path, len(summaries))
	for _, s := range summaries {
		line, col := diag.Locate(src, s.Span.Start)
		mods := ""
		if len(s.Modifiers) > 0 {
			mods = strings.Join(s.Modifiers, " ") + " "
		}
		name := s.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(formatter.Writer, "  %d:%d  %s%s %s\n", line, col, mods, s.Kind, name)
	}
	return nil
}

// Summarize lists the declarations of f in source order.
func Summarize(f *ast.File) []DeclSummary {
	out := make([]DeclSummary, 0, len(f.Decls))
	for _, d := range f.Decls {
		s := DeclSummary{Modifiers: modifierWords(d.Mods()), Span: d.DeclSpan()}
		switch d := d.(type) {
		case *ast.FnDecl:
			s.Kind, s.Name = "fn", d.Name
		case *ast.TypeDecl:
			s.Kind, s.Name = typeKind(d.Body), d.Name
		case *ast.MainDecl:
			s.Kind = "main"
		case *ast.TestDecl:
			s.Kind, s.Name = "test", d.Description
		}
		out = append(out, s)
	}
	return out
}

func typeKind(body ast.TypeBody) string {
	switch body.(type) {
	case *ast.StructBody:
		return "struct"
	case *ast.TupleBody:
		return "tuple"
	default:
		return "alias"
	}
}

func modifierWords(m ast.Modifiers) []string {
	var words []string
	if m.Visibility == ast.Public {
		words = append(words, "pub")
	}
	if m.Constness == ast.Const {
		words = append(words, "const")
	}
	if m.Asyncness == ast.Async {
		words = append(words, "async")
	}
	return words
}

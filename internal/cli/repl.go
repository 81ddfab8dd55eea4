package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/galvan/internal/codegen"
	"github.com/roach88/galvan/internal/compiler"
	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/parser"
)

const (
	replUnit       = "repl.gv"
	replHistory    = ".galvan_history"
	promptMain     = "galvan> "
	promptContinue = "   ...> "
)

const replHelp = `Enter declarations; each accepted one is added to the session and the
session is transpiled again.
  :show    print the accumulated source
  :reset   forget every declaration
  :quit    exit (Ctrl+D also exits)
`

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "repl",
		Short:         "Interactively transpile declarations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(rootOpts, cmd)
		},
	}
	return cmd
}

func runRepl(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := LoadConfig(".", opts)
	if err != nil {
		return loadFailure(newFormatter(opts, cmd), err)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := replHistory
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, replHistory)
	}
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	session := &ReplSession{Options: compiler.Options{AggregateUnit: cfg.AggregateUnit}}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Galvan REPL. Type :help for commands.")

	for {
		entry, err := ReadEntry(ln.Prompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "reading input", err)
		}
		if strings.TrimSpace(entry) == "" {
			continue
		}
		ln.AppendHistory(entry)
		if !session.Handle(entry, out) {
			return nil
		}
	}
}

// ReadEntry reads lines from prompt until they form a complete entry: one
// that parses, or fails for a reason other than running out of input.
// Commands (lines starting with ':') are single-line entries.
func ReadEntry(prompt func(string) (string, error)) (string, error) {
	var b strings.Builder
	for {
		p := promptMain
		if b.Len() > 0 {
			p = promptContinue
		}
		line, err := prompt(p)
		if err != nil {
			if b.Len() > 0 && errors.Is(err, io.EOF) {
				return b.String(), nil
			}
			return "", err
		}
		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return strings.TrimSpace(line), nil
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		_, perr := parser.ParseSource(replUnit, b.String())
		var pe *parser.ParseError
		if errors.As(perr, &pe) && pe.Incomplete() {
			continue
		}
		return b.String(), nil
	}
}

// ReplSession accumulates accepted declarations.
type ReplSession struct {
	Options compiler.Options
	source  strings.Builder
}

// Source returns the accumulated source text.
func (s *ReplSession) Source() string {
	return s.source.String()
}

// Eval adds entry to the session and transpiles the result. A rejected
// entry leaves the session unchanged.
func (s *ReplSession) Eval(entry string) ([]codegen.Unit, error) {
	candidate := s.source.String()
	if candidate != "" {
		candidate += "\n"
	}
	candidate += entry

	res, err := compiler.Compile([]compiler.Source{{Name: replUnit, Content: candidate}}, s.Options)
	if err != nil {
		// Report positions relative to the entry, not the whole session.
		d := diag.FromError(replUnit, err)
		offset := len(candidate) - len(entry)
		if d.Span.Start >= offset {
			d.Span.Start -= offset
			d.Span.End -= offset
		}
		loc := Locate([]diag.Diagnostic{d}, map[string]string{replUnit: entry})[0]
		return nil, errors.New(loc.String())
	}
	s.source.Reset()
	s.source.WriteString(candidate)
	return res.Units, nil
}

// Handle processes one entry and writes the outcome to out. Returns false
// when the session should end.
func (s *ReplSession) Handle(entry string, out io.Writer) bool {
	switch strings.TrimSpace(entry) {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Fprint(out, replHelp)
		return true
	case ":reset":
		s.source.Reset()
		fmt.Fprintln(out, "session cleared")
		return true
	case ":show":
		fmt.Fprintln(out, s.Source())
		return true
	}
	if strings.HasPrefix(strings.TrimSpace(entry), ":") {
		fmt.Fprintf(out, "unknown command %s\n", strings.TrimSpace(entry))
		return true
	}

	units, err := s.Eval(entry)
	if err != nil {
		fmt.Fprintln(out, err)
		return true
	}
	for _, u := range units {
		fmt.Fprintf(out, "// %s\n%s", u.Name, u.Content)
	}
	return true
}

package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/galvan/internal/compiler"
	"github.com/roach88/galvan/internal/diag"
)

// CheckResult is the JSON payload of a clean check.
type CheckResult struct {
	Sources int `json:"sources"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Report every problem in a project without writing output",
		Long: `Check parses, validates and resolves every source of a project and
reports all problems found, rather than stopping at the first one.

Each source contributes at most one parse error. Validation problems are
all reported. Resolution and generation run only when every source is clean.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, projectDir(args), cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	project, err := LoadProject(dir, opts, cmd.ErrOrStderr())
	if err != nil {
		return loadFailure(formatter, err)
	}

	var sink diag.Collector
	if !compiler.Check(project.Sources, project.CompileOptions(), &sink) {
		slog.Info("check failed", "sources", len(project.Sources), "problems", len(sink.Diagnostics()))
		return formatter.Diagnostics(Locate(sink.Diagnostics(), project.Contents()))
	}

	slog.Info("check passed", "sources", len(project.Sources))
	if formatter.isJSON() {
		return formatter.Success(CheckResult{Sources: len(project.Sources)})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d source(s) OK\n", len(project.Sources))
	return nil
}

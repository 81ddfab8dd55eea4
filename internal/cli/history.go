package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/galvan/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history [dir]",
		Short:         "List builds recorded in the project's build cache",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, projectDir(args), cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of builds to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := LoadConfig(dir, opts.RootOptions)
	if err != nil {
		return loadFailure(formatter, err)
	}
	if cfg.CachePath() == "" {
		_ = formatter.Error(ErrCodeCache, "no cache configured in galvan.yaml", nil)
		return NewExitError(ExitCommandError, "no cache configured")
	}

	st, err := openCache(cfg)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeCache, "opening build cache", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing build cache", "error", closeErr)
		}
	}()

	builds, err := st.ListBuilds(commandContext(cmd), opts.Limit)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeCache, "listing builds", err)
	}

	if formatter.isJSON() {
		if builds == nil {
			builds = []store.Build{}
		}
		return formatter.Success(builds)
	}

	if len(builds) == 0 {
		fmt.Fprintln(formatter.Writer, "No builds recorded")
		return nil
	}
	for _, b := range builds {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %-6s  %2d unit(s)  %s\n",
			b.Seq, b.ID, b.Status, b.UnitCount, shortHash(b.SourceHash))
		if b.Error != "" {
			fmt.Fprintf(formatter.Writer, "      %s\n", b.Error)
		}
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

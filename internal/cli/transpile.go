package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/galvan/internal/codegen"
	"github.com/roach88/galvan/internal/compiler"
	"github.com/roach88/galvan/internal/config"
	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/store"
)

// TranspileOptions holds flags for the transpile command.
type TranspileOptions struct {
	*RootOptions
	Output  string // overrides out_dir
	NoCache bool
}

// TranspileResult describes a finished transpilation.
type TranspileResult struct {
	BuildID    string        `json:"build_id,omitempty"`
	SourceHash string        `json:"source_hash"`
	Sources    int           `json:"sources"`
	Cached     bool          `json:"cached"`
	Units      []WrittenUnit `json:"units"`
}

// WrittenUnit is one output file.
type WrittenUnit struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// NewTranspileCommand creates the transpile command.
func NewTranspileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranspileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transpile [dir]",
		Short: "Transpile Galvan sources to Rust",
		Long: `Transpile every Galvan source of a project to Rust.

The project directory (default ".") may hold a galvan.yaml. Each user type
becomes its own output unit; free functions, main and tests share one
aggregate unit. With a cache configured, a build whose sources and options
match an earlier successful build reuses its units.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranspile(opts, projectDir(args), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (overrides out_dir)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "ignore the build cache")

	return cmd
}

func projectDir(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadFailure reports a LoadError (or any other error) as a command error.
func loadFailure(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, loadErr.Message, loadErr.Err)
	}
	return f.fail(ExitCommandError, ErrCodeGeneric, "loading project", err)
}

// openCache opens the configured build cache, or returns nil when none is
// configured.
func openCache(cfg *config.Config) (*store.Store, error) {
	path := cfg.CachePath()
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return store.Open(path)
}

func buildOptions(cfg *config.Config) map[string]string {
	return compiler.Options{AggregateUnit: cfg.AggregateUnit}.CacheKey()
}

func runTranspile(opts *TranspileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	project, err := LoadProject(dir, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return loadFailure(formatter, err)
	}
	cfg := project.Config

	var st *store.Store
	if !opts.NoCache {
		st, err = openCache(cfg)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeCache, "opening build cache", err)
		}
	}
	if st != nil {
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing build cache", "error", closeErr)
			}
		}()
	}

	hash := compiler.SourceHash(project.Sources)
	result := TranspileResult{SourceHash: hash, Sources: len(project.Sources)}
	buildOpts := buildOptions(cfg)

	var units []codegen.Unit
	if st != nil {
		b, cached, err := st.LookupBuild(ctx, hash, buildOpts)
		switch {
		case err == nil:
			units = unitsFromStore(cached)
			result.Cached = true
			result.BuildID = b.ID
			slog.Info("cache hit", "build", b.ID, "units", len(units))
		case !errors.Is(err, store.ErrNotFound):
			return formatter.fail(ExitCommandError, ErrCodeCache, "reading build cache", err)
		}
	}

	if !result.Cached {
		slog.Info("transpiling", "sources", len(project.Sources), "source_hash", hash[:12])
		res, err := compiler.Compile(project.Sources, project.CompileOptions())
		if err != nil {
			d := diag.FromError("", err)
			if st != nil {
				failed := store.Build{SourceHash: hash, Options: buildOpts, Status: store.StatusFailed, Error: d.String()}
				if _, recErr := st.RecordBuild(ctx, failed, nil); recErr != nil {
					slog.Warn("failed to record build", "error", recErr)
				}
			}
			return formatter.Diagnostics(Locate([]diag.Diagnostic{d}, project.Contents()))
		}
		units = res.Units
		if st != nil {
			b, err := st.RecordBuild(ctx, store.Build{SourceHash: hash, Options: buildOpts}, unitsToStore(units))
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeCache, "recording build", err)
			}
			result.BuildID = b.ID
		}
	}

	outDir := cfg.OutPath()
	if opts.Output != "" {
		outDir = opts.Output
	}
	written, err := writeUnits(outDir, cfg.Extension, units)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeWriteFailed, "writing output", err)
	}
	result.Units = written
	slog.Info("transpiled", "units", len(written), "out_dir", outDir, "cached", result.Cached)

	return outputTranspileSuccess(formatter, result)
}

// writeUnits writes one file per unit into dir.
func writeUnits(dir, ext string, units []codegen.Unit) ([]WrittenUnit, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	written := make([]WrittenUnit, 0, len(units))
	for _, u := range units {
		path := filepath.Join(dir, u.Name+ext)
		if err := os.WriteFile(path, []byte(u.Content), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		slog.Debug("unit written", "unit", u.Name, "path", path)
		written = append(written, WrittenUnit{Name: u.Name, Path: path, Bytes: len(u.Content)})
	}
	return written, nil
}

func unitsToStore(units []codegen.Unit) []store.Unit {
	out := make([]store.Unit, len(units))
	for i, u := range units {
		out[i] = store.Unit{Name: u.Name, Content: u.Content}
	}
	return out
}

func unitsFromStore(units []store.Unit) []codegen.Unit {
	out := make([]codegen.Unit, len(units))
	for i, u := range units {
		out[i] = codegen.Unit{Name: u.Name, Content: u.Content}
	}
	return out
}

func outputTranspileSuccess(formatter *OutputFormatter, result TranspileResult) error {
	if formatter.isJSON() {
		return formatter.Success(result)
	}

	suffix := ""
	if result.Cached {
		suffix = " (cached)"
	}
	fmt.Fprintf(formatter.Writer, "✓ Transpiled %d source(s) into %d unit(s)%s\n\n", result.Sources, len(result.Units), suffix)
	for _, u := range result.Units {
		fmt.Fprintf(formatter.Writer, "  %s → %s\n", u.Name, u.Path)
	}
	return nil
}

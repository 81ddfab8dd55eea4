package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/galvan/internal/compiler"
	"github.com/roach88/galvan/internal/config"
)

// SourceExt is the extension of Galvan source files.
const SourceExt = ".gv"

// LoadError represents an error that occurred while loading a project.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Project is a loaded configuration plus its sources.
type Project struct {
	Config  *config.Config
	Sources []compiler.Source
}

// Contents maps unit names to their text, for locating diagnostics.
func (p *Project) Contents() map[string]string {
	out := make(map[string]string, len(p.Sources))
	for _, s := range p.Sources {
		out[s.Name] = s.Content
	}
	return out
}

// CompileOptions derives the compiler options from the configuration.
func (p *Project) CompileOptions() compiler.Options {
	return compiler.Options{AggregateUnit: p.Config.AggregateUnit}
}

// LoadConfig loads the project configuration for dir. An explicit
// --config path must exist; the default location falls back to defaults.
func LoadConfig(dir string, opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadOrDefault(filepath.Join(dir, config.FileName))
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// LoadProject loads the configuration and every source under its source
// directory. Unless verbose output was requested, the configured log level
// is applied to the logger writing to logw.
func LoadProject(dir string, opts *RootOptions, logw io.Writer) (*Project, error) {
	cfg, err := LoadConfig(dir, opts)
	if err != nil {
		return nil, err
	}
	if !opts.Verbose {
		configureLogging(logw, cfg.Level())
	}
	slog.Debug("config loaded", "source_dir", cfg.SourcePath(), "out_dir", cfg.OutPath())

	sources, err := LoadSources(cfg.SourcePath())
	if err != nil {
		return nil, err
	}
	return &Project{Config: cfg, Sources: sources}, nil
}

// LoadSources reads every source file under dir. Unit names are paths
// relative to dir with forward slashes, in lexical order.
func LoadSources(dir string) ([]compiler.Source, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("source directory not found: %s", dir), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing source directory: %v", err), Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	paths, err := FindSourceFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}
	}
	if len(paths) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no %s files found in %s", SourceExt, dir)}
	}

	sources := make([]compiler.Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("reading %s: %v", path, err), Err: err}
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		sources = append(sources, compiler.Source{Name: filepath.ToSlash(rel), Content: string(data)})
		slog.Debug("source loaded", "unit", filepath.ToSlash(rel), "bytes", len(data))
	}
	return sources, nil
}

// FindSourceFiles walks dir and returns all source file paths, sorted.
func FindSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == SourceExt {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// Package config loads the project file, galvan.yaml.
//
// Files are decoded strictly (unknown keys are errors) on top of the
// defaults and then checked against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuetoken "cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/galvan/internal/codegen"
	"github.com/roach88/galvan/internal/diag"
)

// FileName is the conventional project file name.
const FileName = "galvan.yaml"

//go:embed schema.cue
var schemaSource []byte

// Config is the project configuration.
type Config struct {
	SourceDir     string `yaml:"source_dir" json:"source_dir"`
	OutDir        string `yaml:"out_dir" json:"out_dir"`
	Extension     string `yaml:"extension" json:"extension"`
	AggregateUnit string `yaml:"aggregate_unit" json:"aggregate_unit"`
	Cache         string `yaml:"cache,omitempty" json:"cache,omitempty"`
	LogLevel      string `yaml:"log_level" json:"log_level"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		SourceDir:     "src",
		OutDir:        "generated",
		Extension:     ".rs",
		AggregateUnit: codegen.AggregateUnitName,
		LogLevel:      "info",
		dir:           ".",
	}
}

// Load reads and validates the project file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	cfg.dir = filepath.Dir(path)

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Field: "yaml", Message: err.Error(), File: path}
	}

	if err := cfg.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist. Relative paths in the default resolve against path's directory.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.dir = filepath.Dir(path)
		return cfg, nil
	}
	return cfg, err
}

// Validate checks c against the embedded schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def.Unify(ctx.Encode(c))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// WithDir returns a copy of c that resolves relative paths against dir.
func (c *Config) WithDir(dir string) *Config {
	out := *c
	out.dir = dir
	return &out
}

// SourcePath is the directory scanned for sources.
func (c *Config) SourcePath() string { return c.resolve(c.SourceDir) }

// OutPath is the directory generated units are written to.
func (c *Config) OutPath() string { return c.resolve(c.OutDir) }

// CachePath is the build cache database, or "" when caching is off.
func (c *Config) CachePath() string {
	if c.Cache == "" {
		return ""
	}
	return c.resolve(c.Cache)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Level maps LogLevel onto slog.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigError is a project file that cannot be used.
type ConfigError struct {
	Field   string
	Message string
	File    string
	Pos     cuetoken.Pos
}

func (e *ConfigError) Error() string {
	prefix := e.File
	if prefix == "" && e.Pos.IsValid() {
		prefix = fmt.Sprintf("%s:%d:%d", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if prefix != "" {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ToDiagnostic converts the error into a shared diagnostic structure.
func (e *ConfigError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageConfig,
		Severity: diag.SeverityError,
		Code:     "CONFIG_INVALID",
		Message:  e.Field + ": " + e.Message,
		Unit:     e.File,
	}
}

// formatCUEError reduces a CUE validation error to its first entry.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Field: "config", Message: err.Error()}
	}

	first := errs[0]
	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "config"
	}
	ce := &ConfigError{Field: field, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

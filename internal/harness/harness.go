package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/galvan/internal/codegen"
	"github.com/roach88/galvan/internal/compiler"
	"github.com/roach88/galvan/internal/diag"
	"github.com/roach88/galvan/internal/store"
)

// Harness executes scenarios against a private build store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database with a fixed build
// ID, so results are reproducible.
//
// Execution flow:
// 1. Compile (or check) the sources in name order
// 2. Record the units and read them back from the store
// 3. Evaluate the expectations
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with progress logged to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	st, err := store.Open(":memory:", store.WithIDGenerator(store.NewFixedGenerator("build-"+scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, logger: logger}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	sources := scenario.SortedSources()
	opts := compiler.Options{AggregateUnit: scenario.AggregateUnit}
	h.logger.Debug("running scenario", "name", scenario.Name, "mode", scenario.Mode, "sources", len(sources))

	result := NewResult()
	result.contents = make(map[string]string, len(sources))
	for _, s := range sources {
		result.contents[s.Name] = s.Content
	}

	if scenario.Mode == ModeCheck {
		var sink diag.Collector
		if !compiler.Check(sources, opts, &sink) {
			result.Diagnostics = sink.Diagnostics()
		}
	}

	if len(result.Diagnostics) == 0 {
		res, err := compiler.Compile(sources, opts)
		if err != nil {
			result.Diagnostics = []diag.Diagnostic{diag.FromError("", err)}
		} else {
			result.Units = res.Units
		}
	}
	h.logger.Debug("compiled", "units", len(result.Units), "diagnostics", len(result.Diagnostics))

	if len(result.Units) > 0 {
		if err := h.roundTrip(ctx, sources, scenario.AggregateUnit, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

// roundTrip records the result's units and checks the store returns them
// unchanged for the same sources.
func (h *Harness) roundTrip(ctx context.Context, sources []compiler.Source, aggregate string, result *Result) error {
	hash := compiler.SourceHash(sources)
	options := compiler.Options{AggregateUnit: aggregate}.CacheKey()

	units := make([]store.Unit, len(result.Units))
	for i, u := range result.Units {
		units[i] = store.Unit{Name: u.Name, Content: u.Content}
	}
	b, err := h.store.RecordBuild(ctx, store.Build{SourceHash: hash, Options: options}, units)
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	result.BuildID = b.ID

	_, cached, err := h.store.LookupBuild(ctx, hash, options)
	if err != nil {
		return fmt.Errorf("failed to read build back: %w", err)
	}
	if !sameUnits(result.Units, cached) {
		result.AddError((&ExpectationError{
			Type:     "cache",
			Expected: fmt.Sprintf("%d units read back unchanged", len(result.Units)),
			Actual:   fmt.Sprintf("%d units, contents differ", len(cached)),
		}).Error())
	}
	h.logger.Debug("build recorded", "build", b.ID, "units", len(cached))
	return nil
}

func sameUnits(units []codegen.Unit, cached []store.Unit) bool {
	if len(units) != len(cached) {
		return false
	}
	for i, u := range units {
		c := cached[i]
		if c.Name != u.Name || c.Content != u.Content || c.ContentHash != store.ContentHash(u.Content) {
			return false
		}
	}
	return true
}

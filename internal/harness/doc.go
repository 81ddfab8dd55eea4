// Package harness runs conformance scenarios against the transpiler.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: counter
//	description: "Methods on a user type land in its impl block"
//	mode: compile            # or check; default compile
//	aggregate_unit: app      # optional
//	sources:
//	  counter.gv: |
//	    pub type Counter {
//	        pub count: Int
//	    }
//	expect:
//	  units: [Counter, galvan_module]
//	  contains:
//	    Counter: ["pub struct Counter {"]
//
// A failing scenario names the expected first error instead:
//
//	expect:
//	  error_code: RESOLVE_DuplicateType
//	  error_unit: b.gv
//
// In check mode, expect.codes lists every diagnostic code in report order.
//
// # Determinism
//
// Sources are compiled in lexical order of their names. Every successful
// run is also recorded in an in-memory build store with fixed build IDs and
// read back, so a scenario fails if its units do not survive the cache.
//
// RunWithGolden compares the rendered units (or the rendered diagnostics)
// with testdata/golden/<name>.golden.
package harness

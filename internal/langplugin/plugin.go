// Package langplugin defines the collaborator contract the core consumes
// from language-specific implementations (§6.3). Everything on the other
// side of LanguagePlugin — AST extraction, import resolution, external
// linter adapters — is out of scope for the core; the core only ever
// calls through this interface.
package langplugin

import (
	"context"

	"github.com/healthscan/healthscan/internal/finding"
	"github.com/healthscan/healthscan/internal/graph"
	"github.com/healthscan/healthscan/internal/zone"
)

// FileInfo is one discovered source file, as produced by the (out-of-core)
// workspace walker before phases run.
type FileInfo struct {
	Path string // repository-relative, forward-slash normalized
	Ext  string
	Size int64
}

// Function is a typed, well-known extraction of one function/method
// definition (§9: typed struct fields, not a duck-typed dict).
type Function struct {
	File       string
	Symbol     string // qualified name
	StartLine  int
	EndLine    int
	Complexity int
	Params     int
}

// Class is a typed extraction of one class/struct-like type definition.
type Class struct {
	File      string
	Symbol    string
	StartLine int
	EndLine   int
	Methods   int
	Fields    int
}

// FixerConfig is one entry in a language plugin's fixer registry (§6.3).
type FixerConfig struct {
	Name        string
	DetectorRef string
	Runnable    func(ctx context.Context, file string) error
}

// ScanContext is the explicit, per-scan value threaded through the
// pipeline in place of module-level globals (§9 Design Notes). It is
// constructed once per scan and is read-only for every phase.
type ScanContext struct {
	Root       string
	Files      []FileInfo
	Graph      *graph.Graph
	Registry   *finding.Registry
	Classifier *zone.Classifier
	Now        func() int64 // injected clock, for determinism in tests
	Lang       string       // the language this ScanContext's phases run for
}

// PhaseResult is what one phase contributes for one scan (§4.4):
// newly-observed findings plus the per-detector potentials (the scoring
// denominator).
type PhaseResult struct {
	Findings   []finding.Finding
	Potentials map[string]int
}

// PhaseFunc is one phase in the language plugin's ordered pipeline. A
// PhaseFunc that returns an error is treated as a phase failure by the
// driver (internal/detect): the phase's potentials become zero and its
// findings become empty, but the scan continues (§4.4, §7).
type PhaseFunc func(ctx context.Context, sc *ScanContext) (PhaseResult, error)

// NamedPhase pairs a PhaseFunc with the detector name(s) it is
// responsible for, so the driver can report which detectors did not run
// when a phase is skipped (missing tool) or fails (§4.5, §7).
type NamedPhase struct {
	Name      string // phase label, for logs/diagnostics
	Detectors []string
	Run       PhaseFunc
	// Optional returns false (without error) when an external tool this
	// phase depends on is not installed. The driver treats this exactly
	// like §4.4's "external tool absence" case: the phase is skipped
	// entirely (not failed), and its detectors are excluded from the
	// set D of detectors that ran this scan (§4.5 auto-resolve gating).
	Optional func() (available bool)
}

// LanguagePlugin is the per-language collaborator the core drives (§6.3).
type LanguagePlugin interface {
	Name() string
	Extensions() []string
	DetectMarkers() []string
	ZoneRules() []zone.Rule
	LargeThreshold() int
	ComplexityThreshold() int
	Phases() []NamedPhase

	// ExtractFunctions/ExtractClasses are optional (may return nil, nil)
	// and, when present, enable duplicate/god-class detection.
	ExtractFunctions(ctx context.Context, file string) ([]Function, error)
	ExtractClasses(ctx context.Context, file string) ([]Class, error)

	// ResolveImport returns the files file imports, producing the edges
	// the core's import graph (internal/graph) is built from.
	ResolveImport(ctx context.Context, file string) ([]graph.Edge, error)

	// IsEntryPoint classifies a file as a program entry point for orphan
	// detection (§4.3).
	IsEntryPoint(file string) bool

	FixerRegistry() map[string]FixerConfig
}

package finding

import "fmt"

// Dimension is a named mechanical scoring axis (§4.6).
type Dimension string

const (
	DimensionFileHealth Dimension = "file_health"
	DimensionCodeQuality Dimension = "code_quality"
	DimensionDuplication Dimension = "duplication"
	DimensionTestHealth  Dimension = "test_health"
	DimensionSecurity    Dimension = "security"
)

// DimensionWeight returns the configured weight for a mechanical dimension
// (§4.6 Per-dimension aggregation).
func DimensionWeight(d Dimension) float64 {
	switch d {
	case DimensionFileHealth:
		return 2.0
	case DimensionCodeQuality:
		return 1.0
	case DimensionDuplication:
		return 1.0
	case DimensionTestHealth:
		return 1.0
	case DimensionSecurity:
		return 1.0
	default:
		return 0
	}
}

// ActionType describes how a finding is expected to be remediated; used by
// work-queue cluster ranking (§4.7).
type ActionType string

const (
	ActionAutoFix    ActionType = "auto_fix"
	ActionReorganize ActionType = "reorganize"
	ActionRefactor   ActionType = "refactor"
	ActionManualFix  ActionType = "manual_fix"
	ActionDebtReview ActionType = "debt_review"
)

// ActionPriority is the cluster sort-key component for an ActionType
// (§4.7).
func ActionPriority(a ActionType) int {
	switch a {
	case ActionAutoFix:
		return 0
	case ActionReorganize:
		return 1
	case ActionRefactor:
		return 2
	case ActionManualFix:
		return 3
	case ActionDebtReview:
		return 4
	default:
		return 5
	}
}

// Detector is the static, compile-time-registered metadata for one
// detector (§3.4). Registry lookup by Name is O(1) and infallible for
// known names; an unknown name anywhere downstream is fatal (§4.1).
type Detector struct {
	Name          string
	Label         string
	Dimension     Dimension
	Action        ActionType
	Fixers        []string
	ToolBinding   string // external linter binary this detector wraps, "" if none
	Structural    bool   // true: file-based aggregation with per-file caps (§4.6)
	NeedsJudgment bool   // true: Tier defaults to Judgment/MajorRefactor, never auto-fixable
	LOCWeighted   bool   // true: per-file cap uses the finding's loc_weight instead of the count table
	Holistic      bool   // true: contributes unchanged, bypassing the per-file cap (§4.6 step 2)
	ExcludedZones map[Zone]bool
	ZonePolicies  map[Zone]ZonePolicy // policy per zone, default ZonePolicyNormal
}

// PolicyFor returns the zone policy for this detector, defaulting to
// ZonePolicyNormal when unspecified, or ZonePolicySkip for a zone in
// ExcludedZones.
func (d Detector) PolicyFor(z Zone) ZonePolicy {
	if d.ExcludedZones[z] {
		return ZonePolicySkip
	}
	if p, ok := d.ZonePolicies[z]; ok {
		return p
	}
	return ZonePolicyNormal
}

// Registry is the process-wide, read-only-after-construction detector
// table (§9: compile-time registry replacing dynamic string-keyed maps).
// Construction happens once, typically via NewDefaultRegistry, and is
// threaded through a ScanContext rather than held in a package-level var.
type Registry struct {
	byName map[string]Detector
}

// NewRegistry builds a Registry from a fixed detector list. Duplicate
// names are a programmer error and panic immediately — this only happens
// at process start, from a compile-time-known list.
func NewRegistry(detectors []Detector) *Registry {
	r := &Registry{byName: make(map[string]Detector, len(detectors))}
	for _, d := range detectors {
		if _, exists := r.byName[d.Name]; exists {
			panic(fmt.Sprintf("finding: duplicate detector registered: %s", d.Name))
		}
		r.byName[d.Name] = d
	}
	return r
}

// Lookup returns the Detector for name and whether it was found.
func (r *Registry) Lookup(name string) (Detector, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// MustLookup is Lookup but panics on an unknown name. Used only where the
// caller has already validated the name came from this same registry.
func (r *Registry) MustLookup(name string) Detector {
	d, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("finding: unknown detector: %s", name))
	}
	return d
}

// Names returns every registered detector name, unordered.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	return names
}

// Len reports how many detectors are registered.
func (r *Registry) Len() int { return len(r.byName) }

// DetectorsForDimension returns the names of every detector mapped to d.
func (r *Registry) DetectorsForDimension(d Dimension) []string {
	var out []string
	for name, det := range r.byName {
		if det.Dimension == d {
			out = append(out, name)
		}
	}
	return out
}

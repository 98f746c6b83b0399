// Package scoring implements the deterministic, pure four-channel scoring
// engine (§4.6, component C6). Every constant here is taken verbatim from
// the spec — "exact values, not suggestions" — and changing one is a
// single-site edit, per §9 Design Notes.
package scoring

import "github.com/healthscan/healthscan/internal/finding"

// MinSample is the checks threshold below which a dimension's effective
// weight is dampened proportionally (§4.6).
const MinSample = 200

// HolisticMultiplier applies to display/priority weight only; per the
// resolved Open Question in §9, it does NOT enter any score formula here.
const HolisticMultiplier = 10.0

// SubjectiveChecks is the fixed denominator used for every subjective
// dimension (§4.6).
const SubjectiveChecks = 10

// Pool blend weights (§4.6).
const (
	MechanicalPoolWeight = 0.40
	SubjectivePoolWeight = 0.60
)

// File-cap thresholds, by per-file finding count (§4.6, §8 boundary
// behavior table).
func capForCount(n int) float64 {
	switch {
	case n < 3:
		return 1.0
	case n <= 5:
		return 1.5
	default:
		return 2.0
	}
}

// Mode is a scoring mode: which finding statuses count as "failing"
// (§4.6).
type Mode string

const (
	ModeLenient        Mode = "lenient"
	ModeStrict         Mode = "strict"
	ModeVerifiedStrict Mode = "verified_strict"
)

// FailureSet returns the set of statuses that count as a failure under
// mode (§4.6 "Failure-status sets by mode").
func FailureSet(mode Mode) map[finding.Status]bool {
	switch mode {
	case ModeLenient:
		return map[finding.Status]bool{finding.StatusOpen: true}
	case ModeStrict:
		return map[finding.Status]bool{finding.StatusOpen: true, finding.StatusWontfix: true}
	case ModeVerifiedStrict:
		return map[finding.Status]bool{
			finding.StatusOpen: true, finding.StatusWontfix: true,
			finding.StatusFixed: true, finding.StatusFalsePositive: true,
		}
	default:
		return nil
	}
}

// SubjectiveDimension is one of the twelve fixed subjective axes (§4.6).
type SubjectiveDimension string

const (
	DimHighElegance     SubjectiveDimension = "high_elegance"
	DimMidElegance      SubjectiveDimension = "mid_elegance"
	DimLowElegance      SubjectiveDimension = "low_elegance"
	DimContracts        SubjectiveDimension = "contracts"
	DimTypeSafety       SubjectiveDimension = "type_safety"
	DimDesignCoherence  SubjectiveDimension = "design_coherence"
	DimAbstraction      SubjectiveDimension = "abstraction"
	DimLogicClarity     SubjectiveDimension = "logic_clarity"
	DimStructureNav     SubjectiveDimension = "structure_nav"
	DimErrorConsistency SubjectiveDimension = "error_consistency"
	DimNamingQuality    SubjectiveDimension = "naming_quality"
	DimAIGeneratedDebt  SubjectiveDimension = "ai_generated_debt"
)

// SubjectiveWeight returns the configured weight for a subjective
// dimension (§4.6).
func SubjectiveWeight(d SubjectiveDimension) float64 {
	switch d {
	case DimHighElegance:
		return 22
	case DimMidElegance:
		return 22
	case DimLowElegance:
		return 12
	case DimContracts:
		return 12
	case DimTypeSafety:
		return 12
	case DimDesignCoherence:
		return 10
	case DimAbstraction:
		return 8
	case DimLogicClarity:
		return 6
	case DimStructureNav:
		return 5
	case DimErrorConsistency:
		return 3
	case DimNamingQuality:
		return 2
	case DimAIGeneratedDebt:
		return 1
	default:
		return 0
	}
}

// AllSubjectiveDimensions lists all twelve fixed dimensions, in the order
// given in §4.6.
func AllSubjectiveDimensions() []SubjectiveDimension {
	return []SubjectiveDimension{
		DimHighElegance, DimMidElegance, DimLowElegance, DimContracts, DimTypeSafety,
		DimDesignCoherence, DimAbstraction, DimLogicClarity, DimStructureNav,
		DimErrorConsistency, DimNamingQuality, DimAIGeneratedDebt,
	}
}

package scoring

import (
	"sort"

	"github.com/healthscan/healthscan/internal/finding"
)

// DetectorOutcome is the per-detector input to aggregation: how many
// checks it performed (its potential) this scan, and the findings it
// currently has open against that potential (§4.6 "checks" per detector).
type DetectorOutcome struct {
	Detector string
	Checks   int
	Findings []finding.Finding
}

// DimensionResult is one mechanical dimension's aggregated outcome (§4.6
// per-dimension aggregation), retained for the work-queue and for
// reporting even when EffectiveWeight is zero (dampened to nothing).
type DimensionResult struct {
	Dimension       finding.Dimension
	Checks          int
	WeightedFailure float64
	Score           float64 // [0, 100]
	ConfiguredWeight float64
	EffectiveWeight float64 // dampened by sample size (§4.6)
	Present         bool    // false when Checks == 0: dimension absent from the blend
}

// SubjectiveResult is one subjective dimension's fixed-denominator
// outcome (§4.6).
type SubjectiveResult struct {
	Dimension        SubjectiveDimension
	Score            float64
	ConfiguredWeight float64
}

// Result is the full output of one scoring run: all four channels plus
// the per-dimension detail the work queue and reports need (§4.6, §4.7).
type Result struct {
	Channels    Channels
	Mechanical  []DimensionResult
	Subjective  []SubjectiveResult
}

// Channels holds the four parallel score channels (§4.6).
type Channels struct {
	Overall        float64
	Objective      float64
	Strict         float64
	VerifiedStrict float64
}

// Input bundles everything Score needs: the registry (for per-detector
// policy), the per-detector outcomes for this scan, and the externally
// supplied subjective assessments (§6.3), keyed by dimension name.
type Input struct {
	Registry    *finding.Registry
	Detectors   []DetectorOutcome
	Subjective  map[string]float64 // dimension name -> score [0,100]; absent = no assessment yet
}

// Score computes all four channels deterministically, aggregating the
// provided outcomes once per mode (§4.6). It is a pure function: same
// Input in, same Result out, regardless of call order or wall-clock time
// (§8 "Determinism").
func Score(in Input) Result {
	mechLenient := aggregateMechanical(in, ModeLenient)
	mechStrict := aggregateMechanical(in, ModeStrict)
	mechVerified := aggregateMechanical(in, ModeVerifiedStrict)
	subj := aggregateSubjective(in)

	mechAvgLenient, mechPresent := blendMechanical(mechLenient)
	mechAvgStrict, _ := blendMechanical(mechStrict)
	mechAvgVerified, _ := blendMechanical(mechVerified)
	subjAvg, subjPresent := blendSubjective(subj)

	result := Result{Mechanical: mechLenient, Subjective: subj}
	result.Channels.Overall = blendPools(mechAvgLenient, mechPresent, subjAvg, subjPresent)
	result.Channels.Objective = blendPools(mechAvgLenient, mechPresent, 0, false)
	result.Channels.Strict = blendPools(mechAvgStrict, mechPresent, subjAvg, subjPresent)
	result.Channels.VerifiedStrict = blendPools(mechAvgVerified, mechPresent, subjAvg, subjPresent)
	return result
}

// blendPools applies the 0.40/0.60 pool blend (§4.6), degenerating to
// whichever single pool is present when the other is entirely absent
// (no mechanical checks ran yet, or no subjective assessment exists). When
// neither pool has anything to report (e.g. a zero-file repo: zero checks,
// every dimension absent), there is nothing wrong yet, so the channel is a
// perfect 100, not 0 (§8 "Empty findings -> all scores exactly 100.0").
func blendPools(mech float64, mechPresent bool, subj float64, subjPresent bool) float64 {
	switch {
	case mechPresent && subjPresent:
		return MechanicalPoolWeight*mech + SubjectivePoolWeight*subj
	case mechPresent:
		return mech
	case subjPresent:
		return subj
	default:
		return 100
	}
}

func blendMechanical(dims []DimensionResult) (avg float64, present bool) {
	var wsum, scoreSum float64
	for _, d := range dims {
		if !d.Present || d.EffectiveWeight <= 0 {
			continue
		}
		present = true
		wsum += d.EffectiveWeight
		scoreSum += d.Score * d.EffectiveWeight
	}
	if wsum <= 0 {
		return 0, present
	}
	return scoreSum / wsum, present
}

func blendSubjective(dims []SubjectiveResult) (avg float64, present bool) {
	var wsum, scoreSum float64
	for _, d := range dims {
		if d.ConfiguredWeight <= 0 {
			continue
		}
		present = true
		wsum += d.ConfiguredWeight
		scoreSum += d.Score * d.ConfiguredWeight
	}
	if wsum <= 0 {
		return 0, present
	}
	return scoreSum / wsum, present
}

// aggregateMechanical groups detector outcomes by dimension and computes
// each dimension's weighted-failure-sum and resulting score under mode
// (§4.6 "Per-dimension aggregation").
func aggregateMechanical(in Input, mode Mode) []DimensionResult {
	byDim := make(map[finding.Dimension]*DimensionResult)
	order := []finding.Dimension{
		finding.DimensionFileHealth, finding.DimensionCodeQuality,
		finding.DimensionDuplication, finding.DimensionTestHealth,
		finding.DimensionSecurity,
	}
	for _, d := range order {
		byDim[d] = &DimensionResult{Dimension: d, ConfiguredWeight: finding.DimensionWeight(d)}
	}

	for _, outcome := range in.Detectors {
		det, ok := in.Registry.Lookup(outcome.Detector)
		if !ok {
			continue
		}
		dr, ok := byDim[det.Dimension]
		if !ok {
			continue
		}
		dr.Checks += outcome.Checks
		dr.WeightedFailure += weightedFailureSum(det, outcome.Findings, mode)
	}

	out := make([]DimensionResult, 0, len(order))
	for _, d := range order {
		dr := byDim[d]
		dr.Present = dr.Checks > 0
		if dr.Present {
			score := (float64(dr.Checks) - dr.WeightedFailure) / float64(dr.Checks) * 100
			if score < 0 {
				score = 0
			}
			if score > 100 {
				score = 100
			}
			dr.Score = score
			dampen := float64(dr.Checks) / float64(MinSample)
			if dampen > 1 {
				dampen = 1
			}
			dr.EffectiveWeight = dr.ConfiguredWeight * dampen
		}
		out = append(out, *dr)
	}
	return out
}

// weightedFailureSum computes one detector's contribution to its
// dimension's weighted-failure-sum (§4.6 steps 1-3):
//  1. keep only findings that count as a failure under mode, are not
//     suppressed, and are not in a score-excluded zone or policy;
//  2. holistic detectors sum their per-finding weight directly, bypassing
//     any per-file grouping;
//  3. structural (file-grouped) detectors group by file, cap each file's
//     sub-sum at capForCount(n) (or the finding's own loc_weight when
//     LOCWeighted), then sum the capped per-file contributions;
//  4. all other detectors sum their per-finding weight directly.
func weightedFailureSum(det finding.Detector, findings []finding.Finding, mode Mode) float64 {
	failing := FailureSet(mode)

	var counted []finding.Finding
	for _, f := range findings {
		if !failing[f.Status] {
			continue
		}
		if f.Suppressed {
			continue
		}
		if f.Zone.ExcludedFromScoring() {
			continue
		}
		if det.PolicyFor(f.Zone) == finding.ZonePolicySkip {
			continue
		}
		counted = append(counted, f)
	}
	if len(counted) == 0 {
		return 0
	}

	if det.Holistic {
		var sum float64
		for _, f := range counted {
			sum += f.Weight()
		}
		return sum
	}

	if !det.Structural {
		var sum float64
		for _, f := range counted {
			sum += f.Weight()
		}
		return sum
	}

	byFile := make(map[string][]finding.Finding)
	for _, f := range counted {
		byFile[f.File] = append(byFile[f.File], f)
	}

	var total float64
	for _, group := range byFile {
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		var fileSum float64
		for _, f := range group {
			fileSum += f.Weight()
		}
		var cap float64
		if det.LOCWeighted {
			cap = group[0].Detail.LOCWeight
			if cap <= 0 {
				cap = capForCount(len(group))
			}
		} else {
			cap = capForCount(len(group))
		}
		if fileSum > cap {
			fileSum = cap
		}
		total += fileSum
	}
	return total
}

// aggregateSubjective builds the fixed-denominator subjective-dimension
// results (§4.6): a dimension absent from in.Subjective contributes zero
// weight to the blend (treated as not-yet-assessed, not as a zero score).
func aggregateSubjective(in Input) []SubjectiveResult {
	out := make([]SubjectiveResult, 0, len(AllSubjectiveDimensions()))
	for _, d := range AllSubjectiveDimensions() {
		score, assessed := in.Subjective[string(d)]
		weight := SubjectiveWeight(d)
		if !assessed {
			weight = 0
		}
		out = append(out, SubjectiveResult{Dimension: d, Score: score, ConfiguredWeight: weight})
	}
	return out
}

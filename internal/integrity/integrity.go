// Package integrity implements the anti-gaming integrity guard (§4.10,
// component C10): target-match (score-anchoring) detection, placeholder
// review-note detection, and wontfix-accountability checking. It runs
// post-scoring, deterministically, with no network or LLM calls.
package integrity

import (
	"regexp"
	"sort"

	"github.com/healthscan/healthscan/internal/state"
)

// TargetMatchTolerance is the §4.10 boundary: a subjective score within
// this absolute distance of the configured target counts as a match,
// tolerance-boundary inclusive (§8 "Target-match at tolerance boundary
// (|score - target| = 0.05) -> flagged").
const TargetMatchTolerance = 0.05

// SubjectiveTargetResetThreshold is §4.10's reset trigger: at least this
// many matches across scans (for the same dimension) before the guard
// resets that dimension's score to 0.
const SubjectiveTargetResetThreshold = 2

// WontfixStrictGapThreshold is §4.10's wontfix-accountability trigger:
// a strict-minus-lenient gap exceeding this many points, attributable to
// wontfixed findings, raises a warning.
const WontfixStrictGapThreshold = 1.0

// Report is the guard's full deterministic output for one scan.
type Report struct {
	Status              state.IntegrityFlagStatus
	MatchedDimensions    []string
	PlaceholderWarnings  []string // dimension names whose review note looks like placeholder content
	WontfixGapWarning    bool
}

var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)lorem ipsum`),
	regexp.MustCompile(`(?i)\bTODO\b`),
	regexp.MustCompile(`(.)\1{9,}`), // 10+ repeated characters
}

// Check runs the full guard (§4.10). target is the configured
// score-anchoring target (e.g. 95); prior is the integrity state carried
// from the previous scan, used to accumulate match counts across scans.
// notes maps subjective dimension name -> its free-text review note, if
// any. strictGap is strict-lenient for the overall channel, computed by
// the caller from the scoring Result.
func Check(scores map[string]float64, notes map[string]string, prior state.IntegrityState, target float64, enabled bool, strictGap float64) (Report, state.IntegrityState) {
	if !enabled {
		return Report{Status: state.IntegrityDisabled}, state.IntegrityState{Status: state.IntegrityDisabled}
	}

	matched := matchedDimensions(scores, target)

	matchCount := make(map[string]int, len(prior.MatchCountByDim))
	for k, v := range prior.MatchCountByDim {
		matchCount[k] = v
	}
	for _, d := range matched {
		matchCount[d]++
	}

	var penalizedDims []string
	for d, count := range matchCount {
		if count >= SubjectiveTargetResetThreshold {
			penalizedDims = append(penalizedDims, d)
		}
	}
	sort.Strings(penalizedDims)

	status := state.IntegrityPass
	if len(matched) > 0 {
		status = state.IntegrityWarn
	}
	if len(penalizedDims) > 0 {
		status = state.IntegrityPenalized
	}

	report := Report{
		Status:           status,
		MatchedDimensions: matched,
		WontfixGapWarning: strictGap > WontfixStrictGapThreshold,
	}
	report.PlaceholderWarnings = placeholderDimensions(notes)

	next := state.IntegrityState{
		Status:           status,
		MatchedDimensions: matched,
		MatchCountByDim:   matchCount,
		WontfixGapWarning: report.WontfixGapWarning,
	}
	return report, next
}

// ResetDimensions returns the subset of penalized dimensions whose score
// the caller must force to 0 for the current scan (§4.10 "On penalized
// ... reset the matching dimension scores to 0").
func ResetDimensions(next state.IntegrityState) []string {
	if next.Status != state.IntegrityPenalized {
		return nil
	}
	var out []string
	for d, count := range next.MatchCountByDim {
		if count >= SubjectiveTargetResetThreshold {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// matchedDimensions returns every dimension whose score lies within
// TargetMatchTolerance of target, tolerance-boundary inclusive (§8).
func matchedDimensions(scores map[string]float64, target float64) []string {
	var out []string
	for dim, score := range scores {
		delta := score - target
		if delta < 0 {
			delta = -delta
		}
		if delta <= TargetMatchTolerance {
			out = append(out, dim)
		}
	}
	sort.Strings(out)
	if len(out) < 2 {
		// §4.10: "two or more" scores must cluster at the target for this
		// to count as suspected anchoring.
		return nil
	}
	return out
}

// placeholderDimensions flags review notes containing placeholder
// content (§4.10).
func placeholderDimensions(notes map[string]string) []string {
	var out []string
	for dim, note := range notes {
		for _, pat := range placeholderPatterns {
			if pat.MatchString(note) {
				out = append(out, dim)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

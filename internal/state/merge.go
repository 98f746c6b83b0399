package state

import (
	"path/filepath"
	"sort"

	"github.com/healthscan/healthscan/internal/finding"
)

// ScanDiff lists what changed in one merge (§4.5): new / resolved /
// reopened ids, computed before the score delta is known; Merge leaves
// ScoreFrom and ScoreTo zero.
type ScanDiff struct {
	New       []string
	Resolved  []string
	Reopened  []string
	ScoreFrom ScoreChannels
	ScoreTo   ScoreChannels
}

// MergeOptions configures the merge beyond its required inputs.
type MergeOptions struct {
	Now                 func() int64
	IgnorePatterns       []string // §6.2 `ignore`: glob patterns whose findings are suppressed
	NoiseBudget          int      // §6.2 `finding_noise_budget`, per detector
	NoiseGlobalBudget    int      // §6.2 `finding_noise_global_budget`, 0 = unlimited
	// StaleDimensionToSubjective maps each mechanical dimension whose
	// composition changed materially this scan (computed by the caller by
	// comparing potentials/weighted-failure-sum to the prior scan) to the
	// subjective dimensions it feeds; those subjective_assessments
	// entries are marked needs_review_refresh
	// (§4.5 "Stale-on-mechanical-change").
	StaleDimensionToSubjective map[string][]string
}

// Merge performs the full §4.5 state-merge operation: upsert new
// findings, auto-resolve findings whose detector ran but didn't
// re-observe them, apply suppression, enforce the noise budget, and mark
// stale subjective assessments. It mutates s in place and returns the
// ScanDiff (score fields left zero). Merge is idempotent: merging the same F against the same D
// twice in a row produces no further changes the second time (§8).
func Merge(s *State, newFindings []finding.Finding, ran map[string]bool, opts MergeOptions) ScanDiff {
	now := opts.Now
	if now == nil {
		now = defaultNow
	}
	nowTS := now()

	diff := ScanDiff{}
	seenThisScan := make(map[string]bool, len(newFindings))

	for _, f := range newFindings {
		seenThisScan[f.ID] = true
		existing, exists := s.Findings[f.ID]
		if !exists {
			f.FirstSeen = nowTS
			f.LastSeen = nowTS
			f.Status = finding.StatusOpen
			f.ReopenCount = 0
			s.Findings[f.ID] = f
			diff.New = append(diff.New, f.ID)
			continue
		}

		existing.LastSeen = nowTS
		existing.Detail = mergeDetail(existing.Detail, f.Detail)
		if f.Message != "" {
			existing.Message = f.Message
		}

		switch existing.Status {
		case finding.StatusOpen:
			// no further change
		default:
			wasAttested := existing.Status.RequiresAttestation()
			existing.Status = finding.StatusOpen
			existing.ReopenCount++
			existing.ResolvedAt = nil
			if wasAttested {
				existing.ResolutionAttestation = &finding.Attestation{Kind: "manual_reopen", At: nowTS}
			}
			diff.Reopened = append(diff.Reopened, existing.ID)
		}
		s.Findings[existing.ID] = existing
	}

	// Auto-resolve: only for detectors that actually ran this scan
	// (§4.5, §4.4, §7 "Missing external tool"). A detector that never ran
	// contributes no entry to `ran`, so its findings are left untouched
	// even if absent from newFindings.
	var resolvedIDs []string
	for id, e := range s.Findings {
		if e.Status != finding.StatusOpen {
			continue
		}
		if !ran[e.Detector] {
			continue
		}
		if seenThisScan[id] {
			continue
		}
		e.Status = finding.StatusAutoResolved
		e.ResolvedAt = &nowTS
		s.Findings[id] = e
		resolvedIDs = append(resolvedIDs, id)
	}
	diff.Resolved = resolvedIDs

	applySuppression(s, opts.IgnorePatterns, nowTS)
	applyNoiseBudget(s, diff.New, opts.NoiseBudget, opts.NoiseGlobalBudget, nowTS)
	applyStaleReview(s, opts.StaleDimensionToSubjective)

	sort.Strings(diff.New)
	sort.Strings(diff.Resolved)
	sort.Strings(diff.Reopened)

	s.RecomputeStats()
	return diff
}

func defaultNow() int64 { return nowUnixMilli() }

// mergeDetail applies "last-wins per key" (§4.5 Upsert).
func mergeDetail(existing, incoming finding.Detail) finding.Detail {
	out := existing
	if incoming.LOC != 0 {
		out.LOC = incoming.LOC
	}
	if incoming.LOCWeight != 0 {
		out.LOCWeight = incoming.LOCWeight
	}
	if incoming.Complexity != 0 {
		out.Complexity = incoming.Complexity
	}
	if incoming.Symbol != "" {
		out.Symbol = incoming.Symbol
	}
	if incoming.Line != 0 {
		out.Line = incoming.Line
	}
	if incoming.ClusterID != "" {
		out.ClusterID = incoming.ClusterID
	}
	if incoming.ReviewWeight != 0 {
		out.ReviewWeight = incoming.ReviewWeight
	}
	if incoming.Similarity != 0 {
		out.Similarity = incoming.Similarity
	}
	if incoming.ClusterMembers != nil {
		out.ClusterMembers = incoming.ClusterMembers
	}
	if incoming.Extra != nil {
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		for k, v := range incoming.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// applySuppression marks findings matching an ignore glob pattern as
// suppressed (§4.5 "Suppression"). Suppressed findings stay in state but
// are excluded from scoring.
func applySuppression(s *State, patterns []string, nowTS int64) {
	if len(patterns) == 0 {
		return
	}
	for id, f := range s.Findings {
		if f.Suppressed {
			continue
		}
		for _, pat := range patterns {
			if matched, _ := filepath.Match(pat, f.File); matched {
				f.Suppressed = true
				f.SuppressionPattern = pat
				at := nowTS
				f.SuppressedAt = &at
				s.Findings[id] = f
				break
			}
		}
	}
}

// applyNoiseBudget caps the number of new Open findings a single scan can
// introduce per detector (and optionally globally), keeping
// highest-confidence-then-highest-tier first and marking the rest
// suppressed with noise_tag (§4.5 "Noise budget").
func applyNoiseBudget(s *State, newIDs []string, perDetector, global int, nowTS int64) {
	if perDetector <= 0 && global <= 0 {
		return
	}

	byDetector := make(map[string][]finding.Finding)
	for _, id := range newIDs {
		f := s.Findings[id]
		byDetector[f.Detector] = append(byDetector[f.Detector], f)
	}

	var globalCount int
	for detector, list := range byDetector {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Confidence.Rank() != list[j].Confidence.Rank() {
				return list[i].Confidence.Rank() < list[j].Confidence.Rank()
			}
			if list[i].Tier != list[j].Tier {
				return list[i].Tier > list[j].Tier
			}
			return list[i].ID < list[j].ID
		})

		budget := perDetector
		if budget <= 0 {
			budget = len(list)
		}
		for i, f := range list {
			exceedsDetector := perDetector > 0 && i >= budget
			exceedsGlobal := global > 0 && globalCount >= global
			if exceedsDetector || exceedsGlobal {
				f.Suppressed = true
				f.NoiseTag = true
				at := nowTS
				f.SuppressedAt = &at
				s.Findings[f.ID] = f
			} else {
				globalCount++
			}
			_ = detector
		}
	}
}

// applyStaleReview marks subjective_assessments entries whose feeding
// mechanical dimension changed materially this scan, without touching
// the score itself (§4.5 "Stale-on-mechanical-change").
func applyStaleReview(s *State, staleDimToSubjective map[string][]string) {
	for _, dims := range staleDimToSubjective {
		for _, dim := range dims {
			a, ok := s.SubjectiveAssessments[dim]
			if !ok {
				continue
			}
			a.NeedsReviewRefresh = true
			s.SubjectiveAssessments[dim] = a
		}
	}
}

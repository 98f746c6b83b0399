// Package review implements the collaborator-facing review-packet
// contract (§6.3): preparing an anti-anchoring packet for an external
// (typically LLM-driven) reviewer and importing its result back into
// state under an explicit trust level.
package review

import (
	"sort"

	"github.com/healthscan/healthscan/internal/scoring"
	"github.com/healthscan/healthscan/internal/state"
)

// TrustLevel is the closed set of provenance levels a review result can
// carry (§6.3).
type TrustLevel string

const (
	TrustedInternal   TrustLevel = "trusted_internal"
	AttestedExternal  TrustLevel = "attested_external"
	ManualOverride    TrustLevel = "manual_override"
	FindingsOnly      TrustLevel = "findings_only"
)

// FileSummary is one file's non-score-bearing signal surfaced to the
// reviewer: structural facts only, never a computed score (§6.3 "Packets
// MUST NOT contain score information").
type FileSummary struct {
	File            string
	LOC             int
	OpenFindingCount int
	Symbols         []string
}

// Packet is what prepare_review_packet emits: exactly enough structural
// and finding-population context for a subjective assessment, with
// nothing that could anchor the reviewer to an existing score (§6.3).
type Packet struct {
	Files            []FileSummary
	OpenFindingCount int
	DimensionsNeedingAssessment []string // subjective dimensions never assessed or stale
}

// PreparePacket builds the anti-anchoring review packet from current
// state: no scores, channels, or target values are included anywhere in
// the packet (§6.3).
func PreparePacket(s *state.State, files []FileSummary) Packet {
	var openCount int
	for _, f := range s.Findings {
		if !f.Status.Terminal() {
			openCount++
		}
	}

	var needsAssessment []string
	for _, d := range scoring.AllSubjectiveDimensions() {
		a, ok := s.SubjectiveAssessments[string(d)]
		if !ok || a.NeedsReviewRefresh {
			needsAssessment = append(needsAssessment, string(d))
		}
	}
	sort.Strings(needsAssessment)

	return Packet{
		Files:            files,
		OpenFindingCount: openCount,
		DimensionsNeedingAssessment: needsAssessment,
	}
}

// Result is one reviewer's verdict: a score per subjective dimension and
// an optional free-text note per dimension (checked by the integrity
// guard for placeholder content).
type Result struct {
	Scores map[string]float64 // dimension name -> [0, 100]
	Notes  map[string]string
	Source string
}

// ImportResult applies a reviewer Result to state under trust:
//   - trusted_internal, attested_external and manual_override are all
//     applied the same way: each score overwrites any existing
//     assessment for its dimension and clears NeedsReviewRefresh. The
//     trust level is kept only as the prefix of the assessment's Source;
//     no attestation is recorded or checked here.
//   - findings_only: the assessment scores are discarded; nothing is
//     written to state and nothing is returned.
func ImportResult(s *state.State, result Result, trust TrustLevel, now int64) {
	if trust == FindingsOnly {
		return
	}
	for dim, score := range result.Scores {
		s.SubjectiveAssessments[dim] = state.SubjectiveAssessment{
			Score:              score,
			Source:             string(trust) + ":" + result.Source,
			AssessedAt:         now,
			NeedsReviewRefresh: false,
		}
	}
}

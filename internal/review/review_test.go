package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan/healthscan/internal/finding"
	"github.com/healthscan/healthscan/internal/state"
)

func TestPreparePacket_ListsUnassessedAndStaleDimensions(t *testing.T) {
	s := state.New()
	s.SubjectiveAssessments["high_elegance"] = state.SubjectiveAssessment{Score: 80}
	s.SubjectiveAssessments["contracts"] = state.SubjectiveAssessment{Score: 60, NeedsReviewRefresh: true}

	packet := PreparePacket(s, nil)
	assert.Contains(t, packet.DimensionsNeedingAssessment, "contracts")
	assert.NotContains(t, packet.DimensionsNeedingAssessment, "high_elegance")
	assert.Contains(t, packet.DimensionsNeedingAssessment, "naming_quality")
}

func TestPreparePacket_CountsOnlyOpenFindings(t *testing.T) {
	s := state.New()
	s.Findings["a"] = finding.Finding{ID: "a", Status: finding.StatusOpen}
	s.Findings["b"] = finding.Finding{ID: "b", Status: finding.StatusFixed}
	packet := PreparePacket(s, nil)
	assert.Equal(t, 1, packet.OpenFindingCount)
}

func TestImportResult_FindingsOnlyDiscardsScores(t *testing.T) {
	s := state.New()
	ImportResult(s, Result{Scores: map[string]float64{"high_elegance": 90}}, FindingsOnly, 100)
	assert.Empty(t, s.SubjectiveAssessments)
}

func TestImportResult_TrustedInternalApplies(t *testing.T) {
	s := state.New()
	ImportResult(s, Result{Scores: map[string]float64{"high_elegance": 90}, Source: "reviewer-1"}, TrustedInternal, 100)
	require.Contains(t, s.SubjectiveAssessments, "high_elegance")
	assert.Equal(t, 90.0, s.SubjectiveAssessments["high_elegance"].Score)
	assert.False(t, s.SubjectiveAssessments["high_elegance"].NeedsReviewRefresh)
}

func TestImportResult_ManualOverrideOverwritesExisting(t *testing.T) {
	s := state.New()
	s.SubjectiveAssessments["high_elegance"] = state.SubjectiveAssessment{Score: 10, NeedsReviewRefresh: true}
	ImportResult(s, Result{Scores: map[string]float64{"high_elegance": 99}}, ManualOverride, 200)
	assert.Equal(t, 99.0, s.SubjectiveAssessments["high_elegance"].Score)
}

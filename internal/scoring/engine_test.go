package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan/healthscan/internal/finding"
)

func testRegistry() *finding.Registry {
	return finding.NewRegistry([]finding.Detector{
		{Name: "large_file", Dimension: finding.DimensionFileHealth, Structural: true},
		{Name: "cyclic_import", Dimension: finding.DimensionFileHealth, Holistic: true},
		{Name: "unused_import", Dimension: finding.DimensionCodeQuality},
		{Name: "duplicate_code", Dimension: finding.DimensionDuplication, Structural: true, LOCWeighted: true},
	})
}

func mkFinding(detector, file, id string, tier finding.Tier, conf finding.Confidence, status finding.Status) finding.Finding {
	return finding.Finding{
		ID: id, Detector: detector, File: file, Tier: tier, Confidence: conf,
		Status: status, Zone: finding.ZoneProduction,
	}
}

func TestScore_EmptyInputYieldsPerfectChannels(t *testing.T) {
	reg := testRegistry()
	result := Score(Input{Registry: reg})
	assert.Equal(t, Channels{Overall: 100, Objective: 100, Strict: 100, VerifiedStrict: 100}, result.Channels)
}

func TestScore_CleanDimensionScoresOneHundred(t *testing.T) {
	reg := testRegistry()
	in := Input{
		Registry: reg,
		Detectors: []DetectorOutcome{
			{Detector: "unused_import", Checks: 50},
		},
	}
	result := Score(in)
	require.Len(t, result.Mechanical, 5)
	for _, d := range result.Mechanical {
		if d.Dimension == finding.DimensionCodeQuality {
			assert.Equal(t, 100.0, d.Score)
			assert.True(t, d.Present)
		} else {
			assert.False(t, d.Present)
		}
	}
	// Objective == Overall when no subjective assessments exist (mechanical-only pool).
	assert.Equal(t, result.Channels.Objective, result.Channels.Overall)
	assert.Greater(t, result.Channels.Overall, 0.0)
}

func TestScore_FileCapBoundaries(t *testing.T) {
	reg := testRegistry()
	// Six High/Tier-4 findings in one file: raw weighted sum 6*4=24, but
	// capForCount(6) = 2.0 caps the file's contribution to 2.0 (§4.6, §8).
	var findings []finding.Finding
	for i := 0; i < 6; i++ {
		findings = append(findings, mkFinding("large_file", "a.go", string(rune('a'+i)), finding.TierMajorRefactor, finding.ConfidenceHigh, finding.StatusOpen))
	}
	in := Input{
		Registry: reg,
		Detectors: []DetectorOutcome{
			{Detector: "large_file", Checks: 10, Findings: findings},
		},
	}
	result := Score(in)
	for _, d := range result.Mechanical {
		if d.Dimension == finding.DimensionFileHealth {
			// checks=10, weighted-failure capped at 2.0 => (10-2)/10*100 = 80
			assert.InDelta(t, 80.0, d.Score, 0.001)
		}
	}
}

func TestScore_HolisticBypassesFileCap(t *testing.T) {
	reg := testRegistry()
	var findings []finding.Finding
	for i := 0; i < 6; i++ {
		findings = append(findings, mkFinding("cyclic_import", "a.go", string(rune('a'+i)), finding.TierMajorRefactor, finding.ConfidenceHigh, finding.StatusOpen))
	}
	in := Input{
		Registry: reg,
		Detectors: []DetectorOutcome{
			{Detector: "cyclic_import", Checks: 10, Findings: findings},
		},
	}
	result := Score(in)
	for _, d := range result.Mechanical {
		if d.Dimension == finding.DimensionFileHealth {
			// holistic: 6 findings * weight 4 = 24 raw, no cap; score floors at 0.
			assert.Equal(t, 0.0, d.Score)
		}
	}
}

func TestScore_SampleDampeningBelowMinSample(t *testing.T) {
	reg := testRegistry()
	in := Input{
		Registry: reg,
		Detectors: []DetectorOutcome{
			{Detector: "unused_import", Checks: 20},
		},
	}
	result := Score(in)
	for _, d := range result.Mechanical {
		if d.Dimension == finding.DimensionCodeQuality {
			// configured weight 1.0, dampened by 20/200 = 0.1
			assert.InDelta(t, 0.1, d.EffectiveWeight, 0.0001)
		}
	}
}

func TestScore_ModesChangeFailureSet(t *testing.T) {
	reg := testRegistry()
	findings := []finding.Finding{
		mkFinding("unused_import", "a.go", "a", finding.TierQuickFix, finding.ConfidenceHigh, finding.StatusWontfix),
	}
	in := Input{
		Registry: reg,
		Detectors: []DetectorOutcome{
			{Detector: "unused_import", Checks: 10, Findings: findings},
		},
	}
	result := Score(in)
	// Lenient: Wontfix does not count as failing -> objective is clean (100).
	assert.Equal(t, 100.0, result.Channels.Objective)
	// Strict and verified_strict: Wontfix counts as failing -> lower than 100.
	assert.Less(t, result.Channels.Strict, 100.0)
	assert.Less(t, result.Channels.VerifiedStrict, 100.0)
}

func TestScore_SuppressedAndExcludedZoneFindingsDoNotCount(t *testing.T) {
	reg := testRegistry()
	suppressed := mkFinding("unused_import", "a.go", "a", finding.TierQuickFix, finding.ConfidenceHigh, finding.StatusOpen)
	suppressed.Suppressed = true
	vendored := mkFinding("unused_import", "vendor/b.go", "b", finding.TierQuickFix, finding.ConfidenceHigh, finding.StatusOpen)
	vendored.Zone = finding.ZoneVendor

	in := Input{
		Registry: reg,
		Detectors: []DetectorOutcome{
			{Detector: "unused_import", Checks: 10, Findings: []finding.Finding{suppressed, vendored}},
		},
	}
	result := Score(in)
	assert.Equal(t, 100.0, result.Channels.Objective)
}

func TestScore_SubjectivePoolBlendsWithMechanical(t *testing.T) {
	reg := testRegistry()
	in := Input{
		Registry: reg,
		Detectors: []DetectorOutcome{
			{Detector: "unused_import", Checks: 200},
		},
		Subjective: map[string]float64{
			string(DimHighElegance): 50,
			string(DimMidElegance):  50,
			string(DimLowElegance):  50,
			string(DimContracts):    50, string(DimTypeSafety): 50, string(DimDesignCoherence): 50,
			string(DimAbstraction): 50, string(DimLogicClarity): 50, string(DimStructureNav): 50,
			string(DimErrorConsistency): 50, string(DimNamingQuality): 50, string(DimAIGeneratedDebt): 50,
		},
	}
	result := Score(in)
	// mechanical clean (100), subjective all 50 -> overall = 0.4*100 + 0.6*50 = 70
	assert.InDelta(t, 70.0, result.Channels.Overall, 0.01)
	assert.Equal(t, 100.0, result.Channels.Objective)
}

func TestScore_DuplicateCodeUsesLOCWeightCapWhenSet(t *testing.T) {
	reg := testRegistry()
	f := mkFinding("duplicate_code", "a.go", "a", finding.TierMajorRefactor, finding.ConfidenceHigh, finding.StatusOpen)
	f.Detail.LOCWeight = 0.5
	in := Input{
		Registry: reg,
		Detectors: []DetectorOutcome{
			{Detector: "duplicate_code", Checks: 10, Findings: []finding.Finding{f}},
		},
	}
	result := Score(in)
	for _, d := range result.Mechanical {
		if d.Dimension == finding.DimensionDuplication {
			// raw weight 1.0*4=4, capped at loc_weight 0.5 -> (10-0.5)/10*100 = 95
			assert.InDelta(t, 95.0, d.Score, 0.001)
		}
	}
}

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan/healthscan/internal/finding"
)

type fakeRegistry struct {
	byName map[string]finding.Detector
}

func (r fakeRegistry) Lookup(name string) (finding.Detector, bool) {
	d, ok := r.byName[name]
	return d, ok
}

func newFakeRegistry() fakeRegistry {
	return fakeRegistry{byName: map[string]finding.Detector{
		"large_file": {Name: "large_file", Dimension: finding.DimensionFileHealth},
		"unused_import": {
			Name: "unused_import", Dimension: finding.DimensionCodeQuality,
			ZonePolicies: map[finding.Zone]finding.ZonePolicy{finding.ZoneTest: finding.ZonePolicyDowngrade},
		},
	}}
}

func mkFinding(detector, id string, tier finding.Tier, conf finding.Confidence, zone finding.Zone) finding.Finding {
	return finding.Finding{ID: id, Detector: detector, Tier: tier, Confidence: conf, Zone: zone, Status: finding.StatusOpen}
}

func TestBuild_ClustersSortBeforeMechanicalAndSubjective(t *testing.T) {
	reg := newFakeRegistry()
	findings := []finding.Finding{mkFinding("large_file", "f1", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)}
	clusters := []Cluster{{ID: "c1", Action: finding.ActionAutoFix, FindingCount: 3}}
	subj := []SubjectiveItem{{ID: "naming_quality", Score: 40}}

	items := Build(reg, findings, clusters, subj, Filter{})
	require.Len(t, items, 3)
	assert.Equal(t, KindCluster, items[0].Kind)
	assert.Equal(t, KindMechanical, items[1].Kind)
	assert.Equal(t, KindSubjective, items[2].Kind)
}

func TestBuild_TierOrderingAndConfidenceTiebreak(t *testing.T) {
	reg := newFakeRegistry()
	findings := []finding.Finding{
		mkFinding("large_file", "low-tier", finding.TierAutoFix, finding.ConfidenceLow, finding.ZoneProduction),
		mkFinding("large_file", "high-tier", finding.TierMajorRefactor, finding.ConfidenceHigh, finding.ZoneProduction),
		mkFinding("large_file", "same-tier-high-conf", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction),
	}
	items := Build(reg, findings, nil, nil, Filter{})
	require.Len(t, items, 3)
	// Tier 1 items first (low-tier and same-tier-high-conf), ordered by
	// confidence rank within tier 1 before tier 4.
	assert.Equal(t, "same-tier-high-conf", items[0].Finding.ID)
	assert.Equal(t, "low-tier", items[1].Finding.ID)
	assert.Equal(t, "high-tier", items[2].Finding.ID)
}

func TestBuild_ZoneDowngradePolicyLowersEffectiveTier(t *testing.T) {
	reg := newFakeRegistry()
	f := mkFinding("unused_import", "f1", finding.TierJudgment, finding.ConfidenceHigh, finding.ZoneTest)
	items := Build(reg, []finding.Finding{f}, nil, nil, Filter{})
	require.Len(t, items, 1)
	assert.Equal(t, finding.TierQuickFix, items[0].EffectiveTier)
}

func TestBuild_ChronicFilterRequiresReopenCountTwo(t *testing.T) {
	reg := newFakeRegistry()
	chronic := mkFinding("large_file", "chronic", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	chronic.ReopenCount = 2
	fresh := mkFinding("large_file", "fresh", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)

	items := Build(reg, []finding.Finding{chronic, fresh}, nil, nil, Filter{ChronicOnly: true})
	require.Len(t, items, 1)
	assert.Equal(t, "chronic", items[0].Finding.ID)
}

func TestBuild_ScopeFilterMatchesPathPrefix(t *testing.T) {
	reg := newFakeRegistry()
	inScope := mkFinding("large_file", "in", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	inScope.File = "internal/api/handler.go"
	outScope := mkFinding("large_file", "out", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	outScope.File = "cmd/cli/main.go"

	items := Build(reg, []finding.Finding{inScope, outScope}, nil, nil, Filter{ScopePrefix: "internal/"})
	require.Len(t, items, 1)
	assert.Equal(t, "in", items[0].Finding.ID)
}

func TestBuild_TierFilterFallsBackToLowerTierFirst(t *testing.T) {
	reg := newFakeRegistry()
	tier1 := mkFinding("large_file", "t1", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	tier3 := mkFinding("large_file", "t3", finding.TierJudgment, finding.ConfidenceHigh, finding.ZoneProduction)

	items := Build(reg, []finding.Finding{tier1, tier3}, nil, nil, Filter{Tiers: []finding.Tier{finding.TierQuickFix}})
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].Finding.ID)
	assert.Contains(t, items[0].FallbackReason, "lower tier")
}

func TestBuild_NoTierFallbackYieldsEmptyResult(t *testing.T) {
	reg := newFakeRegistry()
	tier1 := mkFinding("large_file", "t1", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	items := Build(reg, []finding.Finding{tier1}, nil, nil, Filter{
		Tiers: []finding.Tier{finding.TierQuickFix}, NoTierFallback: true,
	})
	assert.Empty(t, items)
}

func TestBuild_CollapseClustersSuppressesMemberFindings(t *testing.T) {
	reg := newFakeRegistry()
	member := mkFinding("large_file", "member", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	standalone := mkFinding("large_file", "standalone", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	clusters := []Cluster{{ID: "auto/c1", Action: finding.ActionAutoFix, MemberIDs: []string{"member"}, FindingCount: 1}}

	items := Build(reg, []finding.Finding{member, standalone}, clusters, nil, Filter{CollapseClusters: true})
	var kinds, ids []string
	for _, it := range items {
		kinds = append(kinds, string(it.Kind))
		ids = append(ids, it.itemID())
	}
	assert.ElementsMatch(t, []string{"auto/c1", "standalone"}, ids)
}

func TestBuild_StableOrderingForEqualKeys(t *testing.T) {
	reg := newFakeRegistry()
	a := mkFinding("large_file", "a", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	b := mkFinding("large_file", "b", finding.TierAutoFix, finding.ConfidenceHigh, finding.ZoneProduction)
	items1 := Build(reg, []finding.Finding{b, a}, nil, nil, Filter{})
	items2 := Build(reg, []finding.Finding{a, b}, nil, nil, Filter{})
	require.Len(t, items1, 2)
	require.Len(t, items2, 2)
	assert.Equal(t, items1[0].Finding.ID, items2[0].Finding.ID)
	assert.Equal(t, "a", items1[0].Finding.ID)
}

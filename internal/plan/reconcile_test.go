package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan/healthscan/internal/finding"
)

func fixedNow(ts int64) func() int64 { return func() int64 { return ts } }

func TestReconcile_SupersedesReferencedButMissingID(t *testing.T) {
	p := New()
	p.QueueOrder = []string{"gone"}
	removed := map[string]finding.Finding{
		"gone": {ID: "gone", Detector: "large_file", File: "a.go", Message: "too big", Status: finding.StatusOpen},
	}
	diff := Reconcile(p, map[string]finding.Finding{}, removed, fixedNow(1000))
	require.Contains(t, diff.Superseded, "gone")
	snap := p.Superseded["gone"]
	assert.Equal(t, "large_file", snap.OriginalDetector)
	assert.Equal(t, "a.go", snap.OriginalFile)
}

func TestReconcile_CandidateRemapFindsJaccardMatch(t *testing.T) {
	p := New()
	p.Superseded["old"] = Superseded{
		OriginalDetector: "large_file", OriginalFile: "a.go",
		OriginalSummary: "file a go is too large and complex", SupersededAt: 1,
	}
	findings := map[string]finding.Finding{
		"new": {ID: "new", Detector: "large_file", File: "a.go", Message: "file a go is too large and complex now"},
	}
	diff := Reconcile(p, findings, nil, fixedNow(2))
	assert.Contains(t, diff.Remapped, "old")
	assert.Contains(t, p.Superseded["old"].Candidates, "new")
	// Never auto-applied.
	assert.Empty(t, p.Superseded["old"].RemappedTo)
}

func TestReconcile_TTLPruneDropsOldSuperseded(t *testing.T) {
	p := New()
	oneDay := millisPerDay
	p.Superseded["ancient"] = Superseded{SupersededAt: 0}
	diff := Reconcile(p, map[string]finding.Finding{}, nil, fixedNow(91*oneDay))
	assert.Contains(t, diff.Pruned, "ancient")
	_, exists := p.Superseded["ancient"]
	assert.False(t, exists)
}

func TestReconcile_TTLPruneKeepsRecentSuperseded(t *testing.T) {
	p := New()
	oneDay := millisPerDay
	p.Superseded["recent"] = Superseded{SupersededAt: 0}
	diff := Reconcile(p, map[string]finding.Finding{}, nil, fixedNow(10*oneDay))
	assert.NotContains(t, diff.Pruned, "recent")
}

func TestReconcile_ResurfaceFlagsDueSkipsWithoutUnskipping(t *testing.T) {
	p := New()
	p.ScanCount = 5
	p.Skipped["f1"] = Skip{Kind: SkipTemporary, ReviewAfter: 3, SkippedAtScan: 1}
	diff := Reconcile(p, map[string]finding.Finding{}, nil, fixedNow(0))
	assert.Contains(t, diff.Resurfaced, "f1")
	_, stillSkipped := p.Skipped["f1"]
	assert.True(t, stillSkipped)
}

func TestReconcile_ClusterCleanupPreservesUserModifiedEvenWhenEmpty(t *testing.T) {
	p := New()
	p.Clusters["manual-group"] = Cluster{FindingIDs: []string{"vanished"}, UserModified: true}
	Reconcile(p, map[string]finding.Finding{}, nil, fixedNow(0))
	c, exists := p.Clusters["manual-group"]
	require.True(t, exists)
	assert.Empty(t, c.FindingIDs)
}

func TestReconcile_ClusterCleanupDropsEmptyAutoCluster(t *testing.T) {
	p := New()
	p.Clusters["auto/large_file|a"] = Cluster{FindingIDs: []string{"vanished"}, Auto: true}
	Reconcile(p, map[string]finding.Finding{}, nil, fixedNow(0))
	_, exists := p.Clusters["auto/large_file|a"]
	assert.False(t, exists)
}

func TestReconcile_AutoClusterGroupsByDetectorAndFileStem(t *testing.T) {
	p := New()
	findings := map[string]finding.Finding{
		"a": {ID: "a", Detector: "large_file", File: "pkg/foo.go"},
		"b": {ID: "b", Detector: "large_file", File: "pkg/foo.go"},
		"c": {ID: "c", Detector: "large_file", File: "pkg/foo_test.go"},
	}
	diff := Reconcile(p, findings, nil, fixedNow(0))
	require.Contains(t, diff.ClustersAdded, "auto/large_file:foo")
	assert.ElementsMatch(t, []string{"a", "b"}, p.Clusters["auto/large_file:foo"].FindingIDs)
	// foo_test.go has a distinct stem ("foo_test") and only one member, so
	// it never forms a cluster (below MinClusterSize).
	require.Len(t, p.Clusters, 1)
}

func TestReconcile_AutoClusterIsDeterministicAcrossRuns(t *testing.T) {
	findings := map[string]finding.Finding{
		"a": {ID: "a", Detector: "unused_import", File: "pkg/foo.go"},
		"b": {ID: "b", Detector: "unused_import", File: "pkg/foo.go"},
	}
	p1 := New()
	Reconcile(p1, findings, nil, fixedNow(0))
	p2 := New()
	Reconcile(p2, findings, nil, fixedNow(0))
	assert.Equal(t, p1.Clusters, p2.Clusters)
}

func TestReconcile_AutoClusterDoesNotOverwriteUserModifiedNameCollision(t *testing.T) {
	p := New()
	p.Clusters["auto/large_file:foo"] = Cluster{FindingIDs: []string{"z"}, UserModified: true}
	findings := map[string]finding.Finding{
		"a": {ID: "a", Detector: "large_file", File: "foo.go"},
		"b": {ID: "b", Detector: "large_file", File: "foo.go"},
		"z": {ID: "z", Detector: "large_file", File: "bar.go"},
	}
	Reconcile(p, findings, nil, fixedNow(0))
	assert.Equal(t, []string{"z"}, p.Clusters["auto/large_file:foo"].FindingIDs)
}

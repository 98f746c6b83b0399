package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan/healthscan/internal/finding"
	"github.com/healthscan/healthscan/internal/plan"
)

func TestParseQueueFilter_ParsesValidTiers(t *testing.T) {
	queueTiers = []string{"1", "3"}
	defer func() { queueTiers = nil }()

	filter, err := parseQueueFilter(plan.New())
	require.NoError(t, err)
	assert.Equal(t, []finding.Tier{finding.TierAutoFix, finding.TierJudgment}, filter.Tiers)
}

func TestParseQueueFilter_RejectsOutOfRangeTier(t *testing.T) {
	queueTiers = []string{"9"}
	defer func() { queueTiers = nil }()

	_, err := parseQueueFilter(plan.New())
	assert.Error(t, err)
}

func TestSkippedIDs_CollectsPlanSkipKeys(t *testing.T) {
	p := plan.New()
	p.Skipped["f1"] = plan.Skip{Kind: plan.SkipTemporary}
	p.Skipped["f2"] = plan.Skip{Kind: plan.SkipPermanent}

	ids := skippedIDs(p)
	assert.True(t, ids["f1"])
	assert.True(t, ids["f2"])
	assert.Len(t, ids, 2)
}

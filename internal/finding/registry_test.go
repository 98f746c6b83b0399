package finding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_DuplicateNamePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry([]Detector{{Name: "dup"}, {Name: "dup"}})
	})
}

func TestRegistry_LookupAndMustLookup(t *testing.T) {
	r := NewRegistry([]Detector{{Name: "large_file", Dimension: DimensionFileHealth}})

	d, ok := r.Lookup("large_file")
	require.True(t, ok)
	assert.Equal(t, DimensionFileHealth, d.Dimension)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Panics(t, func() { r.MustLookup("missing") })
	assert.NotPanics(t, func() { r.MustLookup("large_file") })
}

func TestDetector_PolicyFor(t *testing.T) {
	d := Detector{
		Name:          "large_file",
		ExcludedZones: map[Zone]bool{ZoneVendor: true},
		ZonePolicies:  map[Zone]ZonePolicy{ZoneTest: ZonePolicyDowngrade},
	}
	assert.Equal(t, ZonePolicySkip, d.PolicyFor(ZoneVendor))
	assert.Equal(t, ZonePolicyDowngrade, d.PolicyFor(ZoneTest))
	assert.Equal(t, ZonePolicyNormal, d.PolicyFor(ZoneProduction))
}

func TestNewDefaultRegistry_HasTwelveDetectors(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, 12, r.Len())
	for _, name := range []string{
		"large_file", "complexity", "god_class", "unused_import", "cohesion",
		"security_pattern", "cyclic_import", "coupling", "orphaned_file",
		"test_coverage", "review_freshness", "duplicate_code",
	} {
		_, ok := r.Lookup(name)
		assert.Truef(t, ok, "expected detector %q registered", name)
	}
}

func TestRegistry_DetectorsForDimension(t *testing.T) {
	r := NewDefaultRegistry()
	names := r.DetectorsForDimension(DimensionSecurity)
	assert.Contains(t, names, "security_pattern")
	assert.Len(t, names, 1)
}

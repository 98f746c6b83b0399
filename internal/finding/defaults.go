package finding

// NewDefaultRegistry returns the compile-time detector registry shipped
// with healthscan. The names below are referenced by internal/langgo's
// phase implementations and by the scoring policy tables; adding a
// detector means adding it here first (registry lookup is the single
// source of truth, §3.4).
func NewDefaultRegistry() *Registry {
	return NewRegistry([]Detector{
		{
			Name: "large_file", Label: "Large file", Dimension: DimensionFileHealth,
			Action: ActionRefactor, Fixers: nil, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true},
			ZonePolicies:  map[Zone]ZonePolicy{ZoneTest: ZonePolicyDowngrade, ZoneScript: ZonePolicySkip},
		},
		{
			Name: "complexity", Label: "High cyclomatic complexity", Dimension: DimensionCodeQuality,
			Action: ActionRefactor, NeedsJudgment: true, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true},
			ZonePolicies:  map[Zone]ZonePolicy{ZoneTest: ZonePolicyDowngrade},
		},
		{
			Name: "god_class", Label: "God class / object", Dimension: DimensionFileHealth,
			Action: ActionRefactor, NeedsJudgment: true, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true},
		},
		{
			Name: "unused_import", Label: "Unused import", Dimension: DimensionCodeQuality,
			Action: ActionAutoFix, Fixers: []string{"remove_unused_import"}, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true},
		},
		{
			Name: "cohesion", Label: "Low cohesion", Dimension: DimensionCodeQuality,
			Action: ActionDebtReview, NeedsJudgment: true, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true, ZoneTest: true},
		},
		{
			Name: "security_pattern", Label: "Security-sensitive pattern", Dimension: DimensionSecurity,
			Action: ActionManualFix, Structural: true, ToolBinding: "",
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true},
			ZonePolicies:  map[Zone]ZonePolicy{ZoneTest: ZonePolicyDowngrade, ZoneScript: ZonePolicyDowngrade},
		},
		{
			Name: "cyclic_import", Label: "Import cycle", Dimension: DimensionFileHealth,
			Action: ActionReorganize, NeedsJudgment: true, Holistic: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true},
		},
		{
			Name: "coupling", Label: "Excess fan-in/fan-out coupling", Dimension: DimensionFileHealth,
			Action: ActionReorganize, NeedsJudgment: true, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true, ZoneTest: true},
		},
		{
			Name: "orphaned_file", Label: "Orphaned (unreferenced) file", Dimension: DimensionFileHealth,
			Action: ActionDebtReview, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true, ZoneScript: true},
		},
		{
			Name: "test_coverage", Label: "Missing test coverage", Dimension: DimensionTestHealth,
			Action: ActionDebtReview, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true, ZoneTest: true, ZoneConfig: true, ZoneScript: true},
		},
		{
			Name: "review_freshness", Label: "Stale subjective review coverage", Dimension: DimensionCodeQuality,
			Action: ActionDebtReview, Holistic: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true},
		},
		{
			Name: "duplicate_code", Label: "Duplicate / boilerplate code", Dimension: DimensionDuplication,
			Action: ActionRefactor, LOCWeighted: true, Structural: true,
			ExcludedZones: map[Zone]bool{ZoneGenerated: true, ZoneVendor: true},
		},
	})
}

// Package zone implements the deterministic, total file-to-Zone classifier
// (§4.2 of the spec).
package zone

import (
	"path/filepath"
	"strings"

	"github.com/healthscan/healthscan/internal/finding"
)

// Pattern is one of the five literal pattern forms (§4.2), distinguished
// by shape rather than a flag, matching the teacher's light-weight rule
// matching style in its zone-adjacent path checks.
type Pattern string

// Rule maps a Pattern to a Zone. Rules are tried in slice order; the
// first matching Rule in the first matching source wins.
type Rule struct {
	Pattern Pattern
	Zone    finding.Zone
}

// Classifier resolves a repository-relative path to exactly one Zone,
// trying sources in the order mandated by §4.2:
//  1. user overrides (exact path or pattern)
//  2. language-plugin rules
//  3. default rules
//  4. fallback: Production
type Classifier struct {
	overrides    []Rule
	pluginRules  []Rule
	defaultRules []Rule
}

// NewClassifier builds a Classifier. overrides and pluginRules may be nil;
// defaultRules ships pre-populated with DefaultRules() when nil.
func NewClassifier(overrides, pluginRules, defaultRules []Rule) *Classifier {
	if defaultRules == nil {
		defaultRules = DefaultRules()
	}
	return &Classifier{overrides: overrides, pluginRules: pluginRules, defaultRules: defaultRules}
}

// Classify returns the Zone for path, which must be repository-relative
// and forward-slash normalized (callers should run filepath.ToSlash first
// if the path originated from a Windows-style walk).
func (c *Classifier) Classify(path string) finding.Zone {
	if z, ok := matchRules(path, c.overrides); ok {
		return z
	}
	if z, ok := matchRules(path, c.pluginRules); ok {
		return z
	}
	if z, ok := matchRules(path, c.defaultRules); ok {
		return z
	}
	return finding.ZoneProduction
}

func matchRules(path string, rules []Rule) (finding.Zone, bool) {
	for _, r := range rules {
		if matchPattern(path, r.Pattern) {
			return r.Zone, true
		}
	}
	return "", false
}

// matchPattern applies the five literal forms, tried in the order given
// in §4.2, to a single pattern string.
func matchPattern(path string, pat Pattern) bool {
	p := string(pat)
	if p == "" {
		return false
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	switch {
	case strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/"):
		// "/dir/" substring on full path
		return strings.Contains("/"+path+"/", p) || strings.Contains(path, p)
	case strings.HasPrefix(p, "."):
		// ".ext" suffix on filename
		return strings.HasSuffix(base, p)
	case strings.HasSuffix(p, "_") && !strings.Contains(p, "."):
		// "prefix_" prefix on basename
		return strings.HasPrefix(base, p)
	case strings.HasPrefix(p, "_") && strings.Contains(p, "."):
		// "_suffix.ext" - the pattern carries its own extension, so it must
		// match the full basename, not the extension-stripped stem
		// ("_test.go" matching "foo_test.go" via the stem would compare
		// against "foo_test", which never ends in ".go").
		return strings.HasSuffix(base, p)
	case strings.HasPrefix(p, "_"):
		// "_suffix" basename ends-with before extension
		return strings.HasSuffix(stem, p)
	default:
		// "name.ext" exact basename
		return base == p
	}
}

// DefaultRules returns the hardcoded default zone rules (§4.2 step 3),
// in priority order. These cover the common cross-language conventions;
// a language plugin's rules (step 2) run before these and can refine or
// override specific extensions.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "_test.go", Zone: finding.ZoneTest},
		{Pattern: "_test.py", Zone: finding.ZoneTest},
		{Pattern: ".test.ts", Zone: finding.ZoneTest},
		{Pattern: ".test.js", Zone: finding.ZoneTest},
		{Pattern: ".spec.ts", Zone: finding.ZoneTest},
		{Pattern: ".spec.js", Zone: finding.ZoneTest},
		{Pattern: "test_", Zone: finding.ZoneTest},
		{Pattern: "/testdata/", Zone: finding.ZoneTest},
		{Pattern: "/test/", Zone: finding.ZoneTest},
		{Pattern: "/tests/", Zone: finding.ZoneTest},
		{Pattern: "/__tests__/", Zone: finding.ZoneTest},

		{Pattern: "/vendor/", Zone: finding.ZoneVendor},
		{Pattern: "/node_modules/", Zone: finding.ZoneVendor},
		{Pattern: "/third_party/", Zone: finding.ZoneVendor},

		{Pattern: ".pb.go", Zone: finding.ZoneGenerated},
		{Pattern: ".gen.go", Zone: finding.ZoneGenerated},
		{Pattern: "_generated.go", Zone: finding.ZoneGenerated},
		{Pattern: "/generated/", Zone: finding.ZoneGenerated},
		{Pattern: "/dist/", Zone: finding.ZoneGenerated},
		{Pattern: "/build/", Zone: finding.ZoneGenerated},

		{Pattern: ".yaml", Zone: finding.ZoneConfig},
		{Pattern: ".yml", Zone: finding.ZoneConfig},
		{Pattern: ".toml", Zone: finding.ZoneConfig},
		{Pattern: ".ini", Zone: finding.ZoneConfig},
		{Pattern: ".json", Zone: finding.ZoneConfig},
		{Pattern: "/config/", Zone: finding.ZoneConfig},

		{Pattern: ".sh", Zone: finding.ZoneScript},
		{Pattern: ".ps1", Zone: finding.ZoneScript},
		{Pattern: "/scripts/", Zone: finding.ZoneScript},
	}
}

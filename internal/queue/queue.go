// Package queue implements the work-queue ranking operation (§4.7,
// component C7): a single ordered list over three heterogeneous item
// kinds — clusters, mechanical findings, and subjective items — built
// from composite sort-key tuples so the ordering is stable across runs
// for equal keys.
package queue

import (
	"sort"
	"strings"

	"github.com/healthscan/healthscan/internal/finding"
)

// Kind distinguishes the three item shapes a queue entry can take.
type Kind string

const (
	KindCluster    Kind = "cluster"
	KindMechanical Kind = "mechanical"
	KindSubjective Kind = "subjective"
)

// Cluster is the minimal view of a Plan cluster the queue needs to rank
// it (§4.8 defines the full cluster record; this is its ranking-relevant
// projection).
type Cluster struct {
	ID           string
	Action       finding.ActionType
	MemberIDs    []string
	FindingCount int // members still present in state.findings
}

// SubjectiveItem is one not-yet-resolved subjective dimension surfaced
// in the queue (e.g. a dimension below its target needing attention).
type SubjectiveItem struct {
	ID    string // dimension name, used as the final tiebreak
	Score float64
}

// Item is one ranked queue entry. Exactly one of Finding / Cluster /
// Subjective is populated, selected by Kind.
type Item struct {
	Kind       Kind
	Finding    finding.Finding
	Cluster    Cluster
	Subjective SubjectiveItem

	// EffectiveTier is f.Tier downgraded one level when the owning
	// detector's zone policy is "downgrade" (§3.5), or 4 for subjective
	// items (§4.7).
	EffectiveTier finding.Tier
	// FallbackReason is set when this item was included only because a
	// tier filter matched nothing and fallback to an adjacent tier fired
	// (§4.7).
	FallbackReason string
}

// Filter narrows the queue before ranking (§4.7 "Filtering").
type Filter struct {
	Tiers           []finding.Tier // empty = no tier filter
	NoTierFallback  bool
	ScopePrefix     string // path prefix; "" = no scope filter
	Statuses        []finding.Status // empty = no status filter
	ChronicOnly     bool   // reopen_count >= 2
	IncludeSkipped  bool
	SkippedIDs      map[string]bool
	CollapseClusters bool
}

// Registry is the subset of finding.Registry the queue needs: detector
// zone policy, to compute EffectiveTier.
type Registry interface {
	Lookup(name string) (finding.Detector, bool)
}

// Build ranks findings, clusters, and subjective items into a single
// ordered queue (§4.7). Findings already claimed by a collapsed cluster
// are suppressed from the flat list when filter.CollapseClusters is set.
func Build(reg Registry, findings []finding.Finding, clusters []Cluster, subjective []SubjectiveItem, filter Filter) []Item {
	claimed := make(map[string]bool)
	if filter.CollapseClusters {
		for _, c := range clusters {
			for _, id := range c.MemberIDs {
				claimed[id] = true
			}
		}
	}

	var items []Item
	for _, c := range clusters {
		items = append(items, Item{Kind: KindCluster, Cluster: c, EffectiveTier: 0})
	}

	byTier := make(map[finding.Tier][]finding.Finding)
	for _, f := range findings {
		if filter.CollapseClusters && claimed[f.ID] {
			continue
		}
		if !passesNonTierFilters(f, filter) {
			continue
		}
		det, _ := reg.Lookup(f.Detector)
		tier := effectiveTier(det, f)
		byTier[tier] = append(byTier[tier], f)
	}

	selected, fallbackReason := applyTierFilter(byTier, filter)
	for _, pair := range selected {
		for _, f := range pair.findings {
			items = append(items, Item{
				Kind: KindMechanical, Finding: f, EffectiveTier: pair.tier,
				FallbackReason: fallbackReason,
			})
		}
	}

	for _, s := range subjective {
		items = append(items, Item{Kind: KindSubjective, Subjective: s, EffectiveTier: finding.TierMajorRefactor})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return lessKey(items[i], items[j])
	})
	return items
}

func passesNonTierFilters(f finding.Finding, filter Filter) bool {
	if filter.ScopePrefix != "" && !strings.HasPrefix(f.File, filter.ScopePrefix) {
		return false
	}
	if len(filter.Statuses) > 0 {
		ok := false
		for _, s := range filter.Statuses {
			if f.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if filter.ChronicOnly && f.ReopenCount < 2 {
		return false
	}
	if !filter.IncludeSkipped && filter.SkippedIDs[f.ID] {
		return false
	}
	return true
}

func effectiveTier(det finding.Detector, f finding.Finding) finding.Tier {
	if det.PolicyFor(f.Zone) == finding.ZonePolicyDowngrade {
		t := f.Tier - 1
		if t < finding.TierAutoFix {
			t = finding.TierAutoFix
		}
		return t
	}
	return f.Tier
}

type tierFindings struct {
	tier     finding.Tier
	findings []finding.Finding
}

// applyTierFilter selects findings matching filter.Tiers; when no tier
// filter is configured, every tier is included. When a tier filter is
// configured but matches nothing and fallback is allowed, it widens to
// adjacent tiers — lower first, then higher — recording why (§4.7).
func applyTierFilter(byTier map[finding.Tier][]finding.Finding, filter Filter) ([]tierFindings, string) {
	if len(filter.Tiers) == 0 {
		return allTiers(byTier), ""
	}

	var out []tierFindings
	for _, t := range filter.Tiers {
		if fs, ok := byTier[t]; ok && len(fs) > 0 {
			out = append(out, tierFindings{tier: t, findings: fs})
		}
	}
	if len(out) > 0 || filter.NoTierFallback {
		return out, ""
	}

	// Fall through to adjacent tiers: lower first, then higher, relative
	// to the requested set's bounds.
	minTier, maxTier := filter.Tiers[0], filter.Tiers[0]
	for _, t := range filter.Tiers {
		if t < minTier {
			minTier = t
		}
		if t > maxTier {
			maxTier = t
		}
	}
	for t := minTier - 1; t >= finding.TierAutoFix; t-- {
		if fs, ok := byTier[t]; ok && len(fs) > 0 {
			return []tierFindings{{tier: t, findings: fs}}, "no findings at requested tier; fell back to lower tier"
		}
	}
	for t := maxTier + 1; t <= finding.TierMajorRefactor; t++ {
		if fs, ok := byTier[t]; ok && len(fs) > 0 {
			return []tierFindings{{tier: t, findings: fs}}, "no findings at requested tier; fell back to higher tier"
		}
	}
	return nil, "no findings at requested tier or any adjacent tier"
}

func allTiers(byTier map[finding.Tier][]finding.Finding) []tierFindings {
	var out []tierFindings
	for t := finding.TierAutoFix; t <= finding.TierMajorRefactor; t++ {
		if fs, ok := byTier[t]; ok {
			out = append(out, tierFindings{tier: t, findings: fs})
		}
	}
	return out
}

// lessKey compares two queue items by their full composite sort key
// (§4.7): cluster items sort before mechanical items at the same
// effective tier, which sort before subjective items.
func lessKey(a, b Item) bool {
	ka := sortKey(a)
	kb := sortKey(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return a.itemID() < b.itemID()
}

// sortKey returns a fixed-length (5-element) float64 tuple so
// cluster/mechanical/subjective keys compare uniformly without an
// out-of-range index; the trailing id tiebreak is applied separately
// since strings don't belong in a numeric tuple.
func sortKey(it Item) [5]float64 {
	switch it.Kind {
	case KindCluster:
		return [5]float64{0, float64(finding.ActionPriority(it.Cluster.Action)), -float64(it.Cluster.FindingCount), 0, 0}
	case KindSubjective:
		return [5]float64{4, 1, it.Subjective.Score, 0, 0}
	default:
		count := 1.0
		if n := len(it.Finding.Detail.ClusterMembers); n > 1 {
			count = float64(n)
		}
		return [5]float64{
			float64(it.EffectiveTier), 0,
			float64(it.Finding.Confidence.Rank()),
			-it.Finding.Detail.ReviewWeight,
			-count,
		}
	}
}

func (it Item) itemID() string {
	switch it.Kind {
	case KindCluster:
		return it.Cluster.ID
	case KindSubjective:
		return it.Subjective.ID
	default:
		return it.Finding.ID
	}
}

package plan

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/healthscan/healthscan/internal/finding"
)

const millisPerDay = int64(24 * time.Hour / time.Millisecond)

// Diff reports what reconciliation changed, for logging/reporting.
type Diff struct {
	Superseded   []string
	Remapped     []string // superseded ids that gained candidates
	Pruned       []string
	Resurfaced   []string
	ClustersDropped []string
	ClustersAdded   []string
}

// Reconcile runs the full §4.8 operation against the current findings
// set, in the fixed order the spec lists: supersede, candidate remap,
// TTL prune, resurface, cluster cleanup, then auto-clustering. It
// mutates p in place. removed carries the last-known snapshot of any
// finding the caller already knows dropped out of state.findings this
// scan (e.g. pruned or hard-deleted upstream), so the superseded
// snapshot can record original_detector/file/summary; ids that vanish
// without an entry in removed are still superseded, just with a blank
// snapshot.
//
// The §8 idempotence claim ("reconcile(reconcile(P,S),S) == reconcile(P,S)")
// covers the transforms above: superseding, remapping, pruning, resurfacing
// and clustering all settle to a fixed point on unchanged input. It does not
// cover ScanCount, which is a monotonic scan counter rather than a function
// of (P, S) and is expected to advance on every call, including repeats.
func Reconcile(p *Plan, findings map[string]finding.Finding, removed map[string]finding.Finding, now func() int64) Diff {
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	nowTS := now()
	var diff Diff

	diff.Superseded = supersede(p, findings, removed, nowTS)
	diff.Remapped = candidateRemap(p, findings)
	diff.Pruned = ttlPrune(p, nowTS)
	diff.Resurfaced = resurface(p)
	diff.ClustersDropped = clusterCleanup(p, findings)

	added := autoCluster(p, findings)
	diff.ClustersAdded = added

	p.ScanCount++
	return diff
}

// supersede moves any id referenced by queue_order, skipped, or cluster
// membership that is no longer in findings into `superseded`, snapshotting
// its last-known fields (§4.8 "Supersede").
func supersede(p *Plan, findings, removed map[string]finding.Finding, nowTS int64) []string {
	referenced := make(map[string]bool)
	for _, id := range p.QueueOrder {
		referenced[id] = true
	}
	for id := range p.Skipped {
		referenced[id] = true
	}
	for _, c := range p.Clusters {
		for _, id := range c.FindingIDs {
			referenced[id] = true
		}
	}

	var supersededIDs []string
	for id := range referenced {
		if _, stillPresent := findings[id]; stillPresent {
			continue
		}
		if _, already := p.Superseded[id]; already {
			continue
		}
		snap := Superseded{SupersededAt: nowTS}
		if last, ok := removed[id]; ok {
			snap.OriginalDetector = last.Detector
			snap.OriginalFile = last.File
			snap.OriginalSummary = last.Message
			snap.Status = last.Status
		}
		p.Superseded[id] = snap
		supersededIDs = append(supersededIDs, id)
	}
	sort.Strings(supersededIDs)
	return supersededIDs
}

// candidateRemap computes fuzzy candidates for each superseded entry by
// (detector=, file=, summary similarity via word-set Jaccard >= 0.7),
// without ever auto-applying remapped_to (§4.8 "Candidate remap").
func candidateRemap(p *Plan, findings map[string]finding.Finding) []string {
	var remapped []string
	for id, sup := range p.Superseded {
		if sup.RemappedTo != "" {
			continue
		}
		var candidates []string
		for _, f := range findings {
			if sup.OriginalDetector != "" && f.Detector != sup.OriginalDetector {
				continue
			}
			if sup.OriginalFile != "" && f.File != sup.OriginalFile {
				continue
			}
			if jaccard(wordSet(sup.OriginalSummary), wordSet(f.Message)) < 0.7 {
				continue
			}
			candidates = append(candidates, f.ID)
		}
		if len(candidates) == 0 {
			continue
		}
		sort.Strings(candidates)
		sup.Candidates = candidates
		p.Superseded[id] = sup
		remapped = append(remapped, id)
	}
	sort.Strings(remapped)
	return remapped
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = true
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// ttlPrune drops superseded entries older than SupersededTTLDays (§4.8).
func ttlPrune(p *Plan, nowTS int64) []string {
	cutoff := nowTS - SupersededTTLDays*millisPerDay
	var pruned []string
	for id, sup := range p.Superseded {
		if sup.SupersededAt < cutoff {
			delete(p.Superseded, id)
			pruned = append(pruned, id)
		}
	}
	sort.Strings(pruned)
	return pruned
}

// resurface flags skips whose review_after has been reached, without
// automatically unskipping them (§4.8 "Resurface").
func resurface(p *Plan) []string {
	var due []string
	for id, s := range p.Skipped {
		if s.ReviewAfter <= 0 {
			continue
		}
		if p.ScanCount-s.SkippedAtScan >= s.ReviewAfter {
			due = append(due, id)
		}
	}
	sort.Strings(due)
	return due
}

// clusterCleanup drops finding-id references that are superseded without
// a remap, then deletes empty auto-clusters — never a user_modified
// cluster, even if empty (§4.8 "Cluster cleanup").
func clusterCleanup(p *Plan, findings map[string]finding.Finding) []string {
	var dropped []string
	for name, c := range p.Clusters {
		kept := c.FindingIDs[:0:0]
		for _, id := range c.FindingIDs {
			if _, present := findings[id]; present {
				kept = append(kept, id)
				continue
			}
			if sup, ok := p.Superseded[id]; ok && sup.RemappedTo != "" {
				kept = append(kept, sup.RemappedTo)
				continue
			}
			// superseded without remap: drop the reference
		}
		c.FindingIDs = dedupeStrings(kept)
		if len(c.FindingIDs) == 0 && !c.UserModified {
			delete(p.Clusters, name)
			dropped = append(dropped, name)
			continue
		}
		if len(c.FindingIDs) < MinClusterSize && c.Auto && !c.UserModified {
			delete(p.Clusters, name)
			dropped = append(dropped, name)
			continue
		}
		p.Clusters[name] = c
	}
	sort.Strings(dropped)
	return dropped
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// GroupKeyFunc derives the group key an auto-cluster is formed from (the
// detector/file-stem pairing, or an externally-computed duplicate-group
// or SCC membership key, e.g. from internal/graph). Callers that want
// the default grouping pass DefaultGroupKey; callers that already
// computed duplicate-group or SCC membership pass their own.
type GroupKeyFunc func(f finding.Finding) string

// DefaultGroupKey groups by (detector, file-stem) — the file's base name
// with its extension stripped; other suffixes such as "_test" are kept
// (§4.8 "Auto-clustering").
func DefaultGroupKey(f finding.Finding) string {
	stem := strings.TrimSuffix(filepath.Base(f.File), filepath.Ext(f.File))
	return f.Detector + ":" + stem
}

// autoCluster groups findings by key, emits clusters of size >= 2 with
// stable names "auto/{cluster_key}" (§4.8). Re-running on identical
// input produces identical names and memberships since the key is a
// pure function of the findings and clusters are keyed by the sorted
// group key, not by insertion order.
func autoCluster(p *Plan, findings map[string]finding.Finding) []string {
	return autoClusterWithKeys(p, findings, DefaultGroupKey)
}

// AutoClusterByKey runs auto-clustering with a caller-supplied grouping
// key — e.g. duplicate-group id or SCC membership from internal/graph —
// instead of the default (detector, file-stem) pairing. Call it after
// Reconcile when a scan produced cross-file grouping data Reconcile
// itself doesn't have (§4.8 "also by duplicate-group / SCC membership").
func AutoClusterByKey(p *Plan, findings map[string]finding.Finding, keyFn GroupKeyFunc) []string {
	return autoClusterWithKeys(p, findings, keyFn)
}

func autoClusterWithKeys(p *Plan, findings map[string]finding.Finding, keyFn GroupKeyFunc) []string {
	groups := make(map[string][]string)
	for id, f := range findings {
		key := keyFn(f)
		groups[key] = append(groups[key], id)
	}

	var added []string
	for key, ids := range groups {
		if len(ids) < MinClusterSize {
			continue
		}
		sort.Strings(ids)
		name := "auto/" + key
		existing, exists := p.Clusters[name]
		if exists && existing.UserModified {
			continue
		}
		if exists && equalStringSlices(existing.FindingIDs, ids) {
			continue
		}
		p.Clusters[name] = Cluster{
			FindingIDs: ids,
			Auto:       true,
			ClusterKey: key,
		}
		added = append(added, name)
	}
	sort.Strings(added)
	return added
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

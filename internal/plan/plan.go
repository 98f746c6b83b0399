// Package plan implements the durable user-workflow Plan (§3.3) and its
// reconciliation operation (§4.8, component C8): supersede, candidate
// remap, TTL prune, resurface, cluster cleanup, and auto-clustering.
package plan

import "github.com/healthscan/healthscan/internal/finding"

// SkipKind is the closed set of reasons a finding can be skipped (§3.3).
type SkipKind string

const (
	SkipTemporary    SkipKind = "Temporary"
	SkipPermanent    SkipKind = "Permanent"
	SkipFalsePositive SkipKind = "FalsePositive"
)

// Skip is one skipped-finding record (§3.3).
type Skip struct {
	Kind           SkipKind `json:"kind"`
	Reason         string   `json:"reason,omitempty"`
	CreatedAt      int64    `json:"created_at"`
	ReviewAfter    int      `json:"review_after,omitempty"` // scans; 0 = never resurface
	SkippedAtScan  int      `json:"skipped_at_scan"`
}

// Cluster is one named grouping of finding ids (§3.3). Auto-clusters are
// named "auto/{cluster_key}"; user-created or user-edited clusters set
// UserModified and are never deleted by reconciliation even if emptied.
type Cluster struct {
	Description  string             `json:"description,omitempty"`
	FindingIDs   []string           `json:"finding_ids"`
	Auto         bool               `json:"auto,omitempty"`
	ClusterKey   string             `json:"cluster_key,omitempty"`
	Action       finding.ActionType `json:"action,omitempty"`
	UserModified bool               `json:"user_modified,omitempty"`
}

// Override is a user-supplied per-finding annotation (§3.3).
type Override struct {
	Priority *int     `json:"priority,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// SupersededStatus is the finding's last known status at the moment it
// was superseded (i.e. dropped from state.findings without a trace).
type SupersededStatus = finding.Status

// Superseded is one no-longer-present finding's snapshot (§3.3).
type Superseded struct {
	OriginalDetector string           `json:"original_detector"`
	OriginalFile     string           `json:"original_file"`
	OriginalSummary  string           `json:"original_summary"`
	Status           SupersededStatus `json:"status"`
	SupersededAt     int64            `json:"superseded_at"`
	RemappedTo       string           `json:"remapped_to,omitempty"`
	Candidates       []string         `json:"candidates,omitempty"`
}

// Plan is the durable user-workflow container, decoupled from
// state.findings by id reference (§3.3).
type Plan struct {
	Version int `json:"version"`

	QueueOrder []string `json:"queue_order"`

	Skipped map[string]Skip `json:"skipped"`

	Clusters map[string]Cluster `json:"clusters"`

	Overrides map[string]Override `json:"overrides"`

	Superseded map[string]Superseded `json:"superseded"`

	// ScanCount is the running count of completed scans, used for
	// review_after / skipped_at_scan arithmetic (§4.8 "Resurface").
	ScanCount int `json:"scan_count"`
}

// CurrentVersion is the schema version this build writes (§6.1).
const CurrentVersion = 1

// New returns an empty Plan at CurrentVersion.
func New() *Plan {
	return &Plan{
		Version:    CurrentVersion,
		Skipped:    make(map[string]Skip),
		Clusters:   make(map[string]Cluster),
		Overrides:  make(map[string]Override),
		Superseded: make(map[string]Superseded),
	}
}

// MinClusterSize is the Open Question default (§9): a reconciled
// auto-cluster below this membership count is deleted rather than kept
// as a singleton (user-modified clusters are exempt, per §4.8).
const MinClusterSize = 2

// SupersededTTLDays is how long a superseded entry survives before TTL
// prune removes it (§3.3, §4.8).
const SupersededTTLDays = 90

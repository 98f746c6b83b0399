// Package state implements the top-level State container (§3.2) and the
// central state-merge operation (§4.5, component C5): identity-preserving
// upsert of findings across scans, auto-resolve, suppression, the noise
// budget, and scan history.
package state

import (
	"github.com/healthscan/healthscan/internal/finding"
)

// ScanHistoryMaxEntries bounds scan_history to the last 20 scans (§3.2).
const ScanHistoryMaxEntries = 20

// ScoreChannels is the four parallel score channels (§3.2, §4.6).
type ScoreChannels struct {
	Overall        float64 `json:"overall"`
	Objective      float64 `json:"objective"`
	Strict         float64 `json:"strict"`
	VerifiedStrict float64 `json:"verified_strict"`
}

// Stats is the per-scan file/LOC/dir/status counter block.
type Stats struct {
	FileCount int `json:"file_count"`
	LOCCount  int `json:"loc_count"`
	DirCount  int `json:"dir_count"`
	ByStatus  map[finding.Status]int `json:"by_status"`
}

// ScanHistoryEntry is one bounded-FIFO scan record (§3.2).
type ScanHistoryEntry struct {
	ScanID string        `json:"scan_id"`
	At     int64         `json:"at"`
	Scores ScoreChannels `json:"scores"`
	Stats  Stats         `json:"stats"`
}

// SubjectiveAssessment is one dimension's externally-supplied subjective
// score (§3.2, §6.3).
type SubjectiveAssessment struct {
	Score              float64 `json:"score"` // [0, 100]
	Source             string  `json:"source"`
	AssessedAt         int64   `json:"assessed_at"`
	NeedsReviewRefresh bool    `json:"needs_review_refresh,omitempty"`
}

// IntegrityFlagStatus is the integrity guard's deterministic response
// (§4.10, component C10).
type IntegrityFlagStatus string

const (
	IntegrityDisabled  IntegrityFlagStatus = "disabled"
	IntegrityPass      IntegrityFlagStatus = "pass"
	IntegrityWarn      IntegrityFlagStatus = "warn"
	IntegrityPenalized IntegrityFlagStatus = "penalized"
)

// IntegrityState is subjective_integrity: anti-gaming metadata persisted
// across scans so repeated target-matching can be detected (§4.10).
type IntegrityState struct {
	Status            IntegrityFlagStatus `json:"status"`
	MatchedDimensions  []string           `json:"matched_dimensions,omitempty"`
	MatchCountByDim    map[string]int     `json:"match_count_by_dim,omitempty"`
	LastFlaggedScan    string             `json:"last_flagged_scan,omitempty"`
	WontfixGapWarning  bool               `json:"wontfix_gap_warning,omitempty"`
}

// State is the top-level, version-stamped container (§3.2).
type State struct {
	Version int `json:"version"`

	Findings map[string]finding.Finding `json:"findings"`
	Stats    Stats                      `json:"stats"`

	Scores ScoreChannels `json:"scores"`

	ScanHistory []ScanHistoryEntry `json:"scan_history"`

	SubjectiveAssessments map[string]SubjectiveAssessment `json:"subjective_assessments"`
	SubjectiveIntegrity   IntegrityState                  `json:"subjective_integrity"`

	ConcernDismissals map[string]int64 `json:"concern_dismissals"` // fingerprint -> dismissed_at
}

// CurrentVersion is the schema version this build writes (§6.1 "A
// top-level version integer gates schema migrations").
const CurrentVersion = 1

// New returns an empty State at CurrentVersion, ready for the first scan.
func New() *State {
	return &State{
		Version:               CurrentVersion,
		Findings:              make(map[string]finding.Finding),
		Stats:                 Stats{ByStatus: make(map[finding.Status]int)},
		SubjectiveAssessments: make(map[string]SubjectiveAssessment),
		ConcernDismissals:     make(map[string]int64),
	}
}

// RecomputeStats derives Stats.ByStatus from Findings. Called after every
// merge so Stats never drifts from the authoritative Findings map.
func (s *State) RecomputeStats() {
	counts := make(map[finding.Status]int, 5)
	for _, f := range s.Findings {
		counts[f.Status]++
	}
	s.Stats.ByStatus = counts
}

// AppendHistory appends entry and trims to ScanHistoryMaxEntries (§4.5
// "History append").
func (s *State) AppendHistory(entry ScanHistoryEntry) {
	s.ScanHistory = append(s.ScanHistory, entry)
	if len(s.ScanHistory) > ScanHistoryMaxEntries {
		s.ScanHistory = s.ScanHistory[len(s.ScanHistory)-ScanHistoryMaxEntries:]
	}
}

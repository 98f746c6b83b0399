// Package concern implements the concern synthesizer (§4.9, component
// C9): deriving higher-level, ephemeral design concerns from a finding
// population. Concerns are fingerprinted and dismissible but are never
// persisted as findings until a human confirms them.
package concern

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/healthscan/healthscan/internal/finding"
)

// Kind is the closed set of concern triggers (§4.9, §8).
type Kind string

const (
	KindSystemicPattern     Kind = "SystemicPattern"
	KindSystemicSmell       Kind = "SystemicSmell"
	KindInterfaceDesign     Kind = "InterfaceDesign"
	KindStructuralComplexity Kind = "StructuralComplexity"
)

// Concern is one ephemeral, fingerprinted synthesis result (§4.9).
type Concern struct {
	Kind        Kind
	Summary     string
	Files       []string
	FindingIDs  []string
	Fingerprint string
}

// SameSmellFanout is the §4.9 threshold for SystemicSmell: the same
// detector firing in at least this many distinct files.
const SameSmellFanout = 5

// SameProfileFanout is the §4.9 threshold for SystemicPattern: at least
// this many distinct files sharing the same detector-set profile.
const SameProfileFanout = 3

// MinParametersForInterfaceDesign is the §4.9 threshold for
// InterfaceDesign concerns.
const MinParametersForInterfaceDesign = 8

// MinNestingForStructuralComplexity and MinLOCForStructuralComplexity are
// the two (OR'd) §4.9 thresholds for StructuralComplexity.
const (
	MinNestingForStructuralComplexity = 6
	MinLOCForStructuralComplexity      = 300
)

// FileMetrics carries the per-file signals the synthesizer needs beyond
// the Finding population itself (nesting depth, parameter counts — data
// a detector phase computes but that doesn't warrant its own Finding).
type FileMetrics struct {
	File           string
	MaxNestingDepth int
	LOC            int
	MaxParamCount   int
}

// Synthesize derives Concern records from a scan's findings and
// per-file metrics (§4.9). dismissed is the set of fingerprints the user
// has already dismissed (state.concern_dismissals); dismissed concerns
// are computed (for fingerprint stability) but excluded from the result.
func Synthesize(findings []finding.Finding, metrics []FileMetrics, dismissed map[string]int64) []Concern {
	var all []Concern
	all = append(all, perFileConcerns(findings, metrics)...)
	all = append(all, systemicPatternConcerns(findings)...)
	all = append(all, systemicSmellConcerns(findings)...)
	all = append(all, interfaceDesignConcerns(metrics)...)
	all = append(all, structuralComplexityConcerns(metrics)...)

	out := make([]Concern, 0, len(all))
	for _, c := range all {
		if _, isDismissed := dismissed[c.Fingerprint]; isDismissed {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// perFileConcerns flags files combining high complexity with many
// smells — "high complexity + many smells in same file" (§4.9).
func perFileConcerns(findings []finding.Finding, metrics []FileMetrics) []Concern {
	countByFile := make(map[string]int)
	idsByFile := make(map[string][]string)
	for _, f := range findings {
		if f.Status.Terminal() {
			continue
		}
		countByFile[f.File]++
		idsByFile[f.File] = append(idsByFile[f.File], f.ID)
	}

	complexByFile := make(map[string]bool)
	for _, m := range metrics {
		if m.MaxNestingDepth >= MinNestingForStructuralComplexity || m.LOC >= MinLOCForStructuralComplexity {
			complexByFile[m.File] = true
		}
	}

	const manySmells = 3
	var out []Concern
	for file, count := range countByFile {
		if count < manySmells || !complexByFile[file] {
			continue
		}
		ids := idsByFile[file]
		sort.Strings(ids)
		out = append(out, newConcern(KindStructuralComplexity, "high complexity with multiple smells in "+file, []string{file}, ids))
	}
	return out
}

// systemicPatternConcerns flags 3+ files sharing the same detector-set
// profile (§4.9). A profile is a combination of at least two detectors;
// one detector recurring across files is left to systemicSmellConcerns.
func systemicPatternConcerns(findings []finding.Finding) []Concern {
	profileFiles := make(map[string]map[string]bool)
	profileIDs := make(map[string][]string)
	detectorsByFile := make(map[string]map[string]bool)
	for _, f := range findings {
		if f.Status.Terminal() {
			continue
		}
		if detectorsByFile[f.File] == nil {
			detectorsByFile[f.File] = make(map[string]bool)
		}
		detectorsByFile[f.File][f.Detector] = true
	}
	for file, detectors := range detectorsByFile {
		if len(detectors) < 2 {
			continue
		}
		profile := profileKey(detectors)
		if profileFiles[profile] == nil {
			profileFiles[profile] = make(map[string]bool)
		}
		profileFiles[profile][file] = true
	}
	for _, f := range findings {
		if f.Status.Terminal() {
			continue
		}
		profile := profileKey(detectorsByFile[f.File])
		profileIDs[profile] = append(profileIDs[profile], f.ID)
	}

	var out []Concern
	for profile, files := range profileFiles {
		if len(files) < SameProfileFanout {
			continue
		}
		fileList := make([]string, 0, len(files))
		for file := range files {
			fileList = append(fileList, file)
		}
		sort.Strings(fileList)
		ids := profileIDs[profile]
		sort.Strings(ids)
		out = append(out, newConcern(KindSystemicPattern, "shared detector profile ("+profile+") across "+strings.Join(fileList, ", "), fileList, ids))
	}
	return out
}

func profileKey(detectors map[string]bool) string {
	names := make([]string, 0, len(detectors))
	for d := range detectors {
		names = append(names, d)
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}

// systemicSmellConcerns flags the same detector firing in at least
// SameSmellFanout distinct files (§4.9).
func systemicSmellConcerns(findings []finding.Finding) []Concern {
	filesByDetector := make(map[string]map[string]bool)
	idsByDetector := make(map[string][]string)
	for _, f := range findings {
		if f.Status.Terminal() {
			continue
		}
		if filesByDetector[f.Detector] == nil {
			filesByDetector[f.Detector] = make(map[string]bool)
		}
		filesByDetector[f.Detector][f.File] = true
		idsByDetector[f.Detector] = append(idsByDetector[f.Detector], f.ID)
	}

	var out []Concern
	for detector, files := range filesByDetector {
		if len(files) < SameSmellFanout {
			continue
		}
		fileList := make([]string, 0, len(files))
		for file := range files {
			fileList = append(fileList, file)
		}
		sort.Strings(fileList)
		ids := idsByDetector[detector]
		sort.Strings(ids)
		out = append(out, newConcern(KindSystemicSmell, detector+" recurring across "+strings.Join(fileList, ", "), fileList, ids))
	}
	return out
}

// interfaceDesignConcerns flags files with a function/method taking
// MinParametersForInterfaceDesign+ parameters (§4.9).
func interfaceDesignConcerns(metrics []FileMetrics) []Concern {
	var out []Concern
	for _, m := range metrics {
		if m.MaxParamCount < MinParametersForInterfaceDesign {
			continue
		}
		out = append(out, newConcern(KindInterfaceDesign, "wide parameter list in "+m.File, []string{m.File}, nil))
	}
	return out
}

// structuralComplexityConcerns flags files whose nesting depth or LOC
// crosses either threshold (§4.9).
func structuralComplexityConcerns(metrics []FileMetrics) []Concern {
	var out []Concern
	for _, m := range metrics {
		if m.MaxNestingDepth < MinNestingForStructuralComplexity && m.LOC < MinLOCForStructuralComplexity {
			continue
		}
		out = append(out, newConcern(KindStructuralComplexity, "deep nesting or large file: "+m.File, []string{m.File}, nil))
	}
	return out
}

func newConcern(kind Kind, summary string, files, findingIDs []string) Concern {
	c := Concern{Kind: kind, Summary: summary, Files: append([]string(nil), files...), FindingIDs: append([]string(nil), findingIDs...)}
	c.Fingerprint = Fingerprint(kind, files, findingIDs)
	return c
}

// Fingerprint computes SHA-256(sorted canonical evidence), truncated to
// 16 hex characters (§4.9). It is a pure function of kind + the sorted
// file set + the sorted finding-id set, so dismissals stay stable across
// reruns on unchanged evidence.
func Fingerprint(kind Kind, files, findingIDs []string) string {
	sortedFiles := append([]string(nil), files...)
	sort.Strings(sortedFiles)
	sortedIDs := append([]string(nil), findingIDs...)
	sort.Strings(sortedIDs)

	var sb strings.Builder
	sb.WriteString(string(kind))
	sb.WriteByte('\x00')
	sb.WriteString(strings.Join(sortedFiles, "\x00"))
	sb.WriteByte('\x00')
	sb.WriteString(strings.Join(sortedIDs, "\x00"))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])[:16]
}

package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/healthscan/healthscan/internal/concern"
	"github.com/healthscan/healthscan/internal/config"
	"github.com/healthscan/healthscan/internal/detect"
	"github.com/healthscan/healthscan/internal/finding"
	"github.com/healthscan/healthscan/internal/graph"
	"github.com/healthscan/healthscan/internal/integrity"
	"github.com/healthscan/healthscan/internal/langgo"
	"github.com/healthscan/healthscan/internal/langplugin"
	"github.com/healthscan/healthscan/internal/logging"
	"github.com/healthscan/healthscan/internal/plan"
	"github.com/healthscan/healthscan/internal/queue"
	"github.com/healthscan/healthscan/internal/scoring"
	"github.com/healthscan/healthscan/internal/state"
	"github.com/healthscan/healthscan/internal/store"
	"github.com/healthscan/healthscan/internal/workspace"
	"github.com/healthscan/healthscan/internal/zone"
)

var (
	concurrentPhases bool
	watchMode        bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and merge its findings into the durable ledger",
	Long: `scan discovers source files, runs the language plugin's detector
pipeline, merges the result into .healthscan/state.json, reconciles
.healthscan/plan.json, and reports the four score channels.

With --watch, it rescans on filesystem changes instead of exiting after
the first scan.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&concurrentPhases, "concurrent", false, "run phases concurrently instead of in declared order")
	scanCmd.Flags().BoolVar(&watchMode, "watch", false, "rescan on filesystem changes instead of exiting")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "scan cancelled")
		cancel()
	}()

	ws, err := resolveWorkspace()
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	log := logging.For(rootLogger, logging.CategoryScan)

	if !watchMode {
		return runOnce(ctx, log, ws)
	}
	return runWatch(ctx, log, ws)
}

// runOnce performs exactly one scan-merge-score-reconcile cycle (§4.4-§4.10).
func runOnce(ctx context.Context, log *logging.Logger, ws string) error {
	cfg, warnings, err := config.Load(resolveConfigPath(ws))
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warnw(w)
	}

	lock, err := store.Acquire(lockPath(ws))
	if err != nil {
		return err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			log.Warnw("failed to release scan lock", "err", relErr)
		}
	}()

	modulePath, err := workspace.ModulePath(ws)
	if err != nil {
		return err
	}
	goPlugin := langgo.New(modulePath, ws)

	files, err := workspace.Discover(ws, goPlugin.Extensions(), cfg.Exclude)
	if err != nil {
		return err
	}

	reg := finding.NewDefaultRegistry()
	classifier := zone.NewClassifier(zoneOverrideRules(cfg.ZoneOverrides), goPlugin.ZoneRules(), nil)

	sc := &langplugin.ScanContext{
		Root: ws, Files: files, Registry: reg, Classifier: classifier,
		Now: func() int64 { return time.Now().UnixMilli() }, Lang: goPlugin.Name(),
	}
	sc.Graph = buildImportGraph(ctx, goPlugin, files)

	opts := detect.Options{}
	var out *detect.ScanOutput
	if concurrentPhases {
		out, err = detect.RunConcurrent(ctx, logging.For(rootLogger, logging.CategoryDetect), goPlugin, sc, opts)
	} else {
		out, err = detect.Run(ctx, logging.For(rootLogger, logging.CategoryDetect), goPlugin, sc, opts)
	}
	if err != nil {
		return fmt.Errorf("scan aborted before completion, state not updated: %w", err)
	}
	for _, d := range out.Degradations {
		log.Warnw("detector did not run this scan", "detector", d.Detector, "code", d.Code, "reason", d.Reason)
	}

	s := state.New()
	if readErr := store.ReadJSON(statePath(ws), s); readErr != nil && !os.IsNotExist(readErr) {
		return readErr
	}

	diff := state.Merge(s, out.Findings, out.RanDetectors, state.MergeOptions{
		Now:               func() int64 { return time.Now().UnixMilli() },
		IgnorePatterns:    cfg.Ignore,
		NoiseBudget:       cfg.FindingNoiseBudget,
		NoiseGlobalBudget: cfg.FindingNoiseGlobalBudget,
	})

	result := scoreFindings(reg, s, out)
	strictGap := math.Abs(result.Channels.Overall - result.Channels.Strict)

	subjScores := subjectiveScoreMap(s)
	report, nextIntegrity := integrity.Check(subjScores, nil, s.SubjectiveIntegrity, float64(cfg.TargetStrictScore), true, strictGap)
	for _, dim := range integrity.ResetDimensions(nextIntegrity) {
		a := s.SubjectiveAssessments[dim]
		a.Score = 0
		s.SubjectiveAssessments[dim] = a
	}
	s.SubjectiveIntegrity = nextIntegrity
	if len(integrity.ResetDimensions(nextIntegrity)) > 0 {
		result = scoreFindings(reg, s, out) // reflect the reset scores in this scan's channels
	}
	s.Scores = result.Channels

	scanID := uuid.NewString()
	s.AppendHistory(state.ScanHistoryEntry{ScanID: scanID, At: time.Now().UnixMilli(), Scores: s.Scores, Stats: s.Stats})

	p := plan.New()
	if readErr := store.ReadJSON(planPath(ws), p); readErr != nil && !os.IsNotExist(readErr) {
		return readErr
	}
	planDiff := plan.Reconcile(p, s.Findings, nil, func() int64 { return time.Now().UnixMilli() })
	plan.AutoClusterByKey(p, s.Findings, crossFileGroupKey)

	metrics := fileMetrics(ctx, goPlugin, ws, files)
	concerns := concern.Synthesize(allFindings(s), metrics, s.ConcernDismissals)

	items := queue.Build(reg, allFindings(s), planClusters(p, s), unassessedSubjectiveItems(s), queue.Filter{})

	if err := store.WriteJSONAtomic(statePath(ws), s); err != nil {
		return err
	}
	if err := store.WriteJSONAtomic(planPath(ws), p); err != nil {
		return err
	}

	printScanSummary(scanID, s, diff, planDiff, report, items, concerns, out.Degradations)
	return nil
}

// runWatch reruns runOnce on every filesystem change under ws, debounced,
// until the context is cancelled. A scan failure is logged and watching
// continues — a single bad edit should not kill the watcher.
func runWatch(ctx context.Context, log *logging.Logger, ws string) error {
	w, err := newRecursiveWatcher(ws)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := runOnce(ctx, log, ws); err != nil {
		log.Warnw("initial scan failed", "err", err)
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	const quiet = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Events:
			if !ok {
				return nil
			}
			debounce.Reset(quiet)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watch error", "err", err)
		case <-debounce.C:
			if err := runOnce(ctx, log, ws); err != nil {
				log.Warnw("rescan failed", "err", err)
			}
		}
	}
}

func buildImportGraph(ctx context.Context, p *langgo.Plugin, files []langplugin.FileInfo) *graph.Graph {
	var paths []string
	var edges []graph.Edge
	for _, fi := range files {
		paths = append(paths, fi.Path)
		fileEdges, err := p.ResolveImport(ctx, fi.Path)
		if err != nil {
			continue
		}
		edges = append(edges, fileEdges...)
	}
	return graph.New(paths, edges, p.IsEntryPoint)
}

func zoneOverrideRules(overrides map[string]string) []zone.Rule {
	if len(overrides) == 0 {
		return nil
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rules := make([]zone.Rule, 0, len(keys))
	for _, k := range keys {
		rules = append(rules, zone.Rule{Pattern: zone.Pattern(k), Zone: finding.Zone(overrides[k])})
	}
	return rules
}

func scoreFindings(reg *finding.Registry, s *state.State, out *detect.ScanOutput) scoring.Result {
	byDetector := make(map[string][]finding.Finding)
	for _, f := range s.Findings {
		byDetector[f.Detector] = append(byDetector[f.Detector], f)
	}
	var outcomes []scoring.DetectorOutcome
	for _, name := range reg.Names() {
		outcomes = append(outcomes, scoring.DetectorOutcome{
			Detector: name, Checks: out.Potentials[name], Findings: byDetector[name],
		})
	}
	return scoring.Score(scoring.Input{Registry: reg, Detectors: outcomes, Subjective: subjectiveScoreMap(s)})
}

func subjectiveScoreMap(s *state.State) map[string]float64 {
	out := make(map[string]float64, len(s.SubjectiveAssessments))
	for dim, a := range s.SubjectiveAssessments {
		out[dim] = a.Score
	}
	return out
}

func allFindings(s *state.State) []finding.Finding {
	out := make([]finding.Finding, 0, len(s.Findings))
	for _, f := range s.Findings {
		out = append(out, f)
	}
	return out
}

func planClusters(p *plan.Plan, s *state.State) []queue.Cluster {
	out := make([]queue.Cluster, 0, len(p.Clusters))
	for name, c := range p.Clusters {
		present := 0
		for _, id := range c.FindingIDs {
			if _, ok := s.Findings[id]; ok {
				present++
			}
		}
		out = append(out, queue.Cluster{ID: name, Action: c.Action, MemberIDs: c.FindingIDs, FindingCount: present})
	}
	return out
}

func unassessedSubjectiveItems(s *state.State) []queue.SubjectiveItem {
	var out []queue.SubjectiveItem
	for _, d := range scoring.AllSubjectiveDimensions() {
		if _, ok := s.SubjectiveAssessments[string(d)]; ok {
			continue
		}
		out = append(out, queue.SubjectiveItem{ID: string(d), Score: 0})
	}
	return out
}

// crossFileGroupKey clusters findings that already carry explicit
// cross-file membership (import cycles, duplicate-code clusters) by that
// membership's stable hash, supplementing Reconcile's default
// (detector, file-stem) grouping with the graph/duplication-aware
// grouping the spec calls out separately (§4.8 "also by duplicate-group /
// SCC membership").
func crossFileGroupKey(f finding.Finding) string {
	if len(f.Detail.ClusterMembers) > 1 {
		return f.Detector + ":" + finding.MemberSetHash(f.Detail.ClusterMembers)
	}
	return plan.DefaultGroupKey(f)
}

func fileMetrics(ctx context.Context, p *langgo.Plugin, root string, files []langplugin.FileInfo) []concern.FileMetrics {
	out := make([]concern.FileMetrics, 0, len(files))
	for _, fi := range files {
		if fi.Ext != ".go" {
			continue
		}
		m := concern.FileMetrics{File: fi.Path}
		if loc, err := countLines(root, fi.Path); err == nil {
			m.LOC = loc
		}
		if funcs, err := p.ExtractFunctions(ctx, fi.Path); err == nil {
			for _, fn := range funcs {
				if fn.Params > m.MaxParamCount {
					m.MaxParamCount = fn.Params
				}
			}
		}
		out = append(out, m)
	}
	return out
}

func countLines(root, rel string) (int, error) {
	data, err := os.ReadFile(joinPath(root, rel))
	if err != nil {
		return 0, err
	}
	return strings.Count(string(data), "\n") + 1, nil
}

func joinPath(root, rel string) string {
	return root + string(os.PathSeparator) + rel
}

func printScanSummary(scanID string, s *state.State, diff state.ScanDiff, planDiff plan.Diff, report integrity.Report,
	items []queue.Item, concerns []concern.Concern, degradations []detect.Degradation) {
	fmt.Printf("scan %s complete\n", scanID)
	fmt.Printf("  overall=%.1f objective=%.1f strict=%.1f verified_strict=%.1f\n",
		s.Scores.Overall, s.Scores.Objective, s.Scores.Strict, s.Scores.VerifiedStrict)
	fmt.Printf("  findings: %d new, %d resolved, %d reopened\n", len(diff.New), len(diff.Resolved), len(diff.Reopened))
	fmt.Printf("  plan: %d superseded, %d pruned, %d clusters added, %d clusters dropped\n",
		len(planDiff.Superseded), len(planDiff.Pruned), len(planDiff.ClustersAdded), len(planDiff.ClustersDropped))
	fmt.Printf("  integrity: %s\n", report.Status)
	if len(report.MatchedDimensions) > 0 {
		fmt.Printf("    matched dimensions: %s\n", strings.Join(report.MatchedDimensions, ", "))
	}
	if len(degradations) > 0 {
		fmt.Printf("  %d detector(s) did not run this scan\n", len(degradations))
	}
	if len(concerns) > 0 {
		fmt.Printf("  %d synthesized concern(s)\n", len(concerns))
	}

	fmt.Println("  top of queue:")
	for i, it := range items {
		if i >= 10 {
			break
		}
		switch it.Kind {
		case queue.KindCluster:
			fmt.Printf("    [cluster] %s (%d members, %s)\n", it.Cluster.ID, it.Cluster.FindingCount, it.Cluster.Action)
		case queue.KindSubjective:
			fmt.Printf("    [review]  %s\n", it.Subjective.ID)
		default:
			fmt.Printf("    [%d] %s %s\n", it.EffectiveTier, it.Finding.Detector, it.Finding.File)
		}
	}
}

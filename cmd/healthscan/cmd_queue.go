package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthscan/healthscan/internal/finding"
	"github.com/healthscan/healthscan/internal/plan"
	"github.com/healthscan/healthscan/internal/queue"
	"github.com/healthscan/healthscan/internal/state"
	"github.com/healthscan/healthscan/internal/store"
)

var (
	queueTiers   []string
	queueScope   string
	queueChronic bool
	queueCollapse bool
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Print the ranked work queue from the last persisted scan",
	Long: `queue loads .healthscan/state.json and .healthscan/plan.json and
prints the ranked queue (clusters, then mechanical findings by effective
tier, then subjective dimensions awaiting assessment) without running a
new scan.

Subjective scores are never folded in automatically here — run them
through the review packet contract and import the reviewer's result
before a scan picks them up.`,
	RunE: runQueue,
}

func init() {
	queueCmd.Flags().StringSliceVar(&queueTiers, "tier", nil, "restrict to these tiers (1-4), comma-separated")
	queueCmd.Flags().StringVar(&queueScope, "scope", "", "restrict to findings whose file has this path prefix")
	queueCmd.Flags().BoolVar(&queueChronic, "chronic", false, "only findings reopened at least twice")
	queueCmd.Flags().BoolVar(&queueCollapse, "collapse-clusters", true, "hide findings already claimed by a listed cluster")
}

func runQueue(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	s := state.New()
	if err := store.ReadJSON(statePath(ws), s); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no scan has been recorded yet in %s; run `healthscan scan` first", ws)
		}
		return err
	}

	p := plan.New()
	if err := store.ReadJSON(planPath(ws), p); err != nil && !os.IsNotExist(err) {
		return err
	}

	reg := finding.NewDefaultRegistry()
	filter, err := parseQueueFilter(p)
	if err != nil {
		return err
	}

	items := queue.Build(reg, allFindings(s), planClusters(p, s), unassessedSubjectiveItems(s), filter)
	printQueue(items)
	return nil
}

func parseQueueFilter(p *plan.Plan) (queue.Filter, error) {
	filter := queue.Filter{
		ScopePrefix:      queueScope,
		ChronicOnly:      queueChronic,
		CollapseClusters: queueCollapse,
		SkippedIDs:       skippedIDs(p),
	}
	for _, raw := range queueTiers {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return filter, fmt.Errorf("invalid --tier value %q: %w", raw, err)
		}
		t := finding.Tier(n)
		if !t.Valid() {
			return filter, fmt.Errorf("tier %d out of range 1-4", n)
		}
		filter.Tiers = append(filter.Tiers, t)
	}
	return filter, nil
}

func skippedIDs(p *plan.Plan) map[string]bool {
	out := make(map[string]bool, len(p.Skipped))
	for id := range p.Skipped {
		out[id] = true
	}
	return out
}

func printQueue(items []queue.Item) {
	if len(items) == 0 {
		fmt.Println("queue is empty")
		return
	}
	for i, it := range items {
		switch it.Kind {
		case queue.KindCluster:
			fmt.Printf("%3d. [cluster]    %-28s %-14s %d member(s)\n", i+1, it.Cluster.ID, it.Cluster.Action, it.Cluster.FindingCount)
		case queue.KindSubjective:
			fmt.Printf("%3d. [review]     %s awaiting assessment\n", i+1, it.Subjective.ID)
		default:
			f := it.Finding
			fallback := ""
			if it.FallbackReason != "" {
				fallback = " (" + it.FallbackReason + ")"
			}
			fmt.Printf("%3d. [tier %d]     %-18s %-50s %s%s\n", i+1, it.EffectiveTier, f.Detector, f.File, f.Confidence, fallback)
		}
	}
}

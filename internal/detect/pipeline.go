// Package detect drives the per-language ordered phase pipeline (§4.4) and
// collects its output into a single, deterministically-sorted ScanOutput
// ready for state merge (§4.5).
package detect

import (
	"context"
	"sort"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/healthscan/healthscan/internal/finding"
	"github.com/healthscan/healthscan/internal/langplugin"
	"github.com/healthscan/healthscan/internal/logging"
)

// Degradation records a non-fatal phase failure or skip (§4.4, §7): the
// scan proceeds, but callers can surface what didn't run.
type Degradation struct {
	Phase    string
	Detector string
	Code     string // e.g. "E_TOOL_MISSING:eslint", "E_PHASE_FAILED:complexity"
	Reason   string
}

// ScanOutput is the collected, sorted result of running every phase once.
type ScanOutput struct {
	Findings     []finding.Finding
	Potentials   map[string]int // detector -> potential count, summed across phases
	RanDetectors map[string]bool // D in §4.5: detectors that actually executed this scan
	Degradations []Degradation
}

// Options bounds the phase pipeline's concurrency (§5: work-stealing pool,
// bounded by pool size).
type Options struct {
	MaxConcurrentPhases int64 // default 4 when <= 0
}

// Run drives every phase of plugin in its registered order (§4.4) and
// returns the combined, id-sorted output. Run does not mutate any shared
// state; callers pass the result to state merge (state.Merge).
//
// Phase failures (including context cancellation mid-phase) are recorded
// as Degradations and do not abort the scan — other phases still run
// (§4.4, §7). A context cancellation at a phase *boundary* (checked
// before each phase starts) does abort remaining phases, matching §5's
// "cancellable at phase boundaries" contract; in that case Run returns
// the partial ScanOutput collected so far and a non-nil error, and the
// caller (internal/store via the scan driver) must not persist it.
func Run(ctx context.Context, log *logging.Logger, plugin langplugin.LanguagePlugin, sc *langplugin.ScanContext, opts Options) (*ScanOutput, error) {
	maxConcurrent := opts.MaxConcurrentPhases
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	out := &ScanOutput{
		Potentials:   make(map[string]int),
		RanDetectors: make(map[string]bool),
	}

	phases := plugin.Phases()
	results := make([]langplugin.PhaseResult, len(phases))
	ran := make([]bool, len(phases))

	for i, phase := range phases {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		if phase.Optional != nil && !phase.Optional() {
			for _, det := range phase.Detectors {
				out.Degradations = append(out.Degradations, Degradation{
					Phase: phase.Name, Detector: det,
					Code:   "E_TOOL_MISSING:" + det,
					Reason: "external tool not available; phase skipped, prior findings for this detector are not auto-resolved",
				})
			}
			log.Warnw("phase skipped: tool unavailable", "phase", phase.Name)
			continue
		}

		start := time.Now()
		res, err := runPhaseBounded(ctx, phase, sc, maxConcurrent)
		if err != nil {
			for _, det := range phase.Detectors {
				out.Degradations = append(out.Degradations, Degradation{
					Phase: phase.Name, Detector: det,
					Code:   "E_PHASE_FAILED:" + det,
					Reason: err.Error(),
				})
			}
			log.Warnw("phase failed", "phase", phase.Name, "err", err, "elapsed", time.Since(start))
			continue
		}

		results[i] = res
		ran[i] = true
		for _, det := range phase.Detectors {
			out.RanDetectors[det] = true
		}
		log.Debugw("phase completed", "phase", phase.Name, "findings", len(res.Findings), "elapsed", time.Since(start))
	}

	for i, res := range results {
		if !ran[i] {
			continue
		}
		out.Findings = append(out.Findings, res.Findings...)
		for det, count := range res.Potentials {
			out.Potentials[det] += count
		}
	}

	// Merge is deterministic regardless of phase/file parallelism: sort
	// by id at the pipeline boundary (§5 Ordering guarantees).
	sort.Slice(out.Findings, func(i, j int) bool { return out.Findings[i].ID < out.Findings[j].ID })

	return out, nil
}

// runPhaseBounded executes a single phase. The phase function itself is
// responsible for any internal per-file fan-out; runPhaseBounded's job is
// only to convert a panic/error into the phase-failure contract and to
// cap how many phases run concurrently relative to each other when a
// caller chooses to invoke phases concurrently (RunConcurrent below).
func runPhaseBounded(ctx context.Context, phase langplugin.NamedPhase, sc *langplugin.ScanContext, _ int64) (res langplugin.PhaseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(err, panicToError(r))
		}
	}()
	return phase.Run(ctx, sc)
}

// RunConcurrent is an alternative driver that runs every phase's Run
// concurrently, at most MaxConcurrentPhases at a time via the errgroup's
// limit (§5 Parallel CPU-bound:
// "each phase's internal parallelism is bounded by the pool size").
// Phase *order* still determines the order findings are appended before
// the final id-sort, so output is identical to Run regardless of which
// driver executes the phases, matching §5's determinism guarantee.
func RunConcurrent(ctx context.Context, log *logging.Logger, plugin langplugin.LanguagePlugin, sc *langplugin.ScanContext, opts Options) (*ScanOutput, error) {
	maxConcurrent := opts.MaxConcurrentPhases
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	phases := plugin.Phases()
	results := make([]langplugin.PhaseResult, len(phases))
	degradations := make([][]Degradation, len(phases))
	ran := make([]bool, len(phases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(maxConcurrent))

	for i, phase := range phases {
		i, phase := i, phase
		if phase.Optional != nil && !phase.Optional() {
			for _, det := range phase.Detectors {
				degradations[i] = append(degradations[i], Degradation{
					Phase: phase.Name, Detector: det,
					Code:   "E_TOOL_MISSING:" + det,
					Reason: "external tool not available; phase skipped",
				})
			}
			continue
		}
		g.Go(func() error {
			res, err := runPhaseBounded(gctx, phase, sc, maxConcurrent)
			if err != nil {
				for _, det := range phase.Detectors {
					degradations[i] = append(degradations[i], Degradation{
						Phase: phase.Name, Detector: det,
						Code:   "E_PHASE_FAILED:" + det,
						Reason: err.Error(),
					})
				}
				log.Warnw("phase failed", "phase", phase.Name, "err", err)
				return nil // a phase failure never aborts the group (§4.4)
			}
			results[i] = res
			ran[i] = true
			return nil
		})
	}
	// Phase errors are already swallowed above, so no goroutine fails the
	// group; a context cancelled during the run is reported here instead,
	// and no partial output is returned.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &ScanOutput{Potentials: make(map[string]int), RanDetectors: make(map[string]bool)}
	for i, phase := range phases {
		out.Degradations = append(out.Degradations, degradations[i]...)
		if !ran[i] {
			continue
		}
		for _, det := range phase.Detectors {
			out.RanDetectors[det] = true
		}
		out.Findings = append(out.Findings, results[i].Findings...)
		for det, count := range results[i].Potentials {
			out.Potentials[det] += count
		}
	}
	sort.Slice(out.Findings, func(i, j int) bool { return out.Findings[i].ID < out.Findings[j].ID })
	return out, nil
}

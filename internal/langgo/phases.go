package langgo

import (
	"context"
	"go/ast"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/healthscan/healthscan/internal/finding"
	"github.com/healthscan/healthscan/internal/langplugin"
)

// Phases returns the ordered phase pipeline (§4.4) driving all twelve
// default detectors (internal/finding.NewDefaultRegistry). Order matches
// cheapest/most-local checks first, cross-file checks last, so a
// per-phase timeout degrades the cheapest signal first.
func (p *Plugin) Phases() []langplugin.NamedPhase {
	return []langplugin.NamedPhase{
		{Name: "structure", Detectors: []string{"large_file", "complexity", "god_class", "unused_import", "cohesion"}, Run: p.phaseStructure},
		{Name: "security", Detectors: []string{"security_pattern"}, Run: p.phaseSecurity},
		{Name: "graph", Detectors: []string{"cyclic_import", "coupling", "orphaned_file"}, Run: p.phaseGraph},
		{Name: "test_coverage", Detectors: []string{"test_coverage"}, Run: p.phaseTestCoverage},
		{Name: "duplicate_code", Detectors: []string{"duplicate_code"}, Run: p.phaseDuplicateCode},
		{Name: "review_freshness", Detectors: []string{"review_freshness"}, Run: p.phaseReviewFreshness},
	}
}

func (p *Plugin) goFiles(sc *langplugin.ScanContext) []langplugin.FileInfo {
	var out []langplugin.FileInfo
	for _, f := range sc.Files {
		if f.Ext == ".go" {
			out = append(out, f)
		}
	}
	return out
}

// phaseStructure runs the five per-file structural detectors together
// since they all need the same parse/extract pass per file (§4.4: one
// phase, several detectors).
func (p *Plugin) phaseStructure(ctx context.Context, sc *langplugin.ScanContext) (langplugin.PhaseResult, error) {
	res := langplugin.PhaseResult{Potentials: map[string]int{}}
	files := p.goFiles(sc)

	for _, fi := range files {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		zone := sc.Classifier.Classify(fi.Path)

		res.Potentials["large_file"]++
		if finding.Zone(zone) != finding.ZoneVendor && finding.Zone(zone) != finding.ZoneGenerated {
			if loc, err := countLines(filepath.Join(sc.Root, fi.Path)); err == nil && loc > p.largeThreshold {
				res.Findings = append(res.Findings, newFileFinding("large_file", fi.Path, finding.TierQuickFix, finding.ConfidenceHigh, zone,
					"file exceeds the large-file line threshold", finding.Detail{LOC: loc}))
			}
		}

		funcs, err := p.ExtractFunctions(ctx, fi.Path)
		if err != nil {
			continue
		}
		res.Potentials["complexity"] += len(funcs)
		res.Potentials["unused_import"]++
		for _, fn := range funcs {
			if fn.Complexity <= p.complexityThreshold {
				continue
			}
			res.Findings = append(res.Findings, finding.Finding{
				ID: finding.BuildID("complexity", fi.Path, fn.Symbol), Detector: "complexity", File: fi.Path,
				Tier: finding.TierJudgment, Confidence: finding.ConfidenceHigh, Zone: zone,
				Message: "function exceeds the cyclomatic complexity threshold",
				Detail:  finding.Detail{Complexity: fn.Complexity, Symbol: fn.Symbol, Line: fn.StartLine},
			})
		}

		unused, err := p.unusedImports(fi.Path)
		if err == nil {
			for _, imp := range unused {
				res.Findings = append(res.Findings, newFileFinding("unused_import", fi.Path, finding.TierAutoFix, finding.ConfidenceHigh, zone,
					"unused import: "+imp, finding.Detail{}))
			}
		}

		classes, err := p.ExtractClasses(ctx, fi.Path)
		if err != nil {
			continue
		}
		res.Potentials["god_class"] += len(classes)
		res.Potentials["cohesion"] += len(classes)
		for _, c := range classes {
			if c.Methods >= 15 || c.Fields >= 20 {
				res.Findings = append(res.Findings, finding.Finding{
					ID: finding.BuildID("god_class", fi.Path, c.Symbol), Detector: "god_class", File: fi.Path,
					Tier: finding.TierMajorRefactor, Confidence: finding.ConfidenceMedium, Zone: zone,
					Message: "type has an unusually large method/field surface",
					Detail:  finding.Detail{Symbol: c.Symbol, Line: c.StartLine},
				})
			}
			if c.Methods >= 3 && c.Fields > 0 && float64(c.Methods)/float64(c.Fields) < 0.2 {
				res.Findings = append(res.Findings, finding.Finding{
					ID: finding.BuildID("cohesion", fi.Path, c.Symbol), Detector: "cohesion", File: fi.Path,
					Tier: finding.TierJudgment, Confidence: finding.ConfidenceLow, Zone: zone,
					Message: "type has many fields relative to the methods operating on them",
					Detail:  finding.Detail{Symbol: c.Symbol, Line: c.StartLine},
				})
			}
		}
	}
	return res, nil
}

func newFileFinding(detector, file string, tier finding.Tier, conf finding.Confidence, zone finding.Zone, msg string, detail finding.Detail) finding.Finding {
	return finding.Finding{
		ID: finding.BuildID(detector, file, finding.SymbolForFile()), Detector: detector, File: file,
		Tier: tier, Confidence: conf, Zone: zone, Message: msg, Detail: detail,
	}
}

func countLines(absPath string) (int, error) {
	src, err := os.ReadFile(absPath)
	if err != nil {
		return 0, err
	}
	return strings.Count(string(src), "\n") + 1, nil
}

// unusedImports reports imported package identifiers never referenced
// in the file body.
func (p *Plugin) unusedImports(file string) ([]string, error) {
	_, f, _, err := p.parseFile(file)
	if err != nil {
		return nil, err
	}
	var unused []string
	for _, imp := range f.Imports {
		if imp.Name != nil && imp.Name.Name == "_" {
			continue // blank import: intentionally unused
		}
		name := importedIdent(imp)
		if name == "" || identUsed(f, name) {
			continue
		}
		unused = append(unused, name)
	}
	sort.Strings(unused)
	return unused, nil
}

// importedIdent returns the identifier an import introduces into the
// file's scope: the explicit alias, or the package's own name (assumed
// from the last path segment) otherwise.
func importedIdent(imp *ast.ImportSpec) string {
	if imp.Name != nil {
		return imp.Name.Name
	}
	path, err := strconv.Unquote(imp.Path.Value)
	if err != nil {
		return ""
	}
	segs := strings.Split(path, "/")
	return segs[len(segs)-1]
}

// identUsed reports whether name appears as a selector base (pkg.Thing)
// anywhere in the file outside the import block itself.
func identUsed(f *ast.File, name string) bool {
	used := false
	ast.Inspect(f, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && id.Name == name {
			used = true
		}
		return true
	})
	return used
}

package langgo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan/healthscan/internal/finding"
	"github.com/healthscan/healthscan/internal/graph"
	"github.com/healthscan/healthscan/internal/langplugin"
	"github.com/healthscan/healthscan/internal/zone"
)

func newContext(root string, files ...string) *langplugin.ScanContext {
	var infos []langplugin.FileInfo
	for _, f := range files {
		infos = append(infos, langplugin.FileInfo{Path: f, Ext: ".go"})
	}
	return &langplugin.ScanContext{
		Root:       root,
		Files:      infos,
		Registry:   finding.NewDefaultRegistry(),
		Classifier: zone.NewClassifier(nil, nil, nil),
	}
}

func TestPhaseStructure_FlagsLargeFileAndComplexFunction(t *testing.T) {
	root := t.TempDir()
	var body strings.Builder
	body.WriteString("package pkg\n\nfunc Big(a int) int {\n")
	for i := 0; i < 500; i++ {
		body.WriteString("\t_ = a\n")
	}
	body.WriteString("\tif a > 0 {\n\t\treturn a\n\t}\n\treturn 0\n}\n")
	writeGoFile(t, root, "pkg/big.go", body.String())

	p := New("example.com/widgets", root)
	sc := newContext(root, "pkg/big.go")
	res, err := p.phaseStructure(context.Background(), sc)
	require.NoError(t, err)

	var sawLargeFile bool
	for _, f := range res.Findings {
		if f.Detector == "large_file" {
			sawLargeFile = true
		}
	}
	assert.True(t, sawLargeFile)
	assert.Equal(t, 1, res.Potentials["large_file"])
}

func TestPhaseStructure_FlagsGodClass(t *testing.T) {
	root := t.TempDir()
	var src strings.Builder
	src.WriteString("package pkg\n\ntype Big struct {\n")
	for i := 0; i < 25; i++ {
		src.WriteString("\tF" + string(rune('a'+i%26)) + string(rune('0'+i/26)) + " int\n")
	}
	src.WriteString("}\n\n")
	for i := 0; i < 16; i++ {
		src.WriteString("func (b *Big) M" + string(rune('a'+i%26)) + string(rune('0'+i/26)) + "() {}\n")
	}
	writeGoFile(t, root, "pkg/big.go", src.String())

	p := New("example.com/widgets", root)
	sc := newContext(root, "pkg/big.go")
	res, err := p.phaseStructure(context.Background(), sc)
	require.NoError(t, err)

	var sawGodClass bool
	for _, f := range res.Findings {
		if f.Detector == "god_class" {
			sawGodClass = true
		}
	}
	assert.True(t, sawGodClass)
}

func TestPhaseGraph_FlagsImportCycleAndOrphan(t *testing.T) {
	root := t.TempDir()
	g := graph.New(
		[]string{"pkg/a.go", "pkg/b.go", "pkg/orphan.go"},
		[]graph.Edge{
			{From: "pkg/a.go", To: "pkg/b.go"},
			{From: "pkg/b.go", To: "pkg/a.go"},
		},
		nil,
	)
	p := New("example.com/widgets", root)
	sc := newContext(root, "pkg/a.go", "pkg/b.go", "pkg/orphan.go")
	sc.Graph = g

	res, err := p.phaseGraph(context.Background(), sc)
	require.NoError(t, err)

	var sawCycle, sawOrphan bool
	for _, f := range res.Findings {
		switch f.Detector {
		case "cyclic_import":
			sawCycle = true
		case "orphaned_file":
			if f.File == "pkg/orphan.go" {
				sawOrphan = true
			}
		}
	}
	assert.True(t, sawCycle)
	assert.True(t, sawOrphan)
}

func TestPhaseTestCoverage_FlagsProductionFileWithoutSiblingTest(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "pkg/widget.go", "package pkg\n")
	writeGoFile(t, root, "pkg/covered.go", "package pkg\n")
	writeGoFile(t, root, "pkg/covered_test.go", "package pkg\n")

	p := New("example.com/widgets", root)
	sc := newContext(root, "pkg/widget.go", "pkg/covered.go", "pkg/covered_test.go")
	res, err := p.phaseTestCoverage(context.Background(), sc)
	require.NoError(t, err)

	flagged := map[string]bool{}
	for _, f := range res.Findings {
		flagged[f.File] = true
	}
	assert.True(t, flagged["pkg/widget.go"])
	assert.False(t, flagged["pkg/covered.go"])
	assert.False(t, flagged["pkg/covered_test.go"])
}

func TestPhaseDuplicateCode_ClustersIdenticalFunctionBodies(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "pkg/one.go", `package pkg

func DoWork(x int) int {
	y := x * 2
	return y + 1
}
`)
	writeGoFile(t, root, "pkg/two.go", `package pkg

func DoWorkAgain(x int) int {
	y := x * 2
	return y + 1
}
`)

	p := New("example.com/widgets", root)
	sc := newContext(root, "pkg/one.go", "pkg/two.go")
	res, err := p.phaseDuplicateCode(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.ElementsMatch(t, []string{"pkg/one.go::DoWork", "pkg/two.go::DoWorkAgain"}, res.Findings[0].Detail.ClusterMembers)
}

func TestPhaseSecurity_FlagsHardcodedSecret(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "pkg/conf.go", `package pkg

const apiKey = "sk_live_abcd1234efgh"
`)
	p := New("example.com/widgets", root)
	sc := newContext(root, "pkg/conf.go")
	res, err := p.phaseSecurity(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "security_pattern", res.Findings[0].Detector)
}

func TestPhaseReviewFreshness_ContributesPotentialWithNoFindings(t *testing.T) {
	p := New("example.com/widgets", t.TempDir())
	res, err := p.phaseReviewFreshness(context.Background(), newContext(t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	assert.Equal(t, 1, res.Potentials["review_freshness"])
}

package langgo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGoFile(t *testing.T, root, rel, src string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(src), 0o644))
}

func TestExtractFunctions_ComputesCyclomaticComplexityAndParams(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "pkg/widget.go", `package pkg

func Branchy(a, b int, c string) int {
	if a > 0 && b > 0 {
		return a
	}
	for i := 0; i < b; i++ {
		switch {
		case i == 0:
			return 0
		case i == 1:
			return 1
		}
	}
	return 0
}

func Plain() {}
`)
	p := New("example.com/widgets", root)
	funcs, err := p.ExtractFunctions(context.Background(), "pkg/widget.go")
	require.NoError(t, err)
	require.Len(t, funcs, 2)

	var branchy, plain *funcByName
	for i := range funcs {
		switch funcs[i].Symbol {
		case "Branchy":
			branchy = &funcByName{complexity: funcs[i].Complexity, params: funcs[i].Params}
		case "Plain":
			plain = &funcByName{complexity: funcs[i].Complexity, params: funcs[i].Params}
		}
	}
	require.NotNil(t, branchy)
	require.NotNil(t, plain)
	assert.Equal(t, 3, branchy.params)
	assert.Greater(t, branchy.complexity, 1)
	assert.Equal(t, 1, plain.complexity)
}

type funcByName struct {
	complexity int
	params     int
}

func TestExtractFunctions_QualifiesMethodNameByReceiver(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "pkg/widget.go", `package pkg

type Widget struct{}

func (w *Widget) Do() {}
`)
	p := New("example.com/widgets", root)
	funcs, err := p.ExtractFunctions(context.Background(), "pkg/widget.go")
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, "*Widget.Do", funcs[0].Symbol)
}

func TestExtractClasses_CountsMethodsAndFields(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "pkg/widget.go", `package pkg

type Widget struct {
	Name string
	Size int
}

func (w *Widget) Do()   {}
func (w *Widget) Undo() {}

type Doer interface {
	Do()
}
`)
	p := New("example.com/widgets", root)
	classes, err := p.ExtractClasses(context.Background(), "pkg/widget.go")
	require.NoError(t, err)
	require.Len(t, classes, 2)

	byName := map[string]int{}
	fieldsByName := map[string]int{}
	for _, c := range classes {
		byName[c.Symbol] = c.Methods
		fieldsByName[c.Symbol] = c.Fields
	}
	assert.Equal(t, 2, byName["Widget"])
	assert.Equal(t, 2, fieldsByName["Widget"])
	assert.Equal(t, 0, byName["Doer"])
}

func TestResolveImport_OnlyKeepsModuleInternalImportsAsEdges(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "pkg/widget.go", `package pkg

import (
	"fmt"
	"example.com/widgets/internal/helper"
	_ "example.com/widgets/internal/sideeffect"
)

var _ = fmt.Sprintf
var _ = helper.Name
`)
	p := New("example.com/widgets", root)
	edges, err := p.ResolveImport(context.Background(), "pkg/widget.go")
	require.NoError(t, err)
	require.Len(t, edges, 2)

	byTo := map[string]bool{}
	deferredByTo := map[string]bool{}
	for _, e := range edges {
		byTo[e.To] = true
		deferredByTo[e.To] = e.Deferred
	}
	assert.Contains(t, byTo, "internal/helper")
	assert.Contains(t, byTo, "internal/sideeffect")
	assert.True(t, deferredByTo["internal/sideeffect"], "blank imports are deferred")
	assert.False(t, deferredByTo["internal/helper"])
}

func TestIsEntryPoint_DetectsCmdDirAndMainPackage(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "cmd/tool/main.go", "package main\n\nfunc main() {}\n")
	writeGoFile(t, root, "pkg/lib.go", "package pkg\n")

	p := New("example.com/widgets", root)
	assert.True(t, p.IsEntryPoint("cmd/tool/main.go"))
	assert.False(t, p.IsEntryPoint("pkg/lib.go"))
}

func TestUnusedImports_FlagsOnlyTrulyUnreferencedImports(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "pkg/widget.go", `package pkg

import (
	"fmt"
	"strings"
)

func Use() {
	fmt.Println("x")
}
`)
	p := New("example.com/widgets", root)
	unused, err := p.unusedImports("pkg/widget.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"strings"}, unused)
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraph_FanInFanOut(t *testing.T) {
	edges := []Edge{
		{From: "a.go", To: "b.go"},
		{From: "c.go", To: "b.go"},
		{From: "b.go", To: "d.go"},
	}
	g := New([]string{"a.go", "b.go", "c.go", "d.go"}, edges, nil)
	assert.Equal(t, 2, g.FanIn("b.go"))
	assert.Equal(t, 1, g.FanOut("b.go"))
	assert.Equal(t, 0, g.FanIn("a.go"))
}

func TestGraph_IsOrphanedRespectsEntryPointAndDeferredEdges(t *testing.T) {
	edges := []Edge{
		{From: "main.go", To: "lib.go"},
		{From: "lazy.go", To: "orphan.go", Deferred: true},
	}
	isEntry := func(f string) bool { return f == "entry.go" }
	g := New([]string{"main.go", "lib.go", "orphan.go", "entry.go"}, edges, isEntry)

	assert.False(t, g.IsOrphaned("lib.go"))
	assert.True(t, g.IsOrphaned("orphan.go"), "only deferred importers should still count as orphaned")
	assert.False(t, g.IsOrphaned("entry.go"), "declared entry points are never orphaned")
}

func TestGraph_SCCsFindsCyclesAndIgnoresDeferredEdges(t *testing.T) {
	edges := []Edge{
		{From: "a.go", To: "b.go"},
		{From: "b.go", To: "c.go"},
		{From: "c.go", To: "a.go"},
		{From: "x.go", To: "y.go", Deferred: true},
		{From: "y.go", To: "x.go", Deferred: true},
	}
	g := New([]string{"a.go", "b.go", "c.go", "x.go", "y.go"}, edges, nil)
	sccs := g.SCCs()
	assert.Len(t, sccs, 1)
	assert.ElementsMatch(t, []string{"a.go", "b.go", "c.go"}, sccs[0])
}

func TestGraph_SCCsIgnoresSingleNodeComponents(t *testing.T) {
	edges := []Edge{{From: "a.go", To: "b.go"}}
	g := New([]string{"a.go", "b.go"}, edges, nil)
	assert.Empty(t, g.SCCs())
}

func TestGraph_FilesReturnsSortedNodes(t *testing.T) {
	g := New([]string{"z.go", "a.go", "m.go"}, nil, nil)
	assert.Equal(t, []string{"a.go", "m.go", "z.go"}, g.Files())
}

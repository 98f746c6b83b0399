// Package graph implements the directed import multigraph over file-path
// nodes (§4.3 of the spec): fan-in/out queries, iterative Tarjan SCC
// detection, and orphan reachability.
package graph

import "sort"

// Edge is one resolved import: From imports To. Deferred edges are tagged
// (type-only imports, dynamic imports, TYPE_CHECKING blocks, ...) and are
// excluded from cycle detection but retained for coupling metrics (§4.3).
type Edge struct {
	From     string
	To       string
	Deferred bool
}

// Graph is a directed multigraph over file-path nodes, built once per scan
// and immutable for that scan's duration (§5 Shared resources).
type Graph struct {
	nodes     map[string]bool
	out       map[string][]Edge // From -> edges
	in        map[string][]Edge // To -> edges
	entryFunc func(file string) bool
}

// New builds a Graph from a file list and an edge list. isEntry classifies
// a file as a program entry point (never orphaned regardless of fan-in);
// it may be nil, in which case no file is treated as an entry point.
func New(files []string, edges []Edge, isEntry func(file string) bool) *Graph {
	g := &Graph{
		nodes: make(map[string]bool, len(files)),
		out:   make(map[string][]Edge),
		in:    make(map[string][]Edge),
	}
	if isEntry == nil {
		isEntry = func(string) bool { return false }
	}
	g.entryFunc = isEntry
	for _, f := range files {
		g.nodes[f] = true
	}
	for _, e := range edges {
		g.nodes[e.From] = true
		g.nodes[e.To] = true
		g.out[e.From] = append(g.out[e.From], e)
		g.in[e.To] = append(g.in[e.To], e)
	}
	return g
}

// Files returns every node in the graph, sorted for determinism.
func (g *Graph) Files() []string {
	out := make([]string, 0, len(g.nodes))
	for f := range g.nodes {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ImportsOf returns the files that f directly imports (O(deg)), including
// deferred edges.
func (g *Graph) ImportsOf(f string) []string {
	edges := g.out[f]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.To)
	}
	return out
}

// ImportersOf returns the files that directly import f (O(deg)), including
// deferred edges.
func (g *Graph) ImportersOf(f string) []string {
	edges := g.in[f]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.From)
	}
	return out
}

// FanIn is the number of distinct importers of f.
func (g *Graph) FanIn(f string) int {
	return len(distinctOther(g.in[f], true))
}

// FanOut is the number of distinct files f imports.
func (g *Graph) FanOut(f string) int {
	return len(distinctOther(g.out[f], false))
}

func distinctOther(edges []Edge, fromSide bool) map[string]bool {
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if fromSide {
			seen[e.From] = true
		} else {
			seen[e.To] = true
		}
	}
	return seen
}

// IsOrphaned reports whether f has zero non-deferred fan-in and is not a
// declared entry point (§4.3).
func (g *Graph) IsOrphaned(f string) bool {
	if g.entryFunc(f) {
		return false
	}
	for _, e := range g.in[f] {
		if !e.Deferred {
			return false
		}
	}
	return true
}

// nonDeferredAdjacency builds an adjacency list excluding deferred edges,
// for cycle detection (§4.3: deferred edges are tagged and excluded from
// cycle detection).
func (g *Graph) nonDeferredAdjacency() map[string][]string {
	adj := make(map[string][]string, len(g.nodes))
	for f := range g.nodes {
		adj[f] = nil
	}
	for from, edges := range g.out {
		for _, e := range edges {
			if e.Deferred {
				continue
			}
			adj[from] = append(adj[from], e.To)
		}
	}
	return adj
}

// SCCs returns every strongly connected component with two or more
// members, computed with an iterative (stack-based, recursion-free)
// Tarjan's algorithm so arbitrarily deep/large import graphs never
// overflow the goroutine stack (§4.3, §9 Design Notes).
func (g *Graph) SCCs() [][]string {
	return tarjanSCC(g.nonDeferredAdjacency())
}

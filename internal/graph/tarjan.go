package graph

import "sort"

// tarjanFrame is one stack frame of the explicit-stack Tarjan walk,
// standing in for a recursive call's local state (node + child cursor).
type tarjanFrame struct {
	node     string
	children []string
	childIdx int
}

// tarjanSCC computes strongly connected components of size >= 2 over adj
// using an explicit-stack (non-recursive) version of Tarjan's algorithm.
// The go/parser-based AST walks and detector phases already run with
// bounded goroutine stacks; a recursive SCC pass on a repository with
// 10^4+ files reliably blows those stacks, which is exactly the failure
// mode §9's Design Notes calls out and mandates an iterative rewrite for.
func tarjanSCC(adj map[string][]string) [][]string {
	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var sccs [][]string
	nextIndex := 0

	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	for _, root := range nodes {
		if _, seen := index[root]; seen {
			continue
		}
		strongConnect(root, adj, index, lowlink, onStack, &stack, &nextIndex, &sccs)
	}

	// Sort each component's members and sort the component list itself by
	// its first (smallest) member, for deterministic output independent
	// of map iteration order.
	for i := range sccs {
		sort.Strings(sccs[i])
	}
	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })
	return sccs
}

func strongConnect(
	root string,
	adj map[string][]string,
	index, lowlink map[string]int,
	onStack map[string]bool,
	stack *[]string,
	nextIndex *int,
	sccs *[][]string,
) {
	var frames []*tarjanFrame

	push := func(n string) {
		index[n] = *nextIndex
		lowlink[n] = *nextIndex
		*nextIndex++
		*stack = append(*stack, n)
		onStack[n] = true
		frames = append(frames, &tarjanFrame{node: n, children: adj[n]})
	}

	push(root)

	for len(frames) > 0 {
		top := frames[len(frames)-1]

		if top.childIdx < len(top.children) {
			child := top.children[top.childIdx]
			top.childIdx++

			if _, seen := index[child]; !seen {
				push(child)
				continue
			}
			if onStack[child] {
				if index[child] < lowlink[top.node] {
					lowlink[top.node] = index[child]
				}
			}
			continue
		}

		// All children processed: pop this frame and propagate lowlink
		// up to the parent, exactly as the recursive version would after
		// its recursive call returns.
		frames = frames[:len(frames)-1]
		if lowlink[top.node] == index[top.node] {
			var component []string
			for {
				n := (*stack)[len(*stack)-1]
				*stack = (*stack)[:len(*stack)-1]
				onStack[n] = false
				component = append(component, n)
				if n == top.node {
					break
				}
			}
			if len(component) >= 2 {
				*sccs = append(*sccs, component)
			}
		}
		if len(frames) > 0 {
			parent := frames[len(frames)-1]
			if lowlink[top.node] < lowlink[parent.node] {
				lowlink[parent.node] = lowlink[top.node]
			}
		}
	}
}

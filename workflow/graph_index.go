package workflow

import "approval-flow/shared"

// graphIndex resolves node ids to positions once per pass so that traversals do not
// rescan the node and edge lists.
type graphIndex struct {
	nodes    []shared.Node
	edges    []shared.Edge
	byID     map[string]int
	outgoing [][]int // node index -> edge indices, in edge order
	incoming [][]int
}

func newGraphIndex(nodes []shared.Node, edges []shared.Edge) *graphIndex {
	idx := &graphIndex{
		nodes:    nodes,
		edges:    edges,
		byID:     make(map[string]int, len(nodes)),
		outgoing: make([][]int, len(nodes)),
		incoming: make([][]int, len(nodes)),
	}
	for i, n := range nodes {
		if _, dup := idx.byID[n.ID]; !dup {
			idx.byID[n.ID] = i
		}
	}
	for ei, e := range edges {
		if from, ok := idx.byID[e.From]; ok {
			idx.outgoing[from] = append(idx.outgoing[from], ei)
		}
		if to, ok := idx.byID[e.To]; ok {
			idx.incoming[to] = append(idx.incoming[to], ei)
		}
	}
	return idx
}

func (g *graphIndex) node(id string) (shared.Node, bool) {
	i, ok := g.byID[id]
	if !ok {
		return shared.Node{}, false
	}
	return g.nodes[i], true
}

func (g *graphIndex) isType(id string, t shared.NodeType) bool {
	n, ok := g.node(id)
	return ok && n.Type == t
}

func (g *graphIndex) outgoingEdges(id string) []shared.Edge {
	i, ok := g.byID[id]
	if !ok {
		return nil
	}
	out := make([]shared.Edge, 0, len(g.outgoing[i]))
	for _, ei := range g.outgoing[i] {
		out = append(out, g.edges[ei])
	}
	return out
}

// predecessors returns the source ids of all edges entering id, in edge order
func (g *graphIndex) predecessors(id string) []string {
	i, ok := g.byID[id]
	if !ok {
		return nil
	}
	preds := make([]string, 0, len(g.incoming[i]))
	for _, ei := range g.incoming[i] {
		preds = append(preds, g.edges[ei].From)
	}
	return preds
}

// AdjacencyMap lists neighbour ids per node id
type AdjacencyMap map[string][]string

// BuildAdjacency builds the forward (from -> to) and backward (to -> from) maps
func BuildAdjacency(edges []shared.Edge) (forward, backward AdjacencyMap) {
	forward = make(AdjacencyMap)
	backward = make(AdjacencyMap)
	for _, e := range edges {
		forward[e.From] = append(forward[e.From], e.To)
		backward[e.To] = append(backward[e.To], e.From)
	}
	return forward, backward
}

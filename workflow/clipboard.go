package workflow

import (
	"math"

	"approval-flow/shared"
	"github.com/google/uuid"
)

// Paste placement constants, in canvas units.
const (
	DefaultPasteOffset = 50.0
	PasteTolerance     = 100.0
	PasteGrowthFactor  = 0.5
	NominalNodeWidth   = 180.0
	NominalNodeHeight  = 80.0
)

// Selection is a copied subgraph
type Selection struct {
	Nodes []shared.Node `json:"nodes" yaml:"nodes"`
	Edges []shared.Edge `json:"edges" yaml:"edges"`
}

// SerializeSelection copies the selected nodes, minus the start node, together with every
// edge whose endpoints are both copied. Edge selection does not narrow that set. It
// returns nil when no copyable node is selected.
func SerializeSelection(selectedNodeIDs, selectedEdgeIDs []string, allNodes []shared.Node, allEdges []shared.Edge) *Selection {
	selected := make(map[string]bool, len(selectedNodeIDs))
	for _, id := range selectedNodeIDs {
		selected[id] = true
	}

	var nodes []shared.Node
	included := make(map[string]bool, len(selectedNodeIDs))
	for _, n := range allNodes {
		if !selected[n.ID] || n.Type == shared.NodeTypeStart || included[n.ID] {
			continue
		}
		included[n.ID] = true
		nodes = append(nodes, n.Clone())
	}
	if len(nodes) == 0 {
		return nil
	}

	edges := make([]shared.Edge, 0)
	for _, e := range allEdges {
		if included[e.From] && included[e.To] {
			edges = append(edges, e)
		}
	}
	return &Selection{Nodes: nodes, Edges: edges}
}

// DeserializeSelection turns a copied subgraph into nodes and edges ready to be added to
// the canvas. Ids are regenerated, references to checkpoints outside the copy are
// downgraded, retry edges that lost their meaning are dropped and positions are shifted
// by offset, or by CalculatePasteOffset when offset is nil.
func DeserializeSelection(selection Selection, existingNodes []shared.Node, offset *shared.Position) Selection {
	nodes := shared.CloneNodes(selection.Nodes)
	edges := shared.CloneEdges(selection.Edges)

	nodeIDs := make(map[string]string, len(nodes))
	copiedCheckpoints := make(map[string]bool)
	for _, n := range nodes {
		nodeIDs[n.ID] = "node_" + uuid.NewString()
		if n.Type == shared.NodeTypeCheckpoint {
			copiedCheckpoints[n.ID] = true
		}
	}

	// membership checks run on the original ids, before remapping
	for i := range nodes {
		resolveDependencies(&nodes[i], edges, copiedCheckpoints)
	}

	for i := range nodes {
		if cfg := nodes[i].APIConfig(); cfg != nil && cfg.FailureHandling != nil && cfg.FailureHandling.CheckpointID != "" {
			cfg.FailureHandling.CheckpointID = nodeIDs[cfg.FailureHandling.CheckpointID]
		}
	}

	retained := make([]shared.Edge, 0, len(edges))
	byOldID := make(map[string]shared.Node, len(nodes))
	for _, n := range nodes {
		byOldID[n.ID] = n
	}
	for _, e := range edges {
		source, okFrom := byOldID[e.From]
		_, okTo := byOldID[e.To]
		if !okFrom || !okTo {
			continue
		}
		if e.IsRetry() && (!CanNodeHaveOutgoingConnections(source) || !copiedCheckpoints[e.To]) {
			continue
		}
		e.ID = "edge_" + uuid.NewString()
		e.From = nodeIDs[e.From]
		e.To = nodeIDs[e.To]
		retained = append(retained, e)
	}

	var shift shared.Position
	if offset != nil {
		shift = *offset
	} else {
		shift = CalculatePasteOffset(existingNodes, nodes)
	}
	for i := range nodes {
		nodes[i].ID = nodeIDs[nodes[i].ID]
		nodes[i].Position.X += shift.X
		nodes[i].Position.Y += shift.Y
	}

	return Selection{Nodes: nodes, Edges: retained}
}

// resolveDependencies downgrades configuration that points outside the copied set
func resolveDependencies(n *shared.Node, edges []shared.Edge, copiedCheckpoints map[string]bool) {
	switch n.Type {
	case shared.NodeTypeAPI:
		cfg := n.APIConfig()
		if cfg == nil || cfg.FailureHandling == nil {
			return
		}
		fh := cfg.FailureHandling
		if fh.OnFailure == shared.FailureActionReturnToCheckpoint && !copiedCheckpoints[fh.CheckpointID] {
			fh.OnFailure = shared.FailureActionStop
			fh.CheckpointID = ""
		}
	case shared.NodeTypeReject:
		cfg := n.RejectConfig()
		if cfg == nil || !cfg.AllowRetry {
			return
		}
		for _, e := range edges {
			if e.From == n.ID && e.IsRetry() && copiedCheckpoints[e.To] {
				return
			}
		}
		cfg.AllowRetry = false
	}
}

// CalculatePasteOffset returns the shift applied to pasted nodes. The default shift is
// used unless it would land the copied bounding box within PasteTolerance of an existing
// node, in which case it grows with the size of the copied content.
func CalculatePasteOffset(existingNodes, copiedNodes []shared.Node) shared.Position {
	offset := shared.Position{X: DefaultPasteOffset, Y: DefaultPasteOffset}
	if len(copiedNodes) == 0 || len(existingNodes) == 0 {
		return offset
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range copiedNodes {
		minX = math.Min(minX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		maxX = math.Max(maxX, n.Position.X)
		maxY = math.Max(maxY, n.Position.Y)
	}

	left, right := minX+offset.X-PasteTolerance, maxX+offset.X+PasteTolerance
	top, bottom := minY+offset.Y-PasteTolerance, maxY+offset.Y+PasteTolerance
	for _, n := range existingNodes {
		p := n.Position
		if p.X >= left && p.X <= right && p.Y >= top && p.Y <= bottom {
			width := maxX - minX + NominalNodeWidth
			height := maxY - minY + NominalNodeHeight
			return shared.Position{
				X: DefaultPasteOffset + width*PasteGrowthFactor,
				Y: DefaultPasteOffset + height*PasteGrowthFactor,
			}
		}
	}
	return offset
}

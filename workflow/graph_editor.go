package workflow

import (
	"approval-flow/shared"
	"github.com/google/uuid"
)

// Display labels of edges leaving a dual-output port.
var portLabels = map[shared.NodeType]map[shared.Port]string{
	shared.NodeTypeDecision:  {shared.PortTop: "Sí", shared.PortBottom: "No"},
	shared.NodeTypeChallenge: {shared.PortTop: "Aceptado", shared.PortBottom: "Rechazado"},
}

func findNode(nodes []shared.Node, id string) (int, bool) {
	for i, n := range nodes {
		if n.ID == id {
			return i, true
		}
	}
	return -1, false
}

// ConnectNodes adds an edge from sourceID to targetID when the connection rules allow it.
// On rejection the returned edge list is the input list.
func ConnectNodes(nodes []shared.Node, edges []shared.Edge, sourceID, targetID string, fromPort shared.Port) ([]shared.Edge, ConnectionResult) {
	si, okSource := findNode(nodes, sourceID)
	ti, okTarget := findNode(nodes, targetID)
	if !okSource || !okTarget {
		return edges, denyConnection("El nodo de origen o de destino no existe")
	}
	if sourceID == targetID {
		return edges, denyConnection("Un nodo no puede conectarse consigo mismo")
	}
	source, target := nodes[si], nodes[ti]

	result := CanCreateConnection(source, target, edges, fromPort)
	if !result.Allowed {
		return edges, result
	}

	edge := shared.Edge{
		ID:       "edge_" + uuid.NewString(),
		From:     sourceID,
		To:       targetID,
		Kind:     shared.EdgeKindNormal,
		FromPort: fromPort,
	}
	if isRetryConnection(source, target) {
		edge.Kind = shared.EdgeKindRetry
		edge.Label = shared.RetryEdgeLabel
	} else if labels, ok := portLabels[source.Type]; ok {
		edge.Label = labels[fromPort]
	}

	out := make([]shared.Edge, 0, len(edges)+1)
	out = append(out, edges...)
	return append(out, edge), result
}

// DeleteNode removes a node and every edge touching it. ok is false when the node does
// not exist.
func DeleteNode(nodes []shared.Node, edges []shared.Edge, id string) ([]shared.Node, []shared.Edge, bool) {
	if _, ok := findNode(nodes, id); !ok {
		return nodes, edges, false
	}
	keptNodes := make([]shared.Node, 0, len(nodes)-1)
	for _, n := range nodes {
		if n.ID != id {
			keptNodes = append(keptNodes, n)
		}
	}
	keptEdges := make([]shared.Edge, 0, len(edges))
	for _, e := range edges {
		if e.From != id && e.To != id {
			keptEdges = append(keptEdges, e)
		}
	}
	return keptNodes, keptEdges, true
}

// SetRejectRetry toggles retry on a reject node. Enabling it replaces the node's outgoing
// edges with one retry edge to the nearest previous checkpoint and is refused when no
// checkpoint precedes the node. Disabling it removes the outgoing edges.
func SetRejectRetry(nodes []shared.Node, edges []shared.Edge, rejectID string, allow bool) ([]shared.Node, []shared.Edge, ConnectionResult) {
	ri, ok := findNode(nodes, rejectID)
	if !ok || nodes[ri].Type != shared.NodeTypeReject {
		return nodes, edges, denyConnection("El nodo indicado no es un nodo de rechazo")
	}

	var checkpointID string
	if allow {
		checkpointID = FindNearestPreviousCheckpoint(rejectID, nodes, edges)
		if checkpointID == "" {
			return nodes, edges, denyConnection("No hay un checkpoint previo al que reintentar")
		}
	}

	outNodes := shared.CloneNodes(nodes)
	cfg := outNodes[ri].RejectConfig()
	if cfg == nil {
		cfg = &shared.RejectConfig{}
		outNodes[ri].Config = cfg
	}
	cfg.AllowRetry = allow

	outEdges := make([]shared.Edge, 0, len(edges)+1)
	for _, e := range edges {
		if e.From != rejectID {
			outEdges = append(outEdges, e)
		}
	}
	if allow {
		outEdges = append(outEdges, shared.Edge{
			ID:    "edge_" + uuid.NewString(),
			From:  rejectID,
			To:    checkpointID,
			Kind:  shared.EdgeKindRetry,
			Label: shared.RetryEdgeLabel,
		})
	}
	return outNodes, outEdges, allowConnection()
}

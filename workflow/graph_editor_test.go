package workflow

import (
	"testing"

	"approval-flow/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectNodesAddsEdge(t *testing.T) {
	nodes := []shared.Node{newNode("start", shared.NodeTypeStart), formNode("f")}

	edges, result := ConnectNodes(nodes, nil, "start", "f", "")
	require.True(t, result.Allowed)
	require.Len(t, edges, 1)
	assert.Equal(t, "start", edges[0].From)
	assert.Equal(t, "f", edges[0].To)
	assert.Equal(t, shared.EdgeKindNormal, edges[0].Kind)
	assert.NotEmpty(t, edges[0].ID)
}

func TestConnectNodesLabelsDecisionPorts(t *testing.T) {
	nodes := []shared.Node{newNode("d", shared.NodeTypeDecision), newNode("yes", shared.NodeTypeEnd), rejectNode("no", false)}

	edges, result := ConnectNodes(nodes, nil, "d", "yes", shared.PortTop)
	require.True(t, result.Allowed)
	edges, result = ConnectNodes(nodes, edges, "d", "no", shared.PortBottom)
	require.True(t, result.Allowed)

	require.Len(t, edges, 2)
	assert.Equal(t, "Sí", edges[0].Label)
	assert.Equal(t, "No", edges[1].Label)
}

func TestConnectNodesRejected(t *testing.T) {
	nodes := []shared.Node{newNode("start", shared.NodeTypeStart), formNode("f"), newNode("end", shared.NodeTypeEnd)}
	edges := []shared.Edge{newEdge("e1", "start", "f")}

	out, result := ConnectNodes(nodes, edges, "f", "f", "")
	assert.False(t, result.Allowed)
	assert.NotEmpty(t, result.Reason)
	assert.Equal(t, edges, out)

	out, result = ConnectNodes(nodes, edges, "f", "ghost", "")
	assert.False(t, result.Allowed)
	assert.Equal(t, edges, out)

	_, result = ConnectNodes(nodes, edges, "end", "f", "")
	assert.False(t, result.Allowed)
}

func TestConnectNodesRejectToCheckpointIsRetry(t *testing.T) {
	nodes := []shared.Node{newNode("c1", shared.NodeTypeCheckpoint), formNode("f"), rejectNode("r", true)}
	edges := []shared.Edge{newEdge("e1", "c1", "f"), newEdge("e2", "f", "r")}

	out, result := ConnectNodes(nodes, edges, "r", "c1", "")
	require.True(t, result.Allowed)
	require.Len(t, out, 3)
	assert.True(t, out[2].IsRetry())
	assert.Equal(t, shared.RetryEdgeLabel, out[2].Label)
	assert.Len(t, edges, 2)
}

func TestDeleteNodeRemovesTouchingEdges(t *testing.T) {
	nodes := []shared.Node{newNode("start", shared.NodeTypeStart), formNode("f"), newNode("end", shared.NodeTypeEnd)}
	edges := []shared.Edge{newEdge("e1", "start", "f"), newEdge("e2", "f", "end"), newEdge("e3", "start", "end")}

	outNodes, outEdges, ok := DeleteNode(nodes, edges, "f")
	require.True(t, ok)
	assert.Len(t, outNodes, 2)
	require.Len(t, outEdges, 1)
	assert.Equal(t, "e3", outEdges[0].ID)

	_, _, ok = DeleteNode(nodes, edges, "ghost")
	assert.False(t, ok)
}

func TestSetRejectRetry(t *testing.T) {
	nodes := []shared.Node{newNode("c1", shared.NodeTypeCheckpoint), formNode("f"), rejectNode("r", false)}
	edges := []shared.Edge{newEdge("e1", "c1", "f"), newEdge("e2", "f", "r")}

	outNodes, outEdges, result := SetRejectRetry(nodes, edges, "r", true)
	require.True(t, result.Allowed)
	assert.True(t, outNodes[2].RejectConfig().AllowRetry)
	assert.False(t, nodes[2].RejectConfig().AllowRetry)
	require.Len(t, outEdges, 3)
	assert.Equal(t, "r", outEdges[2].From)
	assert.Equal(t, "c1", outEdges[2].To)
	assert.True(t, outEdges[2].IsRetry())

	// the edited graph validates cleanly for the reject node
	assert.Empty(t, findingsFor(ValidateWorkflow(outNodes, outEdges), "r"))

	outNodes, outEdges, result = SetRejectRetry(outNodes, outEdges, "r", false)
	require.True(t, result.Allowed)
	assert.False(t, outNodes[2].RejectConfig().AllowRetry)
	assert.Len(t, outEdges, 2)
}

func TestSetRejectRetryWithoutCheckpoint(t *testing.T) {
	nodes := []shared.Node{newNode("start", shared.NodeTypeStart), rejectNode("r", false)}
	edges := []shared.Edge{newEdge("e1", "start", "r")}

	outNodes, outEdges, result := SetRejectRetry(nodes, edges, "r", true)
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, "checkpoint")
	assert.Equal(t, nodes, outNodes)
	assert.Equal(t, edges, outEdges)

	_, _, result = SetRejectRetry(nodes, edges, "start", true)
	assert.False(t, result.Allowed)
}

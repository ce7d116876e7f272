package workflow

import "approval-flow/shared"

// FindNearestPreviousCheckpoint walks edges backwards from nodeID and returns the id of
// the first checkpoint found, or "" when none precedes the node. Branches stop at the
// start node.
func FindNearestPreviousCheckpoint(nodeID string, nodes []shared.Node, edges []shared.Edge) string {
	return newGraphIndex(nodes, edges).nearestPreviousCheckpoint(nodeID)
}

// FindAllNearestPreviousCheckpoints returns every checkpoint at the minimum backward hop
// distance from nodeID. Parallel branches merging through a join can yield several.
func FindAllNearestPreviousCheckpoints(nodeID string, nodes []shared.Node, edges []shared.Edge) []string {
	return newGraphIndex(nodes, edges).allNearestPreviousCheckpoints(nodeID)
}

// GetCheckpointNode returns the checkpoint node with the given id, or nil when id is
// empty or does not resolve to a checkpoint.
func GetCheckpointNode(id string, nodes []shared.Node) *shared.Node {
	if id == "" {
		return nil
	}
	for i := range nodes {
		if nodes[i].ID == id && nodes[i].Type == shared.NodeTypeCheckpoint {
			return &nodes[i]
		}
	}
	return nil
}

// CanReachNode reports whether any node satisfying predicate is reachable from the
// seeds over adj. Seeds themselves are tested.
func CanReachNode(seeds []string, adj AdjacencyMap, predicate func(id string) bool) bool {
	visited := make(map[string]bool, len(seeds))
	queue := make([]string, 0, len(seeds))
	for _, id := range seeds {
		if !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if predicate(current) {
			return true
		}
		for _, next := range adj[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func (g *graphIndex) nearestPreviousCheckpoint(nodeID string) string {
	if _, ok := g.byID[nodeID]; !ok {
		return ""
	}
	visited := map[string]bool{nodeID: true}
	queue := []string{nodeID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, pred := range g.predecessors(current) {
			if visited[pred] {
				continue
			}
			visited[pred] = true
			n, ok := g.node(pred)
			if !ok {
				continue
			}
			if n.Type == shared.NodeTypeCheckpoint {
				return pred
			}
			if n.Type == shared.NodeTypeStart {
				continue
			}
			queue = append(queue, pred)
		}
	}
	return ""
}

func (g *graphIndex) allNearestPreviousCheckpoints(nodeID string) []string {
	if _, ok := g.byID[nodeID]; !ok {
		return nil
	}
	type hop struct {
		id   string
		dist int
	}
	visited := map[string]bool{nodeID: true}
	queue := []hop{{id: nodeID}}
	minDist := -1
	var found []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		// everything beyond the first checkpoint layer is farther than the minimum
		if minDist >= 0 && current.dist+1 > minDist {
			continue
		}
		for _, pred := range g.predecessors(current.id) {
			if visited[pred] {
				continue
			}
			visited[pred] = true
			n, ok := g.node(pred)
			if !ok {
				continue
			}
			switch n.Type {
			case shared.NodeTypeCheckpoint:
				minDist = current.dist + 1
				found = append(found, pred)
			case shared.NodeTypeStart:
			default:
				queue = append(queue, hop{id: pred, dist: current.dist + 1})
			}
		}
	}
	return found
}

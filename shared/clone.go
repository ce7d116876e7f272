package shared

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	cp := n
	cp.Roles = cloneSlice(n.Roles)
	if n.Config != nil {
		cp.Config = n.Config.CloneConfig()
	}
	if n.StaleTimeout != nil {
		st := *n.StaleTimeout
		cp.StaleTimeout = &st
	}
	return cp
}

// CloneNodes deep-copies a node list. A nil list stays nil.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// CloneEdges copies an edge list. Edges hold only value fields.
func CloneEdges(edges []Edge) []Edge {
	return cloneSlice(edges)
}

// CloneFlags deep-copies a flag list
func CloneFlags(flags []Flag) []Flag {
	if flags == nil {
		return nil
	}
	out := make([]Flag, len(flags))
	for i, f := range flags {
		out[i] = f
		out[i].Options = cloneSlice(f.Options)
	}
	return out
}

// Clone returns a deep copy of the document
func (d WorkflowDocument) Clone() WorkflowDocument {
	cp := d
	cp.Nodes = CloneNodes(d.Nodes)
	cp.Edges = CloneEdges(d.Edges)
	cp.Flags = CloneFlags(d.Flags)
	return cp
}

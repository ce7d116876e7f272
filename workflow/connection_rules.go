package workflow

import "approval-flow/shared"

// UnlimitedConnections marks a node type without an incoming connection cap
const UnlimitedConnections = -1

// ConnectionResult is the answer to "can this edge be created now?"
type ConnectionResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allowConnection() ConnectionResult {
	return ConnectionResult{Allowed: true}
}

func denyConnection(reason string) ConnectionResult {
	return ConnectionResult{Allowed: false, Reason: reason}
}

// CanNodeHaveOutgoingConnections is false for a reject node without retry and for an
// API node that stops the workflow on failure.
func CanNodeHaveOutgoingConnections(node shared.Node) bool {
	switch node.Type {
	case shared.NodeTypeReject:
		cfg := node.RejectConfig()
		return cfg != nil && cfg.AllowRetry
	case shared.NodeTypeAPI:
		return node.APIConfig().OnFailure() != shared.FailureActionStop
	default:
		return true
	}
}

// GetMaxOutgoingConnections returns the outgoing edge cap of a node type
func GetMaxOutgoingConnections(t shared.NodeType) int {
	if t.IsDualOutput() {
		return 2
	}
	return 1
}

// GetMaxIncomingConnections returns the incoming edge cap of a node type, or
// UnlimitedConnections.
func GetMaxIncomingConnections(t shared.NodeType) int {
	switch t {
	case shared.NodeTypeStart:
		return 0
	case shared.NodeTypeJoin:
		return UnlimitedConnections
	default:
		return 1
	}
}

// CanCreateConnection evaluates, in order, whether the source may emit edges, whether
// the requested port is free, and whether source and target are below their caps.
// Retry edges entering a checkpoint do not count towards its incoming cap, and a reject
// to checkpoint connection, being a retry edge itself, is not subject to it.
func CanCreateConnection(source, target shared.Node, existingEdges []shared.Edge, fromPort shared.Port) ConnectionResult {
	if !CanNodeHaveOutgoingConnections(source) {
		return denyConnection(terminalSourceReason(source))
	}

	var outgoing, portTaken int
	incoming := 0
	for _, e := range existingEdges {
		if e.From == source.ID {
			outgoing++
			if fromPort != shared.PortNone && e.FromPort == fromPort {
				portTaken++
			}
		}
		if e.To == target.ID {
			if target.Type == shared.NodeTypeCheckpoint && e.IsRetry() {
				continue
			}
			incoming++
		}
	}

	if source.Type.IsDualOutput() && fromPort != shared.PortNone && portTaken > 0 {
		return denyConnection("El puerto " + portName(fromPort) + " del nodo de " + kindName(source.Type) + " ya tiene una conexión")
	}

	if outgoing >= GetMaxOutgoingConnections(source.Type) {
		return denyConnection(outgoingCapReason(source.Type))
	}

	if isRetryConnection(source, target) {
		return allowConnection()
	}

	if limit := GetMaxIncomingConnections(target.Type); limit != UnlimitedConnections && incoming >= limit {
		return denyConnection(incomingCapReason(target.Type))
	}

	return allowConnection()
}

func isRetryConnection(source, target shared.Node) bool {
	return source.Type == shared.NodeTypeReject && target.Type == shared.NodeTypeCheckpoint
}

func terminalSourceReason(source shared.Node) string {
	if source.Type == shared.NodeTypeAPI {
		return "El nodo API configurado con \"Detener Workflow\" no puede tener conexiones salientes"
	}
	return "El nodo de rechazo sin reintento no puede tener conexiones salientes"
}

func outgoingCapReason(t shared.NodeType) string {
	switch t {
	case shared.NodeTypeDecision, shared.NodeTypeChallenge:
		return "El nodo de " + kindName(t) + " ya tiene sus dos conexiones salientes"
	case shared.NodeTypeJoin:
		return "El nodo de unión solo puede tener una conexión saliente"
	default:
		return "Un nodo normal solo puede tener una conexión saliente"
	}
}

func incomingCapReason(t shared.NodeType) string {
	if t == shared.NodeTypeStart {
		return "El nodo de inicio no puede recibir conexiones entrantes"
	}
	return "Un nodo normal solo puede tener una conexión entrante"
}

// kindName is the user-facing noun for a node kind in connection messages
func kindName(t shared.NodeType) string {
	switch t {
	case shared.NodeTypeDecision:
		return "decisión"
	case shared.NodeTypeChallenge:
		return "challenge"
	case shared.NodeTypeJoin:
		return "unión"
	case shared.NodeTypeStart:
		return "inicio"
	default:
		return "normal"
	}
}

func portName(p shared.Port) string {
	if p == shared.PortTop {
		return "superior"
	}
	return "inferior"
}

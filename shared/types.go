package shared

import "time"

// NodeType defines the type of a workflow node
type NodeType string

const (
	NodeTypeStart      NodeType = "start"
	NodeTypeReject     NodeType = "reject"
	NodeTypeEnd        NodeType = "end"
	NodeTypeForm       NodeType = "form"
	NodeTypeDecision   NodeType = "decision"
	NodeTypeTransform  NodeType = "transform"
	NodeTypeAPI        NodeType = "api"
	NodeTypeMessage    NodeType = "message"
	NodeTypeChallenge  NodeType = "challenge"
	NodeTypeCheckpoint NodeType = "checkpoint"
	NodeTypeJoin       NodeType = "join"
	NodeTypeFlagChange NodeType = "flagChange"
)

// AllNodeTypes lists every node type in palette order.
var AllNodeTypes = []NodeType{
	NodeTypeStart, NodeTypeReject, NodeTypeEnd, NodeTypeForm, NodeTypeDecision,
	NodeTypeTransform, NodeTypeAPI, NodeTypeMessage, NodeTypeChallenge,
	NodeTypeCheckpoint, NodeTypeJoin, NodeTypeFlagChange,
}

// IsValid reports whether t is one of the known node types
func (t NodeType) IsValid() bool {
	for _, known := range AllNodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the type ends a branch by definition
func (t NodeType) IsTerminal() bool {
	return t == NodeTypeEnd || t == NodeTypeReject
}

// IsDualOutput reports whether nodes of this type expose a top and a bottom port
func (t NodeType) IsDualOutput() bool {
	return t == NodeTypeDecision || t == NodeTypeChallenge
}

// CheckpointType distinguishes protected waypoints from ordinary checkpoints
type CheckpointType string

const (
	CheckpointTypeNormal CheckpointType = "normal"
	CheckpointTypeSafe   CheckpointType = "safe"
)

// Port names an output (or reserved input) handle of a node
type Port string

const (
	PortNone   Port = ""
	PortTop    Port = "top"
	PortBottom Port = "bottom"
)

// EdgeKind separates ordinary control flow from informational retry edges
type EdgeKind string

const (
	EdgeKindNormal EdgeKind = "normal"
	EdgeKindRetry  EdgeKind = "retry"
)

// RetryEdgeLabel is the display text of retry edges. Legacy documents used it as the
// only retry marker.
const RetryEdgeLabel = "Reintento"

// Role is a user role allowed to act on a node
type Role string

const (
	RoleClient     Role = "cliente"
	RoleAdvisor    Role = "asesor"
	RoleAnalyst    Role = "analista"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "gerente"
)

// TimeUnit is the unit of a configured duration
type TimeUnit string

const (
	TimeUnitMinutes TimeUnit = "minutes"
	TimeUnitHours   TimeUnit = "hours"
	TimeUnitDays    TimeUnit = "days"
)

// Duration is a user-facing amount of time (value + unit)
type Duration struct {
	Value int      `json:"value" yaml:"value"`
	Unit  TimeUnit `json:"unit" yaml:"unit"`
}

// ToDuration converts the value to a time.Duration. Unknown units count as minutes.
func (d Duration) ToDuration() time.Duration {
	switch d.Unit {
	case TimeUnitHours:
		return time.Duration(d.Value) * time.Hour
	case TimeUnitDays:
		return time.Duration(d.Value) * 24 * time.Hour
	default:
		return time.Duration(d.Value) * time.Minute
	}
}

// Position is the canvas coordinate of a node. Owned by the presentation layer.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node represents a single vertex of the workflow graph
type Node struct {
	ID             string         `json:"id"`
	Type           NodeType       `json:"type"`
	CheckpointType CheckpointType `json:"checkpointType,omitempty"` // only for checkpoint nodes
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Roles          []Role         `json:"roles,omitempty"`
	Config         NodeConfig     `json:"config,omitempty"` // variant matches Type
	StaleTimeout   *Duration      `json:"staleTimeout,omitempty"`
	Position       Position       `json:"position"`
}

// IsSafeCheckpoint reports whether the node is a checkpoint of type safe
func (n Node) IsSafeCheckpoint() bool {
	return n.Type == NodeTypeCheckpoint && n.CheckpointType == CheckpointTypeSafe
}

// Edge represents a directed connection between two nodes
type Edge struct {
	ID        string   `json:"id" yaml:"id"`
	From      string   `json:"from" yaml:"from"`
	To        string   `json:"to" yaml:"to"`
	Kind      EdgeKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Label     string   `json:"label,omitempty" yaml:"label,omitempty"`
	FromPort  Port     `json:"fromPort,omitempty" yaml:"fromPort,omitempty"`
	ToPort    Port     `json:"toPort,omitempty" yaml:"toPort,omitempty"`
	Color     string   `json:"color,omitempty" yaml:"color,omitempty"`
	Thickness float64  `json:"thickness,omitempty" yaml:"thickness,omitempty"`
}

// IsRetry reports whether the edge only marks where control returns after a failure
func (e Edge) IsRetry() bool {
	return e.Kind == EdgeKindRetry
}

// FlagOption is one selectable value of a flag
type FlagOption struct {
	ID    string `json:"id" yaml:"id" validate:"required"`
	Label string `json:"label" yaml:"label" validate:"required"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Flag is a named enumeration that FlagChange nodes can set
type Flag struct {
	ID      string       `json:"id" yaml:"id" validate:"required"`
	Name    string       `json:"name" yaml:"name" validate:"required"`
	Options []FlagOption `json:"options" yaml:"options" validate:"required,min=1,dive"`
}

// Severity classifies a validation finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is a single finding produced by the validation engine
type ValidationError struct {
	NodeID   string   `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	Message  string   `json:"message" yaml:"message"`
	Severity Severity `json:"severity" yaml:"severity"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// Metadata describes a stored workflow
type Metadata struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string    `json:"version,omitempty" yaml:"version,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// WorkflowDocument is the record exchanged with the persistence collaborator
type WorkflowDocument struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Nodes    []Node   `json:"nodes" yaml:"nodes"`
	Edges    []Edge   `json:"edges" yaml:"edges"`
	Flags    []Flag   `json:"flags,omitempty" yaml:"flags,omitempty"`
	Zoom     float64  `json:"zoom,omitempty" yaml:"zoom,omitempty"`
	Pan      Position `json:"pan" yaml:"pan"`
}

package shared

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// legacyNodeTypes maps obsolete type tags to their current replacement
var legacyNodeTypes = map[string]NodeType{
	"status": NodeTypeFlagChange,
	"Status": NodeTypeFlagChange,
}

// nodeWire is the serialized shape of a Node. C is the config representation of the
// codec in use: the typed variant when encoding, a raw payload when decoding.
type nodeWire[C any] struct {
	ID             string         `json:"id" yaml:"id"`
	Type           string         `json:"type" yaml:"type"`
	CheckpointType CheckpointType `json:"checkpointType,omitempty" yaml:"checkpointType,omitempty"`
	Title          string         `json:"title" yaml:"title"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	Roles          []Role         `json:"roles,omitempty" yaml:"roles,omitempty"`
	Config         C              `json:"config,omitempty" yaml:"config,omitempty"`
	StaleTimeout   *Duration      `json:"staleTimeout,omitempty" yaml:"staleTimeout,omitempty"`
	Position       Position       `json:"position" yaml:"position"`
}

func (n Node) toWire() nodeWire[NodeConfig] {
	return nodeWire[NodeConfig]{
		ID:             n.ID,
		Type:           string(n.Type),
		CheckpointType: n.CheckpointType,
		Title:          n.Title,
		Description:    n.Description,
		Roles:          n.Roles,
		Config:         n.Config,
		StaleTimeout:   n.StaleTimeout,
		Position:       n.Position,
	}
}

// fromWire fills n from a decoded wire record. decode unpacks the raw config into
// the variant it is handed; hasConfig reports whether a config payload was present.
func (n *Node) fromWire(w nodeWire[struct{}], hasConfig bool, decode func(NodeConfig) error) error {
	nodeType, legacy := canonicalNodeType(w.Type)
	if !nodeType.IsValid() {
		return fmt.Errorf("node %q has unknown type %q", w.ID, w.Type)
	}

	*n = Node{
		ID:             w.ID,
		Type:           nodeType,
		CheckpointType: w.CheckpointType,
		Title:          w.Title,
		Description:    w.Description,
		Roles:          w.Roles,
		StaleTimeout:   w.StaleTimeout,
		Position:       w.Position,
	}
	if nodeType == NodeTypeCheckpoint && n.CheckpointType == "" {
		n.CheckpointType = CheckpointTypeNormal
	}

	cfg := NewNodeConfig(nodeType)
	if cfg != nil && hasConfig && !legacy {
		if err := decode(cfg); err != nil {
			return fmt.Errorf("failed to decode config of node %q: %w", w.ID, err)
		}
	}
	n.Config = cfg
	return nil
}

func canonicalNodeType(raw string) (NodeType, bool) {
	if migrated, ok := legacyNodeTypes[raw]; ok {
		return migrated, true
	}
	return NodeType(raw), false
}

func stripConfig[C any](w nodeWire[C]) nodeWire[struct{}] {
	return nodeWire[struct{}]{
		ID:             w.ID,
		Type:           w.Type,
		CheckpointType: w.CheckpointType,
		Title:          w.Title,
		Description:    w.Description,
		Roles:          w.Roles,
		StaleTimeout:   w.StaleTimeout,
		Position:       w.Position,
	}
}

// MarshalJSON encodes the node with its config variant inline
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toWire())
}

// UnmarshalJSON decodes the config according to the node type
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire[json.RawMessage]
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	hasConfig := len(w.Config) > 0 && !bytes.Equal(w.Config, []byte("null"))
	return n.fromWire(stripConfig(w), hasConfig, func(cfg NodeConfig) error {
		return json.Unmarshal(w.Config, cfg)
	})
}

// MarshalYAML encodes the node with its config variant inline
func (n Node) MarshalYAML() (interface{}, error) {
	return n.toWire(), nil
}

// UnmarshalYAML decodes the config according to the node type
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var w nodeWire[yaml.Node]
	if err := value.Decode(&w); err != nil {
		return err
	}
	hasConfig := w.Config.Kind != 0 && w.Config.Tag != "!!null"
	return n.fromWire(stripConfig(w), hasConfig, func(cfg NodeConfig) error {
		return w.Config.Decode(cfg)
	})
}

// EncodeMsgpack encodes the node with the encoder's struct tag settings
func (n Node) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(n.toWire())
}

// DecodeMsgpack decodes the config according to the node type
func (n *Node) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w nodeWire[msgpack.RawMessage]
	if err := dec.Decode(&w); err != nil {
		return err
	}
	hasConfig := len(w.Config) > 0 && !bytes.Equal(w.Config, []byte{0xc0}) // 0xc0 is msgpack nil
	return n.fromWire(stripConfig(w), hasConfig, func(cfg NodeConfig) error {
		inner := msgpack.NewDecoder(bytes.NewReader(w.Config))
		inner.SetCustomStructTag("json")
		return inner.Decode(cfg)
	})
}

type edgeAlias Edge

func (e *Edge) normalizeKind() {
	if e.Kind == "" {
		if e.Label == RetryEdgeLabel {
			e.Kind = EdgeKindRetry
		} else {
			e.Kind = EdgeKindNormal
		}
	}
}

// UnmarshalJSON decodes the edge and derives the kind of legacy edges from the label
func (e *Edge) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*edgeAlias)(e)); err != nil {
		return err
	}
	e.normalizeKind()
	return nil
}

// UnmarshalYAML decodes the edge and derives the kind of legacy edges from the label
func (e *Edge) UnmarshalYAML(value *yaml.Node) error {
	if err := value.Decode((*edgeAlias)(e)); err != nil {
		return err
	}
	e.normalizeKind()
	return nil
}

// DecodeMsgpack decodes the edge and derives the kind of legacy edges from the label
func (e *Edge) DecodeMsgpack(dec *msgpack.Decoder) error {
	if err := dec.Decode((*edgeAlias)(e)); err != nil {
		return err
	}
	e.normalizeKind()
	return nil
}

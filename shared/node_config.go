package shared

// NodeConfig is the type-specific configuration of a node. The concrete variant is
// determined by the node type; Start, End and Join nodes carry none.
type NodeConfig interface {
	NodeType() NodeType
	CloneConfig() NodeConfig
}

// FailureAction is what an API node does when its call fails
type FailureAction string

const (
	FailureActionStop               FailureAction = "stop"
	FailureActionRetry              FailureAction = "retry"
	FailureActionContinue           FailureAction = "continue"
	FailureActionReturnToCheckpoint FailureAction = "return-to-checkpoint"
)

// Limits applied to API failure handling.
const (
	MaxAPIRetries    = 2
	MinAPITimeoutMs  = 5000
	MaxAPITimeoutMs  = 300000
	DefaultTimeoutMs = 30000
)

// ChallengeType is the kind of confirmation a challenge node requests
type ChallengeType string

const (
	ChallengeTypeAcceptance ChallengeType = "acceptance"
	ChallengeTypeSignature  ChallengeType = "signature"
)

// DeliveryMethod is how a challenge reaches the user
type DeliveryMethod string

const (
	DeliveryMethodNone  DeliveryMethod = "none"
	DeliveryMethodSMS   DeliveryMethod = "sms"
	DeliveryMethodEmail DeliveryMethod = "email"
	DeliveryMethodBoth  DeliveryMethod = "both"
)

// MaxChallengeRetries is the upper bound of challenge retries
const MaxChallengeRetries = 5

// ChallengeResult is an outcome a challenge node can route on
type ChallengeResult string

const (
	ChallengeResultAccepted ChallengeResult = "accepted"
	ChallengeResultRejected ChallengeResult = "rejected"
	ChallengeResultFailed   ChallengeResult = "failed"
)

// DefaultChallengeResults are used when a challenge does not list its results
var DefaultChallengeResults = []ChallengeResult{ChallengeResultAccepted, ChallengeResultRejected}

// ExpectedPort is the output port a result is drawn from
func (r ChallengeResult) ExpectedPort() Port {
	switch r {
	case ChallengeResultAccepted:
		return PortTop
	case ChallengeResultRejected, ChallengeResultFailed:
		return PortBottom
	default:
		return PortNone
	}
}

type FormConfig struct {
	FormID string `json:"formId" yaml:"formId"`
}

type DecisionConfig struct {
	Condition string `json:"condition" yaml:"condition"`
}

type TransformConfig struct {
	Code string `json:"code" yaml:"code"`
}

// FailureHandling controls what an API node does when the call fails
type FailureHandling struct {
	OnFailure     FailureAction `json:"onFailure" yaml:"onFailure"`
	MaxRetries    int           `json:"maxRetries" yaml:"maxRetries"`
	RetryCount    int           `json:"retryCount" yaml:"retryCount"`
	CacheStrategy string        `json:"cacheStrategy,omitempty" yaml:"cacheStrategy,omitempty"`
	Timeout       int           `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	CheckpointID  string        `json:"checkpointId,omitempty" yaml:"checkpointId,omitempty"`
}

type APIConfig struct {
	URL             string           `json:"url" yaml:"url"`
	Method          string           `json:"method" yaml:"method"`
	FailureHandling *FailureHandling `json:"failureHandling,omitempty" yaml:"failureHandling,omitempty"`
}

// OnFailure returns the configured failure action, or "" when no handling is set
func (c *APIConfig) OnFailure() FailureAction {
	if c == nil || c.FailureHandling == nil {
		return ""
	}
	return c.FailureHandling.OnFailure
}

type MessageConfig struct {
	Channel  string `json:"channel" yaml:"channel"`
	Template string `json:"template" yaml:"template"`
}

// ChallengeRetries configures how often a challenge may be re-sent and by whom
type ChallengeRetries struct {
	MaxRetries int      `json:"maxRetries" yaml:"maxRetries"`
	Roles      []string `json:"roles" yaml:"roles"`
}

type ChallengeConfig struct {
	ChallengeType    ChallengeType     `json:"challengeType" yaml:"challengeType"`
	ChallengeTimeout Duration          `json:"challengeTimeout" yaml:"challengeTimeout"`
	DeliveryMethod   DeliveryMethod    `json:"deliveryMethod,omitempty" yaml:"deliveryMethod,omitempty"`
	Retries          *ChallengeRetries `json:"retries,omitempty" yaml:"retries,omitempty"`

	// Results are read from the first non-empty list, in this order.
	Results           []ChallengeResult `json:"results,omitempty" yaml:"results,omitempty"`
	ResultConnections []ChallengeResult `json:"resultConnections,omitempty" yaml:"resultConnections,omitempty"`
	Outcomes          []ChallengeResult `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// ConfiguredResults returns the results the challenge must route
func (c *ChallengeConfig) ConfiguredResults() []ChallengeResult {
	if c != nil {
		for _, results := range [][]ChallengeResult{c.Results, c.ResultConnections, c.Outcomes} {
			if len(results) > 0 {
				return results
			}
		}
	}
	return DefaultChallengeResults
}

type RejectConfig struct {
	AllowRetry bool `json:"allowRetry" yaml:"allowRetry"`
	MaxRetries *int `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	RetryCount *int `json:"retryCount,omitempty" yaml:"retryCount,omitempty"`
}

// FlagChangeEntry sets one flag to one of its options
type FlagChangeEntry struct {
	FlagID   string `json:"flagId" yaml:"flagId"`
	OptionID string `json:"optionId" yaml:"optionId"`
}

type FlagChangeConfig struct {
	FlagChanges []FlagChangeEntry `json:"flagChanges" yaml:"flagChanges"`
}

type CheckpointConfig struct {
	CheckpointName string `json:"checkpointName,omitempty" yaml:"checkpointName,omitempty"`
	Notes          string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

func (*FormConfig) NodeType() NodeType       { return NodeTypeForm }
func (*DecisionConfig) NodeType() NodeType   { return NodeTypeDecision }
func (*TransformConfig) NodeType() NodeType  { return NodeTypeTransform }
func (*APIConfig) NodeType() NodeType        { return NodeTypeAPI }
func (*MessageConfig) NodeType() NodeType    { return NodeTypeMessage }
func (*ChallengeConfig) NodeType() NodeType  { return NodeTypeChallenge }
func (*RejectConfig) NodeType() NodeType     { return NodeTypeReject }
func (*FlagChangeConfig) NodeType() NodeType { return NodeTypeFlagChange }
func (*CheckpointConfig) NodeType() NodeType { return NodeTypeCheckpoint }

func (c *FormConfig) CloneConfig() NodeConfig {
	cp := *c
	return &cp
}

func (c *DecisionConfig) CloneConfig() NodeConfig {
	cp := *c
	return &cp
}

func (c *TransformConfig) CloneConfig() NodeConfig {
	cp := *c
	return &cp
}

func (c *APIConfig) CloneConfig() NodeConfig {
	cp := *c
	if c.FailureHandling != nil {
		fh := *c.FailureHandling
		cp.FailureHandling = &fh
	}
	return &cp
}

func (c *MessageConfig) CloneConfig() NodeConfig {
	cp := *c
	return &cp
}

func (c *ChallengeConfig) CloneConfig() NodeConfig {
	cp := *c
	if c.Retries != nil {
		r := *c.Retries
		r.Roles = cloneSlice(c.Retries.Roles)
		cp.Retries = &r
	}
	cp.Results = cloneSlice(c.Results)
	cp.ResultConnections = cloneSlice(c.ResultConnections)
	cp.Outcomes = cloneSlice(c.Outcomes)
	return &cp
}

func (c *RejectConfig) CloneConfig() NodeConfig {
	cp := *c
	cp.MaxRetries = cloneIntPtr(c.MaxRetries)
	cp.RetryCount = cloneIntPtr(c.RetryCount)
	return &cp
}

func (c *FlagChangeConfig) CloneConfig() NodeConfig {
	cp := *c
	cp.FlagChanges = cloneSlice(c.FlagChanges)
	return &cp
}

func (c *CheckpointConfig) CloneConfig() NodeConfig {
	cp := *c
	return &cp
}

// NewNodeConfig returns the zero configuration variant for a node type, or nil for
// types without configuration.
func NewNodeConfig(t NodeType) NodeConfig {
	switch t {
	case NodeTypeForm:
		return &FormConfig{}
	case NodeTypeDecision:
		return &DecisionConfig{}
	case NodeTypeTransform:
		return &TransformConfig{}
	case NodeTypeAPI:
		return &APIConfig{Method: "GET"}
	case NodeTypeMessage:
		return &MessageConfig{}
	case NodeTypeChallenge:
		return &ChallengeConfig{}
	case NodeTypeReject:
		return &RejectConfig{}
	case NodeTypeFlagChange:
		return &FlagChangeConfig{FlagChanges: []FlagChangeEntry{}}
	case NodeTypeCheckpoint:
		return &CheckpointConfig{}
	case NodeTypeStart, NodeTypeEnd, NodeTypeJoin:
		return nil
	default:
		return nil
	}
}

// Typed accessors. Each returns nil when the node carries a different variant.

func (n Node) FormConfig() *FormConfig {
	c, _ := n.Config.(*FormConfig)
	return c
}

func (n Node) DecisionConfig() *DecisionConfig {
	c, _ := n.Config.(*DecisionConfig)
	return c
}

func (n Node) TransformConfig() *TransformConfig {
	c, _ := n.Config.(*TransformConfig)
	return c
}

func (n Node) APIConfig() *APIConfig {
	c, _ := n.Config.(*APIConfig)
	return c
}

func (n Node) MessageConfig() *MessageConfig {
	c, _ := n.Config.(*MessageConfig)
	return c
}

func (n Node) ChallengeConfig() *ChallengeConfig {
	c, _ := n.Config.(*ChallengeConfig)
	return c
}

func (n Node) RejectConfig() *RejectConfig {
	c, _ := n.Config.(*RejectConfig)
	return c
}

func (n Node) FlagChangeConfig() *FlagChangeConfig {
	c, _ := n.Config.(*FlagChangeConfig)
	return c
}

func (n Node) CheckpointConfig() *CheckpointConfig {
	c, _ := n.Config.(*CheckpointConfig)
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

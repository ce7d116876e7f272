package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeCloneIsDeep(t *testing.T) {
	maxRetries := 1
	original := Node{
		ID:           "api",
		Type:         NodeTypeAPI,
		Roles:        []Role{RoleAnalyst},
		StaleTimeout: &Duration{Value: 1, Unit: TimeUnitDays},
		Config: &APIConfig{
			URL:             "https://x",
			FailureHandling: &FailureHandling{OnFailure: FailureActionStop, MaxRetries: maxRetries},
		},
	}

	clone := original.Clone()
	clone.Roles[0] = RoleManager
	clone.StaleTimeout.Value = 9
	clone.APIConfig().URL = "https://y"
	clone.APIConfig().FailureHandling.OnFailure = FailureActionContinue

	assert.Equal(t, RoleAnalyst, original.Roles[0])
	assert.Equal(t, 1, original.StaleTimeout.Value)
	assert.Equal(t, "https://x", original.APIConfig().URL)
	assert.Equal(t, FailureActionStop, original.APIConfig().OnFailure())
}

func TestCloneConfigVariants(t *testing.T) {
	retries := 3
	challenge := &ChallengeConfig{
		ChallengeType: ChallengeTypeAcceptance,
		Retries:       &ChallengeRetries{MaxRetries: 2, Roles: []string{"asesor"}},
		Results:       []ChallengeResult{ChallengeResultAccepted},
	}
	reject := &RejectConfig{AllowRetry: true, MaxRetries: &retries}
	flags := &FlagChangeConfig{FlagChanges: []FlagChangeEntry{{FlagID: "a", OptionID: "b"}}}

	cc := challenge.CloneConfig().(*ChallengeConfig)
	cc.Retries.Roles[0] = "gerente"
	cc.Results[0] = ChallengeResultFailed
	assert.Equal(t, "asesor", challenge.Retries.Roles[0])
	assert.Equal(t, ChallengeResultAccepted, challenge.Results[0])

	rc := reject.CloneConfig().(*RejectConfig)
	*rc.MaxRetries = 7
	assert.Equal(t, 3, *reject.MaxRetries)

	fc := flags.CloneConfig().(*FlagChangeConfig)
	fc.FlagChanges[0].OptionID = "z"
	assert.Equal(t, "b", flags.FlagChanges[0].OptionID)
}

func TestNewNodeConfigCoversEveryType(t *testing.T) {
	for _, nt := range AllNodeTypes {
		cfg := NewNodeConfig(nt)
		switch nt {
		case NodeTypeStart, NodeTypeEnd, NodeTypeJoin:
			assert.Nil(t, cfg, nt)
		default:
			if assert.NotNil(t, cfg, nt) {
				assert.Equal(t, nt, cfg.NodeType())
			}
		}
	}
	assert.Equal(t, "GET", NewNodeConfig(NodeTypeAPI).(*APIConfig).Method)
}

func TestCloneNodesKeepsNil(t *testing.T) {
	assert.Nil(t, CloneNodes(nil))
	assert.Nil(t, CloneEdges(nil))
	assert.Nil(t, CloneFlags(nil))
}

func TestWorkflowDocumentClone(t *testing.T) {
	doc := WorkflowDocument{
		Nodes: []Node{{ID: "a", Type: NodeTypeStart}},
		Edges: []Edge{{ID: "e", From: "a", To: "b"}},
		Flags: []Flag{{ID: "f", Name: "F", Options: []FlagOption{{ID: "o", Label: "O"}}}},
	}
	cp := doc.Clone()
	cp.Nodes[0].ID = "changed"
	cp.Edges[0].To = "c"
	cp.Flags[0].Options[0].Label = "X"

	assert.Equal(t, "a", doc.Nodes[0].ID)
	assert.Equal(t, "b", doc.Edges[0].To)
	assert.Equal(t, "O", doc.Flags[0].Options[0].Label)
}

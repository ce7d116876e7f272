package workflow

import (
	"strings"

	"approval-flow/shared"
)

func newNode(id string, t shared.NodeType) shared.Node {
	return shared.Node{ID: id, Type: t, Title: id, Config: shared.NewNodeConfig(t)}
}

func newEdge(id, from, to string) shared.Edge {
	return shared.Edge{ID: id, From: from, To: to, Kind: shared.EdgeKindNormal}
}

func newPortEdge(id, from, to string, port shared.Port) shared.Edge {
	e := newEdge(id, from, to)
	e.FromPort = port
	return e
}

func newRetryEdge(id, from, to string) shared.Edge {
	return shared.Edge{ID: id, From: from, To: to, Kind: shared.EdgeKindRetry, Label: shared.RetryEdgeLabel}
}

func rejectNode(id string, allowRetry bool) shared.Node {
	n := newNode(id, shared.NodeTypeReject)
	n.Config = &shared.RejectConfig{AllowRetry: allowRetry}
	return n
}

func apiNode(id string, fh *shared.FailureHandling) shared.Node {
	n := newNode(id, shared.NodeTypeAPI)
	n.Config = &shared.APIConfig{URL: "https://api.example.com", Method: "GET", FailureHandling: fh}
	return n
}

func formNode(id string) shared.Node {
	n := newNode(id, shared.NodeTypeForm)
	n.Roles = []shared.Role{shared.RoleAdvisor}
	n.Config = &shared.FormConfig{FormID: "form-" + id}
	return n
}

func challengeNode(id string) shared.Node {
	n := newNode(id, shared.NodeTypeChallenge)
	n.Roles = []shared.Role{shared.RoleClient}
	n.Config = &shared.ChallengeConfig{
		ChallengeType:    shared.ChallengeTypeAcceptance,
		ChallengeTimeout: shared.Duration{Value: 1, Unit: shared.TimeUnitDays},
		DeliveryMethod:   shared.DeliveryMethodEmail,
	}
	return n
}

func findingsFor(findings []shared.ValidationError, nodeID string) []shared.ValidationError {
	var out []shared.ValidationError
	for _, f := range findings {
		if f.NodeID == nodeID {
			out = append(out, f)
		}
	}
	return out
}

func countMatching(findings []shared.ValidationError, severity shared.Severity, substrings ...string) int {
	count := 0
	for _, f := range findings {
		if f.Severity != severity {
			continue
		}
		matched := true
		for _, s := range substrings {
			if !strings.Contains(f.Message, s) {
				matched = false
				break
			}
		}
		if matched {
			count++
		}
	}
	return count
}

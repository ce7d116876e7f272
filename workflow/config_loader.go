package workflow

import (
	"encoding/json"
	"errors"
	"fmt"

	"approval-flow/shared"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidGraphDocument is returned when an imported document lacks the node or edge list
var ErrInvalidGraphDocument = errors.New("invalid graph document")

var validate = validator.New()

// GraphDocument is the {nodes, edges} pair exchanged by import and export
type GraphDocument struct {
	Nodes []shared.Node `json:"nodes" yaml:"nodes" validate:"required"`
	Edges []shared.Edge `json:"edges" yaml:"edges" validate:"required"`
}

// LoadGraphFromJSON parses a JSON graph document. Both arrays must be present; empty
// arrays are accepted.
func LoadGraphFromJSON(data []byte) (GraphDocument, error) {
	var doc GraphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return GraphDocument{}, fmt.Errorf("failed to unmarshal graph JSON: %w", err)
	}
	return checkGraphDocument(doc)
}

// LoadGraphFromYAML parses a YAML graph document
func LoadGraphFromYAML(data []byte) (GraphDocument, error) {
	var doc GraphDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return GraphDocument{}, fmt.Errorf("failed to unmarshal graph YAML: %w", err)
	}
	return checkGraphDocument(doc)
}

func checkGraphDocument(doc GraphDocument) (GraphDocument, error) {
	if err := validate.Struct(doc); err != nil {
		return GraphDocument{}, fmt.Errorf("%w: %v", ErrInvalidGraphDocument, err)
	}
	return doc, nil
}

// ExportGraphJSON renders the graph as indented JSON
func ExportGraphJSON(nodes []shared.Node, edges []shared.Edge) ([]byte, error) {
	data, err := json.MarshalIndent(exportDocument(nodes, edges), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph JSON: %w", err)
	}
	return data, nil
}

// ExportGraphYAML renders the graph as YAML
func ExportGraphYAML(nodes []shared.Node, edges []shared.Edge) ([]byte, error) {
	data, err := yaml.Marshal(exportDocument(nodes, edges))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph YAML: %w", err)
	}
	return data, nil
}

// exportDocument makes sure empty graphs still export both arrays
func exportDocument(nodes []shared.Node, edges []shared.Edge) GraphDocument {
	if nodes == nil {
		nodes = []shared.Node{}
	}
	if edges == nil {
		edges = []shared.Edge{}
	}
	return GraphDocument{Nodes: nodes, Edges: edges}
}

// LoadWorkflowDocumentFromYAML parses a full workflow record, including flags
func LoadWorkflowDocumentFromYAML(data []byte) (shared.WorkflowDocument, error) {
	var doc shared.WorkflowDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return shared.WorkflowDocument{}, fmt.Errorf("failed to unmarshal workflow YAML: %w", err)
	}
	return checkWorkflowDocument(doc)
}

// LoadWorkflowDocumentFromJSON parses a full workflow record, including flags
func LoadWorkflowDocumentFromJSON(data []byte) (shared.WorkflowDocument, error) {
	var doc shared.WorkflowDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return shared.WorkflowDocument{}, fmt.Errorf("failed to unmarshal workflow JSON: %w", err)
	}
	return checkWorkflowDocument(doc)
}

func checkWorkflowDocument(doc shared.WorkflowDocument) (shared.WorkflowDocument, error) {
	if _, err := checkGraphDocument(GraphDocument{Nodes: doc.Nodes, Edges: doc.Edges}); err != nil {
		return shared.WorkflowDocument{}, err
	}
	if err := shared.ValidateFlags(doc.Flags); err != nil {
		return shared.WorkflowDocument{}, fmt.Errorf("invalid flags: %w", err)
	}
	return doc, nil
}

// GetSampleWorkflowDocument returns a small loan origination workflow that passes
// validation without findings. Useful for testing and demonstration.
func GetSampleWorkflowDocument() shared.WorkflowDocument {
	// start -> application -> received(safe) -> bureau -> score?
	//   score? top    -> offer challenge
	//     accepted    -> mark approved -> notify -> end
	//     rejected    -> declined
	//   score? bottom -> rejected (retry back to received)
	retries := 3
	nodes := []shared.Node{
		{ID: "start", Type: shared.NodeTypeStart, Title: "Inicio", Position: shared.Position{X: 0, Y: 200}},
		{
			ID: "application", Type: shared.NodeTypeForm, Title: "Solicitud de crédito",
			Roles:        []shared.Role{shared.RoleClient, shared.RoleAdvisor},
			Config:       &shared.FormConfig{FormID: "loan-application"},
			StaleTimeout: &shared.Duration{Value: 3, Unit: shared.TimeUnitDays},
			Position:     shared.Position{X: 200, Y: 200},
		},
		{
			ID: "received", Type: shared.NodeTypeCheckpoint, CheckpointType: shared.CheckpointTypeSafe,
			Title:    "Solicitud recibida",
			Config:   &shared.CheckpointConfig{CheckpointName: "solicitud-recibida"},
			Position: shared.Position{X: 400, Y: 200},
		},
		{
			ID: "bureau", Type: shared.NodeTypeAPI, Title: "Consulta de buró",
			Config: &shared.APIConfig{
				URL:    "https://bureau.example.com/v1/score",
				Method: "POST",
				FailureHandling: &shared.FailureHandling{
					OnFailure:  shared.FailureActionRetry,
					MaxRetries: 2,
					Timeout:    shared.DefaultTimeoutMs,
				},
			},
			Position: shared.Position{X: 600, Y: 200},
		},
		{
			ID: "score", Type: shared.NodeTypeDecision, Title: "¿Score suficiente?",
			Config:   &shared.DecisionConfig{Condition: "score >= 650"},
			Position: shared.Position{X: 800, Y: 200},
		},
		{
			ID: "offer", Type: shared.NodeTypeChallenge, Title: "Aceptación de oferta",
			Roles: []shared.Role{shared.RoleClient},
			Config: &shared.ChallengeConfig{
				ChallengeType:    shared.ChallengeTypeAcceptance,
				ChallengeTimeout: shared.Duration{Value: 2, Unit: shared.TimeUnitDays},
				DeliveryMethod:   shared.DeliveryMethodSMS,
			},
			Position: shared.Position{X: 1000, Y: 100},
		},
		{
			ID: "approved", Type: shared.NodeTypeFlagChange, Title: "Marcar aprobado",
			Config: &shared.FlagChangeConfig{FlagChanges: []shared.FlagChangeEntry{
				{FlagID: "status", OptionID: "approved"},
			}},
			Position: shared.Position{X: 1200, Y: 50},
		},
		{
			ID: "notify", Type: shared.NodeTypeMessage, Title: "Notificar aprobación",
			Config:   &shared.MessageConfig{Channel: "email", Template: "loan-approved"},
			Position: shared.Position{X: 1400, Y: 50},
		},
		{ID: "end", Type: shared.NodeTypeEnd, Title: "Fin", Position: shared.Position{X: 1600, Y: 50}},
		{
			ID: "declined", Type: shared.NodeTypeReject, Title: "Oferta rechazada",
			Config:   &shared.RejectConfig{AllowRetry: false},
			Position: shared.Position{X: 1200, Y: 200},
		},
		{
			ID: "rejected", Type: shared.NodeTypeReject, Title: "Crédito rechazado",
			Config:   &shared.RejectConfig{AllowRetry: true, MaxRetries: &retries},
			Position: shared.Position{X: 1000, Y: 350},
		},
	}

	edges := []shared.Edge{
		{ID: "e1", From: "start", To: "application", Kind: shared.EdgeKindNormal},
		{ID: "e2", From: "application", To: "received", Kind: shared.EdgeKindNormal},
		{ID: "e3", From: "received", To: "bureau", Kind: shared.EdgeKindNormal},
		{ID: "e4", From: "bureau", To: "score", Kind: shared.EdgeKindNormal},
		{ID: "e5", From: "score", To: "offer", Kind: shared.EdgeKindNormal, FromPort: shared.PortTop, Label: "Sí"},
		{ID: "e6", From: "score", To: "rejected", Kind: shared.EdgeKindNormal, FromPort: shared.PortBottom, Label: "No"},
		{ID: "e7", From: "offer", To: "approved", Kind: shared.EdgeKindNormal, FromPort: shared.PortTop, Label: "Aceptado"},
		{ID: "e8", From: "offer", To: "declined", Kind: shared.EdgeKindNormal, FromPort: shared.PortBottom, Label: "Rechazado"},
		{ID: "e9", From: "approved", To: "notify", Kind: shared.EdgeKindNormal},
		{ID: "e10", From: "notify", To: "end", Kind: shared.EdgeKindNormal},
		{ID: "e11", From: "rejected", To: "received", Kind: shared.EdgeKindRetry, Label: shared.RetryEdgeLabel},
	}

	flags := []shared.Flag{
		{
			ID:   "status",
			Name: "Estado de la solicitud",
			Options: []shared.FlagOption{
				{ID: "pending", Label: "Pendiente", Color: "#f5a623"},
				{ID: "approved", Label: "Aprobada", Color: "#7ed321"},
				{ID: "rejected", Label: "Rechazada", Color: "#d0021b"},
			},
		},
	}

	return shared.WorkflowDocument{
		Metadata: shared.Metadata{
			Name:        "Originación de crédito",
			Description: "Flujo de aprobación de crédito de consumo",
			Version:     "1",
		},
		Nodes: nodes,
		Edges: edges,
		Flags: flags,
		Zoom:  1,
	}
}

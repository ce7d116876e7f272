package storage

import (
	"context"
	"testing"
	"time"

	"approval-flow/shared"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

func testDocument(name string, updatedAt time.Time) shared.WorkflowDocument {
	retries := 2
	return shared.WorkflowDocument{
		Metadata: shared.Metadata{Name: name, Version: "3", UpdatedAt: updatedAt},
		Nodes: []shared.Node{
			{ID: "start", Type: shared.NodeTypeStart, Title: "Inicio"},
			{
				ID: "received", Type: shared.NodeTypeCheckpoint, CheckpointType: shared.CheckpointTypeSafe, Title: "Recibida",
				Config:   &shared.CheckpointConfig{CheckpointName: "recibida"},
				Position: shared.Position{X: 120.5, Y: 40},
			},
			{
				ID: "bureau", Type: shared.NodeTypeAPI, Title: "Buró",
				Config: &shared.APIConfig{URL: "https://bureau.example.com", Method: "POST", FailureHandling: &shared.FailureHandling{
					OnFailure: shared.FailureActionReturnToCheckpoint, CheckpointID: "received", Timeout: 10000,
				}},
				StaleTimeout: &shared.Duration{Value: 2, Unit: shared.TimeUnitHours},
			},
			{ID: "rejected", Type: shared.NodeTypeReject, Title: "Rechazo", Config: &shared.RejectConfig{AllowRetry: true, MaxRetries: &retries}},
			{ID: "mark", Type: shared.NodeTypeFlagChange, Title: "Marcar", Config: &shared.FlagChangeConfig{
				FlagChanges: []shared.FlagChangeEntry{{FlagID: "status", OptionID: "open"}},
			}},
		},
		Edges: []shared.Edge{
			{ID: "e1", From: "start", To: "received", Kind: shared.EdgeKindNormal},
			{ID: "e2", From: "rejected", To: "received", Kind: shared.EdgeKindRetry, Label: shared.RetryEdgeLabel},
		},
		Flags: []shared.Flag{{ID: "status", Name: "Estado", Options: []shared.FlagOption{{ID: "open", Label: "Abierta"}}}},
		Zoom:  1.5,
	}
}

// StoreTestSuite runs the same behaviour checks against every Store implementation
type StoreTestSuite struct {
	suite.Suite
	newStore func() Store
	store    Store
	ctx      context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func (s *StoreTestSuite) TearDownTest() {
	if closer, ok := s.store.(interface{ Close() error }); ok {
		s.NoError(closer.Close())
	}
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func() Store { return NewMemoryStore() }})
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func() Store {
		store, err := OpenSQLiteStore(context.Background(), ":memory:", zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("failed to open sqlite store: %v", err)
		}
		return store
	}})
}

func (s *StoreTestSuite) Test_SaveAndLoad() {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := testDocument("Crédito personal", updated)
	s.Require().NoError(s.store.Save(s.ctx, "personal", doc))

	loaded, err := s.store.Load(s.ctx, "personal")
	s.Require().NoError(err)
	s.Equal(doc.Nodes, loaded.Nodes)
	s.Equal(doc.Edges, loaded.Edges)
	s.Equal(doc.Flags, loaded.Flags)
	s.Equal(doc.Metadata.Name, loaded.Metadata.Name)
	s.True(doc.Metadata.UpdatedAt.Equal(loaded.Metadata.UpdatedAt))
	s.Equal(1.5, loaded.Zoom)
}

func (s *StoreTestSuite) Test_SaveOverwrites() {
	doc := testDocument("v1", time.Time{})
	s.Require().NoError(s.store.Save(s.ctx, "doc", doc))

	doc.Metadata.Name = "v2"
	doc.Nodes = doc.Nodes[:1]
	s.Require().NoError(s.store.Save(s.ctx, "doc", doc))

	loaded, err := s.store.Load(s.ctx, "doc")
	s.Require().NoError(err)
	s.Equal("v2", loaded.Metadata.Name)
	s.Len(loaded.Nodes, 1)
}

func (s *StoreTestSuite) Test_StoredDocumentIsIsolated() {
	doc := testDocument("aislado", time.Time{})
	s.Require().NoError(s.store.Save(s.ctx, "doc", doc))

	doc.Nodes[1].Config.(*shared.CheckpointConfig).CheckpointName = "changed"

	loaded, err := s.store.Load(s.ctx, "doc")
	s.Require().NoError(err)
	s.Equal("recibida", loaded.Nodes[1].Config.(*shared.CheckpointConfig).CheckpointName)
}

func (s *StoreTestSuite) Test_LoadMissing() {
	_, err := s.store.Load(s.ctx, "ghost")
	s.ErrorIs(err, ErrDocumentNotFound)
}

func (s *StoreTestSuite) Test_InvalidID() {
	s.ErrorIs(s.store.Save(s.ctx, "  ", testDocument("x", time.Time{})), ErrInvalidDocumentID)
	_, err := s.store.Load(s.ctx, "")
	s.ErrorIs(err, ErrInvalidDocumentID)
	s.ErrorIs(s.store.Delete(s.ctx, ""), ErrInvalidDocumentID)
}

func (s *StoreTestSuite) Test_ListOrdersByUpdateTime() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Save(s.ctx, "old", testDocument("Antiguo", base)))
	s.Require().NoError(s.store.Save(s.ctx, "new", testDocument("Nuevo", base.Add(time.Hour))))
	s.Require().NoError(s.store.Save(s.ctx, "b-tie", testDocument("Empate B", base)))

	summaries, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(summaries, 3)
	s.Equal("new", summaries[0].ID)
	s.Equal("Nuevo", summaries[0].Name)
	s.Equal("3", summaries[0].Version)
	s.Equal("b-tie", summaries[1].ID)
	s.Equal("old", summaries[2].ID)
	s.True(base.Equal(summaries[2].UpdatedAt))
}

func (s *StoreTestSuite) Test_ListEmpty() {
	summaries, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.NotNil(summaries)
	s.Empty(summaries)
}

func (s *StoreTestSuite) Test_Delete() {
	s.Require().NoError(s.store.Save(s.ctx, "doc", testDocument("x", time.Time{})))
	s.NoError(s.store.Delete(s.ctx, "doc"))
	s.ErrorIs(s.store.Delete(s.ctx, "doc"), ErrDocumentNotFound)

	_, err := s.store.Load(s.ctx, "doc")
	s.ErrorIs(err, ErrDocumentNotFound)
}

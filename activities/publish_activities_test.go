package activities

import (
	"context"
	"errors"
	"testing"

	"approval-flow/shared"
	"approval-flow/storage"
	"approval-flow/workflow"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap/zaptest"
)

// mockStore lets tests script storage failures
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, id string, doc shared.WorkflowDocument) error {
	return m.Called(ctx, id, doc).Error(0)
}

func (m *mockStore) Load(ctx context.Context, id string) (shared.WorkflowDocument, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(shared.WorkflowDocument), args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]storage.DocumentSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]storage.DocumentSummary), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type ActivitiesTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env        *testsuite.TestActivityEnvironment
	store      *storage.MemoryStore
	cache      *workflow.ValidationCache
	activities *PublishActivities
}

func TestActivitiesTestSuite(t *testing.T) {
	suite.Run(t, new(ActivitiesTestSuite))
}

func (s *ActivitiesTestSuite) SetupTest() {
	logger := zaptest.NewLogger(s.T())
	cache, err := workflow.NewValidationCache(workflow.NewValidator(logger), 16, 0, logger)
	s.Require().NoError(err)

	s.cache = cache
	s.store = storage.NewMemoryStore()
	s.activities = &PublishActivities{Store: s.store, Cache: cache}
	s.env = s.NewTestActivityEnvironment()
	s.env.RegisterActivity(s.activities)
}

func (s *ActivitiesTestSuite) TearDownTest() {
	s.cache.Close()
}

func (s *ActivitiesTestSuite) validate(doc shared.WorkflowDocument) workflow.ValidationReport {
	val, err := s.env.ExecuteActivity(s.activities.ValidateGraph, doc)
	s.Require().NoError(err)
	var report workflow.ValidationReport
	s.Require().NoError(val.Get(&report))
	return report
}

func (s *ActivitiesTestSuite) Test_ValidateGraph_Sample() {
	report := s.validate(workflow.GetSampleWorkflowDocument())
	s.Zero(report.ErrorCount)
	s.Zero(report.WarningCount)
	s.NotEmpty(report.Fingerprint)
}

func (s *ActivitiesTestSuite) Test_ValidateGraph_ReportsFlagProblems() {
	doc := workflow.GetSampleWorkflowDocument()
	doc.Flags = append(doc.Flags, shared.Flag{
		ID:      "duplicate",
		Name:    "estado de la SOLICITUD",
		Options: []shared.FlagOption{{ID: "x", Label: "X"}},
	})
	for i := range doc.Nodes {
		if cfg, ok := doc.Nodes[i].Config.(*shared.FlagChangeConfig); ok {
			cfg.FlagChanges = append(cfg.FlagChanges, shared.FlagChangeEntry{FlagID: "status", OptionID: "archived"})
		}
	}

	report := s.validate(doc)
	s.Equal(2, report.ErrorCount)
	s.NotEmpty(report.Fingerprint)
}

func (s *ActivitiesTestSuite) Test_ValidateGraph_UsesCache() {
	doc := workflow.GetSampleWorkflowDocument()
	first := s.validate(doc)
	second := s.validate(doc)

	s.Equal(first.Fingerprint, second.Fingerprint)
	metrics := s.cache.Validator().Metrics().GetSnapshot()
	s.Equal(1, metrics.Runs)
	s.Equal(1, metrics.CacheHits)
}

func (s *ActivitiesTestSuite) Test_ValidateGraph_WithoutCache() {
	activities := &PublishActivities{Store: s.store}
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(activities)

	_, err := env.ExecuteActivity(activities.ValidateGraph, workflow.GetSampleWorkflowDocument())
	s.Error(err)
	var appErr *temporal.ApplicationError
	s.True(errors.As(err, &appErr))
	s.True(appErr.NonRetryable())
}

func (s *ActivitiesTestSuite) Test_SaveGraph_StoresDocument() {
	doc := workflow.GetSampleWorkflowDocument()
	val, err := s.env.ExecuteActivity(s.activities.SaveGraph, workflow.SaveGraphInput{DocumentID: "loan", Document: doc})
	s.Require().NoError(err)

	var id string
	s.Require().NoError(val.Get(&id))
	s.Equal("loan", id)

	stored, err := s.store.Load(context.Background(), "loan")
	s.Require().NoError(err)
	s.Equal(doc.Metadata.Name, stored.Metadata.Name)
	s.Len(stored.Nodes, len(doc.Nodes))
}

func (s *ActivitiesTestSuite) Test_SaveGraph_InvalidIDIsNonRetryable() {
	_, err := s.env.ExecuteActivity(s.activities.SaveGraph, workflow.SaveGraphInput{DocumentID: " ", Document: workflow.GetSampleWorkflowDocument()})
	s.Error(err)
	var appErr *temporal.ApplicationError
	s.True(errors.As(err, &appErr))
	s.True(appErr.NonRetryable())
}

func (s *ActivitiesTestSuite) Test_SaveGraph_StoreFailureIsRetryable() {
	store := new(mockStore)
	store.On("Save", mock.Anything, "loan", mock.Anything).Return(errors.New("disk full")).Once()
	activities := &PublishActivities{Store: store, Cache: s.cache}
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(activities)

	_, err := env.ExecuteActivity(activities.SaveGraph, workflow.SaveGraphInput{DocumentID: "loan", Document: workflow.GetSampleWorkflowDocument()})
	s.Error(err)
	s.Contains(err.Error(), "disk full")
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		s.False(appErr.NonRetryable())
	}
	store.AssertExpectations(s.T())
}

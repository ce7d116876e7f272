package activities

import (
	"context"
	"errors"
	"fmt"

	"approval-flow/shared"
	"approval-flow/storage"
	"approval-flow/workflow"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// PublishActivities implements the activities of the publish workflow
type PublishActivities struct {
	Store storage.Store
	Cache *workflow.ValidationCache
}

// ValidateGraph validates the graph of a document, plus its flag set and the flag changes
// referencing it.
func (a *PublishActivities) ValidateGraph(ctx context.Context, doc shared.WorkflowDocument) (workflow.ValidationReport, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Executing ValidateGraph", "nodes", len(doc.Nodes), "edges", len(doc.Edges))

	if a.Cache == nil {
		return workflow.ValidationReport{}, temporal.NewNonRetryableApplicationError(
			"validation cache is not configured", workflow.NonRetryableErrorType, nil)
	}

	report := a.Cache.Validate(doc.Nodes, doc.Edges)
	extra := workflow.ValidateFlagChanges(doc.Nodes, doc.Flags)
	if err := shared.ValidateFlags(doc.Flags); err != nil {
		extra = append(extra, shared.ValidationError{Message: err.Error(), Severity: shared.SeverityError})
	}
	if len(extra) > 0 {
		findings := append(append([]shared.ValidationError{}, report.Findings...), extra...)
		fingerprint := report.Fingerprint
		report = workflow.NewValidationReport(findings)
		report.Fingerprint = fingerprint
	}

	logger.Info("ValidateGraph completed",
		"errors", report.ErrorCount,
		"warnings", report.WarningCount,
		"fingerprint", report.Fingerprint)
	return report, nil
}

// SaveGraph stores a document and returns its id
func (a *PublishActivities) SaveGraph(ctx context.Context, input workflow.SaveGraphInput) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Executing SaveGraph", "documentID", input.DocumentID)

	if a.Store == nil {
		return "", temporal.NewNonRetryableApplicationError(
			"document store is not configured", workflow.NonRetryableErrorType, nil)
	}

	if err := a.Store.Save(ctx, input.DocumentID, input.Document); err != nil {
		if errors.Is(err, storage.ErrInvalidDocumentID) {
			return "", temporal.NewNonRetryableApplicationError(err.Error(), workflow.NonRetryableErrorType, err)
		}
		return "", fmt.Errorf("failed to save document %s: %w", input.DocumentID, err)
	}

	logger.Info("SaveGraph completed", "documentID", input.DocumentID)
	return input.DocumentID, nil
}

package workflow

import (
	"fmt"
	"time"

	"approval-flow/shared"
	"go.temporal.io/sdk/workflow"
)

// PublishInput is the input to PublishWorkflow
type PublishInput struct {
	DocumentID string
	Document   shared.WorkflowDocument
	// ActivityTimeoutSeconds overrides DefaultActivityTimeout when positive.
	ActivityTimeoutSeconds int
}

// PublishResult reports whether the document was stored and why not
type PublishResult struct {
	Published  bool
	DocumentID string
	Report     ValidationReport
}

// SaveGraphInput is the input of the SaveGraph activity
type SaveGraphInput struct {
	DocumentID string
	Document   shared.WorkflowDocument
}

// PublishWorkflow validates a workflow document and stores it when validation reports no
// errors. Warnings do not block publishing.
func PublishWorkflow(ctx workflow.Context, input PublishInput) (PublishResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("PublishWorkflow started",
		"documentID", input.DocumentID,
		"nodes", len(input.Document.Nodes),
		"edges", len(input.Document.Edges))

	if input.DocumentID == "" {
		return PublishResult{}, fmt.Errorf("document id is required")
	}

	processor := NewPublishProcessor(ctx, logger, time.Duration(input.ActivityTimeoutSeconds)*time.Second)
	result := PublishResult{DocumentID: input.DocumentID}

	start := workflow.Now(ctx)
	err := processor.ExecuteActivity(ValidateGraphActivityName, input.Document).Get(ctx, &result.Report)
	processor.LogActivityExecution(ValidateGraphActivityName, err, workflow.Now(ctx).Sub(start))
	if err != nil {
		return PublishResult{}, fmt.Errorf("validation of document %s failed: %w", input.DocumentID, err)
	}

	if result.Report.HasErrors() {
		logger.Warn("Document not published, validation reported errors",
			"documentID", input.DocumentID,
			"errors", result.Report.ErrorCount,
			"warnings", result.Report.WarningCount)
		return result, nil
	}

	doc := input.Document
	doc.Metadata.UpdatedAt = workflow.Now(ctx)

	start = workflow.Now(ctx)
	var storedID string
	err = processor.ExecuteActivity(SaveGraphActivityName, SaveGraphInput{DocumentID: input.DocumentID, Document: doc}).Get(ctx, &storedID)
	processor.LogActivityExecution(SaveGraphActivityName, err, workflow.Now(ctx).Sub(start))
	if err != nil {
		return PublishResult{}, fmt.Errorf("saving document %s failed: %w", input.DocumentID, err)
	}

	result.Published = true
	result.DocumentID = storedID
	logger.Info("PublishWorkflow completed",
		"documentID", storedID,
		"warnings", result.Report.WarningCount)
	return result, nil
}

package workflow

import (
	"errors"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Activity names of the publish pipeline.
const (
	ValidateGraphActivityName = "ValidateGraph"
	SaveGraphActivityName     = "SaveGraph"
)

// NonRetryableErrorType marks application errors the pipeline must not retry
const NonRetryableErrorType = "NonRetryableError"

// DefaultActivityTimeout bounds each publish activity unless the input overrides it
const DefaultActivityTimeout = 2 * time.Minute

// PublishProcessor runs the activities of the publish pipeline
type PublishProcessor struct {
	ctx     workflow.Context
	logger  log.Logger
	timeout time.Duration
}

// NewPublishProcessor creates a new processor. A non-positive timeout selects
// DefaultActivityTimeout.
func NewPublishProcessor(ctx workflow.Context, logger log.Logger, timeout time.Duration) *PublishProcessor {
	if timeout <= 0 {
		timeout = DefaultActivityTimeout
	}
	return &PublishProcessor{
		ctx:     ctx,
		logger:  logger,
		timeout: timeout,
	}
}

// ExecuteActivity schedules the named activity with its options
func (pp *PublishProcessor) ExecuteActivity(activityName string, args ...interface{}) workflow.Future {
	activityOptions := pp.buildActivityOptions(activityName)
	activityCtx := workflow.WithActivityOptions(pp.ctx, activityOptions)

	pp.logger.Info("Executing activity",
		"activityName", activityName,
		"timeout", activityOptions.StartToCloseTimeout,
		"maxAttempts", activityOptions.RetryPolicy.MaximumAttempts)

	return workflow.ExecuteActivity(activityCtx, activityName, args...)
}

func (pp *PublishProcessor) buildActivityOptions(activityName string) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: pp.timeout,
		RetryPolicy:         pp.buildRetryPolicy(activityName),
	}
}

// buildRetryPolicy gives validation a single attempt, since it is deterministic, and lets
// persistence ride out transient storage failures.
func (pp *PublishProcessor) buildRetryPolicy(activityName string) *temporal.RetryPolicy {
	policy := &temporal.RetryPolicy{
		MaximumAttempts:        1,
		NonRetryableErrorTypes: []string{NonRetryableErrorType},
	}

	switch activityName {
	case SaveGraphActivityName:
		policy.MaximumAttempts = 3
		policy.InitialInterval = 1 * time.Second
		policy.BackoffCoefficient = 2.0
		policy.MaximumInterval = 30 * time.Second
	}

	return policy
}

// IsTimeoutError checks if an error is a start-to-close timeout
func (pp *PublishProcessor) IsTimeoutError(err error) bool {
	var timeoutErr *temporal.TimeoutError
	return temporal.IsTimeoutError(err) &&
		errors.As(err, &timeoutErr) &&
		timeoutErr.TimeoutType() == enumspb.TIMEOUT_TYPE_START_TO_CLOSE
}

// IsRetryableError checks if an error is retryable
func (pp *PublishProcessor) IsRetryableError(err error) bool {
	if pp.IsTimeoutError(err) {
		return false
	}

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Type() != NonRetryableErrorType && !appErr.NonRetryable()
	}

	return true
}

// GetErrorType returns a string representation of the error type
func (pp *PublishProcessor) GetErrorType(err error) string {
	if pp.IsTimeoutError(err) {
		return "timeout"
	}

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return "application_error"
	}

	return "unknown_error"
}

// LogActivityExecution logs details about activity execution
func (pp *PublishProcessor) LogActivityExecution(activityName string, err error, duration time.Duration) {
	keyvals := []interface{}{
		"activityName", activityName,
		"duration", duration,
	}

	if err != nil {
		keyvals = append(keyvals,
			"error", err.Error(),
			"errorType", pp.GetErrorType(err),
			"retryable", pp.IsRetryableError(err))
		pp.logger.Error("Activity execution failed", keyvals...)
	} else {
		pp.logger.Info("Activity execution completed successfully", keyvals...)
	}
}

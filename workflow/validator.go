package workflow

import (
	"time"

	"approval-flow/shared"
	"go.uber.org/zap"
)

// ValidationReport summarizes one validation pass
type ValidationReport struct {
	Findings     []shared.ValidationError `json:"findings"`
	ErrorCount   int                      `json:"errorCount"`
	WarningCount int                      `json:"warningCount"`
	Fingerprint  string                   `json:"fingerprint,omitempty"`
}

// HasErrors reports whether the graph has findings that block publishing
func (r ValidationReport) HasErrors() bool {
	return r.ErrorCount > 0
}

// Errors returns only the blocking findings
func (r ValidationReport) Errors() []shared.ValidationError {
	return r.filter(shared.SeverityError)
}

// Warnings returns only the advisory findings
func (r ValidationReport) Warnings() []shared.ValidationError {
	return r.filter(shared.SeverityWarning)
}

func (r ValidationReport) filter(severity shared.Severity) []shared.ValidationError {
	var out []shared.ValidationError
	for _, f := range r.Findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}

// NewValidationReport counts the findings by severity
func NewValidationReport(findings []shared.ValidationError) ValidationReport {
	report := ValidationReport{Findings: findings}
	for _, f := range findings {
		if f.Severity == shared.SeverityError {
			report.ErrorCount++
		} else {
			report.WarningCount++
		}
	}
	return report
}

// ValidateWorkflow applies every rule to the graph and returns all findings. Rules are
// independent; the output order is stable for identical input.
func ValidateWorkflow(nodes []shared.Node, edges []shared.Edge) []shared.ValidationError {
	findings, _ := runValidation(nodes, edges)
	return findings
}

func runValidation(nodes []shared.Node, edges []shared.Edge) ([]shared.ValidationError, map[string]int) {
	pass := newValidationPass(nodes, edges)
	findings := make([]shared.ValidationError, 0)
	perRule := make(map[string]int, len(validationRules))
	for _, rule := range validationRules {
		found := rule.check(pass)
		if len(found) > 0 {
			perRule[rule.name] += len(found)
			findings = append(findings, found...)
		}
	}
	return findings, perRule
}

// Validator runs validation passes and records metrics about them
type Validator struct {
	logger  *zap.Logger
	metrics *ValidationMetrics
}

// NewValidator creates a validator. A nil logger disables logging.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		logger:  logger,
		metrics: NewValidationMetrics(),
	}
}

// Validate produces a report for the graph
func (v *Validator) Validate(nodes []shared.Node, edges []shared.Edge) ValidationReport {
	start := time.Now()
	findings, perRule := runValidation(nodes, edges)
	report := NewValidationReport(findings)
	duration := time.Since(start)

	v.metrics.RecordRun(report, perRule, duration)
	v.logger.Debug("Workflow validated",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Int("errors", report.ErrorCount),
		zap.Int("warnings", report.WarningCount),
		zap.Duration("duration", duration))
	return report
}

// Metrics returns the validator's metrics
func (v *Validator) Metrics() *ValidationMetrics {
	return v.metrics
}

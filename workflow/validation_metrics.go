package workflow

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ValidationMetrics accumulates counters across validation runs. It is shared by
// concurrent activity executions, hence the lock.
type ValidationMetrics struct {
	Runs           int
	FailedRuns     int
	TotalErrors    int
	TotalWarnings  int
	CacheHits      int
	CacheMisses    int
	LastDuration   time.Duration
	TotalDuration  time.Duration
	FindingsByRule map[string]int
	mu             sync.RWMutex
}

// NewValidationMetrics creates a new metrics instance
func NewValidationMetrics() *ValidationMetrics {
	return &ValidationMetrics{
		FindingsByRule: make(map[string]int),
	}
}

// RecordRun records the outcome of one validation pass
func (m *ValidationMetrics) RecordRun(report ValidationReport, perRule map[string]int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Runs++
	if report.HasErrors() {
		m.FailedRuns++
	}
	m.TotalErrors += report.ErrorCount
	m.TotalWarnings += report.WarningCount
	m.LastDuration = duration
	m.TotalDuration += duration
	for rule, count := range perRule {
		m.FindingsByRule[rule] += count
	}
}

// RecordCacheHit records a report served from the cache
func (m *ValidationMetrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

// RecordCacheMiss records a report that had to be computed
func (m *ValidationMetrics) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

// GetSnapshot returns a copy of the current metrics
func (m *ValidationMetrics) GetSnapshot() ValidationMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := ValidationMetrics{
		Runs:           m.Runs,
		FailedRuns:     m.FailedRuns,
		TotalErrors:    m.TotalErrors,
		TotalWarnings:  m.TotalWarnings,
		CacheHits:      m.CacheHits,
		CacheMisses:    m.CacheMisses,
		LastDuration:   m.LastDuration,
		TotalDuration:  m.TotalDuration,
		FindingsByRule: make(map[string]int, len(m.FindingsByRule)),
	}
	for k, v := range m.FindingsByRule {
		snapshot.FindingsByRule[k] = v
	}
	return snapshot
}

// GetAverageDuration returns the mean duration of a validation pass
func (m *ValidationMetrics) GetAverageDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Runs == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.Runs)
}

// GetCacheHitRatio returns hits over lookups, or 0 before the first lookup
func (m *ValidationMetrics) GetCacheHitRatio() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lookups := m.CacheHits + m.CacheMisses
	if lookups == 0 {
		return 0
	}
	return float64(m.CacheHits) / float64(lookups)
}

// LogMetrics logs current metrics state
func (m *ValidationMetrics) LogMetrics(logger *zap.Logger, level string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields := []zap.Field{
		zap.Int("runs", m.Runs),
		zap.Int("failedRuns", m.FailedRuns),
		zap.Int("errors", m.TotalErrors),
		zap.Int("warnings", m.TotalWarnings),
		zap.Int("cacheHits", m.CacheHits),
		zap.Int("cacheMisses", m.CacheMisses),
		zap.Duration("lastDuration", m.LastDuration),
		zap.Any("findingsByRule", m.FindingsByRule),
	}

	switch level {
	case "error":
		logger.Error("Validation metrics", fields...)
	case "warn":
		logger.Warn("Validation metrics", fields...)
	case "debug":
		logger.Debug("Validation metrics", fields...)
	default:
		logger.Info("Validation metrics", fields...)
	}
}

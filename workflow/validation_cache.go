package workflow

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"approval-flow/shared"
	"github.com/dgraph-io/ristretto"
	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"
)

// DefaultCacheSize and DefaultCacheTTL size a ValidationCache when config leaves them unset.
const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 10 * time.Minute
)

// GraphFingerprint hashes the canonical JSON form of a graph. Graphs that differ only in
// fields the validator ignores (positions, colors) still get different fingerprints.
func GraphFingerprint(nodes []shared.Node, edges []shared.Edge) (string, error) {
	payload, err := json.Marshal(struct {
		Nodes []shared.Node `json:"nodes"`
		Edges []shared.Edge `json:"edges"`
	}{nodes, edges})
	if err != nil {
		return "", fmt.Errorf("failed to encode graph for fingerprint: %w", err)
	}
	h1, h2 := murmur3.Sum128(payload)
	var sum [16]byte
	for i := 0; i < 8; i++ {
		sum[i] = byte(h1 >> (56 - 8*i))
		sum[8+i] = byte(h2 >> (56 - 8*i))
	}
	return hex.EncodeToString(sum[:]), nil
}

// ValidationCache memoizes validation reports by graph fingerprint
type ValidationCache struct {
	cache     *ristretto.Cache
	ttl       time.Duration
	validator *Validator
	logger    *zap.Logger
}

// NewValidationCache creates a cache holding up to size reports for ttl each
func NewValidationCache(validator *Validator, size int64, ttl time.Duration, logger *zap.Logger) (*ValidationCache, error) {
	if validator == nil {
		validator = NewValidator(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        10 * size,
		MaxCost:            size,
		BufferItems:        64,
		// every report costs 1, so MaxCost is the entry count
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create validation cache: %w", err)
	}
	return &ValidationCache{cache: cache, ttl: ttl, validator: validator, logger: logger}, nil
}

// Validate returns the cached report for the graph, computing and storing it on a miss
func (c *ValidationCache) Validate(nodes []shared.Node, edges []shared.Edge) ValidationReport {
	fingerprint, err := GraphFingerprint(nodes, edges)
	if err != nil {
		c.logger.Warn("Validating without cache", zap.Error(err))
		return c.validator.Validate(nodes, edges)
	}

	if val, found := c.cache.Get(fingerprint); found {
		if report, ok := val.(ValidationReport); ok {
			c.validator.Metrics().RecordCacheHit()
			c.logger.Debug("Validation report served from cache", zap.String("fingerprint", fingerprint))
			return copyReport(report)
		}
	}

	c.validator.Metrics().RecordCacheMiss()
	report := c.validator.Validate(nodes, edges)
	report.Fingerprint = fingerprint
	c.cache.SetWithTTL(fingerprint, copyReport(report), 1, c.ttl)
	c.cache.Wait()
	return report
}

// Invalidate drops a cached report
func (c *ValidationCache) Invalidate(fingerprint string) {
	c.cache.Del(fingerprint)
}

// Validator returns the validator backing the cache
func (c *ValidationCache) Validator() *Validator {
	return c.validator
}

// Close stops the cache's background goroutines
func (c *ValidationCache) Close() {
	c.cache.Close()
}

func copyReport(r ValidationReport) ValidationReport {
	out := r
	out.Findings = append([]shared.ValidationError(nil), r.Findings...)
	if out.Findings == nil {
		out.Findings = make([]shared.ValidationError, 0)
	}
	return out
}

package workflow

import (
	"testing"

	"approval-flow/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGraphFingerprint(t *testing.T) {
	doc := GetSampleWorkflowDocument()

	a, err := GraphFingerprint(doc.Nodes, doc.Edges)
	require.NoError(t, err)
	b, err := GraphFingerprint(shared.CloneNodes(doc.Nodes), shared.CloneEdges(doc.Edges))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	edges := shared.CloneEdges(doc.Edges)
	edges[0].To = "received"
	c, err := GraphFingerprint(doc.Nodes, edges)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestValidationCacheHitsAndMisses(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cache, err := NewValidationCache(NewValidator(logger), 16, 0, logger)
	require.NoError(t, err)
	defer cache.Close()

	nodes := []shared.Node{newNode("start", shared.NodeTypeStart), formNode("f")}
	edges := []shared.Edge{newEdge("e1", "start", "f")}

	first := cache.Validate(nodes, edges)
	assert.NotEmpty(t, first.Fingerprint)
	assert.True(t, first.HasErrors())

	// mutating a returned report does not leak into the cache
	first.Findings[0].Message = "changed"

	second := cache.Validate(nodes, edges)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.ErrorCount, second.ErrorCount)
	assert.NotEqual(t, "changed", second.Findings[0].Message)

	metrics := cache.Validator().Metrics().GetSnapshot()
	assert.Equal(t, 1, metrics.CacheMisses)
	assert.Equal(t, 1, metrics.CacheHits)
	assert.Equal(t, 1, metrics.Runs)
	assert.InDelta(t, 0.5, cache.Validator().Metrics().GetCacheHitRatio(), 0.001)

	cache.Invalidate(first.Fingerprint)
	cache.Validate(nodes, edges)
	assert.Equal(t, 2, cache.Validator().Metrics().GetSnapshot().Runs)
}

func TestValidationCacheDefaults(t *testing.T) {
	cache, err := NewValidationCache(nil, 0, 0, nil)
	require.NoError(t, err)
	defer cache.Close()

	doc := GetSampleWorkflowDocument()
	report := cache.Validate(doc.Nodes, doc.Edges)
	assert.False(t, report.HasErrors())
	assert.NotNil(t, report.Findings)
	assert.NotNil(t, cache.Validator())
}

package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"approval-flow/shared"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap/zaptest"
)

func TestDocumentCodecRoundTrip(t *testing.T) {
	codec, err := NewDocumentCodec()
	require.NoError(t, err)
	defer codec.Close()

	doc := testDocument("Hipoteca", time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC))
	data, err := codec.Encode(doc)
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Nodes, decoded.Nodes)
	assert.Equal(t, doc.Edges, decoded.Edges)
	assert.Equal(t, doc.Flags, decoded.Flags)
	assert.True(t, doc.Metadata.UpdatedAt.Equal(decoded.Metadata.UpdatedAt))
}

func TestDocumentCodecMigratesLegacyRecords(t *testing.T) {
	codec, err := NewDocumentCodec()
	require.NoError(t, err)
	defer codec.Close()

	legacy := map[string]interface{}{
		"metadata": map[string]interface{}{"name": "Antiguo"},
		"nodes": []interface{}{
			map[string]interface{}{"id": "c1", "type": "checkpoint", "title": "Recibido"},
			map[string]interface{}{"id": "s", "type": "Status", "title": "Estado", "config": map[string]interface{}{"status": "ok"}},
		},
		"edges": []interface{}{
			map[string]interface{}{"id": "e1", "from": "s", "to": "c1", "label": "Reintento"},
			map[string]interface{}{"id": "e2", "from": "c1", "to": "s"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(legacy))
	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	data := encoder.EncodeAll(buf.Bytes(), nil)
	encoder.Close()

	doc, err := codec.Decode(data)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, shared.CheckpointTypeNormal, doc.Nodes[0].CheckpointType)
	assert.Equal(t, shared.NodeTypeFlagChange, doc.Nodes[1].Type)
	assert.Equal(t, &shared.FlagChangeConfig{FlagChanges: []shared.FlagChangeEntry{}}, doc.Nodes[1].Config)
	assert.Equal(t, shared.EdgeKindRetry, doc.Edges[0].Kind)
	assert.Equal(t, shared.EdgeKindNormal, doc.Edges[1].Kind)
}

func TestDocumentCodecRejectsGarbage(t *testing.T) {
	codec, err := NewDocumentCodec()
	require.NoError(t, err)
	defer codec.Close()

	_, err = codec.Decode([]byte("not zstd"))
	assert.Error(t, err)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "documents.db")

	store, err := OpenSQLiteStore(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "doc", testDocument("Persistente", time.Time{})))
	require.NoError(t, store.Close())

	store, err = OpenSQLiteStore(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	doc, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "Persistente", doc.Metadata.Name)
	assert.True(t, doc.Metadata.UpdatedAt.IsZero())
}

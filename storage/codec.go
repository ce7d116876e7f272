package storage

import (
	"bytes"
	"fmt"

	"approval-flow/shared"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// DocumentCodec encodes documents as zstd-compressed msgpack. Field names follow the
// JSON tags so the stored layout matches exported documents. Decoding migrates legacy
// node types.
type DocumentCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewDocumentCodec creates a codec. The codec is safe for concurrent use.
func NewDocumentCodec() (*DocumentCodec, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &DocumentCodec{encoder: encoder, decoder: decoder}, nil
}

// Encode serializes and compresses a document
func (c *DocumentCodec) Encode(doc shared.WorkflowDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("msgpack encoding failed: %w", err)
	}
	return c.encoder.EncodeAll(buf.Bytes(), nil), nil
}

// Decode decompresses and deserializes a document
func (c *DocumentCodec) Decode(data []byte) (shared.WorkflowDocument, error) {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return shared.WorkflowDocument{}, fmt.Errorf("decompression failed: %w", err)
	}
	var doc shared.WorkflowDocument
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&doc); err != nil {
		return shared.WorkflowDocument{}, fmt.Errorf("msgpack decoding failed: %w", err)
	}
	return doc, nil
}

// Close releases the compressor resources
func (c *DocumentCodec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

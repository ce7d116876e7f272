// Package storage persists workflow documents.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"approval-flow/shared"
)

var (
	// ErrDocumentNotFound is returned when no document is stored under an id
	ErrDocumentNotFound = errors.New("workflow document not found")
	// ErrInvalidDocumentID is returned for blank ids
	ErrInvalidDocumentID = errors.New("invalid workflow document id")
)

// DocumentSummary describes a stored document without decoding its graph
type DocumentSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the persistence collaborator for workflow documents
type Store interface {
	Save(ctx context.Context, id string, doc shared.WorkflowDocument) error
	Load(ctx context.Context, id string) (shared.WorkflowDocument, error)
	List(ctx context.Context) ([]DocumentSummary, error)
	Delete(ctx context.Context, id string) error
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidDocumentID
	}
	return nil
}

func summarize(id string, doc shared.WorkflowDocument) DocumentSummary {
	return DocumentSummary{
		ID:        id,
		Name:      doc.Metadata.Name,
		Version:   doc.Metadata.Version,
		UpdatedAt: doc.Metadata.UpdatedAt,
	}
}

package storage

import (
	"context"
	"sort"
	"sync"

	"approval-flow/shared"
)

// MemoryStore keeps documents in process memory. Stored documents are deep copies, so
// callers may keep mutating what they saved.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]shared.WorkflowDocument
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]shared.WorkflowDocument)}
}

func (s *MemoryStore) Save(ctx context.Context, id string, doc shared.WorkflowDocument) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc.Clone()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (shared.WorkflowDocument, error) {
	if err := checkID(id); err != nil {
		return shared.WorkflowDocument{}, err
	}
	if err := ctx.Err(); err != nil {
		return shared.WorkflowDocument{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return shared.WorkflowDocument{}, ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

// List returns summaries ordered by most recent update first, then by id
func (s *MemoryStore) List(ctx context.Context) ([]DocumentSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	summaries := make([]DocumentSummary, 0, len(s.docs))
	for id, doc := range s.docs {
		summaries = append(summaries, summarize(id, doc))
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(s.docs, id)
	return nil
}

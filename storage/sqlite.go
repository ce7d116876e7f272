package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"approval-flow/shared"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists documents in a SQLite table as encoded blobs
type SQLiteStore struct {
	db     *sql.DB
	codec  *DocumentCodec
	logger *zap.Logger
}

// NewSQLiteStore wraps an open database. Call CreateTables before first use.
func NewSQLiteStore(db *sql.DB, codec *DocumentCodec, logger *zap.Logger) *SQLiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{db: db, codec: codec, logger: logger}
}

// OpenSQLiteStore opens (or creates) the database at path and prepares its schema.
// Use ":memory:" for a throwaway database.
func OpenSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	codec, err := NewDocumentCodec()
	if err != nil {
		db.Close()
		return nil, err
	}
	store := NewSQLiteStore(db, codec, logger)
	if err := store.CreateTables(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// CreateTables creates the document table if it does not exist
func (s *SQLiteStore) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS workflow_documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL,
			document BLOB NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_workflow_documents_updated_at ON workflow_documents (updated_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, doc shared.WorkflowDocument) error {
	if err := checkID(id); err != nil {
		return err
	}
	data, err := s.codec.Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %q: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO workflow_documents (id, name, version, updated_at, document)
		VALUES (?, ?, ?, ?, ?)
	`, id, doc.Metadata.Name, doc.Metadata.Version, toUnixNano(doc.Metadata.UpdatedAt), data)
	if err != nil {
		return fmt.Errorf("failed to save document %q: %w", id, err)
	}

	s.logger.Debug("Workflow document saved",
		zap.String("id", id),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("bytes", len(data)))
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (shared.WorkflowDocument, error) {
	if err := checkID(id); err != nil {
		return shared.WorkflowDocument{}, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM workflow_documents WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shared.WorkflowDocument{}, ErrDocumentNotFound
		}
		return shared.WorkflowDocument{}, fmt.Errorf("failed to load document %q: %w", id, err)
	}

	doc, err := s.codec.Decode(data)
	if err != nil {
		return shared.WorkflowDocument{}, fmt.Errorf("failed to decode document %q: %w", id, err)
	}
	return doc, nil
}

// List returns summaries ordered by most recent update first, then by id
func (s *SQLiteStore) List(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, version, updated_at
		FROM workflow_documents
		ORDER BY updated_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	summaries := make([]DocumentSummary, 0)
	for rows.Next() {
		var summary DocumentSummary
		var updatedAt int64
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Version, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		summary.UpdatedAt = fromUnixNano(updatedAt)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return summaries, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM workflow_documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %q: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Close closes the database and the codec
func (s *SQLiteStore) Close() error {
	s.codec.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// zero times are stored as 0 since their UnixNano is out of range
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/studybuddy/backend/internal/storage/models"
	"github.com/studybuddy/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		notebook_id TEXT NOT NULL,
		source_ref TEXT NOT NULL,
		title TEXT,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_notebook ON documents(notebook_id);

	CREATE TABLE IF NOT EXISTS conversation_turns (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		notebook_id TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_notebook ON conversation_turns(notebook_id, created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertDocument(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, notebook_id, source_ref, title, chunk_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.NotebookID,
		doc.SourceRef,
		doc.Title,
		doc.ChunkCount,
		doc.CreatedAt.UnixNano(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	logger.Debug("Document inserted",
		zap.String("doc_id", doc.ID),
		zap.String("notebook_id", doc.NotebookID),
	)
	return nil
}

func (c *Client) ListDocuments(ctx context.Context, notebookID string) ([]models.Document, error) {
	query := `
		SELECT id, notebook_id, source_ref, title, chunk_count, created_at
		FROM documents
		WHERE notebook_id = ?
		ORDER BY created_at ASC
	`

	rows, err := c.db.QueryContext(ctx, query, notebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		var createdAt int64

		err := rows.Scan(&d.ID, &d.NotebookID, &d.SourceRef, &d.Title, &d.ChunkCount, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		d.CreatedAt = time.Unix(0, createdAt)
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

// AppendTurn persists one conversation turn. The result is checked at
// every call site: a failed append of the user turn aborts the query
// before any model call is made.
func (c *Client) AppendTurn(ctx context.Context, turn *models.ConversationTurn) error {
	query := `
		INSERT INTO conversation_turns (id, notebook_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := c.db.ExecContext(
		ctx,
		query,
		turn.ID,
		turn.NotebookID,
		turn.Role,
		turn.Content,
		turn.CreatedAt.UnixNano(),
	)

	if err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}

	if seq, err := res.LastInsertId(); err == nil {
		turn.Seq = seq
	}

	logger.Debug("Conversation turn appended",
		zap.String("notebook_id", turn.NotebookID),
		zap.String("role", turn.Role),
	)
	return nil
}

// ListTurns returns every turn for a notebook in creation order,
// earliest first. Orphaned user turns (no matching assistant turn after
// a failed generation) are returned as-is.
func (c *Client) ListTurns(ctx context.Context, notebookID string) ([]models.ConversationTurn, error) {
	query := `
		SELECT seq, id, notebook_id, role, content, created_at
		FROM conversation_turns
		WHERE notebook_id = ?
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := c.db.QueryContext(ctx, query, notebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		var createdAt int64

		err := rows.Scan(&t.Seq, &t.ID, &t.NotebookID, &t.Role, &t.Content, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		t.CreatedAt = time.Unix(0, createdAt)
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

package models

import "time"

// Document is the metadata row for one ingested upload. The row is
// written once at the end of ingestion and never updated; re-ingesting
// the same source ref creates a new Document with a new chunk set.
type Document struct {
	ID         string
	NotebookID string
	SourceRef  string
	Title      string
	ChunkCount int
	CreatedAt  time.Time
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one append-only chat message scoped to a notebook.
// Turns are totally ordered by (created_at, seq); Seq is assigned by the
// store and breaks ties between turns written in the same instant.
type ConversationTurn struct {
	ID         string
	Seq        int64
	NotebookID string
	Role       string
	Content    string
	CreatedAt  time.Time
}

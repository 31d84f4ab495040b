// Package store provides storage backends for SalesPipe conversation state.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/vendalab/salespipe/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetConversationState retrieves a conversation state record by contact ID.
func (s *SQLiteStore) GetConversationState(contactID string) (*models.ConversationState, error) {
	row := s.db.QueryRow(`SELECT contact_id, phase, lifecycle, message_count, segment,
		qualification_score, has_scheduled, collected_fields, activated_triggers,
		enforcement_history, asked_questions, started_at, last_message_at
		FROM conversation_states WHERE contact_id = ?`, contactID)

	var state models.ConversationState
	var segment sql.NullString
	var fields, triggers, history, questions []byte
	err := row.Scan(&state.ContactID, &state.Phase, &state.Lifecycle, &state.MessageCount,
		&segment, &state.QualificationScore, &state.HasScheduled,
		&fields, &triggers, &history, &questions, &state.StartedAt, &state.LastMessageAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetConversationState not found", "contactID", contactID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConversationState failed", "error", err, "contactID", contactID)
		return nil, fmt.Errorf("failed to query conversation state for %s: %w", contactID, err)
	}
	state.Segment = segment.String
	if err := unmarshalStateJSON(&state, fields, triggers, history, questions); err != nil {
		slog.Error("SQLiteStore GetConversationState JSON unmarshal failed", "error", err, "contactID", contactID)
		return nil, err
	}
	slog.Debug("SQLiteStore GetConversationState found", "contactID", contactID, "phase", state.Phase)
	return &state, nil
}

// SaveConversationState inserts or replaces a conversation state record.
func (s *SQLiteStore) SaveConversationState(state models.ConversationState) error {
	fields, triggers, history, questions, err := marshalStateJSON(state)
	if err != nil {
		slog.Error("SQLiteStore SaveConversationState marshal failed", "error", err, "contactID", state.ContactID)
		return err
	}
	_, err = s.db.Exec(`INSERT INTO conversation_states
		(contact_id, phase, lifecycle, message_count, segment, qualification_score,
		 has_scheduled, collected_fields, activated_triggers, enforcement_history,
		 asked_questions, started_at, last_message_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(contact_id) DO UPDATE SET
		 phase = excluded.phase,
		 lifecycle = excluded.lifecycle,
		 message_count = excluded.message_count,
		 segment = excluded.segment,
		 qualification_score = excluded.qualification_score,
		 has_scheduled = excluded.has_scheduled,
		 collected_fields = excluded.collected_fields,
		 activated_triggers = excluded.activated_triggers,
		 enforcement_history = excluded.enforcement_history,
		 asked_questions = excluded.asked_questions,
		 last_message_at = excluded.last_message_at,
		 updated_at = CURRENT_TIMESTAMP`,
		state.ContactID, state.Phase, state.Lifecycle, state.MessageCount,
		nilIfEmpty(state.Segment), state.QualificationScore, state.HasScheduled,
		string(fields), string(triggers), string(history), string(questions),
		state.StartedAt, state.LastMessageAt)
	if err != nil {
		slog.Error("SQLiteStore SaveConversationState failed", "error", err, "contactID", state.ContactID)
		return fmt.Errorf("failed to save conversation state for %s: %w", state.ContactID, err)
	}
	slog.Debug("SQLiteStore SaveConversationState succeeded", "contactID", state.ContactID, "phase", state.Phase)
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Package store provides storage backends for SalesPipe conversation state.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/vendalab/salespipe/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// GetConversationState retrieves a conversation state record by contact ID.
func (s *PostgresStore) GetConversationState(contactID string) (*models.ConversationState, error) {
	row := s.db.QueryRow(`SELECT contact_id, phase, lifecycle, message_count, segment,
		qualification_score, has_scheduled, collected_fields, activated_triggers,
		enforcement_history, asked_questions, started_at, last_message_at
		FROM conversation_states WHERE contact_id = $1`, contactID)

	var state models.ConversationState
	var segment sql.NullString
	var fields, triggers, history, questions []byte
	err := row.Scan(&state.ContactID, &state.Phase, &state.Lifecycle, &state.MessageCount,
		&segment, &state.QualificationScore, &state.HasScheduled,
		&fields, &triggers, &history, &questions, &state.StartedAt, &state.LastMessageAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetConversationState not found", "contactID", contactID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConversationState failed", "error", err, "contactID", contactID)
		return nil, fmt.Errorf("failed to query conversation state for %s: %w", contactID, err)
	}
	state.Segment = segment.String
	if err := unmarshalStateJSON(&state, fields, triggers, history, questions); err != nil {
		slog.Error("PostgresStore GetConversationState JSON unmarshal failed", "error", err, "contactID", contactID)
		return nil, err
	}
	slog.Debug("PostgresStore GetConversationState found", "contactID", contactID, "phase", state.Phase)
	return &state, nil
}

// SaveConversationState upserts a conversation state record.
func (s *PostgresStore) SaveConversationState(state models.ConversationState) error {
	fields, triggers, history, questions, err := marshalStateJSON(state)
	if err != nil {
		slog.Error("PostgresStore SaveConversationState marshal failed", "error", err, "contactID", state.ContactID)
		return err
	}
	_, err = s.db.Exec(`INSERT INTO conversation_states
		(contact_id, phase, lifecycle, message_count, segment, qualification_score,
		 has_scheduled, collected_fields, activated_triggers, enforcement_history,
		 asked_questions, started_at, last_message_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (contact_id) DO UPDATE SET
		 phase = EXCLUDED.phase,
		 lifecycle = EXCLUDED.lifecycle,
		 message_count = EXCLUDED.message_count,
		 segment = EXCLUDED.segment,
		 qualification_score = EXCLUDED.qualification_score,
		 has_scheduled = EXCLUDED.has_scheduled,
		 collected_fields = EXCLUDED.collected_fields,
		 activated_triggers = EXCLUDED.activated_triggers,
		 enforcement_history = EXCLUDED.enforcement_history,
		 asked_questions = EXCLUDED.asked_questions,
		 last_message_at = EXCLUDED.last_message_at,
		 updated_at = NOW()`,
		state.ContactID, state.Phase, state.Lifecycle, state.MessageCount,
		nilIfEmpty(state.Segment), state.QualificationScore, state.HasScheduled,
		string(fields), string(triggers), string(history), string(questions),
		state.StartedAt, state.LastMessageAt)
	if err != nil {
		slog.Error("PostgresStore SaveConversationState failed", "error", err, "contactID", state.ContactID)
		return fmt.Errorf("failed to save conversation state for %s: %w", state.ContactID, err)
	}
	slog.Debug("PostgresStore SaveConversationState succeeded", "contactID", state.ContactID, "phase", state.Phase)
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Package store provides storage backends for SalesPipe conversation state.
//
// It includes an in-memory store used by tests and as the degraded
// fallback, plus SQLite and PostgreSQL implementations.
package store

import (
	"strings"
	"sync"

	"github.com/vendalab/salespipe/internal/models"
)

// Store defines the persistence contract for per-contact conversation state.
type Store interface {
	// GetConversationState returns the state for a contact, or (nil, nil)
	// when no record exists.
	GetConversationState(contactID string) (*models.ConversationState, error)

	// SaveConversationState inserts or replaces the state record.
	SaveConversationState(state models.ConversationState) error

	// Close releases any underlying resources.
	Close() error
}

// Opts holds configuration for store construction.
type Opts struct {
	DSN    string
	Driver string
}

// Option configures store construction.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite file path DSN.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "sqlite3"
	}
}

// WithPostgresDSN sets a PostgreSQL connection DSN.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "postgres"
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite".
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a mutex-guarded map store. It backs tests and the
// degraded mode entered after a persistent-store fault.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]models.ConversationState
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]models.ConversationState)}
}

// GetConversationState returns a deep copy so callers can mutate freely.
func (s *InMemoryStore) GetConversationState(contactID string) (*models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[contactID]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

// SaveConversationState stores a deep copy of the state.
func (s *InMemoryStore) SaveConversationState(state models.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ContactID] = *state.Clone()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

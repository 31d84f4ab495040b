// Package flow: conversation state management over a Store backend.
package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/vendalab/salespipe/internal/models"
	"github.com/vendalab/salespipe/internal/store"
)

// InteractionSignals summarizes one turn for the coarse lifecycle
// progression. This progression is analytics-only and independent from the
// sales phase.
type InteractionSignals struct {
	Interest      bool
	Qualification bool
	Conversion    bool
}

// StateManager loads and persists per-contact conversation state. Storage
// faults never propagate: the caller always gets a usable state, possibly a
// degraded in-memory default.
type StateManager struct {
	store store.Store
}

// NewStateManager creates a StateManager backed by a Store.
func NewStateManager(st store.Store) *StateManager {
	slog.Debug("Creating StateManager")
	return &StateManager{store: st}
}

// GetState retrieves the state for a contact, creating and persisting a
// default record when none exists. On storage failure it returns a fresh
// in-memory default flagged as degraded so the conversation can continue.
func (m *StateManager) GetState(ctx context.Context, contactID string, now time.Time) *models.ConversationState {
	slog.Debug("StateManager.GetState", "contactID", contactID)

	state, err := m.store.GetConversationState(contactID)
	if err != nil {
		slog.Error("StateManager.GetState: storage fault, continuing degraded", "error", err, "contactID", contactID)
		degraded := models.NewConversationState(contactID, now)
		degraded.Degraded = true
		return degraded
	}
	if state != nil {
		return state
	}

	state = models.NewConversationState(contactID, now)
	if err := m.store.SaveConversationState(*state); err != nil {
		slog.Error("StateManager.GetState: failed to persist new state", "error", err, "contactID", contactID)
		state.Degraded = true
	}
	slog.Debug("StateManager.GetState: created default state", "contactID", contactID)
	return state
}

// UpdateState persists the state. Failures are logged, never returned; a
// degraded state skips persistence entirely.
func (m *StateManager) UpdateState(ctx context.Context, state *models.ConversationState) {
	if state.Degraded {
		slog.Debug("StateManager.UpdateState: skipping persist of degraded state", "contactID", state.ContactID)
		return
	}
	if err := m.store.SaveConversationState(*state); err != nil {
		slog.Error("StateManager.UpdateState: storage fault", "error", err, "contactID", state.ContactID)
	}
}

// RecordInteraction advances the coarse lifecycle one step per turn:
// NEW→INTRODUCED always, then ENGAGED on interest, QUALIFIED on
// qualification, CONVERTED on conversion.
func (m *StateManager) RecordInteraction(ctx context.Context, state *models.ConversationState, signals InteractionSignals) {
	before := state.Lifecycle
	switch state.Lifecycle {
	case models.LifecycleNew, "":
		state.Lifecycle = models.LifecycleIntroduced
	case models.LifecycleIntroduced:
		if signals.Interest {
			state.Lifecycle = models.LifecycleEngaged
		}
	case models.LifecycleEngaged:
		if signals.Qualification {
			state.Lifecycle = models.LifecycleQualified
		}
	case models.LifecycleQualified:
		if signals.Conversion {
			state.Lifecycle = models.LifecycleConverted
		}
	}
	if state.Lifecycle != before {
		slog.Debug("StateManager.RecordInteraction: lifecycle advanced", "contactID", state.ContactID, "from", before, "to", state.Lifecycle)
	}
}

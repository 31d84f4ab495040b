package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/vendalab/salespipe/internal/models"
	"github.com/vendalab/salespipe/internal/store"
)

// faultyStore fails every operation, simulating a broken backend.
type faultyStore struct{}

func (faultyStore) GetConversationState(contactID string) (*models.ConversationState, error) {
	return nil, errors.New("backend unavailable")
}
func (faultyStore) SaveConversationState(state models.ConversationState) error {
	return errors.New("backend unavailable")
}
func (faultyStore) Close() error { return nil }

func TestGetStateCreatesDefault(t *testing.T) {
	st := store.NewInMemoryStore()
	m := NewStateManager(st)
	ctx := context.Background()

	s := m.GetState(ctx, "contact-1", testNow)
	if s.Phase != models.PhaseFirstContact || s.Lifecycle != models.LifecycleNew {
		t.Fatalf("default state: phase %s lifecycle %s", s.Phase, s.Lifecycle)
	}
	if s.Degraded {
		t.Error("healthy backend produced a degraded state")
	}

	// The default must have been persisted.
	persisted, err := st.GetConversationState("contact-1")
	if err != nil || persisted == nil {
		t.Fatalf("default not persisted: %v %v", persisted, err)
	}
}

func TestGetStateRoundTrip(t *testing.T) {
	st := store.NewInMemoryStore()
	m := NewStateManager(st)
	ctx := context.Background()

	s := m.GetState(ctx, "contact-1", testNow)
	s.Phase = models.PhaseDiscovery
	s.MessageCount = 4
	s.AddTrigger("apresentacao_respondida")
	m.UpdateState(ctx, s)

	loaded := m.GetState(ctx, "contact-1", testNow)
	if loaded.Phase != models.PhaseDiscovery || loaded.MessageCount != 4 {
		t.Errorf("loaded state: %+v", loaded)
	}
	if !loaded.HasTrigger("apresentacao_respondida") {
		t.Error("trigger lost on round trip")
	}
}

func TestGetStateDegradesOnStorageFault(t *testing.T) {
	m := NewStateManager(faultyStore{})
	ctx := context.Background()

	s := m.GetState(ctx, "contact-1", testNow)
	if s == nil {
		t.Fatal("storage fault returned nil state")
	}
	if !s.Degraded {
		t.Error("fault state not flagged degraded")
	}
	if s.Phase != models.PhaseFirstContact {
		t.Errorf("degraded phase = %s", s.Phase)
	}

	// UpdateState on a degraded state must be a no-op, not a panic or an
	// error surfaced to the caller.
	m.UpdateState(ctx, s)
}

func TestLifecycleProgression(t *testing.T) {
	m := NewStateManager(store.NewInMemoryStore())
	ctx := context.Background()
	s := models.NewConversationState("contact-1", testNow)

	steps := []struct {
		signals InteractionSignals
		want    models.Lifecycle
	}{
		{InteractionSignals{}, models.LifecycleIntroduced},
		{InteractionSignals{}, models.LifecycleIntroduced},
		{InteractionSignals{Interest: true}, models.LifecycleEngaged},
		{InteractionSignals{Interest: true}, models.LifecycleEngaged},
		{InteractionSignals{Qualification: true}, models.LifecycleQualified},
		{InteractionSignals{Interest: true}, models.LifecycleQualified},
		{InteractionSignals{Conversion: true}, models.LifecycleConverted},
		{InteractionSignals{Conversion: true}, models.LifecycleConverted},
	}
	for i, step := range steps {
		m.RecordInteraction(ctx, s, step.signals)
		if s.Lifecycle != step.want {
			t.Fatalf("step %d: lifecycle = %s, want %s", i, s.Lifecycle, step.want)
		}
	}
}

func TestLifecycleAdvancesAtMostOneStepPerTurn(t *testing.T) {
	m := NewStateManager(store.NewInMemoryStore())
	ctx := context.Background()
	s := models.NewConversationState("contact-1", testNow)

	// All signals at once still moves a single step.
	m.RecordInteraction(ctx, s, InteractionSignals{Interest: true, Qualification: true, Conversion: true})
	if s.Lifecycle != models.LifecycleIntroduced {
		t.Errorf("lifecycle = %s, want %s", s.Lifecycle, models.LifecycleIntroduced)
	}
}

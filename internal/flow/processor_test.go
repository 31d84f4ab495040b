package flow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vendalab/salespipe/internal/models"
	"github.com/vendalab/salespipe/internal/store"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	p := NewProcessor(store.NewInMemoryStore())
	clock := testNow
	p.SetClock(func() time.Time { return clock })
	return p
}

func turn(contactID, text string) models.TurnInput {
	return models.TurnInput{ContactID: contactID, InboundText: text}
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	if _, err := p.Process(ctx, turn("", "oi")); err != models.ErrEmptyContactID {
		t.Errorf("empty contact: err = %v", err)
	}
	if _, err := p.Process(ctx, turn("contact-1", "")); err != models.ErrEmptyInboundText {
		t.Errorf("empty text: err = %v", err)
	}
}

func TestProcessFirstTurn(t *testing.T) {
	p := newTestProcessor(t)
	d, err := p.Process(context.Background(), turn("contact-1", "Oi, tudo bem? Tenho uma clínica"))
	if err != nil {
		t.Fatal(err)
	}
	if d.ID == "" || d.ContactID != "contact-1" {
		t.Fatalf("decision identity: %+v", d)
	}
	if d.Phase != models.PhaseFirstContact {
		t.Errorf("phase = %s", d.Phase)
	}
	if d.Meeting.Type != models.MeetingNoAccept || d.Meeting.Reason != models.MeetingReasonNoPendingOffer {
		t.Errorf("meeting verdict = %+v", d.Meeting)
	}
	if d.DNC.Type != models.DNCNone {
		t.Errorf("dnc verdict = %+v", d.DNC)
	}
}

func TestTriggersAccumulateAcrossTurns(t *testing.T) {
	// Triggers are monotonic across the whole conversation: later turns
	// never remove what earlier turns activated.
	p := newTestProcessor(t)
	ctx := context.Background()

	if _, err := p.Process(ctx, turn("contact-1", "Oi, bom dia! Tenho uma clínica")); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Process(ctx, turn("contact-1", "hoje uso planilha pra tudo")); err != nil {
		t.Fatal(err)
	}

	s := p.states.GetState(ctx, "contact-1", p.now())
	if !s.HasTrigger("apresentacao_respondida") {
		t.Errorf("first-turn trigger lost, triggers = %v", s.ActivatedTriggers)
	}
	if s.MessageCount != 2 {
		t.Errorf("message count = %d", s.MessageCount)
	}
}

func TestMeetingAcceptUpdatesState(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	p.RecordOutbound("contact-1", "Podemos agendar uma reunião essa semana?")
	d, err := p.Process(ctx, turn("contact-1", "pode ser sim, quinta às 15h"))
	if err != nil {
		t.Fatal(err)
	}
	if d.Meeting.Type != models.MeetingAccept {
		t.Fatalf("meeting verdict = %+v", d.Meeting)
	}

	s := p.states.GetState(ctx, "contact-1", p.now())
	if !s.HasScheduled {
		t.Error("HasScheduled not set after acceptance")
	}
	if !s.HasTrigger("reuniao_confirmada") {
		t.Error("scheduling trigger not activated after acceptance")
	}
}

func TestPriorOutboundArmsOfferTracker(t *testing.T) {
	p := newTestProcessor(t)
	in := models.TurnInput{
		ContactID:         "contact-1",
		InboundText:       "pode ser sim, quinta às 15h",
		PriorOutboundText: "Que tal marcarmos uma conversa rápida?",
	}
	d, err := p.Process(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if d.Meeting.Type != models.MeetingAccept {
		t.Errorf("meeting verdict = %+v", d.Meeting)
	}
}

func TestCommercialTurnNeverRoutesToLLM(t *testing.T) {
	p := newTestProcessor(t)
	d, err := p.Process(context.Background(), turn("contact-1", "quanto custa o plano de vocês?"))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Analysis.CommercialContext && !d.Analysis.CommercialIntent && !d.Analysis.IsSalesQuestion {
		t.Fatalf("expected a commercial analysis, got %+v", d.Analysis)
	}
	if d.Strategy.Strategy == models.StrategyLLM {
		t.Error("commercial turn routed to LLM")
	}
}

func TestSegmentPropagatesToState(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()
	if _, err := p.Process(ctx, turn("contact-1", "oi! aqui é de uma clínica odontológica")); err != nil {
		t.Fatal(err)
	}
	s := p.states.GetState(ctx, "contact-1", p.now())
	if s.Segment == "" {
		t.Error("segment not persisted from analysis")
	}
}

func TestQualificationScoreGrowsWithFields(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	if _, err := p.Process(ctx, turn("contact-1", "oi, bom dia")); err != nil {
		t.Fatal(err)
	}
	before := p.states.GetState(ctx, "contact-1", p.now()).QualificationScore

	if _, err := p.Process(ctx, turn("contact-1", "tenho uma clínica")); err != nil {
		t.Fatal(err)
	}
	after := p.states.GetState(ctx, "contact-1", p.now()).QualificationScore
	if after <= before {
		t.Errorf("score did not grow: %d -> %d", before, after)
	}
	if after > models.MaxQualificationScore {
		t.Errorf("score out of range: %d", after)
	}
}

func TestConcurrentTurnsSameContact(t *testing.T) {
	// Per-contact serialization: N concurrent turns must all be counted.
	p := newTestProcessor(t)
	ctx := context.Background()
	const turns = 20

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Process(ctx, turn("contact-1", "estamos com um problema no processo")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	s := p.states.GetState(ctx, "contact-1", p.now())
	if s.MessageCount != turns {
		t.Errorf("message count = %d, want %d", s.MessageCount, turns)
	}
}

func TestContactLocksArePrunedAfterTurns(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		contactID := "contact-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		if _, err := p.Process(ctx, turn(contactID, "oi, tudo bem?")); err != nil {
			t.Fatal(err)
		}
	}

	p.mu.Lock()
	remaining := len(p.locks)
	p.mu.Unlock()
	if remaining != 0 {
		t.Errorf("lock map holds %d entries after all turns finished, want 0", remaining)
	}
}

func TestOptOutFlowThroughProcessor(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	p.RecordOutbound("contact-1", "Se não quiser mais receber, é só me avisar")
	d, err := p.Process(ctx, turn("contact-1", "pode me remover da lista, por favor"))
	if err != nil {
		t.Fatal(err)
	}
	if d.DNC.Type != models.DNCDoNotContact {
		t.Errorf("dnc verdict = %+v", d.DNC)
	}
	if d.DNC.Action != models.DNCActionRemove {
		t.Errorf("dnc action = %s", d.DNC.Action)
	}
}

package strategy

import (
	"testing"
	"time"

	"github.com/vendalab/salespipe/internal/models"
)

func stateInPhase(phase models.Phase, messages int) *models.ConversationState {
	s := models.NewConversationState("contact-1", time.Now())
	s.Phase = phase
	s.MessageCount = messages
	return s
}

func TestCommercialContextWinsStructuredFlow(t *testing.T) {
	r := NewRouter()
	d := r.Route(Input{
		Analysis: models.TurnAnalysis{CommercialContext: true},
		State:    stateInPhase(models.PhaseDiscovery, 4),
	})
	if d.Strategy != models.StrategyStructuredFlow {
		t.Fatalf("strategy = %s, want %s", d.Strategy, models.StrategyStructuredFlow)
	}
	if d.Scores[models.StrategyStructuredFlow] < 100 {
		t.Errorf("structured flow score = %d, want >= 100", d.Scores[models.StrategyStructuredFlow])
	}
}

func TestLLMNeverWinsCommercialTurn(t *testing.T) {
	// Strong LLM signals plus any commercial flag must still pick a
	// non-LLM strategy.
	cases := []models.TurnAnalysis{
		{Sentiment: -0.9, EmpathyCues: true, CommercialContext: true},
		{Sentiment: -0.9, EmpathyCues: true, CommercialIntent: true},
		{Sentiment: -0.9, EmpathyCues: true, IsSalesQuestion: true},
	}
	r := NewRouter()
	for _, a := range cases {
		d := r.Route(Input{Analysis: a, State: stateInPhase(models.PhaseDiscovery, 4)})
		if d.Strategy == models.StrategyLLM {
			t.Errorf("analysis %+v routed to LLM", a)
		}
		if d.Scores[models.StrategyLLM] != 0 {
			t.Errorf("analysis %+v: LLM score = %d, want 0", a, d.Scores[models.StrategyLLM])
		}
	}
}

func TestLLMWinsUnknownVeryNegativeTurn(t *testing.T) {
	r := NewRouter()
	d := r.Route(Input{
		Analysis: models.TurnAnalysis{Sentiment: -0.9, EmpathyCues: true},
		State: func() *models.ConversationState {
			s := stateInPhase(models.PhaseObjectionHandling, 10)
			return s
		}(),
	})
	if d.Strategy != models.StrategyLLM {
		t.Fatalf("strategy = %s, want %s (scores %v)", d.Strategy, models.StrategyLLM, d.Scores)
	}
}

func TestTieBreakFollowsPriorityOrder(t *testing.T) {
	// opt_out_phrasing gives ARCHETYPE 100; commercial_context gives
	// STRUCTURED_FLOW 100. A tie must resolve to STRUCTURED_FLOW.
	r := NewRouter()
	d := r.Route(Input{
		Analysis: models.TurnAnalysis{CommercialContext: true, IsOptOutPhrase: true},
	})
	if d.Scores[models.StrategyStructuredFlow] != d.Scores[models.StrategyArchetype] {
		t.Fatalf("expected a tie, got scores %v", d.Scores)
	}
	if d.Strategy != models.StrategyStructuredFlow {
		t.Errorf("tie resolved to %s, want %s", d.Strategy, models.StrategyStructuredFlow)
	}
}

func TestConfidenceFloor(t *testing.T) {
	r := NewRouter()
	d := r.Route(Input{Analysis: models.TurnAnalysis{Sentiment: -0.5}})
	if d.Confidence < confidenceFloor {
		t.Errorf("confidence = %.2f, want >= %.2f", d.Confidence, confidenceFloor)
	}
}

func TestConfidenceScalesWithScore(t *testing.T) {
	r := NewRouter()
	d := r.Route(Input{
		Analysis: models.TurnAnalysis{CommercialContext: true, IsSalesQuestion: true},
		State:    stateInPhase(models.PhaseDiscovery, 4),
	})
	want := float64(d.Scores[d.Strategy]) / 100
	if want > 1 {
		want = 1
	}
	if d.Confidence != want {
		t.Errorf("confidence = %.2f, want %.2f", d.Confidence, want)
	}
}

func TestMidConversationBounds(t *testing.T) {
	r := NewRouter()
	for _, tc := range []struct {
		messages int
		want     bool
	}{
		{2, false},
		{3, true},
		{7, true},
		{8, false},
	} {
		s := stateInPhase(models.PhaseObjectionHandling, tc.messages)
		d := r.Route(Input{Analysis: models.TurnAnalysis{IsObjection: true}, State: s})
		base := 70 // objection
		got := d.Scores[models.StrategyHybrid] > base
		if got != tc.want {
			t.Errorf("messages=%d: mid_conversation applied=%v, want %v", tc.messages, got, tc.want)
		}
	}
}

func TestFallbackChain(t *testing.T) {
	for _, tc := range []struct {
		from models.Strategy
		want []models.Strategy
	}{
		{models.StrategyLLM, []models.Strategy{models.StrategyLLM, models.StrategyHybrid, models.StrategyArchetype, models.StrategyStructuredFlow}},
		{models.StrategyHybrid, []models.Strategy{models.StrategyHybrid, models.StrategyArchetype, models.StrategyStructuredFlow}},
		{models.StrategyArchetype, []models.Strategy{models.StrategyArchetype, models.StrategyStructuredFlow}},
		{models.StrategyStructuredFlow, []models.Strategy{models.StrategyStructuredFlow}},
	} {
		got := FallbackChain(tc.from)
		if len(got) != len(tc.want) {
			t.Fatalf("FallbackChain(%s) = %v, want %v", tc.from, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("FallbackChain(%s)[%d] = %s, want %s", tc.from, i, got[i], tc.want[i])
			}
		}
	}
}

func TestJustificationNamesRules(t *testing.T) {
	r := NewRouter()
	d := r.Route(Input{Analysis: models.TurnAnalysis{CommercialContext: true}})
	if d.Justification == "" {
		t.Fatal("empty justification")
	}
}

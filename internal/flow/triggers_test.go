package flow

import (
	"testing"

	"github.com/vendalab/salespipe/internal/models"
)

func TestScanMessageActivatesPhaseTrigger(t *testing.T) {
	s := models.NewConversationState("contact-1", testNow)
	s.Phase = models.PhaseDiscovery

	activated := ScanMessage(s, "Nosso maior problema é o gargalo no atendimento", testNow)
	if len(activated) != 1 || activated[0] != "dor_confirmada" {
		t.Fatalf("activated = %v", activated)
	}
	if !s.HasTrigger("dor_confirmada") {
		t.Error("trigger not recorded on state")
	}
}

func TestScanMessageIgnoresOtherPhaseRules(t *testing.T) {
	s := models.NewConversationState("contact-1", testNow)
	s.Phase = models.PhaseFirstContact

	// Scheduling vocabulary must not activate anything outside SCHEDULING.
	activated := ScanMessage(s, "confirmado, fechado", testNow)
	if len(activated) != 0 {
		t.Errorf("activated = %v, want none", activated)
	}
}

func TestScanMessageIsIdempotentPerTrigger(t *testing.T) {
	s := models.NewConversationState("contact-1", testNow)
	s.Phase = models.PhaseDiscovery

	first := ScanMessage(s, "temos um problema sério", testNow)
	second := ScanMessage(s, "esse problema se repete", testNow)
	if len(first) != 1 || len(second) != 0 {
		t.Errorf("first = %v, second = %v", first, second)
	}
	if len(s.ActivatedTriggers) != 1 {
		t.Errorf("triggers = %v", s.ActivatedTriggers)
	}
}

func TestFieldCuesFillAbsentFieldsOnly(t *testing.T) {
	s := models.NewConversationState("contact-1", testNow)
	s.Phase = models.PhaseQualification
	s.SetField("autoridade", "confirmada_antes", testNow)

	ScanMessage(s, "sou o dono, e já temos orçamento separado pra isso", testNow)

	if got := s.CollectedFields["autoridade"].Value; got != "confirmada_antes" {
		t.Errorf("autoridade overwritten to %q", got)
	}
	if !s.HasField("orcamento_indicado") {
		t.Error("orcamento_indicado cue not collected")
	}
}

func TestFieldCuesRespectPhase(t *testing.T) {
	s := models.NewConversationState("contact-1", testNow)
	s.Phase = models.PhaseFirstContact

	ScanMessage(s, "sou o dono e quero investir", testNow)
	if s.HasField("autoridade") || s.HasField("orcamento_indicado") {
		t.Errorf("qualification cues collected in first contact: %v", s.CollectedFields)
	}
}

func TestShortGreetingsMatchWholeWordsOnly(t *testing.T) {
	s := models.NewConversationState("contact-1", testNow)
	s.Phase = models.PhaseFirstContact

	// "depois" contains "oi" and "vendedor" contains "dor"; neither is a
	// greeting nor a pain signal.
	if activated := ScanMessage(s, "depois te respondo", testNow); len(activated) != 0 {
		t.Errorf("substring greeting fired: %v", activated)
	}

	if activated := ScanMessage(s, "opa, tudo certo?", testNow); len(activated) != 1 || activated[0] != "apresentacao_respondida" {
		t.Errorf("standalone greeting should fire: %v", activated)
	}

	s2 := models.NewConversationState("contact-2", testNow)
	s2.Phase = models.PhaseDiscovery
	if activated := ScanMessage(s2, "nossos vendedores batem meta", testNow); len(activated) != 0 {
		t.Errorf("pain trigger fired inside vendedor: %v", activated)
	}
	if s2.HasField("dor_identificada") {
		t.Error("dor cue collected from vendedor")
	}
}

func TestScanMessageCaseInsensitive(t *testing.T) {
	s := models.NewConversationState("contact-1", testNow)
	s.Phase = models.PhaseScheduling

	activated := ScanMessage(s, "CONFIRMADO!", testNow)
	if len(activated) != 1 || activated[0] != "reuniao_confirmada" {
		t.Errorf("activated = %v", activated)
	}
}

package classify

import (
	"testing"
	"time"

	"github.com/vendalab/salespipe/internal/models"
)

func newDNCFixture(t *testing.T) (*DNCClassifier, *OfferStore) {
	t.Helper()
	offers := NewOfferStore()
	return NewDNCClassifier(offers), offers
}

func TestGuardBlockerPrecedence(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR para não receber mais", t0)

	// Matches both a guard (meeting cancellation) and positive stop
	// phrasing; the guard always wins.
	v := c.Classify("c1", "quero cancelar a reunião, pare tudo", t0.Add(time.Minute))
	if v.Type != models.DNCNone || v.Reason != models.DNCReasonGuardBlocker {
		t.Errorf("guard must win: got %s(%s)", v.Type, v.Reason)
	}
}

func TestNearMissWordsBlocked(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "quero comparar os planos antes", t0.Add(time.Minute))
	if v.Type != models.DNCNone || v.Reason != models.DNCReasonGuardBlocker {
		t.Errorf("near-miss verb must be blocked: got %s(%s)", v.Type, v.Reason)
	}
}

func TestProductCancellationBlockedWithoutChannel(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "quero cancelar a assinatura do serviço", t0.Add(time.Minute))
	if v.Type != models.DNCNone || v.Reason != models.DNCReasonGuardBlocker {
		t.Errorf("product cancellation must be blocked: got %s(%s)", v.Type, v.Reason)
	}
}

func TestNoContextWithoutOfferOrStrongIntent(t *testing.T) {
	c, _ := newDNCFixture(t)
	v := c.Classify("c1", "hoje não vai dar", time.Now())
	if v.Type != models.DNCNone || v.Reason != models.DNCReasonNoContext {
		t.Errorf("expected NO_DNC(no_context), got %s(%s)", v.Type, v.Reason)
	}
}

func TestStandaloneStrongIntentPath(t *testing.T) {
	c, _ := newDNCFixture(t)
	// No outstanding offer at all.
	v := c.Classify("c1", "pare de me mandar mensagem, chega de spam", time.Now())
	if v.Type != models.DNCDoNotContact {
		t.Fatalf("expected DO_NOT_CONTACT, got %s(%s)", v.Type, v.Reason)
	}
	if v.Action != models.DNCActionRemove || v.TemplateKey != TemplateRemovalAck {
		t.Errorf("removal verdict must carry action and template, got %s/%s", v.Action, v.TemplateKey)
	}
}

func TestOfferExpiryYieldsNoContext(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "pode parar por enquanto", t0.Add(25*time.Hour))
	if v.Type != models.DNCNone || v.Reason != models.DNCReasonNoContext {
		t.Errorf("expired DNC offer should yield NO_DNC(no_context), got %s(%s)", v.Type, v.Reason)
	}
}

func TestTemporalPauseNotDefinitive(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "pode parar por enquanto, vou viajar", t0.Add(time.Minute))
	if v.Type != models.DNCPauseContact {
		t.Fatalf("expected PAUSE_CONTACT, got %s(%s)", v.Type, v.Reason)
	}
	if v.ResumeAt == nil {
		t.Fatal("pause verdict must estimate a resume timestamp")
	}
	days := v.ResumeAt.Sub(t0) / (24 * time.Hour)
	if days < 28 || days > 31 {
		t.Errorf("expected ~30 day resume window, got %d days", days)
	}
	if v.Action != models.DNCActionPause {
		t.Errorf("expected schedule_pause action, got %s", v.Action)
	}
}

func TestPauseDurationEstimates(t *testing.T) {
	cases := []struct {
		text string
		days int
	}{
		{"pausa essa semana que tô corrido", 7},
		{"para de me chamar esse mês, volto mês que vem", 30},
		{"segura por agora", 14},
	}
	for _, tc := range cases {
		c, _ := newDNCFixture(t)
		t0 := time.Now()
		c.MarkOffered("c1", "responda SAIR", t0)
		v := c.Classify("c1", tc.text, t0.Add(time.Minute))
		if v.Type != models.DNCPauseContact {
			t.Errorf("%q: expected PAUSE_CONTACT, got %s(%s)", tc.text, v.Type, v.Reason)
			continue
		}
		got := int(v.ResumeAt.Sub(t0)/(24*time.Hour)) + 1
		if got < tc.days-1 || got > tc.days+1 {
			t.Errorf("%q: expected ~%d days, got %d", tc.text, tc.days, got)
		}
	}
}

func TestPauseResumeDateFromMonth(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "pausa aí, me procura quando chegar janeiro", t0.Add(time.Minute))
	if v.Type != models.DNCPauseContact {
		t.Fatalf("expected PAUSE_CONTACT, got %s(%s)", v.Type, v.Reason)
	}
	if v.ResumeAt == nil || v.ResumeAt.Month() != time.January || v.ResumeAt.Day() != 1 {
		t.Errorf("expected resume on January 1st, got %v", v.ResumeAt)
	}
	if v.ResumeCondition == "" {
		t.Error("expected extracted resume condition")
	}
}

func TestMonthTokensMatchWholeWordsOnly(t *testing.T) {
	// "maior" must not read as the month "maio"; the pause falls back to
	// the duration estimate instead of a May 1 resume date.
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "pode parar por enquanto, nosso maior problema é outro", t0.Add(time.Minute))
	if v.Type != models.DNCPauseContact {
		t.Fatalf("expected PAUSE_CONTACT, got %s(%s)", v.Type, v.Reason)
	}
	if v.ResumeAt == nil {
		t.Fatal("pause verdict must carry a resume timestamp")
	}
	days := int(v.ResumeAt.Sub(t0) / (24 * time.Hour))
	if days < 28 || days > 31 {
		t.Errorf("expected ~30 day estimate, got %d days (resume %v)", days, v.ResumeAt)
	}

	c2, _ := newDNCFixture(t)
	c2.MarkOffered("c2", "responda SAIR", t0)
	v = c2.Classify("c2", "pausa aí, me chama quando chegar maio", t0.Add(time.Minute))
	if v.Type != models.DNCPauseContact || v.ResumeAt == nil || v.ResumeAt.Month() != time.May || v.ResumeAt.Day() != 1 {
		t.Errorf("standalone month token should still resolve to May 1st, got %s %v", v.Type, v.ResumeAt)
	}
}

func TestSoftDeclineIsNeverOptOut(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "obrigado mas não, já temos fornecedor", t0.Add(time.Minute))
	if v.Type != models.DNCNoInterest {
		t.Fatalf("expected NO_INTEREST, got %s(%s)", v.Type, v.Reason)
	}
	if v.Action != models.DNCActionNurture || v.ResumeAt == nil {
		t.Error("soft decline must carry nurture action and resume timestamp")
	}
	days := int(v.ResumeAt.Sub(t0) / (24 * time.Hour))
	if days < models.NurtureResumeDays-1 || days > models.NurtureResumeDays+1 {
		t.Errorf("expected ~%d day nurture window, got %d", models.NurtureResumeDays, days)
	}
}

func TestAutoReplyDetection(t *testing.T) {
	c, _ := newDNCFixture(t)
	v := c.Classify("c1", "Esta é uma mensagem automática, estou fora do escritório.", time.Now())
	if v.Type != models.DNCAutoReply {
		t.Errorf("expected AUTO_REPLY, got %s(%s)", v.Type, v.Reason)
	}
}

func TestForwardDecisionMaker(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "não sou eu quem decide, fala com meu sócio", t0.Add(time.Minute))
	if v.Type != models.DNCForwardDecisionMaker || v.Action != models.DNCActionForward {
		t.Errorf("expected FORWARD_DECISION_MAKER, got %s(%s)", v.Type, v.Reason)
	}
}

func TestInsufficientConditionsVerdict(t *testing.T) {
	c, _ := newDNCFixture(t)
	t0 := time.Now()
	c.MarkOffered("c1", "responda SAIR", t0)
	v := c.Classify("c1", "tudo bem e você?", t0.Add(time.Minute))
	if v.Type != models.DNCNone || v.Reason != models.DNCReasonInsufficient {
		t.Errorf("expected NO_DNC(insufficient_conditions), got %s(%s)", v.Type, v.Reason)
	}
}

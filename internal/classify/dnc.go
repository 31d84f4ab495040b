// Package classify: do-not-contact / pause classification.
package classify

import (
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/vendalab/salespipe/internal/models"
)

// dncGuards suppress any positive classification. A cancellation of a
// meeting or of a product is never a request to stop being contacted.
var dncGuards = []Rule{
	{Name: "meeting_cancellation", Polarity: PolarityGuard, Patterns: []string{
		"cancelar a reunião", "cancelar a reuniao", "cancela a reunião", "cancela a reuniao",
		"cancelar nossa reunião", "cancelar nossa reuniao", "desmarcar", "remarcar",
		"cancela o horário", "cancela o horario",
	}},
	{Name: "near_miss_verbs", Polarity: PolarityGuard, Patterns: []string{
		"sem parar", "não parava", "nao parava", "comparar", "reparar",
		"separar", "disparar", "preparar",
	}},
	{Name: "prepositional_para", Polarity: PolarityGuard, Patterns: []string{
		"para você", "para voce", "para vocês", "para voces", "para mim",
		"para nós", "para nos", "para a empresa",
	}},
}

// productCancelPatterns look like opt-outs but target a product or
// subscription; they only block when no communication channel is mentioned.
var productCancelPatterns = []string{
	"cancelar o plano", "cancelar a assinatura", "cancelar o pedido",
	"cancelar o contrato", "cancelar minha conta", "cancela o plano",
	"cancela a assinatura",
}

// channelNouns are the communication-channel words that turn a removal verb
// into a do-not-contact request.
var channelNouns = []string{
	"mensagem", "mensagens", "contato", "contatos", "ligação", "ligacao",
	"ligações", "ligacoes", "lista", "whatsapp", "zap", "número", "numero",
}

var removalVerbs = []string{
	"remover", "remova", "excluir", "exclua", "apagar", "apague",
	"tirar", "tire", "tira", "parar", "pare", "para de", "chega de",
}

// definitiveRules match direct unsubscribe/spam/harassment phrasing on
// their own, no channel noun needed.
var definitiveRules = []Rule{
	{Name: "unsubscribe", Polarity: PolarityPositive, Patterns: []string{
		"descadastrar", "descadastre", "cancelar inscrição", "cancelar inscricao",
		"unsubscribe", "sair da lista",
	}},
	{Name: "spam_or_harassment", Polarity: PolarityPositive, Patterns: []string{
		"spam", "assédio", "assedio", "denunciar", "procon", "vou processar",
	}},
	{Name: "never_again", Polarity: PolarityPositive, Patterns: []string{
		"nunca mais entre em contato", "não entre em contato", "nao entre em contato",
		"não me procure", "nao me procure",
	}},
}

// strongStandaloneRules make the message classifiable even without an
// outstanding opt-out offer.
var strongStandaloneRules = []Rule{
	{Name: "stop_messaging", Polarity: PolarityPositive, Patterns: []string{
		"pare de me mandar", "para de me mandar", "parem de me mandar",
		"não me mande mais", "nao me mande mais", "não quero mais receber",
		"nao quero mais receber",
	}},
	{Name: "remove_me", Polarity: PolarityPositive, Patterns: []string{
		"me tire da lista", "me tira da lista", "remover meu número",
		"remover meu numero", "descadastrar", "sair da lista",
	}},
	{Name: "spam_complaint", Polarity: PolarityPositive, Patterns: []string{
		"chega de spam", "isso é spam", "isso e spam", "assédio", "assedio",
	}},
}

// pauseVerbs + pauseQualifiers form the temporal/conditional stop phrasing.
var pauseVerbs = []string{"parar", "pare", "para", "pausa", "pausar", "segura", "esperar", "espera"}

var pauseQualifiers = []string{
	"por enquanto", "por agora", "no momento", "depois", "mais tarde",
	"semana", "mês", "mes que vem", "quando", "até", "ate ", "assim que",
	"esse período", "esse periodo", "essas semanas",
}

var autoReplyRules = []Rule{
	{Name: "autoresponder", Polarity: PolarityNegative, Patterns: []string{
		"mensagem automática", "mensagem automatica", "resposta automática",
		"resposta automatica", "fora do escritório", "fora do escritorio",
		"out of office", "atendimento automático", "atendimento automatico",
		"não monitoramos esta caixa", "nao monitoramos esta caixa",
	}},
}

var forwardRules = []Rule{
	{Name: "redirect_decision_maker", Polarity: PolarityPositive, Patterns: []string{
		"fala com meu sócio", "fala com meu socio", "fale com o responsável",
		"fale com o responsavel", "quem cuida disso é", "quem cuida disso e",
		"manda pro meu gerente", "não sou eu quem decide", "nao sou eu quem decide",
	}},
}

var noInterestRules = []Rule{
	{Name: "polite_refusal", Polarity: PolarityPositive, Patterns: []string{
		"obrigado, mas não", "obrigado mas não", "obrigado mas nao",
		"obrigada, mas não", "obrigada mas não", "obrigada mas nao",
		"não temos interesse", "nao temos interesse", "sem interesse",
	}},
	{Name: "has_provider", Polarity: PolarityPositive, Patterns: []string{
		"já temos fornecedor", "ja temos fornecedor", "já tenho fornecedor",
		"ja tenho fornecedor", "já trabalho com", "ja trabalho com",
	}},
	{Name: "not_a_priority", Polarity: PolarityPositive, Patterns: []string{
		"não é prioridade", "nao é prioridade", "nao e prioridade",
		"agora não", "agora nao", "não é o momento", "nao é o momento",
		"nao e o momento", "talvez no futuro",
	}},
}

// Duration estimates used when a pause carries no explicit date.
const (
	pauseWeekDays    = 7
	pauseMonthDays   = 30
	pauseForNowDays  = 14
	pauseDefaultDays = 30
)

// Acknowledgment template keys handed to the message-composition
// collaborator.
const (
	TemplateRemovalAck = "dnc_confirm_removal"
	TemplatePauseAck   = "dnc_pause_ack"
	TemplateNurtureAck = "dnc_nurture_ack"
	TemplateForwardAck = "dnc_forward_ack"
	TemplateAutoReply  = "dnc_auto_reply_ignore"
)

var monthsOfYear = []string{
	"janeiro", "fevereiro", "março", "marco", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// resumeConditionPattern captures a trailing "after/when/if ..." clause.
var resumeConditionPattern = regexp.MustCompile(`\b(?:depois (?:de|do|da|que)|quando|assim que|se)\s+(.{3,80})`)

// DNCClassifier classifies inbound messages for do-not-contact and pause
// intent. Unlike the meeting classifier it also accepts strong standalone
// intent with no outstanding offer.
type DNCClassifier struct {
	offers *OfferStore
}

// NewDNCClassifier creates a classifier over the shared offer store.
func NewDNCClassifier(offers *OfferStore) *DNCClassifier {
	return &DNCClassifier{offers: offers}
}

// MarkOffered records that the outbound collaborator just sent an explicit
// opt-out instruction.
func (c *DNCClassifier) MarkOffered(contactID, text string, now time.Time) {
	c.offers.MarkOptOutOffered(contactID, text, now)
}

// Classify runs the ordered evaluation: guard blockers, auto-reply, context
// gate, definitive removal, temporal pause, decision-maker redirect, soft
// decline, and finally the conservative no-match verdict.
func (c *DNCClassifier) Classify(contactID, text string, now time.Time) models.DNCVerdict {
	lower := strings.ToLower(strings.TrimSpace(text))

	if guard, hit := firstMatch(dncGuards, lower); hit {
		slog.Debug("DNCClassifier.Classify: guard matched", "contactID", contactID, "rule", guard.Name)
		return models.DNCVerdict{Type: models.DNCNone, Reason: models.DNCReasonGuardBlocker, Action: models.DNCActionNone}
	}
	if containsAny(lower, productCancelPatterns) && !containsAny(lower, channelNouns) {
		slog.Debug("DNCClassifier.Classify: product cancellation guard", "contactID", contactID)
		return models.DNCVerdict{Type: models.DNCNone, Reason: models.DNCReasonGuardBlocker, Action: models.DNCActionNone}
	}

	if _, hit := firstMatch(autoReplyRules, lower); hit {
		slog.Debug("DNCClassifier.Classify: auto-reply detected", "contactID", contactID)
		return models.DNCVerdict{
			Type:        models.DNCAutoReply,
			Reason:      models.DNCReasonAutoReply,
			TemplateKey: TemplateAutoReply,
			Action:      models.DNCActionNone,
		}
	}

	_, offerOutstanding := c.offers.OptOutOutstanding(contactID, now)
	_, standalone := firstMatch(strongStandaloneRules, lower)
	if !offerOutstanding && !standalone {
		return models.DNCVerdict{Type: models.DNCNone, Reason: models.DNCReasonNoContext, Action: models.DNCActionNone}
	}

	if c.isDefinitive(lower) {
		c.offers.ClearOptOut(contactID, models.OfferClearConfirmed)
		slog.Debug("DNCClassifier.Classify: definitive removal", "contactID", contactID)
		return models.DNCVerdict{
			Type:        models.DNCDoNotContact,
			Reason:      models.DNCReasonExplicitRemoval,
			TemplateKey: TemplateRemovalAck,
			Action:      models.DNCActionRemove,
		}
	}

	if containsAny(lower, pauseVerbs) && containsAny(lower, pauseQualifiers) {
		c.offers.ClearOptOut(contactID, models.OfferClearConfirmed)
		verdict := models.DNCVerdict{
			Type:        models.DNCPauseContact,
			Reason:      models.DNCReasonTemporalPause,
			TemplateKey: TemplatePauseAck,
			Action:      models.DNCActionPause,
		}
		if when := extractResumeDate(lower, now); when != nil {
			verdict.ResumeAt = when
		} else {
			resume := now.AddDate(0, 0, estimatePauseDays(lower))
			verdict.ResumeAt = &resume
		}
		if m := resumeConditionPattern.FindStringSubmatch(lower); m != nil {
			verdict.ResumeCondition = strings.TrimSpace(m[1])
		}
		slog.Debug("DNCClassifier.Classify: temporal pause", "contactID", contactID, "resumeAt", verdict.ResumeAt)
		return verdict
	}

	if _, hit := firstMatch(forwardRules, lower); hit {
		slog.Debug("DNCClassifier.Classify: decision-maker redirect", "contactID", contactID)
		return models.DNCVerdict{
			Type:        models.DNCForwardDecisionMaker,
			Reason:      models.DNCReasonRedirect,
			TemplateKey: TemplateForwardAck,
			Action:      models.DNCActionForward,
		}
	}

	if _, hit := firstMatch(noInterestRules, lower); hit {
		resume := now.AddDate(0, 0, models.NurtureResumeDays)
		slog.Debug("DNCClassifier.Classify: soft decline", "contactID", contactID)
		return models.DNCVerdict{
			Type:        models.DNCNoInterest,
			Reason:      models.DNCReasonSoftDecline,
			ResumeAt:    &resume,
			TemplateKey: TemplateNurtureAck,
			Action:      models.DNCActionNurture,
		}
	}

	return models.DNCVerdict{Type: models.DNCNone, Reason: models.DNCReasonInsufficient, Action: models.DNCActionNone}
}

// isDefinitive reports permanent-removal intent: a removal verb combined
// with a communication-channel noun, or direct unsubscribe/spam phrasing.
func (c *DNCClassifier) isDefinitive(lower string) bool {
	if containsAny(lower, removalVerbs) && containsAny(lower, channelNouns) {
		return true
	}
	_, hit := firstMatch(definitiveRules, lower)
	return hit
}

// extractResumeDate finds a month token and maps it to the first day of
// that month's next occurrence. Months are matched as whole words so
// "maio" never fires inside "maior".
func extractResumeDate(lower string, now time.Time) *time.Time {
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	for i, name := range monthsOfYear {
		if !containsWord(words, name) {
			continue
		}
		month := time.Month(monthIndex(i) + 1)
		year := now.Year()
		if month <= now.Month() {
			year++
		}
		when := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
		return &when
	}
	return nil
}

func containsWord(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

// monthIndex collapses the accented/unaccented duplicate of março.
func monthIndex(i int) int {
	if i >= 3 {
		return i - 1
	}
	return i
}

// estimatePauseDays applies the duration table used when no explicit date
// exists.
func estimatePauseDays(lower string) int {
	switch {
	case strings.Contains(lower, "semana"):
		return pauseWeekDays
	case strings.Contains(lower, "mês") || strings.Contains(lower, "mes que vem") || strings.Contains(lower, "um mes"):
		return pauseMonthDays
	case strings.Contains(lower, "por agora") || strings.Contains(lower, "no momento"):
		return pauseForNowDays
	default:
		return pauseDefaultDays
	}
}

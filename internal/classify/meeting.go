// Package classify: meeting-acceptance classification.
package classify

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/vendalab/salespipe/internal/models"
)

// meetingGuards reject acceptance regardless of any positive signal. They
// always run before positive matching.
var meetingGuards = []Rule{
	{Name: "unrelated_meeting_in_progress", Polarity: PolarityGuard, Patterns: []string{
		"estou em reunião", "estou em reuniao", "to em reunião", "to em reuniao",
		"numa reunião agora", "numa reuniao agora", "em outra reunião", "em outra reuniao",
	}},
	{Name: "same_day_unavailable", Polarity: PolarityGuard, Patterns: []string{
		"hoje não consigo", "hoje nao consigo", "hoje não dá", "hoje nao da",
		"hoje não posso", "hoje nao posso",
	}},
	{Name: "redirect_channel", Polarity: PolarityGuard, Patterns: []string{
		"me manda por email", "me manda por e-mail", "manda por email",
		"manda por e-mail", "prefiro por email", "prefiro por e-mail",
	}},
	{Name: "vague_later", Polarity: PolarityGuard, Patterns: []string{
		"vamos ver", "a gente se fala", "depois a gente combina",
		"qualquer hora dessas", "deixa pra depois", "qualquer dia desses",
	}},
}

// topicChangeRules detect a pivot away from scheduling. A match clears the
// tracker even without acceptance so a stale offer cannot be accepted after
// the subject moved on.
var topicChangeRules = []Rule{
	{Name: "asks_for_materials", Polarity: PolarityNegative, Patterns: []string{
		"manda o material", "me manda o material", "me manda mais informações",
		"me manda mais informacoes", "manda a apresentação", "manda a apresentacao",
	}},
	{Name: "callback_another_day", Polarity: PolarityNegative, Patterns: []string{
		"me liga outro dia", "me chama outro dia", "semana que vem a gente fala",
	}},
	{Name: "pivots_subject", Polarity: PolarityNegative, Patterns: []string{
		"mudando de assunto", "outra coisa,", "antes disso,",
	}},
}

// ---- Feature patterns ----

var affirmativeTokens = []string{
	"sim", "claro", "pode ser", "com certeza", "fechado", "combinado", "bora",
	"vamos", "ok", "okay", "beleza", "perfeito", "show", "top", "isso",
	"positivo", "confirmado", "pode sim", "aceito", "topo",
}

var schedulingVerbs = []string{
	"agendar", "agenda", "marcar", "marca", "remarcar", "reunião", "reuniao",
	"call", "encontro", "horário", "horario",
}

var wantsLinkPhrases = []string{
	"manda o link", "me manda o link", "envia o link", "me envia o link",
	"pode mandar o link", "link da reunião", "link da reuniao", "link da chamada",
}

var dayTokens = []string{
	"amanhã", "amanha", "hoje", "segunda", "terça", "terca", "quarta",
	"quinta", "sexta", "sábado", "sabado", "domingo", "semana que vem",
	"depois do almoço", "depois do almoco", "de manhã", "de manha", "à tarde", "a tarde",
}

// clockPattern matches explicit time slots like "15h", "15:30" or "às 15".
// "às" is matched without \b: Go word boundaries are ASCII-only, so a \b
// before the accented rune would never fire.
var clockPattern = regexp.MustCompile(`(?:[01]?\d|2[0-3])[:h][0-5]?\d?\b|(?:^|\s)às\s+\d{1,2}\b|\bas\s+\d{1,2}h\b`)

// shortAckPhrases is the closed list of anaphoric acknowledgments.
var shortAckPhrases = []string{
	"ok", "okay", "sim", "pode ser", "beleza", "fechado", "combinado",
	"show", "top", "bora", "claro", "perfeito", "pode sim", "isso", "blz",
}

var confirmationGlyphs = []string{"👍", "✅", "👌", "🤝"}

// maxAnaphoricLength is the reply size (in runes) under which a message is
// read as a short acknowledgment.
const maxAnaphoricLength = 15

// MeetingClassifier classifies inbound replies against an outstanding
// meeting offer.
type MeetingClassifier struct {
	offers *OfferStore
}

// NewMeetingClassifier creates a classifier over the shared offer store.
func NewMeetingClassifier(offers *OfferStore) *MeetingClassifier {
	return &MeetingClassifier{offers: offers}
}

// MarkOffered records that the outbound collaborator just sent an
// offer-shaped meeting message.
func (c *MeetingClassifier) MarkOffered(contactID, text string, now time.Time) {
	c.offers.MarkMeetingOffered(contactID, text, now)
}

// Classify evaluates an inbound reply. Guard patterns run first, then the
// four boolean features plus the anaphora window.
func (c *MeetingClassifier) Classify(contactID, text string, now time.Time) models.MeetingVerdict {
	offer, ok := c.offers.MeetingOutstanding(contactID, now)
	if !ok {
		slog.Debug("MeetingClassifier.Classify: no pending offer", "contactID", contactID)
		return models.MeetingVerdict{Type: models.MeetingNoAccept, Reason: models.MeetingReasonNoPendingOffer}
	}

	lower := strings.ToLower(strings.TrimSpace(text))

	if guard, hit := firstMatch(meetingGuards, lower); hit {
		slog.Debug("MeetingClassifier.Classify: guard matched", "contactID", contactID, "rule", guard.Name)
		return models.MeetingVerdict{Type: models.MeetingNoAccept, Reason: models.MeetingReasonNegative}
	}

	affirmative := containsAny(lower, affirmativeTokens)
	schedVerb := containsAny(lower, schedulingVerbs)
	wantsLink := containsAny(lower, wantsLinkPhrases)
	dateTime := clockPattern.MatchString(lower) || containsAny(lower, dayTokens)
	anaphoric := isShortAck(lower) && now.Sub(offer.OfferedAt) <= AnaphoraWindow

	if wantsLink && !schedVerb && !dateTime {
		c.offers.ClearMeeting(contactID, models.OfferClearConfirmed)
		slog.Debug("MeetingClassifier.Classify: partial accept", "contactID", contactID)
		return models.MeetingVerdict{Type: models.MeetingPartialAccept, Reason: models.MeetingReasonWantsLink}
	}

	if affirmative && (dateTime || schedVerb || anaphoric) {
		c.offers.ClearMeeting(contactID, models.OfferClearConfirmed)
		slog.Debug("MeetingClassifier.Classify: accept", "contactID", contactID,
			"dateTime", dateTime, "schedVerb", schedVerb, "anaphoric", anaphoric)
		return models.MeetingVerdict{Type: models.MeetingAccept, Reason: models.MeetingReasonConfirmed}
	}

	// Topic change: the prospect pivoted away from scheduling, so the offer
	// is no longer answerable.
	if change, hit := firstMatch(topicChangeRules, lower); hit {
		slog.Debug("MeetingClassifier.Classify: topic change", "contactID", contactID, "rule", change.Name)
		c.offers.ClearMeeting(contactID, models.OfferClearTopicChange)
	}

	return models.MeetingVerdict{Type: models.MeetingNoAccept, Reason: models.MeetingReasonInsufficient}
}

// isShortAck reports whether the reply only makes sense against a very
// recent offer: short, or a closed-list ack, or a confirmation glyph.
func isShortAck(lower string) bool {
	if len([]rune(lower)) <= maxAnaphoricLength && lower != "" {
		return true
	}
	for _, p := range shortAckPhrases {
		if lower == p {
			return true
		}
	}
	return containsAny(lower, confirmationGlyphs)
}

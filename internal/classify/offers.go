// Package classify: ephemeral offer trackers.
//
// Two independent trackers exist per contact (meeting offer and opt-out
// offer). Both live in bounded TTL caches and expire lazily on read, so a
// stale offer reports as not outstanding without background timers and
// contact churn cannot grow memory without bound.
package classify

import (
	"log/slog"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Offer TTLs and tracker sizing.
const (
	// MeetingOfferTTL is how long a meeting offer stays answerable.
	MeetingOfferTTL = 72 * time.Hour
	// OptOutOfferTTL is how long an opt-out offer stays answerable.
	OptOutOfferTTL = 24 * time.Hour
	// AnaphoraWindow is how long a short acknowledgment can still be read
	// against a recent meeting offer.
	AnaphoraWindow = 30 * time.Minute
	// MaxTrackedContacts bounds each tracker cache.
	MaxTrackedContacts = 10000
)

// Offer records one outstanding contact-worthy offer.
type Offer struct {
	OfferedAt time.Time
	Text      string
}

// OfferStore tracks outstanding meeting and opt-out offers per contact.
type OfferStore struct {
	meetings *ttlcache.Cache[string, Offer]
	optOuts  *ttlcache.Cache[string, Offer]
}

// NewOfferStore creates bounded trackers with lazy expiry. Touch-on-hit is
// disabled so expiry stays anchored to the offer timestamp.
func NewOfferStore() *OfferStore {
	return &OfferStore{
		meetings: ttlcache.New[string, Offer](
			ttlcache.WithTTL[string, Offer](MeetingOfferTTL),
			ttlcache.WithCapacity[string, Offer](MaxTrackedContacts),
			ttlcache.WithDisableTouchOnHit[string, Offer](),
		),
		optOuts: ttlcache.New[string, Offer](
			ttlcache.WithTTL[string, Offer](OptOutOfferTTL),
			ttlcache.WithCapacity[string, Offer](MaxTrackedContacts),
			ttlcache.WithDisableTouchOnHit[string, Offer](),
		),
	}
}

// MarkMeetingOffered records an outstanding meeting offer.
func (s *OfferStore) MarkMeetingOffered(contactID, text string, now time.Time) {
	slog.Debug("OfferStore.MarkMeetingOffered", "contactID", contactID)
	s.meetings.Set(contactID, Offer{OfferedAt: now, Text: text}, ttlcache.DefaultTTL)
}

// MarkOptOutOffered records an outstanding opt-out offer.
func (s *OfferStore) MarkOptOutOffered(contactID, text string, now time.Time) {
	slog.Debug("OfferStore.MarkOptOutOffered", "contactID", contactID)
	s.optOuts.Set(contactID, Offer{OfferedAt: now, Text: text}, ttlcache.DefaultTTL)
}

// MeetingOutstanding reports the outstanding meeting offer, expiring it
// lazily against the given clock.
func (s *OfferStore) MeetingOutstanding(contactID string, now time.Time) (Offer, bool) {
	return outstanding(s.meetings, contactID, now, MeetingOfferTTL)
}

// OptOutOutstanding reports the outstanding opt-out offer, expiring it
// lazily against the given clock.
func (s *OfferStore) OptOutOutstanding(contactID string, now time.Time) (Offer, bool) {
	return outstanding(s.optOuts, contactID, now, OptOutOfferTTL)
}

// ClearMeeting removes the meeting offer tracker.
func (s *OfferStore) ClearMeeting(contactID, reason string) {
	slog.Debug("OfferStore.ClearMeeting", "contactID", contactID, "reason", reason)
	s.meetings.Delete(contactID)
}

// ClearOptOut removes the opt-out offer tracker.
func (s *OfferStore) ClearOptOut(contactID, reason string) {
	slog.Debug("OfferStore.ClearOptOut", "contactID", contactID, "reason", reason)
	s.optOuts.Delete(contactID)
}

func outstanding(cache *ttlcache.Cache[string, Offer], contactID string, now time.Time, ttl time.Duration) (Offer, bool) {
	item := cache.Get(contactID)
	if item == nil {
		return Offer{}, false
	}
	offer := item.Value()
	if now.Sub(offer.OfferedAt) > ttl {
		cache.Delete(contactID)
		return Offer{}, false
	}
	return offer, true
}

// ---- Offer-shape predicates ----
//
// The delivery collaborator uses these to decide when to call the mark
// hooks after sending an outbound message.

var meetingOfferCues = []string{
	"agendar", "marcar", "vamos marcar", "que tal uma reunião", "que tal uma reuniao",
	"calendly", "link da agenda", "te mando o link", "qual o melhor horário",
	"qual o melhor horario", "15 minutinhos", "uma call", "um papo rápido", "um papo rapido",
	"posso te ligar", "te chamo amanhã", "te chamo amanha",
}

var optOutOfferCues = []string{
	"responda sair", "responda stop", "digite sair", "se não quiser mais receber",
	"se nao quiser mais receber", "para não receber mais", "para nao receber mais",
	"pra parar de receber", "cancelar o recebimento",
}

// IsMeetingOffer reports whether outbound text is an offer-shaped meeting
// message (scheduling verb, time slot, scheduling link or invitation CTA).
func IsMeetingOffer(text string) bool {
	return containsAny(strings.ToLower(text), meetingOfferCues)
}

// IsOptOutOffer reports whether outbound text carries an explicit opt-out
// instruction.
func IsOptOutOffer(text string) bool {
	return containsAny(strings.ToLower(text), optOutOfferCues)
}

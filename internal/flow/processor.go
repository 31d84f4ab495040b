package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vendalab/salespipe/internal/analysis"
	"github.com/vendalab/salespipe/internal/classify"
	"github.com/vendalab/salespipe/internal/models"
	"github.com/vendalab/salespipe/internal/store"
	"github.com/vendalab/salespipe/internal/strategy"
)

// Processor runs the full read-decide-write cycle for one inbound message.
// Turns for the same contact are serialized with a per-contact mutex so the
// state each decision reads already includes every prior turn; turns for
// different contacts proceed concurrently.
type Processor struct {
	states   *StateManager
	analyzer *analysis.Analyzer
	offers   *classify.OfferStore
	meetings *classify.MeetingClassifier
	dnc      *classify.DNCClassifier
	engine   *Engine
	router   *strategy.Router

	mu    sync.Mutex
	locks map[string]*contactLock

	now func() time.Time
}

// contactLock is a refcounted per-contact mutex. The refcount lets the
// processor drop entries as soon as no turn holds or waits for them, so the
// lock map stays proportional to in-flight turns instead of total contacts.
type contactLock struct {
	mu   sync.Mutex
	refs int
}

// NewProcessor wires the pipeline on top of the given store.
func NewProcessor(st store.Store) *Processor {
	offers := classify.NewOfferStore()
	return &Processor{
		states:   NewStateManager(st),
		analyzer: analysis.NewAnalyzer(),
		offers:   offers,
		meetings: classify.NewMeetingClassifier(offers),
		dnc:      classify.NewDNCClassifier(offers),
		engine:   NewEngine(),
		router:   strategy.NewRouter(),
		locks:    make(map[string]*contactLock),
		now:      time.Now,
	}
}

// SetClock overrides the processor clock. Tests only.
func (p *Processor) SetClock(now func() time.Time) {
	p.now = now
}

// RecordOutbound inspects a message sent to the contact and arms the
// matching offer tracker when the message reads like a meeting or opt-out
// offer. Collaborators call this after every outbound send.
func (p *Processor) RecordOutbound(contactID, text string) {
	now := p.now()
	if classify.IsMeetingOffer(text) {
		p.meetings.MarkOffered(contactID, text, now)
	}
	if classify.IsOptOutOffer(text) {
		p.dnc.MarkOffered(contactID, text, now)
	}
}

// Process handles one inbound message end to end and returns the decision
// bundle for the response-generation collaborator.
func (p *Processor) Process(ctx context.Context, input models.TurnInput) (models.TurnDecision, error) {
	if err := input.Validate(); err != nil {
		slog.Error("Processor.Process: invalid input", "error", err)
		return models.TurnDecision{}, err
	}

	p.lockContact(input.ContactID)
	defer p.unlockContact(input.ContactID)

	now := p.now()
	slog.Debug("Processor.Process: turn start", "contactID", input.ContactID)

	// Offer trackers key on the previous outbound when the caller did not
	// report it through RecordOutbound already.
	if input.PriorOutboundText != "" {
		p.RecordOutbound(input.ContactID, input.PriorOutboundText)
	}

	state := p.states.GetState(ctx, input.ContactID, now)
	turnAnalysis := p.analyzer.Analyze(input.InboundText, input.ProfileMetadata)

	activated := ScanMessage(state, input.InboundText, now)
	state.MessageCount++
	state.LastMessageAt = now
	if state.Segment == "" && turnAnalysis.Segment != "" {
		state.Segment = turnAnalysis.Segment
	}

	meeting := p.meetings.Classify(input.ContactID, input.InboundText, now)
	if meeting.Type == models.MeetingAccept {
		state.HasScheduled = true
		state.AddTrigger("reuniao_confirmada")
	}

	dnc := p.dnc.Classify(input.ContactID, input.InboundText, now)

	enforcement := p.engine.Decide(state, turnAnalysis, now)
	p.engine.Apply(state, enforcement)

	route := p.router.Route(strategy.Input{Analysis: turnAnalysis, State: state})

	state.QualificationScore = qualificationScore(state)

	p.states.RecordInteraction(ctx, state, InteractionSignals{
		Interest:      turnAnalysis.PositiveIntent || len(activated) > 0,
		Qualification: state.Phase == models.PhaseQualification || state.Phase == models.PhaseSolutionFit,
		Conversion:    meeting.Type == models.MeetingAccept,
	})
	p.states.UpdateState(ctx, state)

	decision := models.TurnDecision{
		ID:          uuid.NewString(),
		ContactID:   input.ContactID,
		Phase:       state.Phase,
		Enforcement: enforcement,
		Meeting:     meeting,
		DNC:         dnc,
		Strategy:    route,
		Analysis:    turnAnalysis,
		DecidedAt:   now,
	}
	slog.Debug("Processor.Process: turn done",
		"contactID", input.ContactID,
		"phase", decision.Phase,
		"action", enforcement.Action,
		"strategy", route.Strategy,
		"meeting", meeting.Type,
		"dnc", dnc.Type)
	return decision, nil
}

func (p *Processor) lockContact(contactID string) {
	p.mu.Lock()
	l, ok := p.locks[contactID]
	if !ok {
		l = &contactLock{}
		p.locks[contactID] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
}

func (p *Processor) unlockContact(contactID string) {
	p.mu.Lock()
	l := p.locks[contactID]
	l.refs--
	if l.refs == 0 {
		delete(p.locks, contactID)
	}
	p.mu.Unlock()

	l.mu.Unlock()
}

// qualificationScore is the share of all required phase fields already
// collected, scaled to MaxQualificationScore.
func qualificationScore(state *models.ConversationState) int {
	total := RequiredFieldTotal()
	if total == 0 {
		return 0
	}
	collected := 0
	for _, def := range phaseTable {
		for _, f := range def.RequiredFields {
			if state.HasField(f) {
				collected++
			}
		}
	}
	return collected * models.MaxQualificationScore / total
}

// Package models defines per-turn decision and verdict types shared between
// the classifiers, the phase engine, the strategy router and their callers.
package models

import "time"

// Strategy identifies one of the four response-generation strategies.
type Strategy string

const (
	// StrategyStructuredFlow is the scripted, phase-driven dialogue.
	StrategyStructuredFlow Strategy = "STRUCTURED_FLOW"
	// StrategyArchetype is the templated, segment-personalized response.
	StrategyArchetype Strategy = "ARCHETYPE"
	// StrategyHybrid enriches structured content with free generation.
	StrategyHybrid Strategy = "HYBRID"
	// StrategyLLM is fully open generation.
	StrategyLLM Strategy = "LLM"
)

// StrategyPriority is the fixed tie-break order. Earlier wins.
var StrategyPriority = []Strategy{
	StrategyStructuredFlow,
	StrategyArchetype,
	StrategyHybrid,
	StrategyLLM,
}

// StrategyDecision is the router's output for one turn.
type StrategyDecision struct {
	Strategy      Strategy         `json:"strategy"`
	Confidence    float64          `json:"confidence"`
	Scores        map[Strategy]int `json:"scores"`
	Justification string           `json:"justification"`
}

// TurnAnalysis carries the lightweight per-turn signals produced by the
// pre-analysis step and consumed by the router and the phase engine.
type TurnAnalysis struct {
	Sentiment                float64 `json:"sentiment"`
	Segment                  string  `json:"segment,omitempty"`
	IsObjection              bool    `json:"is_objection"`
	IsComplexQuestion        bool    `json:"is_complex_question"`
	IsProfessionalProfile    bool    `json:"is_professional_profile"`
	IsOptOutPhrase           bool    `json:"is_opt_out_phrase"`
	IsSchedulingConfirmation bool    `json:"is_scheduling_confirmation"`
	CommercialContext        bool    `json:"commercial_context"`
	CommercialIntent         bool    `json:"commercial_intent"`
	IsSalesQuestion          bool    `json:"is_sales_question"`
	EmpathyCues              bool    `json:"empathy_cues"`
	PositiveIntent           bool    `json:"positive_intent"`
}

// MeetingVerdictType enumerates meeting-acceptance outcomes.
type MeetingVerdictType string

const (
	MeetingAccept        MeetingVerdictType = "ACCEPT"
	MeetingPartialAccept MeetingVerdictType = "PARTIAL_ACCEPT"
	MeetingNoAccept      MeetingVerdictType = "NO_ACCEPT"
)

// Machine-readable cause codes for meeting verdicts.
const (
	MeetingReasonNoPendingOffer = "no_pending_offer"
	MeetingReasonNegative       = "negative_pattern"
	MeetingReasonInsufficient   = "insufficient_conditions"
	MeetingReasonWantsLink      = "wants_link_no_time"
	MeetingReasonConfirmed      = "confirmed"
)

// Offer-tracker clear reasons.
const (
	OfferClearConfirmed   = "confirmed"
	OfferClearTopicChange = "topic_change"
)

// MeetingVerdict is the meeting-acceptance classifier output.
type MeetingVerdict struct {
	Type   MeetingVerdictType `json:"type"`
	Reason string             `json:"reason"`
}

// DNCVerdictType enumerates do-not-contact classifier outcomes.
type DNCVerdictType string

const (
	DNCDoNotContact         DNCVerdictType = "DO_NOT_CONTACT"
	DNCPauseContact         DNCVerdictType = "PAUSE_CONTACT"
	DNCNoInterest           DNCVerdictType = "NO_INTEREST"
	DNCAutoReply            DNCVerdictType = "AUTO_REPLY"
	DNCForwardDecisionMaker DNCVerdictType = "FORWARD_DECISION_MAKER"
	DNCNone                 DNCVerdictType = "NO_DNC"
)

// Machine-readable cause codes for DNC verdicts.
const (
	DNCReasonGuardBlocker    = "guard_blocker"
	DNCReasonNoContext       = "no_context"
	DNCReasonExplicitRemoval = "explicit_removal"
	DNCReasonTemporalPause   = "temporal_pause"
	DNCReasonSoftDecline     = "soft_decline"
	DNCReasonAutoReply       = "auto_reply"
	DNCReasonRedirect        = "redirect_decision_maker"
	DNCReasonInsufficient    = "insufficient_conditions"
)

// DNCAction tells the collaborator what to do with a contact.
type DNCAction string

const (
	DNCActionNone    DNCAction = "none"
	DNCActionRemove  DNCAction = "remove_permanently"
	DNCActionPause   DNCAction = "schedule_pause"
	DNCActionNurture DNCAction = "nurture_tag"
	DNCActionForward DNCAction = "forward_contact"
)

// NurtureResumeDays is the resume window applied to soft declines.
const NurtureResumeDays = 60

// DNCVerdict is the do-not-contact classifier output.
type DNCVerdict struct {
	Type            DNCVerdictType `json:"type"`
	Reason          string         `json:"reason"`
	ResumeAt        *time.Time     `json:"resume_at,omitempty"`
	ResumeCondition string         `json:"resume_condition,omitempty"`
	TemplateKey     string         `json:"template_key,omitempty"`
	Action          DNCAction      `json:"action"`
}

// EnforcementDecision is the phase engine's per-turn output.
type EnforcementDecision struct {
	Action    EnforcementAction `json:"action"`
	NextPhase Phase             `json:"next_phase,omitempty"`
	Question  string            `json:"question,omitempty"`
	Reason    string            `json:"reason"`
}

// TurnInput is one inbound message with its collaborator-supplied context.
type TurnInput struct {
	ContactID         string            `json:"contact_id"`
	InboundText       string            `json:"inbound_text"`
	PriorOutboundText string            `json:"prior_outbound_text,omitempty"`
	ProfileMetadata   map[string]string `json:"profile_metadata,omitempty"`
}

// Validate checks the minimum requirements to process a turn.
func (t *TurnInput) Validate() error {
	if t.ContactID == "" {
		return ErrEmptyContactID
	}
	if t.InboundText == "" {
		return ErrEmptyInboundText
	}
	return nil
}

// TurnDecision is the complete output emitted to the response-generation
// collaborator after one read-decide-write cycle.
type TurnDecision struct {
	ID          string              `json:"id"`
	ContactID   string              `json:"contact_id"`
	Phase       Phase               `json:"phase"`
	Enforcement EnforcementDecision `json:"enforcement"`
	Meeting     MeetingVerdict      `json:"meeting_verdict"`
	DNC         DNCVerdict          `json:"dnc_verdict"`
	Strategy    StrategyDecision    `json:"strategy"`
	Analysis    TurnAnalysis        `json:"analysis"`
	DecidedAt   time.Time           `json:"decided_at"`
}

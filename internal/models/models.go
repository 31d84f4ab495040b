// Package models defines the core data structures for SalesPipe.
//
// It includes the per-contact conversation state, the sales phase and
// lifecycle enumerations, and the validation rules shared across modules.
package models

import (
	"errors"
	"time"
)

// Phase identifies a stage of the sales conversation.
type Phase string

const (
	// PhaseFirstContact is the initial phase for every new contact.
	PhaseFirstContact Phase = "FIRST_CONTACT"
	// PhaseDiscovery digs into the prospect's pain and operation.
	PhaseDiscovery Phase = "DISCOVERY"
	// PhaseQualification collects BANT-style qualification fields.
	PhaseQualification Phase = "QUALIFICATION"
	// PhaseSolutionFit validates interest in the proposed solution.
	PhaseSolutionFit Phase = "SOLUTION_FIT"
	// PhaseScheduling drives toward a confirmed meeting.
	PhaseScheduling Phase = "SCHEDULING"
	// PhaseCompleted is terminal; no further progression happens.
	PhaseCompleted Phase = "COMPLETED"
	// PhaseObjectionHandling is a side state reachable from any phase.
	PhaseObjectionHandling Phase = "OBJECTION_HANDLING"
)

// MainChain lists the main progression phases in order, excluding the
// terminal and side states. Order matters: objection recovery walks it to
// find the deepest phase whose required fields are complete.
var MainChain = []Phase{
	PhaseFirstContact,
	PhaseDiscovery,
	PhaseQualification,
	PhaseSolutionFit,
	PhaseScheduling,
}

// IsSalesPhase reports whether p belongs to the main sales progression.
func (p Phase) IsSalesPhase() bool {
	for _, mp := range MainChain {
		if p == mp {
			return true
		}
	}
	return false
}

// IsValidPhase checks if the given phase is known.
func IsValidPhase(p Phase) bool {
	switch p {
	case PhaseFirstContact, PhaseDiscovery, PhaseQualification, PhaseSolutionFit,
		PhaseScheduling, PhaseCompleted, PhaseObjectionHandling:
		return true
	default:
		return false
	}
}

// Lifecycle is the coarse analytics-only classification of a contact.
// It is independent from Phase and must not be confused with it.
type Lifecycle string

const (
	LifecycleNew        Lifecycle = "NEW"
	LifecycleIntroduced Lifecycle = "INTRODUCED"
	LifecycleEngaged    Lifecycle = "ENGAGED"
	LifecycleQualified  Lifecycle = "QUALIFIED"
	LifecycleConverted  Lifecycle = "CONVERTED"
)

// IsValidLifecycle checks if the given lifecycle value is known.
func IsValidLifecycle(l Lifecycle) bool {
	switch l {
	case LifecycleNew, LifecycleIntroduced, LifecycleEngaged, LifecycleQualified, LifecycleConverted:
		return true
	default:
		return false
	}
}

// EnforcementAction is the phase engine's per-turn decision kind.
type EnforcementAction string

const (
	// ActionAdvancePhase moves the conversation to the next phase.
	ActionAdvancePhase EnforcementAction = "ADVANCE_PHASE"
	// ActionForceQuestion forces an information-gathering question.
	ActionForceQuestion EnforcementAction = "FORCE_QUESTION"
	// ActionContinue keeps the conversation in the current phase.
	ActionContinue EnforcementAction = "CONTINUE"
)

// Validation constants.
const (
	// MaxEnforcementRecords bounds the per-contact enforcement history.
	MaxEnforcementRecords = 10
	// MaxQualificationScore is the upper bound of QualificationScore.
	MaxQualificationScore = 100
)

// Error variables for better error handling and testability.
var (
	ErrEmptyContactID    = errors.New("contact ID cannot be empty")
	ErrInvalidPhase      = errors.New("invalid conversation phase")
	ErrInvalidLifecycle  = errors.New("invalid lifecycle value")
	ErrScoreOutOfRange   = errors.New("qualification score out of range")
	ErrNegativeMessages  = errors.New("message count cannot be negative")
	ErrEmptyFieldName    = errors.New("collected field name cannot be empty")
	ErrEmptyTriggerName  = errors.New("trigger name cannot be empty")
	ErrEmptyInboundText  = errors.New("inbound text cannot be empty")
)

// FieldValue holds one collected qualification field with its collection time.
type FieldValue struct {
	Value       string    `json:"value"`
	CollectedAt time.Time `json:"collected_at"`
}

// EnforcementRecord logs one phase-engine decision.
type EnforcementRecord struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Phase     Phase             `json:"phase"`
	Action    EnforcementAction `json:"action"`
	Reason    string            `json:"reason"`
}

// ConversationState is the durable per-contact record shared by all
// components. Invariants: ActivatedTriggers only grows, CollectedFields
// entries are added or overwritten but never deleted, and Phase only
// changes through the phase engine's transition rules.
type ConversationState struct {
	ContactID          string                `json:"contact_id"`
	Phase              Phase                 `json:"phase"`
	Lifecycle          Lifecycle             `json:"lifecycle"`
	MessageCount       int                   `json:"message_count"`
	CollectedFields    map[string]FieldValue `json:"collected_fields"`
	ActivatedTriggers  []string              `json:"activated_triggers"`
	EnforcementHistory []EnforcementRecord   `json:"enforcement_history"`
	AskedQuestions     []string              `json:"asked_questions"`
	Segment            string                `json:"segment,omitempty"`
	QualificationScore int                   `json:"qualification_score"`
	HasScheduled       bool                  `json:"has_scheduled"`
	StartedAt          time.Time             `json:"started_at"`
	LastMessageAt      time.Time             `json:"last_message_at"`

	// Degraded marks an in-memory fallback state after a storage fault.
	// It is never persisted.
	Degraded bool `json:"-"`
}

// NewConversationState creates a default state for a first inbound message.
func NewConversationState(contactID string, now time.Time) *ConversationState {
	return &ConversationState{
		ContactID:       contactID,
		Phase:           PhaseFirstContact,
		Lifecycle:       LifecycleNew,
		CollectedFields: make(map[string]FieldValue),
		StartedAt:       now,
		LastMessageAt:   now,
	}
}

// HasTrigger reports whether the named trigger was ever activated.
func (s *ConversationState) HasTrigger(name string) bool {
	for _, t := range s.ActivatedTriggers {
		if t == name {
			return true
		}
	}
	return false
}

// AddTrigger activates a trigger. Triggers are monotonic: adding is
// idempotent and nothing ever removes one.
func (s *ConversationState) AddTrigger(name string) bool {
	if name == "" || s.HasTrigger(name) {
		return false
	}
	s.ActivatedTriggers = append(s.ActivatedTriggers, name)
	return true
}

// HasField reports whether the named field was collected.
func (s *ConversationState) HasField(name string) bool {
	_, ok := s.CollectedFields[name]
	return ok
}

// SetField adds or overwrites a collected field. Fields are never deleted.
func (s *ConversationState) SetField(name, value string, now time.Time) {
	if name == "" {
		return
	}
	if s.CollectedFields == nil {
		s.CollectedFields = make(map[string]FieldValue)
	}
	s.CollectedFields[name] = FieldValue{Value: value, CollectedAt: now}
}

// AppendEnforcement records a phase-engine decision, keeping at most
// MaxEnforcementRecords entries by dropping the oldest.
func (s *ConversationState) AppendEnforcement(rec EnforcementRecord) {
	s.EnforcementHistory = append(s.EnforcementHistory, rec)
	if len(s.EnforcementHistory) > MaxEnforcementRecords {
		s.EnforcementHistory = s.EnforcementHistory[len(s.EnforcementHistory)-MaxEnforcementRecords:]
	}
}

// WasQuestionAsked reports whether the exact question text was used before.
func (s *ConversationState) WasQuestionAsked(question string) bool {
	for _, q := range s.AskedQuestions {
		if q == question {
			return true
		}
	}
	return false
}

// MarkQuestionAsked remembers that a mandatory question was used.
func (s *ConversationState) MarkQuestionAsked(question string) {
	if question == "" || s.WasQuestionAsked(question) {
		return
	}
	s.AskedQuestions = append(s.AskedQuestions, question)
}

// Validate performs consistency checks on the state record.
func (s *ConversationState) Validate() error {
	if s.ContactID == "" {
		return ErrEmptyContactID
	}
	if !IsValidPhase(s.Phase) {
		return ErrInvalidPhase
	}
	if !IsValidLifecycle(s.Lifecycle) {
		return ErrInvalidLifecycle
	}
	if s.MessageCount < 0 {
		return ErrNegativeMessages
	}
	if s.QualificationScore < 0 || s.QualificationScore > MaxQualificationScore {
		return ErrScoreOutOfRange
	}
	return nil
}

// Clone returns a deep copy of the state so callers can mutate freely.
func (s *ConversationState) Clone() *ConversationState {
	cp := *s
	cp.CollectedFields = make(map[string]FieldValue, len(s.CollectedFields))
	for k, v := range s.CollectedFields {
		cp.CollectedFields[k] = v
	}
	cp.ActivatedTriggers = append([]string(nil), s.ActivatedTriggers...)
	cp.EnforcementHistory = append([]EnforcementRecord(nil), s.EnforcementHistory...)
	cp.AskedQuestions = append([]string(nil), s.AskedQuestions...)
	return &cp
}

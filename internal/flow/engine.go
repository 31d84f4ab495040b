// Package flow: the phase-progression engine.
package flow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vendalab/salespipe/internal/models"
)

// Engine decides, per turn, whether the conversation stays in its phase,
// forces an information-gathering question, or advances. It is the only
// component allowed to change the Phase field.
type Engine struct{}

// NewEngine creates a phase-progression engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Decide evaluates the current state against the phase table and returns
// the enforcement decision. The decision is logged into the state's
// enforcement history; applying a phase change is the caller's job via
// Apply.
func (e *Engine) Decide(state *models.ConversationState, analysis models.TurnAnalysis, now time.Time) models.EnforcementDecision {
	decision := e.decide(state, analysis)
	state.AppendEnforcement(models.EnforcementRecord{
		ID:        uuid.New().String(),
		Timestamp: now,
		Phase:     state.Phase,
		Action:    decision.Action,
		Reason:    decision.Reason,
	})
	if decision.Action == models.ActionForceQuestion {
		state.MarkQuestionAsked(decision.Question)
	}
	slog.Debug("Engine.Decide", "contactID", state.ContactID, "phase", state.Phase,
		"action", decision.Action, "reason", decision.Reason, "nextPhase", decision.NextPhase)
	return decision
}

func (e *Engine) decide(state *models.ConversationState, analysis models.TurnAnalysis) models.EnforcementDecision {
	// Objection recovery: resume at the deepest phase whose required fields
	// are already fully collected, not at a fixed pointer.
	if state.Phase == models.PhaseObjectionHandling {
		if analysis.PositiveIntent {
			resume := e.resumePhase(state)
			return models.EnforcementDecision{
				Action:    models.ActionAdvancePhase,
				NextPhase: resume,
				Reason:    "objection_recovered",
			}
		}
		return models.EnforcementDecision{Action: models.ActionContinue, Reason: "objection_unresolved"}
	}

	// An objection pulls any non-terminal phase into the side state.
	if analysis.IsObjection && state.Phase != models.PhaseCompleted {
		return models.EnforcementDecision{
			Action:    models.ActionAdvancePhase,
			NextPhase: models.PhaseObjectionHandling,
			Reason:    "objection_detected",
		}
	}

	def, ok := PhaseDef(state.Phase)
	if !ok {
		// Unknown or terminal phase: can stay, cannot advance.
		return models.EnforcementDecision{Action: models.ActionContinue, Reason: "no_phase_config"}
	}

	missing := missingFields(def, state)
	canStay := state.MessageCount >= def.MinMessages && len(missing) == 0
	canAdvance := canStay && len(missingTriggers(def, state)) == 0

	if canAdvance {
		return models.EnforcementDecision{
			Action:    models.ActionAdvancePhase,
			NextPhase: def.NextPhase,
			Reason:    "requirements_met",
		}
	}
	if !canStay {
		question, reason := e.selectQuestion(def, missing, state)
		return models.EnforcementDecision{
			Action:   models.ActionForceQuestion,
			Question: question,
			Reason:   reason,
		}
	}
	return models.EnforcementDecision{Action: models.ActionContinue, Reason: "in_phase"}
}

// resumePhase walks the main chain and picks the first phase with missing
// required fields; with nothing missing, scheduling is next.
func (e *Engine) resumePhase(state *models.ConversationState) models.Phase {
	for _, p := range models.MainChain {
		if p == models.PhaseScheduling {
			break
		}
		def, ok := PhaseDef(p)
		if !ok {
			continue
		}
		if len(missingFields(def, state)) > 0 {
			return p
		}
	}
	return models.PhaseScheduling
}

// selectQuestion picks the canonical question for the first missing field,
// then an unused phase default, then the generic open prompt.
func (e *Engine) selectQuestion(def PhaseDefinition, missing []string, state *models.ConversationState) (string, string) {
	if len(missing) > 0 {
		if q, ok := def.FieldQuestions[missing[0]]; ok {
			return q, fmt.Sprintf("missing_field:%s", missing[0])
		}
	}
	for _, q := range def.DefaultQuestions {
		if !state.WasQuestionAsked(q) {
			return q, "phase_default_question"
		}
	}
	return GenericQuestion, "generic_question"
}

// Apply commits an enforcement decision to the state. Only advance
// decisions mutate the phase.
func (e *Engine) Apply(state *models.ConversationState, decision models.EnforcementDecision) {
	if decision.Action != models.ActionAdvancePhase || decision.NextPhase == "" {
		return
	}
	from := state.Phase
	state.Phase = decision.NextPhase
	slog.Debug("Engine.Apply: phase transition", "contactID", state.ContactID, "from", from, "to", state.Phase, "reason", decision.Reason)
}

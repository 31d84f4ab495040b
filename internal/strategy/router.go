// Package strategy selects, per turn, which response-generation strategy
// should produce the reply. The router is a pure decision function: no
// persisted state, fully deterministic for identical inputs.
package strategy

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vendalab/salespipe/internal/models"
)

// Score contributions for the fixed rule table.
const (
	confidenceFloor = 0.70

	midConversationMin = 2
	midConversationMax = 8
)

// Input is everything the router may consult.
type Input struct {
	Analysis models.TurnAnalysis
	State    *models.ConversationState
}

// scoreRule is one independent point contribution.
type scoreRule struct {
	Name     string
	Strategy models.Strategy
	Points   int
	Applies  func(Input) bool
}

// ruleTable is evaluated in order; every matching rule adds its points to
// its strategy's running total.
var ruleTable = []scoreRule{
	{"commercial_context", models.StrategyStructuredFlow, 100, func(in Input) bool {
		return in.Analysis.CommercialContext
	}},
	{"first_contact", models.StrategyStructuredFlow, 90, func(in Input) bool {
		return in.State != nil && in.State.MessageCount <= 1
	}},
	{"sales_question", models.StrategyStructuredFlow, 85, func(in Input) bool {
		return in.Analysis.IsSalesQuestion
	}},
	{"known_sales_phase", models.StrategyStructuredFlow, 80, func(in Input) bool {
		return in.State != nil && in.State.Phase.IsSalesPhase()
	}},
	{"commercial_intent", models.StrategyStructuredFlow, 75, func(in Input) bool {
		return in.Analysis.CommercialIntent
	}},
	{"segment_known", models.StrategyArchetype, 60, func(in Input) bool {
		return in.Analysis.Segment != "" || (in.State != nil && in.State.Segment != "")
	}},
	{"professional_profile", models.StrategyArchetype, 55, func(in Input) bool {
		return in.Analysis.IsProfessionalProfile
	}},
	{"opt_out_phrasing", models.StrategyArchetype, 100, func(in Input) bool {
		return in.Analysis.IsOptOutPhrase
	}},
	{"scheduling_confirmation", models.StrategyArchetype, 90, func(in Input) bool {
		return in.Analysis.IsSchedulingConfirmation
	}},
	{"objection", models.StrategyHybrid, 70, func(in Input) bool {
		return in.Analysis.IsObjection
	}},
	{"mid_conversation", models.StrategyHybrid, 50, func(in Input) bool {
		return in.State != nil && in.State.MessageCount > midConversationMin && in.State.MessageCount < midConversationMax
	}},
	{"complex_commercial_question", models.StrategyHybrid, 60, func(in Input) bool {
		return in.Analysis.IsComplexQuestion && (in.Analysis.CommercialContext || in.Analysis.CommercialIntent)
	}},
	{"moderately_negative", models.StrategyHybrid, 45, func(in Input) bool {
		return in.Analysis.Sentiment > -0.7 && in.Analysis.Sentiment < -0.3
	}},
	{"very_negative", models.StrategyLLM, 40, func(in Input) bool {
		return in.Analysis.Sentiment <= -0.7
	}},
	{"unknown_non_commercial", models.StrategyLLM, 30, func(in Input) bool {
		a := in.Analysis
		return !a.CommercialContext && !a.CommercialIntent && !a.IsSalesQuestion &&
			a.Segment == "" && !a.IsObjection && !a.IsOptOutPhrase && !a.IsSchedulingConfirmation
	}},
	{"extreme_empathy", models.StrategyLLM, 35, func(in Input) bool {
		return in.Analysis.EmpathyCues
	}},
}

// Router selects exactly one of the four response strategies per turn.
type Router struct{}

// NewRouter creates a Router.
func NewRouter() *Router {
	return &Router{}
}

// Route accumulates the rule table into per-strategy totals, applies the
// LLM override, and picks the winner with the fixed tie-break priority.
func (r *Router) Route(in Input) models.StrategyDecision {
	scores := map[models.Strategy]int{
		models.StrategyStructuredFlow: 0,
		models.StrategyArchetype:      0,
		models.StrategyHybrid:         0,
		models.StrategyLLM:            0,
	}

	var matched []string
	for _, rule := range ruleTable {
		if rule.Applies(in) {
			scores[rule.Strategy] += rule.Points
			matched = append(matched, rule.Name)
		}
	}

	// Never allow unconstrained open generation in a commercial exchange.
	commercial := in.Analysis.CommercialContext || in.Analysis.CommercialIntent || in.Analysis.IsSalesQuestion
	if commercial {
		scores[models.StrategyLLM] = 0
	}

	winner := models.StrategyStructuredFlow
	best := -1
	for _, s := range models.StrategyPriority {
		if scores[s] > best {
			best = scores[s]
			winner = s
		}
	}

	confidence := float64(scores[winner]) / 100
	if confidence < confidenceFloor {
		confidence = confidenceFloor
	}
	if confidence > 1 {
		confidence = 1
	}

	decision := models.StrategyDecision{
		Strategy:      winner,
		Confidence:    confidence,
		Scores:        scores,
		Justification: justification(winner, scores[winner], matched, commercial),
	}
	slog.Debug("Router.Route", "strategy", decision.Strategy, "confidence", decision.Confidence, "rules", matched)
	return decision
}

// FallbackChain returns the documented degradation order starting from the
// chosen strategy: each tier falls back to the next-safer tier, ending at
// STRUCTURED_FLOW, which never fails.
func FallbackChain(from models.Strategy) []models.Strategy {
	chain := []models.Strategy{
		models.StrategyLLM,
		models.StrategyHybrid,
		models.StrategyArchetype,
		models.StrategyStructuredFlow,
	}
	for i, s := range chain {
		if s == from {
			return chain[i:]
		}
	}
	return []models.Strategy{models.StrategyStructuredFlow}
}

func justification(winner models.Strategy, points int, matched []string, commercial bool) string {
	msg := fmt.Sprintf("%s venceu com %d pontos", winner, points)
	if len(matched) > 0 {
		msg += " (regras: " + strings.Join(matched, ", ") + ")"
	}
	if commercial {
		msg += "; contexto comercial zera a pontuação LLM"
	}
	return msg
}

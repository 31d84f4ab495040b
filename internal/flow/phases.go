// Package flow implements the phase-progression engine and the per-turn
// processing pipeline for sales conversations.
package flow

import "github.com/vendalab/salespipe/internal/models"

// PhaseDefinition is the static configuration of one sales phase: entry/exit
// requirements and the mandatory-question mappings. The phase graph lives
// here as data so the state machine is unit-testable and swappable per
// vertical.
type PhaseDefinition struct {
	// MinMessages is the minimum message count before the phase can be left.
	MinMessages int
	// RequiredFields must all be collected before the phase can be left.
	// Order is the fixed priority used for mandatory-question selection.
	RequiredFields []string
	// RequiredTriggers must all be activated before advancing.
	RequiredTriggers []string
	// NextPhase is the default phase after advancing.
	NextPhase models.Phase
	// FieldQuestions maps a missing field to its canonical question.
	FieldQuestions map[string]string
	// DefaultQuestions are phase fallbacks when no canonical mapping exists.
	DefaultQuestions []string
}

// GenericQuestion is the open prompt used when every phase question was
// already asked.
const GenericQuestion = "Me conta um pouco mais sobre isso?"

// phaseTable is the declarative phase graph. COMPLETED is terminal and
// OBJECTION_HANDLING is a side state, so neither has an entry.
var phaseTable = map[models.Phase]PhaseDefinition{
	models.PhaseFirstContact: {
		MinMessages:      2,
		RequiredFields:   []string{"segmento"},
		RequiredTriggers: []string{"apresentacao_respondida"},
		NextPhase:        models.PhaseDiscovery,
		FieldQuestions: map[string]string{
			"segmento": "Legal! Pra eu te ajudar melhor, qual é o ramo da sua empresa?",
		},
		DefaultQuestions: []string{
			"Me conta um pouco sobre a sua empresa?",
		},
	},
	models.PhaseDiscovery: {
		MinMessages:      3,
		RequiredFields:   []string{"dor_identificada", "contexto_operacao"},
		RequiredTriggers: []string{"dor_confirmada"},
		NextPhase:        models.PhaseQualification,
		FieldQuestions: map[string]string{
			"dor_identificada":  "Qual é hoje a maior dificuldade no seu processo comercial?",
			"contexto_operacao": "Como funciona a operação de vendas de vocês no dia a dia?",
		},
		DefaultQuestions: []string{
			"O que te motivou a responder nossa mensagem?",
		},
	},
	models.PhaseQualification: {
		MinMessages:      3,
		RequiredFields:   []string{"autoridade", "orcamento_indicado", "prazo_decisao"},
		RequiredTriggers: []string{"fit_confirmado"},
		NextPhase:        models.PhaseSolutionFit,
		FieldQuestions: map[string]string{
			"autoridade":         "Você quem decide sobre esse tipo de contratação aí na empresa?",
			"orcamento_indicado": "Vocês já têm um orçamento pensado pra resolver isso?",
			"prazo_decisao":      "Pra quando vocês querem essa solução funcionando?",
		},
		DefaultQuestions: []string{
			"Quem mais participaria dessa decisão com você?",
		},
	},
	models.PhaseSolutionFit: {
		MinMessages:      2,
		RequiredFields:   []string{"interesse_solucao"},
		RequiredTriggers: []string{"proposta_aceita"},
		NextPhase:        models.PhaseScheduling,
		FieldQuestions: map[string]string{
			"interesse_solucao": "Faz sentido pra você uma solução que resolva isso de forma automática?",
		},
		DefaultQuestions: []string{
			"Quer que eu te mostre como isso funcionaria no seu caso?",
		},
	},
	models.PhaseScheduling: {
		MinMessages:      1,
		RequiredTriggers: []string{"reuniao_confirmada"},
		NextPhase:        models.PhaseCompleted,
		DefaultQuestions: []string{
			"Qual o melhor dia e horário pra gente conversar 15 minutinhos?",
		},
	},
}

// PhaseDef returns the static configuration for a phase.
func PhaseDef(p models.Phase) (PhaseDefinition, bool) {
	def, ok := phaseTable[p]
	return def, ok
}

// missingFields returns the phase's uncollected required fields in
// priority order.
func missingFields(def PhaseDefinition, state *models.ConversationState) []string {
	var missing []string
	for _, f := range def.RequiredFields {
		if !state.HasField(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// missingTriggers returns the phase's inactive required triggers.
func missingTriggers(def PhaseDefinition, state *models.ConversationState) []string {
	var missing []string
	for _, t := range def.RequiredTriggers {
		if !state.HasTrigger(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// RequiredFieldTotal is the number of required fields across the main
// chain, used for the qualification score.
func RequiredFieldTotal() int {
	total := 0
	for _, p := range models.MainChain {
		if def, ok := phaseTable[p]; ok {
			total += len(def.RequiredFields)
		}
	}
	return total
}

// Package flow: trigger detection and free-text field cues.
package flow

import (
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/vendalab/salespipe/internal/models"
)

// TriggerRule names one trigger and the textual patterns that activate it.
type TriggerRule struct {
	Trigger  string
	Patterns []string
}

// triggerTable maps each phase to the trigger rules scanned on every
// inbound message while the conversation is in that phase.
var triggerTable = map[models.Phase][]TriggerRule{
	models.PhaseFirstContact: {
		{Trigger: "apresentacao_respondida", Patterns: []string{
			"oi", "olá", "ola", "bom dia", "boa tarde", "boa noite",
			"tudo bem", "quem fala", "quem é", "quem e", "opa",
		}},
	},
	models.PhaseDiscovery: {
		{Trigger: "dor_confirmada", Patterns: []string{
			"difícil", "dificil", "problema", "dor", "perdemos", "perco",
			"demora", "gargalo", "complicado", "bagunça", "bagunca",
		}},
	},
	models.PhaseQualification: {
		{Trigger: "fit_confirmado", Patterns: []string{
			"faz sentido", "interessante", "gostei", "quero saber mais",
			"me interessou", "parece bom",
		}},
	},
	models.PhaseSolutionFit: {
		{Trigger: "proposta_aceita", Patterns: []string{
			"pode mandar", "manda a proposta", "quero ver", "me mostra",
			"bora ver", "topo ver",
		}},
	},
	models.PhaseScheduling: {
		{Trigger: "reuniao_confirmada", Patterns: []string{
			"confirmado", "agendado", "marcado", "fechado", "combinado",
		}},
	},
}

// fieldCue populates a collected field with a sentinel value when free
// text mentions it, independent of trigger activation.
type fieldCue struct {
	Phase    models.Phase
	Field    string
	Value    string
	Patterns []string
}

var fieldCues = []fieldCue{
	{Phase: models.PhaseFirstContact, Field: "segmento", Value: "mencionado", Patterns: []string{
		"clínica", "clinica", "consultório", "consultorio", "loja",
		"restaurante", "imobiliária", "imobiliaria", "agência", "agencia",
		"indústria", "industria", "e-commerce", "ecommerce", "escola", "escritório", "escritorio",
	}},
	{Phase: models.PhaseDiscovery, Field: "dor_identificada", Value: "descrita", Patterns: []string{
		"problema", "dificuldade", "dor", "gargalo", "perdemos", "perco", "demora",
	}},
	{Phase: models.PhaseDiscovery, Field: "contexto_operacao", Value: "descrito", Patterns: []string{
		"volume", "processo", "equipe", "vendedores", "atendimentos",
		"planilha", "crm", "funil", "leads",
	}},
	{Phase: models.PhaseQualification, Field: "autoridade", Value: "confirmada", Patterns: []string{
		"sou o dono", "sou dono", "sou dona", "sou sócio", "sou socio",
		"sou sócia", "sou socia", "eu decido", "eu que decido",
		"sou responsável", "sou responsavel", "sou gerente", "sou diretor", "sou diretora",
	}},
	{Phase: models.PhaseQualification, Field: "orcamento_indicado", Value: "mencionado", Patterns: []string{
		"orçamento", "orcamento", "investir", "investimento", "quanto custa",
		"valor", "preço", "preco", "verba",
	}},
	{Phase: models.PhaseQualification, Field: "prazo_decisao", Value: "mencionado", Patterns: []string{
		"esse mês", "esse mes", "este mês", "este mes", "semana que vem",
		"urgente", "o quanto antes", "próximo mês", "proximo mes", "ainda esse ano",
	}},
	{Phase: models.PhaseSolutionFit, Field: "interesse_solucao", Value: "confirmado", Patterns: []string{
		"faz sentido", "quero ver", "me interessa", "gostei", "pode mostrar", "pode mandar",
	}},
}

// ScanMessage runs trigger detection and field cues for the state's phase.
// It mutates the state (monotonic trigger set, add-or-overwrite fields) and
// returns the names of the triggers activated this turn.
func ScanMessage(state *models.ConversationState, text string, now time.Time) []string {
	lower := strings.ToLower(text)
	var activated []string

	for _, rule := range triggerTable[state.Phase] {
		if matchAny(lower, rule.Patterns) && state.AddTrigger(rule.Trigger) {
			activated = append(activated, rule.Trigger)
		}
	}

	for _, cue := range fieldCues {
		if cue.Phase != state.Phase {
			continue
		}
		if matchAny(lower, cue.Patterns) && !state.HasField(cue.Field) {
			state.SetField(cue.Field, cue.Value, now)
		}
	}

	if len(activated) > 0 {
		slog.Debug("flow.ScanMessage: triggers activated", "contactID", state.ContactID, "triggers", activated)
	}
	return activated
}

// matchAny matches multi-word patterns as substrings and single-word
// patterns as whole tokens, so "oi" never fires inside "depois" and "dor"
// never fires inside "vendedor".
func matchAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.ContainsRune(p, ' ') {
			if strings.Contains(lower, p) {
				return true
			}
			continue
		}
		if containsToken(lower, p) {
			return true
		}
	}
	return false
}

func containsToken(lower, word string) bool {
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
	for _, tok := range tokens {
		if tok == word {
			return true
		}
	}
	return false
}

// Package analysis provides the lightweight keyword-based per-turn
// pre-analysis consumed by the strategy router and the phase engine:
// sentiment in [-1,1], segment detection, and boolean intent flags.
package analysis

import (
	"log/slog"
	"strings"

	"github.com/vendalab/salespipe/internal/models"
)

// ---- Keyword tables (pt-BR) ----

var positiveWords = []string{
	"sim", "claro", "ótimo", "otimo", "legal", "perfeito", "com certeza",
	"pode ser", "gostei", "obrigado", "obrigada", "show", "top", "bacana",
	"maravilha", "excelente", "interessante", "adorei", "fechado", "bora",
}

var negativeWords = []string{
	"não", "nao", "caro", "ruim", "péssimo", "pessimo", "nunca", "odeio",
	"horrível", "horrivel", "chato", "cansado", "raiva", "absurdo",
	"decepcionado", "péssima", "pessima", "lixo", "golpe",
}

var objectionPhrases = []string{
	"muito caro", "tá caro", "ta caro", "sem tempo", "não preciso", "nao preciso",
	"já tenho", "ja tenho", "já temos", "ja temos", "não confio", "nao confio",
	"depois eu vejo", "não funciona", "nao funciona", "não acredito", "nao acredito",
}

var commercialContextWords = []string{
	"preço", "preco", "proposta", "orçamento", "orcamento", "contrato",
	"venda", "vendas", "comprar", "plano", "planos", "assinatura",
	"mensalidade", "desconto", "condição de pagamento", "condicao de pagamento",
}

var commercialIntentPhrases = []string{
	"quero contratar", "quero comprar", "quanto custa", "quanto fica",
	"me manda a proposta", "manda a proposta", "tem desconto",
	"como faço pra assinar", "como faco pra assinar", "quero fechar",
}

var optOutPhrases = []string{
	"não quero receber", "nao quero receber", "pare de", "para de me",
	"me tira da lista", "me tire da lista", "descadastrar", "remover meu",
	"sair da lista", "não me mande", "nao me mande", "stop",
}

var schedulingConfirmPhrases = []string{
	"confirmado", "pode agendar", "pode marcar", "tá marcado", "ta marcado",
	"fechado então", "fechado entao", "combinado então", "combinado entao",
}

var empathyCues = []string{
	"faleceu", "falecimento", "luto", "doente", "hospital", "internado",
	"acidente", "momento difícil", "momento dificil", "depressão", "depressao",
}

var professionalWords = []string{
	"diretor", "diretora", "gerente", "ceo", "sócio", "socio", "sócia", "socia",
	"proprietário", "proprietária", "proprietario", "fundador", "fundadora",
}

// segmentCue pairs a business keyword with its canonical segment tag.
type segmentCue struct {
	Keyword string
	Segment string
}

// segmentCues is scanned in order; the first matching keyword wins, so a
// message mentioning two verticals always resolves the same way.
var segmentCues = []segmentCue{
	{"clínica", "saude"},
	{"clinica", "saude"},
	{"consultório", "saude"},
	{"consultorio", "saude"},
	{"loja", "varejo"},
	{"e-commerce", "varejo"},
	{"ecommerce", "varejo"},
	{"restaurante", "alimentacao"},
	{"lanchonete", "alimentacao"},
	{"imobiliária", "imobiliario"},
	{"imobiliaria", "imobiliario"},
	{"agência", "servicos"},
	{"agencia", "servicos"},
	{"escritório", "servicos"},
	{"escritorio", "servicos"},
	{"indústria", "industria"},
	{"industria", "industria"},
	{"fábrica", "industria"},
	{"fabrica", "industria"},
	{"escola", "educacao"},
	{"curso", "educacao"},
}

// complexQuestionMinWords is the size past which a question is considered
// complex for routing purposes.
const complexQuestionMinWords = 15

// Analyzer produces TurnAnalysis values. It is deterministic and side-effect
// free; the same inputs always yield the same analysis.
type Analyzer struct{}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze scans the inbound text and profile metadata and returns the
// per-turn signals.
func (a *Analyzer) Analyze(text string, profile map[string]string) models.TurnAnalysis {
	lower := strings.ToLower(text)

	analysis := models.TurnAnalysis{
		Sentiment:                sentimentScore(lower),
		Segment:                  detectSegment(lower, profile),
		IsObjection:              containsAny(lower, objectionPhrases),
		IsComplexQuestion:        isComplexQuestion(lower),
		IsProfessionalProfile:    isProfessionalProfile(lower, profile),
		IsOptOutPhrase:           containsAny(lower, optOutPhrases),
		IsSchedulingConfirmation: containsAny(lower, schedulingConfirmPhrases),
		CommercialContext:        containsAny(lower, commercialContextWords),
		CommercialIntent:         containsAny(lower, commercialIntentPhrases),
		EmpathyCues:              containsAny(lower, empathyCues),
	}
	analysis.IsSalesQuestion = strings.Contains(lower, "?") && (analysis.CommercialContext || analysis.CommercialIntent)
	analysis.PositiveIntent = analysis.Sentiment > 0

	slog.Debug("Analyzer.Analyze completed",
		"sentiment", analysis.Sentiment,
		"segment", analysis.Segment,
		"objection", analysis.IsObjection,
		"commercial_context", analysis.CommercialContext)
	return analysis
}

// sentimentScore computes a clamped keyword-balance score in [-1,1].
func sentimentScore(lower string) float64 {
	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	score := float64(pos-neg) / float64(total)
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

func detectSegment(lower string, profile map[string]string) string {
	if profile != nil {
		if seg := strings.TrimSpace(strings.ToLower(profile["segmento"])); seg != "" {
			return seg
		}
	}
	for _, cue := range segmentCues {
		if strings.Contains(lower, cue.Keyword) {
			return cue.Segment
		}
	}
	return ""
}

func isComplexQuestion(lower string) bool {
	if !strings.Contains(lower, "?") {
		return false
	}
	if strings.Count(lower, "?") > 1 {
		return true
	}
	return len(strings.Fields(lower)) >= complexQuestionMinWords
}

func isProfessionalProfile(lower string, profile map[string]string) bool {
	if profile != nil && strings.TrimSpace(profile["cargo"]) != "" {
		return true
	}
	return containsAny(lower, professionalWords)
}

func containsAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

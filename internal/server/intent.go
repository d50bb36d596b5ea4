package server

import "strings"

// intentRules maps coarse intent labels to the Portuguese keywords that
// signal them. Evaluated in order; first label with a matching keyword wins.
var intentRules = []struct {
	label    string
	keywords []string
}{
	{"ranking", []string{"maior", "menor", "top ", "ranking", "melhores", "piores", "mais vend"}},
	{"tendencia", []string{"evolução", "evolucao", "tendência", "tendencia", "crescimento", "ao longo", "histórico", "historico", "por mês", "por mes", "mensal"}},
	{"comparacao", []string{"comparar", "comparação", "comparacao", "versus", " vs ", "diferença", "diferenca"}},
	{"contagem", []string{"quantos", "quantas", "número de", "numero de", "quantidade"}},
	{"faturamento", []string{"faturamento", "receita", "vendas", "venda", "lucro", "resultado"}},
}

// defaultIntent groups questions no rule matched.
const defaultIntent = "consulta_geral"

// LabelIntent assigns a coarse intent label to a question, used to group
// learned queries. The labels are buckets for warm-start lookup, not a
// semantic classification.
func LabelIntent(question string) string {
	q := " " + strings.ToLower(strings.TrimSpace(question)) + " "
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.label
			}
		}
	}
	return defaultIntent
}

package response

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFailure_CleanAnswer(t *testing.T) {
	c := NewClassifier(nil)
	assert.False(t, c.IsFailure("O faturamento foi de R$ 45.230,10 em dezembro"))
}

func TestIsFailure_EarlyStrongIndicator(t *testing.T) {
	c := NewClassifier(nil)
	assert.True(t, c.IsFailure("Não encontrei a medida Lucro Líquido no modelo"))
}

func TestIsFailure_EarlyStrongIndicatorDominatesNumbers(t *testing.T) {
	c := NewClassifier(nil)
	answer := "Não encontrei dados para janeiro, mas em dezembro o total foi R$ 10.000,00"
	assert.True(t, c.IsFailure(answer))
}

func TestIsFailure_SelfDoubtDespiteNumericContent(t *testing.T) {
	c := NewClassifier(nil)
	answer := "Este valor parece representar o total, mas pode não estar correto: R$ 12.000"
	assert.True(t, c.IsFailure(answer))
}

func TestIsFailure_EvasionWithoutNumbers(t *testing.T) {
	c := NewClassifier(nil)
	pad := strings.Repeat("Os dados do período estão organizados por região e por vendedor. ", 6)
	assert.True(t, c.IsFailure(pad+"Posso analisar as vendas por região, por produto ou por período."))
}

func TestIsFailure_EvasionWithNumbersTolerated(t *testing.T) {
	c := NewClassifier(nil)
	answer := "O total foi R$ 45.230,10. Posso analisar também por região se quiser."
	assert.False(t, c.IsFailure(answer))
}

func TestIsFailure_LateStrongIndicatorAcceptedWithNumbers(t *testing.T) {
	c := NewClassifier(nil)
	// The trigger phrase appears past the early window, there is no hedging,
	// and the text carries real numbers: accepted.
	pad := strings.Repeat("As vendas de dezembro somaram R$ 98.450,33 considerando todas as lojas. ", 5)
	answer := pad + "Para o produto X não encontrei registros adicionais."
	assert.False(t, c.IsFailure(answer))
}

func TestIsFailure_LateStrongIndicatorWithoutNumbers(t *testing.T) {
	c := NewClassifier(nil)
	pad := strings.Repeat("A análise considera todas as lojas ativas no período selecionado. ", 6)
	answer := pad + "Para esse filtro não encontrei registros."
	assert.True(t, c.IsFailure(answer))
}

func TestIsFailure_LateStrongIndicatorWithHedging(t *testing.T) {
	c := NewClassifier(nil)
	pad := strings.Repeat("O relatório cobre o período de janeiro a dezembro do ano passado. ", 6)
	answer := pad + "O valor de R$ 5.000 parece representar o total, mas pode não estar correto."
	assert.True(t, c.IsFailure(answer))
}

func TestFailureReason_ExecutionErrorTakesPrecedence(t *testing.T) {
	c := NewClassifier(nil)
	assert.Equal(t, ReasonExecutionError, c.FailureReason("Não encontrei a medida", true))
}

func TestFailureReason_Labels(t *testing.T) {
	c := NewClassifier(nil)
	tests := []struct {
		name   string
		answer string
		want   Reason
	}{
		{"entity", "Não encontrei a medida Lucro Líquido no modelo", ReasonEntityNotFound},
		{"incorrect", "Este valor parece representar o total, mas pode não estar correto", ReasonIncorrectData},
		{"not understood", "Desculpe, não entendi sua pergunta", ReasonNotUnderstood},
		{"no data", "Não há dados para o período informado", ReasonNoData},
		{"evasive", "Posso analisar as vendas por região", ReasonEvasive},
		{"unknown", "Resposta sem indicadores", ReasonUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.FailureReason(tt.answer, false))
		})
	}
}

func TestClassifier_CustomIndicators(t *testing.T) {
	c := NewClassifier(&Indicators{
		NoData: []string{"no rows found"},
	})
	assert.True(t, c.IsFailure("No rows found for that filter"))
	assert.False(t, c.IsFailure("Não encontrei a medida"), "default lists not in play")
}

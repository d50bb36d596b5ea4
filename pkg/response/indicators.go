package response

// Indicators holds the phrase lists used to detect failed or evasive answers.
// The lists are configuration data, not code: deployments can override them in
// YAML without touching the classifier logic. Matching is case-insensitive.
type Indicators struct {
	// NotUnderstood phrases signal the model did not understand the question.
	NotUnderstood []string `yaml:"not_understood"`

	// NoData phrases signal the model found no data for the question.
	NoData []string `yaml:"no_data"`

	// EntityMissing phrases signal a referenced measure, column or table does
	// not exist in the semantic model.
	EntityMissing []string `yaml:"entity_missing"`

	// SelfDoubt phrases are hedges casting doubt on the answer's own numbers.
	SelfDoubt []string `yaml:"self_doubt"`

	// Evasion phrases redirect the conversation instead of answering.
	Evasion []string `yaml:"evasion"`
}

// DefaultIndicators returns the tuned phrase lists for Portuguese answers.
// The precedence rules in Classifier encode product decisions about
// false-positive tolerance; changes here should be validated against real
// conversation logs.
func DefaultIndicators() *Indicators {
	return &Indicators{
		NotUnderstood: []string{
			"não entendi",
			"não compreendi",
			"não consegui entender",
			"poderia reformular",
			"não ficou claro",
		},
		NoData: []string{
			"não encontrei",
			"não há dados",
			"nenhum dado",
			"sem dados disponíveis",
			"não foi possível localizar",
			"não tenho informações",
		},
		EntityMissing: []string{
			"não existe no modelo",
			"não está no modelo",
			"não encontrei a medida",
			"não encontrei a coluna",
			"não encontrei a tabela",
			"não faz parte do modelo",
		},
		SelfDoubt: []string{
			"parece representar",
			"pode não estar correto",
			"pode não ser exato",
			"não tenho certeza",
			"talvez não seja",
		},
		Evasion: []string{
			"posso analisar",
			"você quis dizer",
			"gostaria que eu",
			"posso te ajudar com",
		},
	}
}

// strong returns all phrases treated as strong failure indicators.
func (i *Indicators) strong() [][]string {
	return [][]string{i.NotUnderstood, i.NoData, i.EntityMissing, i.SelfDoubt}
}

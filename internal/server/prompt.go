package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/model"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/query"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/session"
)

// toolExecuteQuery is the tool the model uses to run a query against the
// active dataset.
const toolExecuteQuery = "execute_query"

// maxPromptRows caps how many result rows are handed back to the model when
// composing the final answer.
const maxPromptRows = 50

const systemPromptTemplate = `Você é um assistente de análise de dados conectado ao painel *%s*.
As perguntas do usuário são respondidas com dados reais do modelo semântico.
Use a ferramenta %s para executar uma consulta DAX e obter os dados antes de responder.
Escreva a consulta completa, começando com EVALUATE.
Responda sempre em português do Brasil, de forma direta, com valores formatados (R$ para moeda, %% para percentuais).
Nunca invente números: se a consulta não retornar dados, diga isso claramente.`

const answerPromptTemplate = `Você é um assistente de análise de dados conectado ao painel *%s*.
Com base no resultado da consulta fornecido, responda a pergunta do usuário em português do Brasil.
Seja direto, use os valores reais do resultado e formate moeda como R$.
Se o resultado estiver vazio, informe que não há dados para a pergunta.`

// buildSystemPrompt renders the tool-use system prompt, seeding it with
// previously validated query texts for the same intent when any exist.
func buildSystemPrompt(sess *session.Session, warmQueries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, systemPromptTemplate, sess.DatasetName, toolExecuteQuery)

	if len(warmQueries) > 0 {
		b.WriteString("\n\nConsultas que funcionaram em perguntas semelhantes neste painel:")
		for _, q := range warmQueries {
			b.WriteString("\n```\n")
			b.WriteString(q)
			b.WriteString("\n```")
		}
		b.WriteString("\nPrefira adaptar uma destas consultas quando a pergunta for compatível.")
	}
	return b.String()
}

// buildAnswerPrompt renders the system prompt for the narration call.
func buildAnswerPrompt(sess *session.Session) string {
	return fmt.Sprintf(answerPromptTemplate, sess.DatasetName)
}

// renderRowsPrompt serializes query rows for the narration call, truncating
// large results.
func renderRowsPrompt(rows []query.Row) string {
	truncated := false
	if len(rows) > maxPromptRows {
		rows = rows[:maxPromptRows]
		truncated = true
	}

	data, err := json.Marshal(rows)
	if err != nil {
		data = []byte("[]")
	}

	var b strings.Builder
	b.WriteString("Resultado da consulta (JSON):\n")
	b.Write(data)
	if truncated {
		fmt.Fprintf(&b, "\n(mostrando as primeiras %d linhas)", maxPromptRows)
	}
	b.WriteString("\nResponda a pergunta usando estes dados.")
	return b.String()
}

// queryTools declares the execute_query tool.
func queryTools() []model.Tool {
	return []model.Tool{{
		Name:        toolExecuteQuery,
		Description: "Executa uma consulta DAX no modelo semântico do painel ativo e retorna as linhas do resultado.",
		InputSchema: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Consulta DAX completa, começando com EVALUATE.",
			},
		},
		Required: []string{"query"},
	}}
}

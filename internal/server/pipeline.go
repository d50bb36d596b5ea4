package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/learning"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/model"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/query"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/response"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/session"
)

// Invoker runs a model call through the retry loop.
type Invoker interface {
	Invoke(ctx context.Context, params model.CallParams) (*model.CallResult, error)
}

// Executor runs a query against the analytical backend.
type Executor interface {
	Execute(ctx context.Context, connectionID, datasetID, queryText string) (*query.Result, error)
}

// Pipeline drives one inbound message through session resolution, model
// invocation, query execution, answer classification and learning.
type Pipeline struct {
	resolver     *session.Resolver
	invoker      Invoker
	engine       Executor
	learning     learning.Store
	responses    *response.Classifier
	workingLimit int
	logger       *slog.Logger
}

// NewPipeline wires the pipeline. workingLimit bounds the warm-start queries
// fetched per question; zero uses the learning store default.
func NewPipeline(resolver *session.Resolver, invoker Invoker, engine Executor,
	store learning.Store, responses *response.Classifier, workingLimit int) *Pipeline {
	if workingLimit == 0 {
		workingLimit = learning.DefaultWorkingLimit
	}
	return &Pipeline{
		resolver:     resolver,
		invoker:      invoker,
		engine:       engine,
		learning:     store,
		responses:    responses,
		workingLimit: workingLimit,
		logger:       slog.Default().With("component", "pipeline"),
	}
}

// HandleMessage resolves the sender's context and produces the reply body.
// Menu, confirmation and no-access messages short-circuit the model
// pipeline; a consumed selection message is never forwarded as a question.
func (p *Pipeline) HandleMessage(ctx context.Context, phone, message, userName string) (string, error) {
	res, err := p.resolver.Resolve(ctx, phone, message, session.Meta{UserName: userName})
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	if res.MenuMessage != "" {
		return res.MenuMessage, nil
	}
	if !res.HasSession {
		return "", fmt.Errorf("resolution produced neither session nor message for %s", phone)
	}
	return p.answer(ctx, res.Session, message)
}

// answer runs the model pipeline for a question against an active session.
func (p *Pipeline) answer(ctx context.Context, sess *session.Session, question string) (string, error) {
	intent := LabelIntent(question)

	warm, err := p.learning.WorkingQueries(ctx, sess.DatasetID, intent, p.workingLimit)
	if err != nil {
		p.logger.Warn("warm-start lookup failed", "dataset_id", sess.DatasetID, "error", err)
		warm = nil
	}

	result, err := p.invoker.Invoke(ctx, model.CallParams{
		System:   buildSystemPrompt(sess, warm),
		Messages: []model.Message{{Role: model.RoleUser, Content: question}},
		Tools:    queryTools(),
	})
	if err != nil {
		return "", fmt.Errorf("invoking model: %w", err)
	}

	call := firstQueryCall(result)
	if call == nil {
		// The model answered without querying.
		return result.Text, nil
	}

	queryText, ok := call.Input["query"].(string)
	if !ok || queryText == "" {
		return "", fmt.Errorf("model tool call missing query text")
	}

	execResult, execErr := p.engine.Execute(ctx, sess.ConnectionID, sess.DatasetID, queryText)

	var answer string
	if execErr != nil {
		answer = classify.MsgFailed
	} else {
		answer, err = p.narrate(ctx, sess, question, execResult.Rows)
		if err != nil {
			return "", fmt.Errorf("composing answer: %w", err)
		}
	}

	p.record(ctx, sess, intent, question, queryText, execResult, execErr, answer)

	return answer, nil
}

// narrate asks the model to phrase the query rows as a final answer. No
// tools are declared, so the call runs at the free-text temperature.
func (p *Pipeline) narrate(ctx context.Context, sess *session.Session, question string, rows []query.Row) (string, error) {
	result, err := p.invoker.Invoke(ctx, model.CallParams{
		System: buildAnswerPrompt(sess),
		Messages: []model.Message{
			{Role: model.RoleUser, Content: question},
			{Role: model.RoleAssistant, Content: "Executei a consulta no painel. Vou analisar o resultado."},
			{Role: model.RoleUser, Content: renderRowsPrompt(rows)},
		},
	})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// record persists the execution outcome for warm-start learning. A failed
// record never fails the reply.
func (p *Pipeline) record(ctx context.Context, sess *session.Session, intent, question, queryText string,
	execResult *query.Result, execErr error, answer string) {
	outcome := learning.Outcome{
		DatasetID: sess.DatasetID,
		GroupID:   sess.ConnectionID,
		Question:  question,
		Intent:    intent,
		QueryText: queryText,
	}

	switch {
	case execErr != nil:
		outcome.Error = execErr.Error()
		if execResult != nil {
			outcome.ElapsedMS = execResult.Elapsed.Milliseconds()
		}
	case p.responses.IsFailure(answer):
		outcome.Error = string(p.responses.FailureReason(answer, false))
		outcome.ElapsedMS = execResult.Elapsed.Milliseconds()
		outcome.RowCount = len(execResult.Rows)
	default:
		outcome.Success = true
		outcome.ElapsedMS = execResult.Elapsed.Milliseconds()
		outcome.RowCount = len(execResult.Rows)
	}

	if err := p.learning.RecordOutcome(ctx, outcome); err != nil {
		p.logger.Warn("recording query outcome failed",
			"dataset_id", sess.DatasetID, "intent", intent, "error", err)
	}
}

// firstQueryCall returns the first execute_query tool call, or nil when the
// model produced only text.
func firstQueryCall(result *model.CallResult) *model.ToolCall {
	for i := range result.ToolCalls {
		if result.ToolCalls[i].Name == toolExecuteQuery {
			return &result.ToolCalls[i]
		}
	}
	return nil
}

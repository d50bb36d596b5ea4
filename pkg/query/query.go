// Package query executes analytical queries against a remote tabular
// backend. The Engine resolves connection credentials, attaches a cached
// bearer token, enforces a per-attempt deadline and performs a single
// re-authenticated retry when the backend rejects the token.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/connection"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/token"
)

// DefaultTimeout is the wall-clock budget per execution attempt.
const DefaultTimeout = 20 * time.Second

// Row is one result record keyed by column name.
type Row map[string]any

// Result is the outcome of a query execution. Elapsed is populated on every
// outcome, success or failure.
type Result struct {
	// Success reports whether the backend returned rows.
	Success bool `json:"success"`

	// Rows holds the result records in backend order. An empty slice on a
	// successful execution is a valid result, not an error.
	Rows []Row `json:"rows,omitempty"`

	// Error carries the failure message when Success is false.
	Error string `json:"error,omitempty"`

	// Retried reports whether a re-authenticated second attempt ran.
	Retried bool `json:"retried"`

	// Elapsed is the wall-clock duration of the execution.
	Elapsed time.Duration `json:"elapsed"`
}

// Backend issues one query against the remote analytical API.
// Implementations return the rows of the first table of the first result in
// the response envelope, and classify.StatusError for HTTP failures.
type Backend interface {
	Execute(ctx context.Context, accessToken, datasetID, queryText string) ([]Row, error)
}

// EngineConfig configures the execution engine.
type EngineConfig struct {
	// Timeout overrides DefaultTimeout.
	Timeout time.Duration
}

// Engine coordinates credential resolution, token caching and backend
// execution for a single query.
type Engine struct {
	connections connection.Store
	tokens      *token.Cache
	backend     Backend
	timeout     time.Duration
	logger      *slog.Logger
}

// NewEngine creates an engine over the given stores and backend.
func NewEngine(connections connection.Store, tokens *token.Cache, backend Backend, cfg EngineConfig) *Engine {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		connections: connections,
		tokens:      tokens,
		backend:     backend,
		timeout:     timeout,
		logger:      slog.Default().With("component", "query"),
	}
}

// Execute runs queryText against the dataset using the connection's
// credentials. A 401 from the backend invalidates the cached token and
// triggers exactly one re-authenticated retry; a second 401 propagates as a
// fatal error. The returned Result is non-nil on every outcome.
func (e *Engine) Execute(ctx context.Context, connectionID, datasetID, queryText string) (*Result, error) {
	start := time.Now()

	conn, err := e.connections.Get(ctx, connectionID)
	if err != nil {
		return e.failure(start, false, err), fmt.Errorf("resolving connection: %w", err)
	}
	if conn == nil {
		err := fmt.Errorf("connection %q not found", connectionID)
		return e.failure(start, false, err), err
	}

	accessToken, err := e.tokens.Token(ctx, conn)
	if err != nil {
		return e.failure(start, false, err), fmt.Errorf("acquiring token: %w", err)
	}

	rows, err := e.attempt(ctx, accessToken, datasetID, queryText)
	if err == nil {
		return e.success(start, false, rows), nil
	}
	if !isUnauthorized(err) {
		return e.failure(start, false, err), err
	}

	// Token rejected. Invalidate, fetch fresh, retry once.
	e.logger.Warn("backend rejected token, re-authenticating",
		"connection_id", connectionID, "dataset_id", datasetID)
	e.tokens.Invalidate(conn.ID)

	accessToken, err = e.tokens.Token(ctx, conn)
	if err != nil {
		return e.failure(start, true, err), fmt.Errorf("re-acquiring token: %w", err)
	}

	rows, err = e.attempt(ctx, accessToken, datasetID, queryText)
	if err != nil {
		if isUnauthorized(err) {
			err = fmt.Errorf("authorization failed after token refresh: %w", err)
		}
		return e.failure(start, true, err), err
	}
	return e.success(start, true, rows), nil
}

// attempt runs one backend call under the execution deadline. A fired
// deadline surfaces as a timeout-specific error and the late response, if
// any, is discarded with the canceled context.
func (e *Engine) attempt(ctx context.Context, accessToken, datasetID, queryText string) ([]Row, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.backend.Execute(attemptCtx, accessToken, datasetID, queryText)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("query timeout after %s", e.timeout)
		}
		return nil, err
	}
	return rows, nil
}

func (e *Engine) success(start time.Time, retried bool, rows []Row) *Result {
	if rows == nil {
		rows = []Row{}
	}
	return &Result{Success: true, Rows: rows, Retried: retried, Elapsed: time.Since(start)}
}

func (e *Engine) failure(start time.Time, retried bool, err error) *Result {
	return &Result{Error: err.Error(), Retried: retried, Elapsed: time.Since(start)}
}

func isUnauthorized(err error) bool {
	var statusErr *classify.StatusError
	return errors.As(err, &statusErr) && statusErr.Status == 401
}

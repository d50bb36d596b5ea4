// Package learning persists the outcome of query executions so future
// identical intents can skip model generation. Successful query texts are
// deduplicated by content hash and fed back into prompt construction as
// warm-start candidates.
package learning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultWorkingLimit is how many warm-start candidates a prompt receives.
const DefaultWorkingLimit = 3

// Outcome is one query execution result to record.
type Outcome struct {
	// DatasetID is the dataset the query ran against.
	DatasetID string

	// GroupID is the workspace group holding the dataset.
	GroupID string

	// Question is the user's natural-language question.
	Question string

	// Intent is a coarse label for what kind of question was asked.
	Intent string

	// QueryText is the generated query, opaque to this package.
	QueryText string

	// Success indicates the execution returned rows without error.
	Success bool

	// Error holds the execution error text, when any.
	Error string

	// ElapsedMS is the execution wall-clock time in milliseconds.
	ElapsedMS int64

	// RowCount is the number of rows the execution returned.
	RowCount int
}

// LearnedQuery is a stored (dataset, intent, query text) tuple with its
// reuse statistics. The hash is unique per dataset: re-executions of an
// identical successful query increment TimesUsed instead of duplicating the
// row, while a textually different query for the same intent inserts a new
// row.
type LearnedQuery struct {
	ID          string
	DatasetID   string
	GroupID     string
	Intent      string
	Question    string
	QueryText   string
	QueryHash   string
	Success     bool
	ErrorText   string
	ExecutionMS int64
	RowCount    int
	TimesUsed   int
	LastUsedAt  time.Time
	CreatedAt   time.Time
}

// Store defines the interface for learned-query persistence. RecordOutcome
// must be atomic per (dataset, hash): concurrent executions of the same
// query text must not create duplicate rows.
type Store interface {
	// RecordOutcome persists one execution outcome. Failures are retained
	// alongside successes for diagnostics.
	RecordOutcome(ctx context.Context, o Outcome) error

	// WorkingQueries returns up to limit successful query texts for the
	// (dataset, intent) pair, ordered by reuse count descending. A limit of
	// zero uses DefaultWorkingLimit.
	WorkingQueries(ctx context.Context, datasetID, intent string, limit int) ([]string, error)
}

// HashQuery computes the content hash identifying a query text.
func HashQuery(queryText string) string {
	sum := sha256.Sum256([]byte(queryText))
	return hex.EncodeToString(sum[:])
}

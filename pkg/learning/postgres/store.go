// Package postgres provides PostgreSQL storage for learned queries.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/learning"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements learning.Store using PostgreSQL. The (dataset_id,
// query_hash) unique constraint makes the increment-or-insert a single
// atomic upsert.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL learned-query store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordOutcome persists one execution outcome. A successful re-execution of
// an identical query text increments its reuse counter; a failure for an
// already-known text leaves the row unchanged. New texts insert regardless
// of success, so failures stay available for diagnostics.
func (s *Store) RecordOutcome(ctx context.Context, o learning.Outcome) error {
	hash := learning.HashQuery(o.QueryText)

	if o.Success {
		query := `
			INSERT INTO learned_queries
				(id, dataset_id, group_id, intent, question, query_text, query_hash,
				 success, error_text, execution_ms, row_count, times_used, last_used_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, '', $8, $9, 1, NOW(), NOW())
			ON CONFLICT (dataset_id, query_hash) DO UPDATE SET
				times_used   = learned_queries.times_used + 1,
				last_used_at = NOW(),
				success      = TRUE,
				error_text   = '',
				execution_ms = EXCLUDED.execution_ms,
				row_count    = EXCLUDED.row_count
		`
		_, err := s.db.ExecContext(ctx, query,
			uuid.NewString(), o.DatasetID, o.GroupID, o.Intent, o.Question,
			o.QueryText, hash, o.ElapsedMS, o.RowCount,
		)
		if err != nil {
			return fmt.Errorf("recording successful query: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO learned_queries
			(id, dataset_id, group_id, intent, question, query_text, query_hash,
			 success, error_text, execution_ms, row_count, times_used, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, $10, 1, NOW(), NOW())
		ON CONFLICT (dataset_id, query_hash) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), o.DatasetID, o.GroupID, o.Intent, o.Question,
		o.QueryText, hash, o.Error, o.ElapsedMS, o.RowCount,
	)
	if err != nil {
		return fmt.Errorf("recording failed query: %w", err)
	}
	return nil
}

// WorkingQueries returns up to limit successful query texts for the
// (dataset, intent) pair, ordered by reuse count descending.
func (s *Store) WorkingQueries(ctx context.Context, datasetID, intent string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = learning.DefaultWorkingLimit
	}

	qb := psq.Select("query_text").
		From("learned_queries").
		Where(sq.Eq{"dataset_id": datasetID, "intent": intent, "success": true}).
		OrderBy("times_used DESC", "last_used_at DESC").
		Limit(uint64(limit))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building working-queries query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing working queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning query text: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query rows: %w", err)
	}
	return texts, nil
}

// Verify interface compliance.
var _ learning.Store = (*Store)(nil)

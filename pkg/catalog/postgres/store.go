// Package postgres provides PostgreSQL-backed dataset authorization lookup.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/catalog"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements catalog.Lister using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL catalog store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListForPhone returns authorizations for the phone, ordered by option number.
func (s *Store) ListForPhone(ctx context.Context, phone string) ([]catalog.AvailableDataset, error) {
	qb := psq.Select(
		"an.id", "an.phone", "an.user_name",
		"ad.connection_id", "c.name",
		"ad.dataset_id", "ad.dataset_name",
		"ad.report_id", "ad.report_name",
		"ad.option_number",
	).
		From("authorized_numbers an").
		Join("authorized_datasets ad ON ad.authorized_number_id = an.id").
		Join("connections c ON c.id = ad.connection_id").
		Where(sq.Eq{"an.phone": phone, "an.active": true}).
		OrderBy("ad.option_number")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building catalog query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing datasets for phone: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var datasets []catalog.AvailableDataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dataset rows: %w", err)
	}
	return datasets, nil
}

func scanDataset(rows *sql.Rows) (catalog.AvailableDataset, error) {
	var d catalog.AvailableDataset
	var userName, reportID, reportName sql.NullString

	err := rows.Scan(
		&d.AuthorizedNumberID, &d.Phone, &userName,
		&d.ConnectionID, &d.ConnectionName,
		&d.DatasetID, &d.DatasetName,
		&reportID, &reportName,
		&d.OptionNumber,
	)
	if err != nil {
		return d, fmt.Errorf("scanning dataset row: %w", err)
	}

	d.UserName = userName.String
	d.ReportID = reportID.String
	d.ReportName = reportName.String
	return d, nil
}

// Verify interface compliance.
var _ catalog.Lister = (*Store)(nil)

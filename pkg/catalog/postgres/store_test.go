package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var datasetColumns = []string{
	"id", "phone", "user_name",
	"connection_id", "name",
	"dataset_id", "dataset_name",
	"report_id", "report_name",
	"option_number",
}

func TestListForPhone_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows(datasetColumns).
		AddRow("an-1", "5511999990000", "Alexandre",
			"conn-1", "Produção",
			"ds-vendas", "Vendas",
			"rep-1", "Painel de Vendas", 1).
		AddRow("an-1", "5511999990000", "Alexandre",
			"conn-1", "Produção",
			"ds-fin", "Financeiro",
			nil, nil, 2)

	mock.ExpectQuery("SELECT .+ FROM authorized_numbers an JOIN authorized_datasets ad").
		WithArgs(true, "5511999990000").
		WillReturnRows(rows)

	store := New(db)
	datasets, err := store.ListForPhone(context.Background(), "5511999990000")
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	assert.Equal(t, "Vendas", datasets[0].DatasetName)
	assert.Equal(t, "Painel de Vendas", datasets[0].ReportName)
	assert.Equal(t, 1, datasets[0].OptionNumber)
	assert.Equal(t, "Financeiro", datasets[1].DatasetName)
	assert.Empty(t, datasets[1].ReportID, "null report columns scan to empty strings")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForPhone_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .+ FROM authorized_numbers an").
		WithArgs(true, "5511000000000").
		WillReturnRows(sqlmock.NewRows(datasetColumns))

	store := New(db)
	datasets, err := store.ListForPhone(context.Background(), "5511000000000")
	require.NoError(t, err)
	assert.Empty(t, datasets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForPhone_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .+ FROM authorized_numbers an").
		WithArgs(true, "5511999990000").
		WillReturnError(errors.New("connection refused"))

	store := New(db)
	_, err = store.ListForPhone(context.Background(), "5511999990000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing datasets for phone")
}

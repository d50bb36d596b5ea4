package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var connectionColumns = []string{"id", "name", "tenant_id", "client_id", "client_secret", "scope"}

func TestGet_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .+ FROM connections").
		WithArgs("conn-1").
		WillReturnRows(sqlmock.NewRows(connectionColumns).
			AddRow("conn-1", "Produção", "tenant-1", "client-1", "secret", "https://analysis.windows.net/powerbi/api/.default"))

	store := New(db)
	conn, err := store.Get(context.Background(), "conn-1")
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, "Produção", conn.Name)
	assert.Equal(t, "tenant-1", conn.TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .+ FROM connections").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(connectionColumns))

	store := New(db)
	conn, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, conn, "not-found returns nil, nil")
}

func TestGet_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .+ FROM connections").
		WithArgs("conn-1").
		WillReturnError(errors.New("connection refused"))

	store := New(db)
	_, err = store.Get(context.Background(), "conn-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning connection")
}

func TestList_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .+ FROM connections").
		WillReturnRows(sqlmock.NewRows(connectionColumns).
			AddRow("conn-1", "Homologação", "tenant-1", "client-1", "s1", "").
			AddRow("conn-2", "Produção", "tenant-1", "client-2", "s2", ""))

	store := New(db)
	connections, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, connections, 2)
	assert.Equal(t, "Homologação", connections[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

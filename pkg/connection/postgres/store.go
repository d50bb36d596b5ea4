// Package postgres provides PostgreSQL storage for backend connections.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/connection"
)

// Store implements connection.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL connection store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get retrieves a connection by ID. Returns nil, nil if not found.
func (s *Store) Get(ctx context.Context, id string) (*connection.Connection, error) {
	query := `
		SELECT id, name, tenant_id, client_id, client_secret, scope
		FROM connections
		WHERE id = $1
	`
	var c connection.Connection
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.TenantID, &c.ClientID, &c.ClientSecret, &c.Scope,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning connection: %w", err)
	}
	return &c, nil
}

// List returns all connections.
func (s *Store) List(ctx context.Context) ([]*connection.Connection, error) {
	query := `
		SELECT id, name, tenant_id, client_id, client_secret, scope
		FROM connections
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var connections []*connection.Connection
	for rows.Next() {
		var c connection.Connection
		if err := rows.Scan(&c.ID, &c.Name, &c.TenantID, &c.ClientID, &c.ClientSecret, &c.Scope); err != nil {
			return nil, fmt.Errorf("scanning connection row: %w", err)
		}
		connections = append(connections, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connection rows: %w", err)
	}
	return connections, nil
}

// Verify interface compliance.
var _ connection.Store = (*Store)(nil)

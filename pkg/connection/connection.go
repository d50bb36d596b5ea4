// Package connection provides access to analytical backend connections and
// the client credentials used to authenticate against them.
package connection

import "context"

// Connection is an analytical backend connection with its identity
// credentials. The secret is used for client-credentials token grants and
// never leaves this process.
type Connection struct {
	// ID is the unique connection identifier.
	ID string

	// Name is the human-readable connection name shown in menus.
	Name string

	// TenantID is the identity provider tenant for the grant.
	TenantID string

	// ClientID is the OAuth client identifier.
	ClientID string

	// ClientSecret is the OAuth client secret.
	ClientSecret string

	// Scope is the resource scope requested in the grant.
	Scope string
}

// Store defines the interface for connection lookup.
type Store interface {
	// Get retrieves a connection by ID. Returns nil, nil if not found.
	Get(ctx context.Context, id string) (*Connection, error)

	// List returns all connections.
	List(ctx context.Context) ([]*Connection, error)
}

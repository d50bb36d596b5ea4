// Package session binds phone numbers to analytical data contexts. It
// defines the Store interface for session persistence and the Resolver that
// decides, for each inbound message, whether a context is already selected,
// needs selecting, or must be changed.
package session

import (
	"context"
	"time"
)

// DefaultTTL is the sliding inactivity window after which a session expires.
const DefaultTTL = 24 * time.Hour

// Session is the active binding of a phone number to one data context.
// At most one non-expired session exists per phone number at any instant;
// stores enforce this with phone-keyed upsert semantics.
type Session struct {
	// Phone is the identity key.
	Phone string

	// ConnectionID identifies the backend connection the dataset lives on.
	ConnectionID string

	// DatasetID and DatasetName identify the selected dataset.
	DatasetID   string
	DatasetName string

	// ReportID is the associated report context, when one exists.
	ReportID string

	// SelectedAt is when the binding was created.
	SelectedAt time.Time

	// LastActivityAt is the most recent message timestamp.
	LastActivityAt time.Time

	// ExpiresAt is when the session expires if not touched.
	ExpiresAt time.Time
}

// Store defines the interface for session persistence. Implementations must
// make Upsert atomic per phone number: two near-simultaneous messages from
// the same number must not produce two rows.
type Store interface {
	// Get retrieves the session for a phone. Returns nil, nil if absent or
	// expired; an expired session behaves identically to no session.
	Get(ctx context.Context, phone string) (*Session, error)

	// Upsert creates or replaces the session for its phone number.
	Upsert(ctx context.Context, s *Session) error

	// Touch updates LastActivityAt and extends ExpiresAt by the store's TTL.
	// Touching an absent or expired session is a no-op.
	Touch(ctx context.Context, phone string) error

	// Delete removes the session for a phone.
	Delete(ctx context.Context, phone string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close stops background routines and releases resources.
	Close() error
}

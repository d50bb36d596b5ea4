// Package postgres provides PostgreSQL storage for phone sessions.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/session"
)

// Store implements session.Store using PostgreSQL. Session rows are keyed
// uniquely by phone number; Upsert relies on ON CONFLICT so concurrent
// resolutions for the same phone cannot produce two rows.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	cancel context.CancelFunc
	done   chan struct{}
}

// Config configures the PostgreSQL session store.
type Config struct {
	TTL time.Duration
}

// New creates a new PostgreSQL session store.
func New(db *sql.DB, cfg Config) *Store {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = session.DefaultTTL
	}
	return &Store{
		db:  db,
		ttl: ttl,
	}
}

// Get retrieves the session for a phone. Returns nil, nil if absent or
// expired; expiry filtering happens server-side.
func (s *Store) Get(ctx context.Context, phone string) (*session.Session, error) {
	query := `
		SELECT phone, connection_id, dataset_id, dataset_name, report_id,
		       selected_at, last_activity_at, expires_at
		FROM sessions
		WHERE phone = $1 AND expires_at > NOW()
	`
	var sess session.Session
	var reportID sql.NullString

	err := s.db.QueryRowContext(ctx, query, phone).Scan(
		&sess.Phone, &sess.ConnectionID, &sess.DatasetID, &sess.DatasetName,
		&reportID, &sess.SelectedAt, &sess.LastActivityAt, &sess.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	sess.ReportID = reportID.String
	return &sess, nil
}

// Upsert creates or replaces the session for its phone number.
func (s *Store) Upsert(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO sessions (phone, connection_id, dataset_id, dataset_name, report_id,
		                      selected_at, last_activity_at, expires_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
		ON CONFLICT (phone) DO UPDATE SET
			connection_id    = EXCLUDED.connection_id,
			dataset_id       = EXCLUDED.dataset_id,
			dataset_name     = EXCLUDED.dataset_name,
			report_id        = EXCLUDED.report_id,
			selected_at      = EXCLUDED.selected_at,
			last_activity_at = EXCLUDED.last_activity_at,
			expires_at       = EXCLUDED.expires_at
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.Phone, sess.ConnectionID, sess.DatasetID, sess.DatasetName, sess.ReportID,
		sess.SelectedAt, sess.LastActivityAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}
	return nil
}

// Touch updates LastActivityAt and extends ExpiresAt by the store's TTL.
func (s *Store) Touch(ctx context.Context, phone string) error {
	query := `
		UPDATE sessions
		SET last_activity_at = NOW(), expires_at = NOW() + $2::interval
		WHERE phone = $1 AND expires_at > NOW()
	`
	_, err := s.db.ExecContext(ctx, query, phone, fmt.Sprintf("%d seconds", int(s.ttl.Seconds())))
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// Delete removes the session for a phone.
func (s *Store) Delete(ctx context.Context, phone string) error {
	query := `DELETE FROM sessions WHERE phone = $1`
	_, err := s.db.ExecContext(ctx, query, phone)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Cleanup removes expired sessions.
func (s *Store) Cleanup(ctx context.Context) error {
	query := `DELETE FROM sessions WHERE expires_at <= NOW()`
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

// StartCleanupRoutine starts a background goroutine that periodically removes
// expired sessions. The goroutine is stopped when Close is called.
func (s *Store) StartCleanupRoutine(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Cleanup(ctx); err != nil {
					slog.Warn("session cleanup failed", "error", err)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and waits for it to exit.
// It is safe to call Close even if StartCleanupRoutine was never called.
func (s *Store) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

// Verify interface compliance.
var _ session.Store = (*Store)(nil)

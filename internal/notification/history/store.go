// Package history records announced notifications in Postgres so an event
// seen both on the realtime socket and in a timeline replay is announced
// only once.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/concrnt"
	"concrnt-notifier/internal/notification/classify"
)

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "history"}),
	}
}

// EnsureSchema creates the history table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS announced_notifications (
			id UUID PRIMARY KEY,
			owner TEXT NOT NULL,
			event_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			target TEXT NOT NULL,
			announced_at TIMESTAMPTZ NOT NULL,
			UNIQUE (owner, event_id)
		)`)
	if err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

// ShouldAnnounce reports whether the event has not been announced yet for
// this owner.
func (s *Store) ShouldAnnounce(ctx context.Context, owner, eventID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM announced_notifications WHERE owner = $1 AND event_id = $2)`,
		owner, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check announcement history: %w", err)
	}
	return !exists, nil
}

// Record stores one announced event. Replaying an already recorded event is
// a no-op.
func (s *Store) Record(ctx context.Context, owner string, ev concrnt.AssociationEvent, kind classify.Kind) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announced_notifications (id, owner, event_id, kind, target, announced_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (owner, event_id) DO NOTHING`,
		uuid.New().String(), owner, ev.ID, string(kind), ev.Target, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record announcement: %w", err)
	}
	return nil
}

// CleanOlderThan removes records older than the retention window and
// returns how many were deleted.
func (s *Store) CleanOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM announced_notifications WHERE announced_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clean announcement history: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("cleaned announcement history", map[string]interface{}{
			"deleted": deleted,
			"cutoff":  cutoff,
		})
	}
	return deleted, nil
}

// Package unread tracks the watermark between the newest known
// notification and the last one the user has seen. Rather than flagging
// every notification read/unread, a single persisted timestamp marks "seen
// up to here"; anything newer is unread.
package unread

import (
	"context"
	"sync"
	"time"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/common/metrics"
)

// PreferenceStore persists the last-seen marker as epoch milliseconds.
// A zero value means the marker was never set.
type PreferenceStore interface {
	LastSeenNotification(ctx context.Context) (int64, error)
	SetLastSeenNotification(ctx context.Context, millis int64) error
}

// Tracker owns the in-session latest-notification watermark.
type Tracker struct {
	mu     sync.Mutex
	latest int64 // epoch millis, monotonically non-decreasing
	prefs  PreferenceStore
	logger logger.Logger
}

func NewTracker(prefs PreferenceStore, log logger.Logger) *Tracker {
	return &Tracker{
		prefs:  prefs,
		logger: log.WithFields(map[string]interface{}{"component": "unread"}),
	}
}

// Observe advances the latest watermark. Realtime events arrive in
// increasing time order by construction of the upstream feed, but the max
// is taken defensively rather than trusting that.
func (t *Tracker) Observe(at time.Time) {
	millis := at.UnixMilli()

	t.mu.Lock()
	if millis > t.latest {
		t.latest = millis
	}
	t.mu.Unlock()
}

// Latest returns the newest known notification timestamp, zero when no
// notification has been observed.
func (t *Tracker) Latest() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.latest)
}

// Unread reports whether the latest notification is newer than the
// persisted last-seen marker.
func (t *Tracker) Unread(ctx context.Context) (bool, error) {
	lastSeen, err := t.prefs.LastSeenNotification(ctx)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	unread := t.latest > lastSeen
	t.mu.Unlock()

	if unread {
		metrics.UnreadIndicator.Set(1)
	} else {
		metrics.UnreadIndicator.Set(0)
	}
	return unread, nil
}

// MarkSeen persists the current watermark as the last-seen marker. Called
// whenever the user views the notification list.
func (t *Tracker) MarkSeen(ctx context.Context) error {
	t.mu.Lock()
	latest := t.latest
	t.mu.Unlock()

	if err := t.prefs.SetLastSeenNotification(ctx, latest); err != nil {
		return err
	}

	metrics.UnreadIndicator.Set(0)
	t.logger.Debug("notification list seen", map[string]interface{}{
		"lastSeen": latest,
	})
	return nil
}

// Package view owns the displayed state of one notification list: the
// read cursor, the accumulated group list, and the unread watermark hookup.
// Each view instance is driven by a single active caller; Close may be
// called from another goroutine on teardown.
package view

import (
	"context"
	"errors"
	"sync"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/concrnt"
	"concrnt-notifier/internal/notification/summarize"
	"concrnt-notifier/internal/notification/unread"
)

// ErrClosed is returned when an operation completes after the view was
// torn down. The displayed state is left untouched in that case.
var ErrClosed = errors.New("notification view closed")

type View struct {
	reader  concrnt.TimelineReader
	grouper *summarize.Grouper
	tracker *unread.Tracker
	logger  logger.Logger

	cursor summarize.Cursor

	mu     sync.Mutex
	groups []summarize.Group
	closed bool
}

func New(reader concrnt.TimelineReader, grouper *summarize.Grouper, tracker *unread.Tracker, log logger.Logger) *View {
	return &View{
		reader:  reader,
		grouper: grouper,
		tracker: tracker,
		logger:  log.WithFields(map[string]interface{}{"component": "view"}),
	}
}

// Init opens the timeline and groups the first page. The newest entry
// primes the unread watermark.
func (v *View) Init(ctx context.Context, timelineID string, query []string, batchSize int) (bool, error) {
	hasMore, err := v.reader.Init(ctx, timelineID, query, batchSize)
	if err != nil {
		return false, err
	}
	if v.isClosed() {
		return hasMore, ErrClosed
	}

	body := v.reader.Body()
	if len(body) > 0 {
		v.tracker.Observe(body[0].LastUpdate)
	}

	return hasMore, v.appendNew(ctx, body)
}

// ReadMore fetches the next page and appends its groups after every
// previously displayed group. Earlier groups are never re-merged, even
// when a new event shares a key with one of them.
func (v *View) ReadMore(ctx context.Context) (bool, error) {
	hasMore, err := v.reader.ReadMore(ctx)
	if err != nil {
		return false, err
	}
	if v.isClosed() {
		return hasMore, ErrClosed
	}

	return hasMore, v.appendNew(ctx, v.reader.Body())
}

// Reload discards the displayed groups and regroups the timeline from
// scratch.
func (v *View) Reload(ctx context.Context) (bool, error) {
	hasMore, err := v.reader.Reload(ctx)
	if err != nil {
		return false, err
	}
	if v.isClosed() {
		return hasMore, ErrClosed
	}

	v.cursor.Reset()
	body := v.reader.Body()
	if len(body) > 0 {
		v.tracker.Observe(body[0].LastUpdate)
	}

	groups := v.grouper.Consume(ctx, &v.cursor, body)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return hasMore, ErrClosed
	}
	v.groups = groups
	return hasMore, nil
}

func (v *View) appendNew(ctx context.Context, body []concrnt.TimelineItem) error {
	groups := v.grouper.Consume(ctx, &v.cursor, body)
	if len(groups) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// Grouping resolves associations over the network; the view may have
	// been torn down in the meantime.
	if v.closed {
		return ErrClosed
	}
	v.groups = append(v.groups, groups...)
	return nil
}

// Groups returns a snapshot of the displayed group list.
func (v *View) Groups() []summarize.Group {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]summarize.Group, len(v.groups))
	copy(out, v.groups)
	return out
}

// MarkSeen persists the unread watermark; called when the user views the
// list.
func (v *View) MarkSeen(ctx context.Context) error {
	return v.tracker.MarkSeen(ctx)
}

// Unread reports whether notifications newer than the last-seen marker
// exist.
func (v *View) Unread(ctx context.Context) (bool, error) {
	return v.tracker.Unread(ctx)
}

// Close tears the view down. In-flight operations finishing afterwards
// leave the displayed state untouched.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

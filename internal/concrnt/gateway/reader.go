package gateway

import (
	"context"
	"time"

	"concrnt-notifier/internal/concrnt"
)

// Reader is a paginated timeline reader over the gateway, newest first.
// Body grows as pages are fetched; Reload rewinds to the newest page.
type Reader struct {
	client *Client

	timelineID string
	schemas    []string
	batchSize  int

	body    []concrnt.TimelineItem
	until   time.Time
	hasMore bool
}

func NewReader(client *Client) *Reader {
	return &Reader{client: client}
}

func (r *Reader) Init(ctx context.Context, timelineID string, query []string, batchSize int) (bool, error) {
	r.timelineID = timelineID
	r.schemas = query
	r.batchSize = batchSize
	return r.Reload(ctx)
}

func (r *Reader) ReadMore(ctx context.Context) (bool, error) {
	if !r.hasMore {
		return false, nil
	}

	items, err := r.client.queryTimeline(ctx, r.timelineID, r.schemas, r.until, r.batchSize)
	if err != nil {
		return r.hasMore, err
	}

	r.append(items)
	return r.hasMore, nil
}

func (r *Reader) Reload(ctx context.Context) (bool, error) {
	items, err := r.client.queryTimeline(ctx, r.timelineID, r.schemas, time.Time{}, r.batchSize)
	if err != nil {
		return false, err
	}

	r.body = nil
	r.until = time.Time{}
	r.hasMore = false
	r.append(items)
	return r.hasMore, nil
}

func (r *Reader) Body() []concrnt.TimelineItem {
	return r.body
}

func (r *Reader) append(items []concrnt.TimelineItem) {
	r.body = append(r.body, items...)
	if len(items) > 0 {
		r.until = items[len(items)-1].LastUpdate
	}
	// A short page means the timeline is exhausted.
	r.hasMore = len(items) == r.batchSize
}

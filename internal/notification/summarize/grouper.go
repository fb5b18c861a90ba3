// Package summarize batches association events into display groups,
// collapsing same-target like/reaction events into a single group while
// keeping every other kind as an individual entry.
package summarize

import (
	"context"
	"strings"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/common/metrics"
	"concrnt-notifier/internal/concrnt"
	"concrnt-notifier/internal/notification/classify"
)

// keySep joins target and schema into the composite bucket key. Likes and
// reactions on the same target never mix because the schema suffix differs.
const keySep = "$"

// Cursor tracks how many raw timeline items have already been grouped.
// It is an explicit per-view state object: the owning view passes it in,
// nothing here holds ambient state.
type Cursor struct {
	consumed int
}

// Consumed returns the number of raw items grouped so far.
func (c *Cursor) Consumed() int {
	return c.consumed
}

// Reset rewinds the cursor, for a full reload.
func (c *Cursor) Reset() {
	c.consumed = 0
}

// Grouper converts newly fetched timeline slices into ordered notification
// groups. Grouping is batch-local: groups emitted for one slice are never
// re-merged with groups from a later slice.
type Grouper struct {
	resolver concrnt.AssociationResolver
	logger   logger.Logger
}

func New(resolver concrnt.AssociationResolver, log logger.Logger) *Grouper {
	return &Grouper{
		resolver: resolver,
		logger:   log.WithFields(map[string]interface{}{"component": "summarize"}),
	}
}

// Consume groups the portion of body the cursor has not seen yet and
// advances the cursor past it. The returned groups are meant to be appended
// after all previously displayed groups.
func (g *Grouper) Consume(ctx context.Context, cur *Cursor, body []concrnt.TimelineItem) []Group {
	if cur.consumed >= len(body) {
		return nil
	}
	groups := g.GroupSlice(ctx, body[cur.consumed:])
	cur.consumed = len(body)
	return groups
}

// GroupSlice groups one slice of timeline items without touching any
// cursor. Calling it twice on the same slice yields identical output.
//
// Items whose association cannot be resolved are dropped: the drop is
// counted and logged but never surfaced to the user.
func (g *Grouper) GroupSlice(ctx context.Context, items []concrnt.TimelineItem) []Group {
	type bucket struct {
		key    string
		events []concrnt.AssociationEvent
	}

	var order []*bucket
	index := make(map[string]*bucket)

	for _, item := range items {
		assoc, err := g.resolver.GetAssociation(ctx, item.ResourceID, item.Owner)
		if err != nil || assoc == nil {
			metrics.EventsDropped.WithLabelValues(DropReasonAssociationUnresolved).Inc()
			g.logger.Debug("dropping unresolvable association", map[string]interface{}{
				"resourceID": item.ResourceID,
				"owner":      item.Owner,
				"error":      err,
			})
			continue
		}

		kind := classify.Classify(assoc.Schema)
		metrics.EventsClassified.WithLabelValues(string(kind)).Inc()

		key := assoc.ID
		if classify.Summarisable(kind) {
			key = assoc.Target + keySep + assoc.Schema
		}

		b, ok := index[key]
		if !ok {
			b = &bucket{key: key}
			index[key] = b
			order = append(order, b)
		}
		b.events = append(b.events, *assoc)
	}

	groups := make([]Group, 0, len(order))
	for _, b := range order {
		if strings.Contains(b.key, keySep) {
			// The composite key is bucketing-only; the emitted identity is
			// the first item's event ID. Fetch order therefore decides
			// which ID a group carries.
			groups = append(groups, Group{
				Key:   b.events[0].ID,
				Kind:  GroupSummarised,
				Items: b.events,
			})
			metrics.GroupsEmitted.WithLabelValues(string(GroupSummarised)).Inc()
		} else {
			ev := b.events[0]
			groups = append(groups, Group{
				Key:  ev.ID,
				Kind: GroupNormal,
				Item: &ev,
			})
			metrics.GroupsEmitted.WithLabelValues(string(GroupNormal)).Inc()
		}
	}

	return groups
}

package summarize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/concrnt"
)

// ==========================
// Test Helper Functions
// ==========================

type stubResolver struct {
	byID    map[string]*concrnt.AssociationEvent
	failIDs map[string]bool
}

func (s *stubResolver) GetAssociation(_ context.Context, id, _ string) (*concrnt.AssociationEvent, error) {
	if s.failIDs[id] {
		return nil, errors.New("resolver unavailable")
	}
	return s.byID[id], nil
}

func makeEvent(id, schema, target string) *concrnt.AssociationEvent {
	return &concrnt.AssociationEvent{
		ID:       id,
		Schema:   schema,
		Target:   target,
		Author:   "con1actor",
		Owner:    "con1owner",
		SignedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func makeItems(events ...*concrnt.AssociationEvent) ([]concrnt.TimelineItem, *stubResolver) {
	resolver := &stubResolver{
		byID:    make(map[string]*concrnt.AssociationEvent),
		failIDs: make(map[string]bool),
	}
	items := make([]concrnt.TimelineItem, 0, len(events))
	for _, ev := range events {
		resolver.byID[ev.ID] = ev
		items = append(items, concrnt.TimelineItem{
			ResourceID: ev.ID,
			Owner:      ev.Owner,
			TimelineID: "world.concrnt.t-notify@con1owner",
			LastUpdate: ev.SignedAt,
		})
	}
	return items, resolver
}

func collectEventIDs(groups []Group) []string {
	var ids []string
	for _, g := range groups {
		for _, ev := range g.Events() {
			ids = append(ids, ev.ID)
		}
	}
	return ids
}

// ==========================
// Core Functionality Tests
// ==========================

func TestGroupSlice_TwoLikesOneReactionOneReply(t *testing.T) {
	items, resolver := makeItems(
		makeEvent("like-1", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("like-2", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("react-1", concrnt.SchemaReactionAssociation, "msg-A"),
		makeEvent("reply-1", concrnt.SchemaReplyAssociation, "msg-A"),
	)
	g := New(resolver, logger.NewNoOpLogger())

	groups := g.GroupSlice(context.Background(), items)

	require.Len(t, groups, 3)

	assert.Equal(t, GroupSummarised, groups[0].Kind)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, "like-1", groups[0].Key, "summarised group key is the first item's id")

	assert.Equal(t, GroupSummarised, groups[1].Kind)
	assert.Len(t, groups[1].Items, 1)
	assert.Equal(t, "react-1", groups[1].Key)

	assert.Equal(t, GroupNormal, groups[2].Kind)
	require.NotNil(t, groups[2].Item)
	assert.Equal(t, "reply-1", groups[2].Item.ID)
}

func TestGroupSlice_Partition(t *testing.T) {
	items, resolver := makeItems(
		makeEvent("like-1", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("mention-1", concrnt.SchemaMentionAssociation, "msg-A"),
		makeEvent("like-2", concrnt.SchemaLikeAssociation, "msg-B"),
		makeEvent("like-3", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("unknown-1", "https://schema.concrnt.world/a/custom.json", "msg-C"),
	)
	g := New(resolver, logger.NewNoOpLogger())

	groups := g.GroupSlice(context.Background(), items)

	ids := collectEventIDs(groups)
	assert.ElementsMatch(t, []string{"like-1", "mention-1", "like-2", "like-3", "unknown-1"}, ids)

	// Each event lands in exactly one group.
	seen := map[string]int{}
	for _, id := range ids {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "event %s appears %d times", id, n)
	}
}

func TestGroupSlice_LikesAndReactionsNeverMix(t *testing.T) {
	items, resolver := makeItems(
		makeEvent("like-1", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("react-1", concrnt.SchemaReactionAssociation, "msg-A"),
		makeEvent("like-2", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("react-2", concrnt.SchemaReactionAssociation, "msg-A"),
	)
	g := New(resolver, logger.NewNoOpLogger())

	groups := g.GroupSlice(context.Background(), items)

	require.Len(t, groups, 2)
	assert.ElementsMatch(t, []string{"like-1", "like-2"}, collectEventIDs(groups[:1]))
	assert.ElementsMatch(t, []string{"react-1", "react-2"}, collectEventIDs(groups[1:]))
}

func TestGroupSlice_DistinctReactionVariantsShareGroup(t *testing.T) {
	heart := makeEvent("react-1", concrnt.SchemaReactionAssociation, "msg-A")
	heart.Variant = "heart"
	fire := makeEvent("react-2", concrnt.SchemaReactionAssociation, "msg-A")
	fire.Variant = "fire"

	items, resolver := makeItems(heart, fire)
	g := New(resolver, logger.NewNoOpLogger())

	groups := g.GroupSlice(context.Background(), items)

	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Items, 2)
}

func TestGroupSlice_OrderFollowsFirstOccurrence(t *testing.T) {
	items, resolver := makeItems(
		makeEvent("reply-1", concrnt.SchemaReplyAssociation, "msg-A"),
		makeEvent("like-1", concrnt.SchemaLikeAssociation, "msg-B"),
		makeEvent("reroute-1", concrnt.SchemaRerouteAssociation, "msg-A"),
		makeEvent("like-2", concrnt.SchemaLikeAssociation, "msg-B"),
	)
	g := New(resolver, logger.NewNoOpLogger())

	groups := g.GroupSlice(context.Background(), items)

	require.Len(t, groups, 3)
	assert.Equal(t, "reply-1", groups[0].Key)
	assert.Equal(t, "like-1", groups[1].Key)
	assert.Equal(t, "reroute-1", groups[2].Key)
}

func TestGroupSlice_Idempotent(t *testing.T) {
	items, resolver := makeItems(
		makeEvent("like-1", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("like-2", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("reply-1", concrnt.SchemaReplyAssociation, "msg-B"),
	)
	g := New(resolver, logger.NewNoOpLogger())

	first := g.GroupSlice(context.Background(), items)
	second := g.GroupSlice(context.Background(), items)

	assert.Equal(t, first, second)
}

func TestGroupSlice_UnresolvableAssociationDropped(t *testing.T) {
	items, resolver := makeItems(
		makeEvent("like-1", concrnt.SchemaLikeAssociation, "msg-A"),
		makeEvent("like-2", concrnt.SchemaLikeAssociation, "msg-A"),
	)
	// like-2 resolves to nil, an extra item errors out entirely.
	delete(resolver.byID, "like-2")
	items = append(items, concrnt.TimelineItem{ResourceID: "gone-1", Owner: "con1owner"})
	resolver.failIDs["gone-1"] = true

	g := New(resolver, logger.NewNoOpLogger())
	groups := g.GroupSlice(context.Background(), items)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"like-1"}, collectEventIDs(groups))
}

func TestConsume_BatchLocalGrouping(t *testing.T) {
	first := []*concrnt.AssociationEvent{
		makeEvent("like-1", concrnt.SchemaLikeAssociation, "msg-A"),
	}
	second := []*concrnt.AssociationEvent{
		makeEvent("like-2", concrnt.SchemaLikeAssociation, "msg-A"),
	}
	items, resolver := makeItems(append(first, second...)...)
	g := New(resolver, logger.NewNoOpLogger())

	var cur Cursor
	batch1 := g.Consume(context.Background(), &cur, items[:1])
	require.Len(t, batch1, 1)
	assert.Equal(t, 1, cur.Consumed())

	// Same composite key as batch1, but grouping is batch-local: a second
	// group is emitted instead of merging into the first.
	batch2 := g.Consume(context.Background(), &cur, items)
	require.Len(t, batch2, 1)
	assert.Equal(t, "like-2", batch2[0].Key)
	assert.Equal(t, 2, cur.Consumed())

	// Nothing new: nothing emitted, cursor untouched.
	assert.Nil(t, g.Consume(context.Background(), &cur, items))
	assert.Equal(t, 2, cur.Consumed())
}

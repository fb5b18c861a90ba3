package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

func writeContent(t *testing.T, w http.ResponseWriter, content interface{}) {
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"content": json.RawMessage(raw),
	})
}

func setupClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "con1me", 5*time.Second, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestGetAssociation(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/association/assoc-1", r.URL.Path)
		assert.Equal(t, "con1owner", r.URL.Query().Get("owner"))
		writeContent(t, w, concrnt.AssociationEvent{
			ID:     "assoc-1",
			Schema: concrnt.SchemaLikeAssociation,
			Target: "msg-A",
		})
	})

	assoc, err := client.GetAssociation(context.Background(), "assoc-1", "con1owner")
	require.NoError(t, err)
	require.NotNil(t, assoc)
	assert.Equal(t, "assoc-1", assoc.ID)
	assert.Equal(t, concrnt.SchemaLikeAssociation, assoc.Schema)
}

func TestGetAssociation_DeletedResourceIsAbsentNotFailed(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	assoc, err := client.GetAssociation(context.Background(), "gone", "con1owner")
	require.NoError(t, err)
	assert.Nil(t, assoc)
}

func TestGetAssociation_GatewayError(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "error",
			"error":  "internal",
		})
	})

	_, err := client.GetAssociation(context.Background(), "assoc-1", "con1owner")
	assert.Error(t, err)
}

func TestGetMessageWithAuthor(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/message/msg-A", r.URL.Path)
		assert.Equal(t, "con1author", r.URL.Query().Get("author"))
		writeContent(t, w, concrnt.Message{ID: "msg-A", Author: "con1author", Body: "hello"})
	})

	msg, err := client.GetMessageWithAuthor(context.Background(), "msg-A", "con1author")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "hello", msg.Body)
}

func TestGetProfileBySemanticID(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/profile/con1actor/world.concrnt.p", r.URL.Path)
		writeContent(t, w, concrnt.Profile{CCID: "con1actor", Username: "Alice"})
	})

	profile, err := client.GetProfileBySemanticID(context.Background(), "world.concrnt.p", "con1actor")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Alice", profile.Username)
}

// ==========================
// Timeline Reader Tests
// ==========================

func TestReader_Pagination(t *testing.T) {
	page1 := []concrnt.TimelineItem{
		{ResourceID: "a", LastUpdate: time.UnixMilli(5000).UTC()},
		{ResourceID: "b", LastUpdate: time.UnixMilli(4000).UTC()},
	}
	page2 := []concrnt.TimelineItem{
		{ResourceID: "c", LastUpdate: time.UnixMilli(3000).UTC()},
	}

	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/timeline/tl-1/query", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "con1me", r.URL.Query().Get("subscriber"))

		if r.URL.Query().Get("until") == "" {
			writeContent(t, w, page1)
			return
		}
		assert.Equal(t, "4000", r.URL.Query().Get("until"))
		writeContent(t, w, page2)
	})

	reader := NewReader(client)

	hasMore, err := reader.Init(context.Background(), "tl-1", nil, 2)
	require.NoError(t, err)
	assert.True(t, hasMore, "a full first page means more may follow")
	require.Len(t, reader.Body(), 2)

	hasMore, err = reader.ReadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore, "a short page exhausts the timeline")
	require.Len(t, reader.Body(), 3)
	assert.Equal(t, "c", reader.Body()[2].ResourceID)

	// Exhausted readers stop making requests.
	hasMore, err = reader.ReadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Len(t, reader.Body(), 3)
}

func TestReader_ReloadRewindsToNewestPage(t *testing.T) {
	requests := 0
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeContent(t, w, []concrnt.TimelineItem{
			{ResourceID: "a", LastUpdate: time.UnixMilli(5000).UTC()},
		})
	})

	reader := NewReader(client)
	_, err := reader.Init(context.Background(), "tl-1", nil, 2)
	require.NoError(t, err)

	_, err = reader.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	assert.Len(t, reader.Body(), 1, "reload replaces the body instead of appending")
}

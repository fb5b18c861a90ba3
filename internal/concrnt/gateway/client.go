// Package gateway is the HTTP client for a Concrnt gateway node. It
// implements the resolver contracts of the concrnt package.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/concrnt"
)

type Client struct {
	baseURL    string
	subscriber string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(baseURL, subscriber string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		subscriber: subscriber,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithFields(map[string]interface{}{"component": "gateway"}),
	}
}

// envelope is the gateway's standard response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Content json.RawMessage `json:"content"`
	Error   string          `json:"error,omitempty"`
}

// get fetches one resource. A 404 reports found=false with no error so
// callers can treat deleted resources as absent rather than failed.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) (bool, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("gateway request %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("gateway request %s: unexpected status %d", path, res.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return false, fmt.Errorf("decode gateway response %s: %w", path, err)
	}
	if env.Status != "ok" {
		return false, fmt.Errorf("gateway error on %s: %s", path, env.Error)
	}
	if err := json.Unmarshal(env.Content, out); err != nil {
		return false, fmt.Errorf("decode gateway content %s: %w", path, err)
	}
	return true, nil
}

// GetAssociation resolves a timeline pointer to its association record.
func (c *Client) GetAssociation(ctx context.Context, id, owner string) (*concrnt.AssociationEvent, error) {
	var assoc concrnt.AssociationEvent
	query := url.Values{}
	if owner != "" {
		query.Set("owner", owner)
	}
	found, err := c.get(ctx, "/api/v1/association/"+url.PathEscape(id), query, &assoc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &assoc, nil
}

// GetMessageWithAuthor resolves a target message. The author hint routes
// the lookup to the right home node.
func (c *Client) GetMessageWithAuthor(ctx context.Context, id, author string) (*concrnt.Message, error) {
	var msg concrnt.Message
	query := url.Values{}
	if author != "" {
		query.Set("author", author)
	}
	found, err := c.get(ctx, "/api/v1/message/"+url.PathEscape(id), query, &msg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &msg, nil
}

// GetProfileBySemanticID resolves an actor's profile by its semantic
// schema ID.
func (c *Client) GetProfileBySemanticID(ctx context.Context, semanticID, actor string) (*concrnt.Profile, error) {
	var profile concrnt.Profile
	path := "/api/v1/profile/" + url.PathEscape(actor) + "/" + url.PathEscape(semanticID)
	found, err := c.get(ctx, path, nil, &profile)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &profile, nil
}

// queryTimeline fetches one page of timeline items older than until.
// A zero until means the newest page.
func (c *Client) queryTimeline(ctx context.Context, timelineID string, schemas []string, until time.Time, limit int) ([]concrnt.TimelineItem, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	if !until.IsZero() {
		query.Set("until", fmt.Sprintf("%d", until.UnixMilli()))
	}
	for _, schema := range schemas {
		query.Add("schema", schema)
	}
	if c.subscriber != "" {
		query.Set("subscriber", c.subscriber)
	}

	var items []concrnt.TimelineItem
	path := "/api/v1/timeline/" + url.PathEscape(timelineID) + "/query"
	found, err := c.get(ctx, path, query, &items)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return items, nil
}

// Package archive indexes emitted notification groups into Elasticsearch
// so older activity stays searchable after it scrolls out of the timeline.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/notification/summarize"
)

// GroupDoc is the indexed representation of one notification group.
type GroupDoc struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	Owner     string    `json:"owner"`
	Target    string    `json:"target"`
	Schema    string    `json:"schema"`
	EventIDs  []string  `json:"eventIds"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

type Archive struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Archive {
	return &Archive{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "archive"}),
	}
}

// IndexGroups writes one document per group. The document ID is derived
// from owner and group key, so re-indexing the same group overwrites
// rather than duplicates.
func (a *Archive) IndexGroups(ctx context.Context, owner string, groups []summarize.Group) error {
	for _, g := range groups {
		doc := toDoc(owner, g)

		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal group doc: %w", err)
		}

		req := esapi.IndexRequest{
			Index:      a.index,
			DocumentID: owner + ":" + g.Key,
			Body:       bytes.NewReader(body),
		}
		res, err := req.Do(ctx, a.client)
		if err != nil {
			return fmt.Errorf("index group %s: %w", g.Key, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index group %s: %s", g.Key, res.Status())
		}
	}
	return nil
}

// Recent returns the newest archived groups for an owner.
func (a *Archive) Recent(ctx context.Context, owner string, limit int) ([]GroupDoc, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"owner": owner},
					},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}},
		},
	}
	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{a.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}
	res, err := req.Do(ctx, a.client)
	if err != nil {
		return nil, fmt.Errorf("search archive: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search archive: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source GroupDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode archive response: %w", err)
	}

	docs := make([]GroupDoc, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

func toDoc(owner string, g summarize.Group) GroupDoc {
	events := g.Events()
	doc := GroupDoc{
		Key:       g.Key,
		Kind:      string(g.Kind),
		Owner:     owner,
		Count:     len(events),
		CreatedAt: time.Now().UTC(),
	}
	if len(events) > 0 {
		doc.Target = events[0].Target
		doc.Schema = events[0].Schema
		for _, ev := range events {
			doc.EventIDs = append(doc.EventIDs, ev.ID)
		}
	}
	return doc
}

package curatedfaq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"telehealth-agent/internal/common/database"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "keywords":         {"type": "text"},
      "question_bengali": {"type": "text"},
      "question_english": {"type": "text"},
      "answer_bengali":   {"type": "text"},
      "answer_english":   {"type": "text"},
      "source_url":       {"type": "keyword"}
    }
  }
}`

// ElasticStore serves curated entries from a search index kept in sync
// with the sheet by IndexAll.
type ElasticStore struct {
	es    *database.ElasticsearchClient
	index string
}

func NewElasticStore(es *database.ElasticsearchClient, index string) *ElasticStore {
	return &ElasticStore{es: es, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Entry `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticStore) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"keywords^2", "question_english", "answer_english"},
				"type":   "best_fields",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}.Do(ctx, s.es.Client)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.Status())
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	entries := make([]Entry, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		entries = append(entries, hit.Source)
	}
	return entries, nil
}

// DocumentID is stable per row so re-syncing overwrites instead of duplicating.
func DocumentID(e Entry) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.Keywords+"\x00"+e.QuestionBengali)).String()
}

type bulkResponse struct {
	Errors bool `json:"errors"`
}

// IndexAll creates the index when missing and bulk-indexes entries.
func (s *ElasticStore) IndexAll(ctx context.Context, entries []Entry) (int, error) {
	if err := s.es.EnsureIndex(ctx, s.index, indexMapping); err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": s.index, "_id": DocumentID(e)}}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(e); err != nil {
			return 0, err
		}
	}

	res, err := esapi.BulkRequest{
		Body:    strings.NewReader(buf.String()),
		Refresh: "true",
	}.Do(ctx, s.es.Client)
	if err != nil {
		return 0, fmt.Errorf("bulk index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("bulk index %s: %s", s.index, res.Status())
	}

	var decoded bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}
	if decoded.Errors {
		return 0, fmt.Errorf("bulk index %s: some documents were rejected", s.index)
	}
	return len(entries), nil
}

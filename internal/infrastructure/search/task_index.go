// Package search keeps an Elasticsearch index of task descriptions.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

type TaskIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewTaskIndex(es *elasticsearch.Client, index string) *TaskIndex {
	return &TaskIndex{es: es, index: index}
}

type taskDoc struct {
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"description": map[string]any{"type": "text"},
			"completed":   map[string]any{"type": "boolean"},
			"owner":       map[string]any{"type": "keyword"},
			"createdAt":   map[string]any{"type": "date"},
			"updatedAt":   map[string]any{"type": "date"},
		},
	},
}

func jsonBody(v any) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func checkResponse(op string, res *esapi.Response, allow ...int) error {
	if !res.IsError() {
		return nil
	}
	for _, code := range allow {
		if res.StatusCode == code {
			return nil
		}
	}
	return fmt.Errorf("es %s: %s", op, res.Status())
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *TaskIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(c),
		x.es.Indices.Create.WithBody(jsonBody(indexMapping)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// 400 is resource_already_exists when another instance won the race
	return checkResponse("create index", res, http.StatusBadRequest)
}

func (x *TaskIndex) Index(ctx context.Context, t *entity.Task) error {
	doc := taskDoc{
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.Owner,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: t.ID, Body: jsonBody(doc), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	return checkResponse("index", res)
}

func (x *TaskIndex) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	return checkResponse("delete", res, http.StatusNotFound)
}

func (x *TaskIndex) RemoveOwner(ctx context.Context, owner string) error {
	body := map[string]any{"query": map[string]any{"term": map[string]any{"owner": owner}}}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.DeleteByQuery([]string{x.index}, jsonBody(body), x.es.DeleteByQuery.WithContext(c))
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	return checkResponse("delete by query", res, http.StatusNotFound)
}

// searchQuery matches description text, restricted to owner's documents.
func searchQuery(owner, q string, size int) map[string]any {
	return map[string]any{
		"size":    size,
		"_source": false,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{"match": map[string]any{"description": map[string]any{"query": q, "fuzziness": "AUTO"}}},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"owner": owner}},
				},
			},
		},
	}
}

func (x *TaskIndex) Search(ctx context.Context, owner, q string, limit int) ([]string, error) {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(jsonBody(searchQuery(owner, q, limit))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == http.StatusNotFound {
		return []string{}, nil
	}
	if err := checkResponse("search", res); err != nil {
		return nil, err
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

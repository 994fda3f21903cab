// Package search keeps an Elasticsearch index of items for name lookups.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/stores_api/internal/models"
)

var ErrDisabled = errors.New("search is not configured")

type Index interface {
	IndexItem(ctx context.Context, item models.Item) error
	DeleteItem(ctx context.Context, id uint) error
	// SearchItems returns the total hit count and the ids of the requested
	// page, best match first.
	SearchItems(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

// NewClient connects and checks the cluster answers before returning.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type ElasticIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticIndex(es *elasticsearch.Client, index string) *ElasticIndex {
	return &ElasticIndex{es: es, index: index}
}

func (x *ElasticIndex) IndexItem(ctx context.Context, item models.Item) error {
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}
	res, err := x.es.Index(
		x.index,
		bytes.NewReader(body),
		x.es.Index.WithDocumentID(docID(item.ID)),
		x.es.Index.WithContext(ctx),
		x.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index item %d: %w", item.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index item %d: %s", item.ID, res.Status())
	}
	return nil
}

// DeleteItem treats a missing document as already deleted.
func (x *ElasticIndex) DeleteItem(ctx context.Context, id uint) error {
	res, err := x.es.Delete(
		x.index,
		docID(id),
		x.es.Delete.WithContext(ctx),
		x.es.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete item %d: %s", id, res.Status())
	}
	return nil
}

func (x *ElasticIndex) SearchItems(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"name": map[string]any{
					"query":     query,
					"fuzziness": "AUTO",
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		// an index that was never written to holds no items
		if res.StatusCode == http.StatusNotFound {
			return 0, []uint{}, nil
		}
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode: %w", err)
	}

	ids := make([]uint, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return r.Hits.Total.Value, ids, nil
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Disabled stands in when no cluster is configured: writes are dropped and
// searches fail with ErrDisabled.
type Disabled struct{}

func (Disabled) IndexItem(context.Context, models.Item) error { return nil }
func (Disabled) DeleteItem(context.Context, uint) error       { return nil }
func (Disabled) SearchItems(context.Context, string, int, int) (int64, []uint, error) {
	return 0, nil, ErrDisabled
}

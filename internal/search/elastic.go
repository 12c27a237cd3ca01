package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esutil"
	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

// Elastic searches and indexes products in an Elasticsearch index.
type Elastic struct {
	Client *elasticsearch.Client
	Index  string
}

func NewElastic(ctx context.Context, cfg Config) (*Elastic, error) {
	l := logging.FromContext(ctx).With("component", "elasticsearch", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
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

	e := &Elastic{Client: client, Index: cfg.Index}
	if err := e.ensureIndex(ctx); err != nil {
		return nil, err
	}
	l.Info("elasticsearch_connected", "index", cfg.Index)
	return e, nil
}

var productMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":          map[string]any{"type": "keyword"},
			"group_id":    map[string]any{"type": "keyword"},
			"name":        map[string]any{"type": "text"},
			"description": map[string]any{"type": "text"},
			"price":       map[string]any{"type": "long"},
			"image_url":   map[string]any{"type": "keyword", "index": false},
			"object_key":  map[string]any{"type": "keyword", "index": false},
			"available":   map[string]any{"type": "boolean"},
			"created_at":  map[string]any{"type": "date"},
			"updated_at":  map[string]any{"type": "date"},
		},
	},
}

// ensureIndex creates the index with the product mapping when it is missing.
func (e *Elastic) ensureIndex(ctx context.Context) error {
	res, err := e.Client.Indices.Exists([]string{e.Index}, e.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: index exists: %w", err)
	}
	res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("elasticsearch: index exists: %s", res.Status())
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(productMapping); err != nil {
		return fmt.Errorf("elasticsearch: encode mapping: %w", err)
	}
	res, err = e.Client.Indices.Create(e.Index,
		e.Client.Indices.Create.WithContext(ctx),
		e.Client.Indices.Create.WithBody(&buf),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch: create index: %s: %s", res.Status(), body)
	}
	logging.FromContext(ctx).Info("elasticsearch_index_created", "index", e.Index)
	return nil
}

// Reindex writes every given product through the bulk API, replacing
// documents with the same id.
func (e *Elastic) Reindex(ctx context.Context, products []models.Product) error {
	var failed atomic.Int64
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:  e.Client,
		Index:   e.Index,
		Refresh: "true",
		OnError: func(ctx context.Context, err error) {
			logging.FromContext(ctx).Error("elasticsearch_bulk_failed", "index", e.Index, "error", err)
		},
	})
	if err != nil {
		return fmt.Errorf("elasticsearch: bulk indexer: %w", err)
	}

	for i := range products {
		data, err := json.Marshal(&products[i])
		if err != nil {
			return err
		}
		id := products[i].ID.String()
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: id,
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, _ esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				logging.FromContext(ctx).Error("elasticsearch_index_failed", "product_id", id, "reason", res.Error.Reason, "error", err)
			},
		})
		if err != nil {
			return fmt.Errorf("elasticsearch: bulk add %s: %w", id, err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("elasticsearch: bulk close: %w", err)
	}

	stats := bi.Stats()
	if n := failed.Load(); n > 0 || stats.NumFailed > 0 {
		return fmt.Errorf("elasticsearch: reindex: %d of %d documents failed", max(uint64(n), stats.NumFailed), len(products))
	}
	return nil
}

// Search runs a fuzzy multi_match over name and description, restricted to available products.
func (e *Elastic) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"available": true},
				},
			},
		},
		"size": limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.Index),
		e.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("elasticsearch: decode: %w", err)
	}

	out := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return out, nil
}

func (e *Elastic) IndexProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := e.Client.Index(e.Index, bytes.NewReader(data),
		e.Client.Index.WithContext(ctx),
		e.Client.Index.WithDocumentID(p.ID.String()),
		e.Client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch: index %s: %s", p.ID, res.Status())
	}
	return nil
}

func (e *Elastic) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := e.Client.Delete(e.Index, id.String(),
		e.Client.Delete.WithContext(ctx),
		e.Client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch: delete %s: %s", id, res.Status())
	}
	return nil
}

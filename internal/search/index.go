// Package search keeps an Elasticsearch index of the catalog for fuzzy product
// search. When no cluster is configured a no-op index is used and product listing
// falls back to SQL matching.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/pkg/config"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/logger"
)

const maxSearchHits = 500

// ProductDocument is what gets indexed for each product.
type ProductDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DocumentFromProduct maps a catalog row to its search document.
func DocumentFromProduct(p models.Product) ProductDocument {
	return ProductDocument{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price.Round(2).InexactFloat64(),
		Stock:       p.Stock,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Index is the search surface used by the product service.
type Index interface {
	Enabled() bool
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchProductIDs(ctx context.Context, query string) ([]uuid.UUID, error)
}

// New returns an Elasticsearch-backed index, or a no-op index when search is not
// configured.
func New(cfg config.SearchConfig, logg *logger.Logger) (Index, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(context.Background(), "index", cfg.Index), "elasticsearch client initialized")
	}
	return &Elastic{es: client, index: cfg.Index}, nil
}

// Elastic talks to an Elasticsearch cluster through the low-level esapi client.
type Elastic struct {
	es    *elasticsearch.Client
	index string
}

func (e *Elastic) Enabled() bool { return true }

// EnsureIndex creates the product index with its mapping when it does not exist.
func (e *Elastic) EnsureIndex(ctx context.Context) error {
	res, err := e.es.Indices.Exists([]string{e.index}, e.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("checking index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":          map[string]any{"type": "keyword"},
				"name":        map[string]any{"type": "text"},
				"description": map[string]any{"type": "text"},
				"category":    map[string]any{"type": "keyword"},
				"price":       map[string]any{"type": "scaled_float", "scaling_factor": 100},
				"stock":       map[string]any{"type": "integer"},
				"updatedAt":   map[string]any{"type": "date"},
			},
		},
	}
	body, err := encode(mapping)
	if err != nil {
		return err
	}
	res, err = e.es.Indices.Create(e.index, e.es.Indices.Create.WithContext(ctx), e.es.Indices.Create.WithBody(body))
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	return checkResponse(res, "create index")
}

func (e *Elastic) IndexProduct(ctx context.Context, p models.Product) error {
	body, err := encode(DocumentFromProduct(p))
	if err != nil {
		return err
	}
	res, err := e.es.Index(
		e.index,
		body,
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("indexing product %s: %w", p.ID, err)
	}
	return checkResponse(res, "index product")
}

func (e *Elastic) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := e.es.Delete(e.index, id.String(), e.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	if res.StatusCode == 404 {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete product")
}

// SearchProductIDs runs a fuzzy multi-match over name and description and returns
// matching ids in relevance order.
func (e *Elastic) SearchProductIDs(ctx context.Context, query string) ([]uuid.UUID, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	body, err := encode(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"size":    maxSearchHits,
	})
	if err != nil {
		return nil, err
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(body),
	)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(res, "search products")
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source ProductDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Noop is used when no search cluster is configured.
type Noop struct{}

func (Noop) Enabled() bool { return false }

func (Noop) IndexProduct(context.Context, models.Product) error { return nil }

func (Noop) DeleteProduct(context.Context, uuid.UUID) error { return nil }

func (Noop) SearchProductIDs(context.Context, string) ([]uuid.UUID, error) {
	return nil, errors.New("search index not configured")
}

func encode(v any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding search body: %w", err)
	}
	return &buf, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res, op)
	}
	return nil
}

func responseError(res *esapi.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"storefront-backend/internal/models"
)

type ElasticIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticIndex(url, index string) (*ElasticIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return NewElasticIndexWithClient(es, index), nil
}

func NewElasticIndexWithClient(es *elasticsearch.Client, index string) *ElasticIndex {
	return &ElasticIndex{es: es, index: index}
}

// Query builds the multi_match body used for keyword searches.
func Query(keyword string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"size": 100,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     strings.TrimSpace(keyword),
				"fields":    []string{"title^3", "brand^2", "category", "description"},
				"fuzziness": "AUTO",
			},
		},
	})
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Elasticsearch reserves _id, so documents carry the product id as "id".
func toDocument(product *models.Product) ([]byte, error) {
	return renameKey(product, "_id", "id")
}

func fromDocument(raw json.RawMessage) (models.Product, error) {
	var product models.Product
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return product, err
	}
	b, err := renameKey(fields, "id", "_id")
	if err != nil {
		return product, err
	}
	err = json.Unmarshal(b, &product)
	return product, err
}

func renameKey(v any, from, to string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	if val, ok := fields[from]; ok {
		fields[to] = val
		delete(fields, from)
	}
	return json.Marshal(fields)
}

func (e *ElasticIndex) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	body, err := Query(keyword)
	if err != nil {
		return nil, err
	}
	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", e.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	products := make([]models.Product, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		product, err := fromDocument(hit.Source)
		if err != nil {
			return nil, fmt.Errorf("decode search hit: %w", err)
		}
		products = append(products, product)
	}
	return products, nil
}

func (e *ElasticIndex) Put(ctx context.Context, product *models.Product) error {
	doc, err := toDocument(product)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	res, err := e.es.Index(e.index, bytes.NewReader(doc),
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(product.ID.Hex()),
	)
	if err != nil {
		return fmt.Errorf("index product %s: %w", product.ID.Hex(), err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

func (e *ElasticIndex) Remove(ctx context.Context, id string) error {
	res, err := e.es.Delete(e.index, id, e.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

func responseError(op string, res *esapi.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), strings.TrimSpace(string(msg)))
}

// Package esproducts serves loan products from a search index, as an
// alternative catalog origin to the application store.
package esproducts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/shopspring/decimal"
)

// Mapping is the index definition EnsureIndex is called with.
const Mapping = `{
	"mappings": {
		"properties": {
			"id":            {"type": "keyword"},
			"name":          {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"description":   {"type": "text"},
			"client_type":   {"type": "keyword"},
			"product_type":  {"type": "keyword"},
			"currency_code": {"type": "keyword"},
			"min_amount":    {"type": "scaled_float", "scaling_factor": 100},
			"max_amount":    {"type": "scaled_float", "scaling_factor": 100}
		}
	}
}`

const maxProducts = 100

type document struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	ClientType   string          `json:"client_type"`
	ProductType  string          `json:"product_type"`
	CurrencyCode string          `json:"currency_code,omitempty"`
	MinAmount    decimal.Decimal `json:"min_amount"`
	MaxAmount    decimal.Decimal `json:"max_amount"`
}

func toDocument(p models.LoanProduct) document {
	return document{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		ClientType:   string(p.ClientType),
		ProductType:  string(p.ProductType),
		CurrencyCode: p.CurrencyCode,
		MinAmount:    p.MinAmount,
		MaxAmount:    p.MaxAmount,
	}
}

func (d document) model() models.LoanProduct {
	return models.LoanProduct{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		ClientType:   models.ClientType(d.ClientType),
		ProductType:  models.ProductType(d.ProductType),
		CurrencyCode: d.CurrencyCode,
		MinAmount:    d.MinAmount,
		MaxAmount:    d.MaxAmount,
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Source implements catalog.ProductSource.
type Source struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Source {
	return &Source{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "esproducts", "index": index}),
	}
}

func buildQuery(filter store.ProductFilter) map[string]interface{} {
	var must []interface{}
	var filters []interface{}

	if filter.ClientType != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"client_type": string(filter.ClientType)},
		})
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"name^2", "description"},
			},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(boolQuery) == 0 {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort":  []interface{}{map[string]interface{}{"name.raw": "asc"}},
		}
	}
	query := map[string]interface{}{"query": map[string]interface{}{"bool": boolQuery}}
	if len(must) == 0 {
		query["sort"] = []interface{}{map[string]interface{}{"name.raw": "asc"}}
	}
	return query
}

func (s *Source) FetchLoanProducts(ctx context.Context, filter store.ProductFilter) ([]models.LoanProduct, error) {
	body, err := json.Marshal(buildQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("encode product query: %w", err)
	}

	size := maxProducts
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("status %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("decode response: %w", err))
	}

	products := make([]models.LoanProduct, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		products = append(products, hit.Source.model())
	}
	s.logger.Debug("loan products searched", map[string]interface{}{"hits": len(products), "query": filter.Query})
	return products, nil
}

// Index writes products into the index, replacing documents with the same id.
func (s *Source) Index(ctx context.Context, products []models.LoanProduct) error {
	for _, p := range products {
		body, err := json.Marshal(toDocument(p))
		if err != nil {
			return fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		req := esapi.IndexRequest{
			Index:      s.index,
			DocumentID: p.ID,
			Body:       bytes.NewReader(body),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, s.client)
		if err != nil {
			return apperrors.NewSearchQueryFailedError(s.index, err)
		}
		res.Body.Close()
		if res.IsError() {
			return apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("index product %s: status %s", p.ID, res.Status()))
		}
	}
	return nil
}

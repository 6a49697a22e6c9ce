package esproducts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return New(client, "loan-products", logger.NewTestLogger(t))
}

func TestSource_FetchLoanProducts(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	s := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{
			"hits": {"total": {"value": 1}, "hits": [
				{"_source": {"id": "P-1", "name": "Staff Motor Vehicle Loan", "client_type": "STAFF",
				             "product_type": "STAFF_MOTOR_VEHICLE_LOAN", "min_amount": 1000, "max_amount": 50000}}
			]}
		}`))
	})

	products, err := s.FetchLoanProducts(context.Background(), store.ProductFilter{ClientType: models.ClientTypeStaff, Query: "vehicle"})
	require.NoError(t, err)
	assert.Equal(t, "/loan-products/_search", gotPath)

	boolQuery := gotBody["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Len(t, boolQuery["filter"], 1)
	assert.Len(t, boolQuery["must"], 1)

	require.Len(t, products, 1)
	assert.Equal(t, models.ProductStaffMotorVehicle, products[0].ProductType)
	assert.True(t, products[0].MaxAmount.Equal(decimal.NewFromInt(50000)))
}

func TestSource_FetchLoanProducts_Error(t *testing.T) {
	s := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"type": "index_not_found_exception"}}`))
	})

	_, err := s.FetchLoanProducts(context.Background(), store.ProductFilter{})
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeSearchQueryFailed, stdErr.Code)
}

func TestSource_Index(t *testing.T) {
	var paths []string
	s := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_, _ = w.Write([]byte(`{"result": "created"}`))
	})

	err := s.Index(context.Background(), []models.LoanProduct{
		{ID: "P-1", Name: "Staff General Loan", ClientType: models.ClientTypeStaff},
		{ID: "P-2", Name: "Staff Mortgages", ClientType: models.ClientTypeStaff},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"PUT /loan-products/_doc/P-1", "PUT /loan-products/_doc/P-2"}, paths)
}

func TestBuildQuery(t *testing.T) {
	all := buildQuery(store.ProductFilter{})
	assert.Contains(t, all["query"], "match_all")

	staff := buildQuery(store.ProductFilter{ClientType: models.ClientTypeStaff})
	raw, err := json.Marshal(staff)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"term":{"client_type":"STAFF"}`))
	assert.Contains(t, staff, "sort")
}

// Package catalog serves the loan products a staff member can apply for.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/metrics"
	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

var ErrProductNotFound = errors.New("LOAN_PRODUCT_NOT_FOUND")

// ProductSource is where products come from on a cache miss: the
// application store or the search index.
type ProductSource interface {
	FetchLoanProducts(ctx context.Context, filter store.ProductFilter) ([]models.LoanProduct, error)
}

type Options struct {
	ClientType models.ClientType
	CacheTTL   time.Duration
}

// Catalog loads products once per session. Between sessions Redis holds a
// copy for CacheTTL. A nil redis client disables the shared cache.
type Catalog struct {
	source   ProductSource
	redis    *redis.Client
	opts     Options
	validate *validator.Validate
	logger   logger.Logger

	mu       sync.Mutex
	products []models.LoanProduct
}

func New(source ProductSource, rdb *redis.Client, opts Options, log logger.Logger) *Catalog {
	if opts.ClientType == "" {
		opts.ClientType = models.ClientTypeStaff
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Catalog{
		source:   source,
		redis:    rdb,
		opts:     opts,
		validate: NewValidator(),
		logger:   log.WithFields(map[string]interface{}{"component": "catalog", "clientType": string(opts.ClientType)}),
	}
}

// NewValidator checks the product struct tags plus MinAmount <= MaxAmount.
// A zero MaxAmount means the product has no upper limit.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(models.LoanProduct)
		if p.MinAmount.IsNegative() {
			sl.ReportError(p.MinAmount, "MinAmount", "minAmount", "gte", "0")
		}
		if !p.MaxAmount.IsZero() && p.MinAmount.GreaterThan(p.MaxAmount) {
			sl.ReportError(p.MaxAmount, "MaxAmount", "maxAmount", "gtefield", "MinAmount")
		}
	}, models.LoanProduct{})
	return v
}

func (c *Catalog) cacheKey() string {
	return "loan-products:" + string(c.opts.ClientType)
}

// Products returns the valid products for the configured client type.
func (c *Catalog) Products(ctx context.Context) ([]models.LoanProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.products != nil {
		metrics.ProductCatalogLookups.WithLabelValues("memory").Inc()
		return copyProducts(c.products), nil
	}

	if products, ok := c.readCache(ctx); ok {
		metrics.ProductCatalogLookups.WithLabelValues("cache").Inc()
		c.products = products
		return copyProducts(products), nil
	}

	raw, err := c.source.FetchLoanProducts(ctx, store.ProductFilter{ClientType: c.opts.ClientType})
	if err != nil {
		return nil, fmt.Errorf("fetch loan products: %w", err)
	}
	metrics.ProductCatalogLookups.WithLabelValues("origin").Inc()

	products := c.sanitize(raw)
	c.writeCache(ctx, products)
	c.products = products
	return copyProducts(products), nil
}

// Find looks a product up by id.
func (c *Catalog) Find(ctx context.Context, id string) (models.LoanProduct, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return models.LoanProduct{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.LoanProduct{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// Invalidate drops the session copy and the shared cache entry.
func (c *Catalog) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.products = nil
	c.mu.Unlock()

	if c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, c.cacheKey()).Err(); err != nil {
		return fmt.Errorf("invalidate product cache: %w", err)
	}
	return nil
}

// sanitize keeps products of the configured client type that pass
// validation. Sources are not trusted to apply the filter.
func (c *Catalog) sanitize(raw []models.LoanProduct) []models.LoanProduct {
	out := make([]models.LoanProduct, 0, len(raw))
	for _, p := range raw {
		if p.ClientType != c.opts.ClientType {
			continue
		}
		if err := c.validate.Struct(p); err != nil {
			c.logger.Warn("dropping invalid loan product", map[string]interface{}{"productId": p.ID, "error": err.Error()})
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Catalog) readCache(ctx context.Context) ([]models.LoanProduct, bool) {
	if c.redis == nil {
		return nil, false
	}
	val, err := c.redis.Get(ctx, c.cacheKey()).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("product cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var products []models.LoanProduct
	if err := json.Unmarshal([]byte(val), &products); err != nil {
		c.logger.Warn("product cache entry unreadable", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return products, true
}

func (c *Catalog) writeCache(ctx context.Context, products []models.LoanProduct) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.cacheKey(), data, c.opts.CacheTTL).Err(); err != nil {
		c.logger.Warn("product cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func copyProducts(in []models.LoanProduct) []models.LoanProduct {
	out := make([]models.LoanProduct, len(in))
	copy(out, in)
	return out
}

package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/cache"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
)

var ErrNotLoaded = errors.New("catalog not loaded")

// Source lists the backend's product reference data.
type Source interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Catalog is the terminal's read-only product index, fetched at startup and
// keyed by product id and barcode. Stock counts are a snapshot: the backend
// stays authoritative and the terminal only reads them to block additions.
type Catalog struct {
	source   Source
	cache    cache.CatalogCache
	cacheTTL time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	byID      map[string]domain.Product
	byBarcode map[string]domain.Product
	loadedAt  time.Time
}

func New(source Source, catalogCache cache.CatalogCache, cacheTTL time.Duration, logger *zap.Logger) *Catalog {
	if catalogCache == nil {
		catalogCache = cache.NoopCatalogCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		source:   source,
		cache:    catalogCache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Load fetches the product list from the backend. When the backend is
// unreachable it falls back to the last cached snapshot so the terminal can
// warm-start; the fetch error is still returned alongside a usable catalog
// only when no snapshot exists either.
func (c *Catalog) Load(ctx context.Context) error {
	products, err := c.source.ListProducts(ctx)
	if err != nil {
		cached, ok, cacheErr := c.cache.Get(ctx)
		if cacheErr != nil {
			c.logger.Warn("catalog cache read failed", zap.Error(cacheErr))
		}
		if !ok {
			return err
		}
		c.logger.Warn("backend unreachable, serving cached catalog snapshot",
			zap.Error(err), zap.Int("products", len(cached)))
		c.index(cached)
		return nil
	}

	c.index(products)
	if err := c.cache.Set(ctx, products, c.cacheTTL); err != nil {
		c.logger.Warn("catalog cache write failed", zap.Error(err))
	}
	return nil
}

// Refresh is Load under a name that reads better at call sites that re-pull
// the catalog mid-session.
func (c *Catalog) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

func (c *Catalog) index(products []domain.Product) {
	byID := make(map[string]domain.Product, len(products))
	byBarcode := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
		if p.Barcode != "" {
			byBarcode[p.Barcode] = p
		}
	}

	c.mu.Lock()
	c.byID = byID
	c.byBarcode = byBarcode
	c.loadedAt = time.Now().UTC()
	c.mu.Unlock()
}

// Lookup resolves a scanned code to a product, trying the barcode index
// first and falling back to product id. A garbled scan simply misses.
func (c *Catalog) Lookup(code string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.byBarcode[code]; ok {
		return p, true
	}
	p, ok := c.byID[code]
	return p, ok
}

func (c *Catalog) Get(productID string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[productID]
	return p, ok
}

func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	return out
}

func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

package cache

import (
	"context"
	"time"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
)

// CatalogCache holds the last good product snapshot so a restarting terminal
// can warm-start while the backend is briefly unreachable.
type CatalogCache interface {
	Get(ctx context.Context) ([]domain.Product, bool, error)
	Set(ctx context.Context, products []domain.Product, ttl time.Duration) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(context.Context) ([]domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) Set(context.Context, []domain.Product, time.Duration) error {
	return nil
}

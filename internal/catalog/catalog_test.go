package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
)

type stubSource struct {
	products []domain.Product
	err      error
	calls    int
}

func (s *stubSource) ListProducts(context.Context) ([]domain.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

type memCache struct {
	snapshot []domain.Product
	has      bool
	getErr   error
	setErr   error
	sets     int
}

func (m *memCache) Get(context.Context) ([]domain.Product, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	return m.snapshot, m.has, nil
}

func (m *memCache) Set(_ context.Context, products []domain.Product, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.snapshot = products
	m.has = true
	m.sets++
	return nil
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: "prod-cola", Name: "Cola 330ml", Price: decimal.RequireFromString("25.00"), Stock: 10, Barcode: "4890008100088"},
		{ID: "prod-loose", Name: "Loose Candy", Price: decimal.RequireFromString("1.00"), Stock: 50},
	}
}

func TestLoadIndexesByIDAndBarcode(t *testing.T) {
	src := &stubSource{products: sampleProducts()}
	c := New(src, nil, time.Minute, nil)
	require.NoError(t, c.Load(context.Background()))

	p, ok := c.Lookup("4890008100088")
	require.True(t, ok)
	assert.Equal(t, "prod-cola", p.ID)

	// Barcode-less products still resolve by id.
	p, ok = c.Lookup("prod-loose")
	require.True(t, ok)
	assert.Equal(t, "Loose Candy", p.Name)

	_, ok = c.Lookup("0000000000000")
	assert.False(t, ok)

	assert.Len(t, c.Products(), 2)
	assert.False(t, c.LoadedAt().IsZero())
}

func TestBarcodeWinsOverID(t *testing.T) {
	// A product whose barcode collides with another product's id.
	src := &stubSource{products: []domain.Product{
		{ID: "prod-a", Barcode: "prod-b", Stock: 1},
		{ID: "prod-b", Stock: 1},
	}}
	c := New(src, nil, time.Minute, nil)
	require.NoError(t, c.Load(context.Background()))

	p, ok := c.Lookup("prod-b")
	require.True(t, ok)
	assert.Equal(t, "prod-a", p.ID, "barcode index is consulted first")
}

func TestLoadWritesCacheSnapshot(t *testing.T) {
	src := &stubSource{products: sampleProducts()}
	mc := &memCache{}
	c := New(src, mc, time.Minute, nil)

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, 1, mc.sets)
	assert.Len(t, mc.snapshot, 2)
}

func TestLoadFallsBackToCachedSnapshot(t *testing.T) {
	mc := &memCache{snapshot: sampleProducts(), has: true}
	src := &stubSource{err: errors.New("connection refused")}
	c := New(src, mc, time.Minute, nil)

	require.NoError(t, c.Load(context.Background()), "snapshot warm-start hides the fetch error")

	p, ok := c.Lookup("4890008100088")
	require.True(t, ok)
	assert.Equal(t, "prod-cola", p.ID)
}

func TestLoadFailsWithoutSnapshot(t *testing.T) {
	fetchErr := errors.New("connection refused")
	c := New(&stubSource{err: fetchErr}, &memCache{}, time.Minute, nil)

	err := c.Load(context.Background())
	assert.ErrorIs(t, err, fetchErr)
}

func TestRefreshRepullsFromSource(t *testing.T) {
	src := &stubSource{products: sampleProducts()}
	c := New(src, nil, time.Minute, nil)
	require.NoError(t, c.Load(context.Background()))

	src.products = append(src.products, domain.Product{ID: "prod-new", Stock: 4})
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, 2, src.calls)
	_, ok := c.Get("prod-new")
	assert.True(t, ok)
}

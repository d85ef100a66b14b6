package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/apiclient"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/backendtest"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/catalog"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/scanner"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{ID: "prod-cola", Name: "Cola 330ml", Price: price("25.00"), Category: "beverage", Stock: 10, Barcode: "4890008100088"},
		{ID: "prod-chips", Name: "Potato Chips", Price: price("12.50"), Category: "snack", Stock: 3, Barcode: "4890008200099"},
		{ID: "prod-gone", Name: "Sold Out Bar", Price: price("5.00"), Category: "snack", Stock: 0, Barcode: "4890008300011"},
	}
}

type fixture struct {
	backend *backendtest.Server
	session *Session
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := backendtest.New()
	t.Cleanup(backend.Close)
	backend.SeedProducts(seedProducts()...)

	client := apiclient.New(backend.URL(), "test-token", 5*time.Second)

	cat := catalog.New(client, nil, time.Minute, nil)
	require.NoError(t, cat.Load(context.Background()))

	clock := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s := New(Options{
		Backend:    client,
		Catalog:    cat,
		History:    scanner.NewHistory(5),
		Clock:      func() time.Time { return clock },
		TerminalID: "TERMINAL-01",
		Username:   "pos",
		AppName:    "Entsuki POS",
	})
	require.NoError(t, s.Open(context.Background()))

	return &fixture{backend: backend, session: s, clock: clock}
}

func TestOpenCreatesCart(t *testing.T) {
	f := newFixture(t)

	code := f.session.CartCode()
	assert.NotEmpty(t, code)
	assert.True(t, f.session.Cart().IsEmpty())

	_, ok := f.backend.Cart(code)
	assert.True(t, ok, "cart exists server-side")
}

func TestAddProductMergesDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.AddProduct(ctx, "prod-cola"))
	require.NoError(t, f.session.AddProduct(ctx, "prod-cola"))

	cart := f.session.Cart()
	require.Len(t, cart.LineItems, 1, "re-adding merges, never duplicates a row")
	assert.Equal(t, 2, cart.LineItems[0].Quantity)
	assert.True(t, cart.Total.Equal(price("50.00")), "total is server-computed: got %s", cart.Total)
}

func TestAddProductUnknownAndOutOfStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.session.AddProduct(ctx, "prod-nope")
	assert.ErrorIs(t, err, ErrProductNotFound)

	err = f.session.AddProduct(ctx, "prod-gone")
	assert.ErrorIs(t, err, ErrOutOfStock)

	assert.True(t, f.session.Cart().IsEmpty(), "failed adds leave the cart untouched")
}

func TestOfflineGuardMakesNoNetworkCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.session.SetOnline(false)
	baseline := f.backend.Requests()

	ops := map[string]error{
		"add":    f.session.AddProduct(ctx, "prod-cola"),
		"update": f.session.UpdateQuantity(ctx, "prod-cola", 3),
		"remove": f.session.RemoveProduct(ctx, "prod-cola"),
		"clear":  f.session.ClearCart(ctx),
		"begin":  f.session.BeginCheckout(),
	}
	for op, err := range ops {
		assert.ErrorIs(t, err, ErrOffline, "op %s", op)
	}
	assert.Equal(t, baseline, f.backend.Requests(), "offline rejection must not touch the network")
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.AddProduct(ctx, "prod-cola"))
	require.NoError(t, f.session.AddProduct(ctx, "prod-chips"))

	require.NoError(t, f.session.UpdateQuantity(ctx, "prod-cola", 0))

	cart := f.session.Cart()
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, "prod-chips", cart.LineItems[0].ProductID)
}

func TestUpdateQuantitySetsAbsoluteValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.AddProduct(ctx, "prod-chips"))
	require.NoError(t, f.session.UpdateQuantity(ctx, "prod-chips", 5))

	cart := f.session.Cart()
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, 5, cart.LineItems[0].Quantity)
	assert.True(t, cart.Total.Equal(price("62.50")))
}

func TestClearCartRearmsWithFreshCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.AddProduct(ctx, "prod-cola"))
	before := f.session.CartCode()

	require.NoError(t, f.session.ClearCart(ctx))

	after := f.session.CartCode()
	assert.NotEqual(t, before, after)
	assert.True(t, f.session.Cart().IsEmpty())

	_, ok := f.backend.Cart(before)
	assert.False(t, ok, "old cart deleted server-side")
}

func TestBusyGuardRejectsSecondMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Claim the in-flight slot as if a mutation round-trip were running.
	f.session.op.Lock()
	defer f.session.op.Unlock()

	err := f.session.AddProduct(ctx, "prod-cola")
	assert.ErrorIs(t, err, ErrBusy)

	err = f.session.BeginCheckout()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestAddScannedCodeRecordsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.AddScannedCode(ctx, "4890008100088"))

	err := f.session.AddScannedCode(ctx, "0000000000000")
	assert.ErrorIs(t, err, ErrProductNotFound)

	err = f.session.AddScannedCode(ctx, "4890008300011")
	assert.ErrorIs(t, err, ErrOutOfStock)

	recent := f.session.History().Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, domain.ScanOutOfStock, recent[0].Status)
	assert.Equal(t, domain.ScanNotFound, recent[1].Status)
	assert.Equal(t, domain.ScanSuccess, recent[2].Status)

	cart := f.session.Cart()
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, "prod-cola", cart.LineItems[0].ProductID)
}

func TestAddScannedCodeResolvesByProductID(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.session.AddScannedCode(context.Background(), "prod-chips"))

	cart := f.session.Cart()
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, "prod-chips", cart.LineItems[0].ProductID)
}

func TestRemoteRejectionLeavesCartUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.AddProduct(ctx, "prod-cola"))
	before := f.session.Cart()

	// The backend rejects quantity updates for unknown line items.
	err := f.session.UpdateQuantity(ctx, "prod-chips", 4)
	require.Error(t, err)

	var apiErr *apiclient.APIError
	assert.True(t, errors.As(err, &apiErr), "server message surfaces verbatim")

	after := f.session.Cart()
	assert.Equal(t, before, after, "only server responses are ever committed")
}

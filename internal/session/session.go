package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/catalog"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/ids"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/receipt"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/scanner"
)

// Backend is the remote cart/order/ledger collaborator. The session is the
// only component permitted to call cart-mutation endpoints.
type Backend interface {
	CreateCart(ctx context.Context, req domain.CreateCartRequest) (*domain.Cart, error)
	AddProduct(ctx context.Context, cartCode string, productID string, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, cartCode string, productID string, quantity int) (*domain.Cart, error)
	RemoveProduct(ctx context.Context, cartCode string, productID string) (*domain.Cart, error)
	AddSubtotal(ctx context.Context, cartCode string, name string, value decimal.Decimal) (*domain.Cart, error)
	DeleteCart(ctx context.Context, cartCode string) error
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error)
	MarkOrderPaid(ctx context.Context, orderCode string) error
	CreateLedgerEntry(ctx context.Context, entry domain.LedgerEntry) error
}

// Session is one terminal's POS session: the authoritative-replica cart,
// the checkout state machine, and the scan feedback buffer.
//
// The in-memory cart is always a direct copy of the last server response;
// no local-only mutation is ever committed. The op mutex is the single-slot
// in-flight guard: at most one mutating round-trip runs at a time, enforced
// here rather than by disabled UI controls.
type Session struct {
	backend    Backend
	catalog    *catalog.Catalog
	printer    receipt.Printer
	history    *scanner.History
	logger     *zap.Logger
	clock      func() time.Time
	terminalID string
	username   string
	appName    string

	online atomic.Bool

	op sync.Mutex // in-flight mutation slot, TryLock only

	stateMu sync.RWMutex
	cart    domain.Cart
	state   State
}

type Options struct {
	Backend    Backend
	Catalog    *catalog.Catalog
	Printer    receipt.Printer
	History    *scanner.History
	Logger     *zap.Logger
	Clock      func() time.Time
	TerminalID string
	Username   string
	AppName    string
}

func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.History == nil {
		opts.History = scanner.NewHistory(20)
	}
	if opts.Printer == nil {
		opts.Printer = receipt.LogPrinter{Logger: opts.Logger}
	}

	s := &Session{
		backend:    opts.Backend,
		catalog:    opts.Catalog,
		printer:    opts.Printer,
		history:    opts.History,
		logger:     opts.Logger,
		clock:      opts.Clock,
		terminalID: opts.TerminalID,
		username:   opts.Username,
		appName:    opts.AppName,
		state:      StateIdle,
	}
	s.online.Store(true)
	return s
}

// SetOnline flips the connectivity flag; transitions are logged once.
func (s *Session) SetOnline(online bool) {
	if s.online.CompareAndSwap(!online, online) {
		if online {
			s.logger.Info("terminal back online")
		} else {
			s.logger.Warn("terminal went offline")
		}
	}
}

func (s *Session) Online() bool {
	return s.online.Load()
}

func (s *Session) TerminalID() string {
	return s.terminalID
}

// Cart returns a snapshot of the active cart.
func (s *Session) Cart() domain.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cart
}

func (s *Session) CartCode() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cart.CartCode
}

func (s *Session) History() *scanner.History {
	return s.history
}

// beginMutation applies the offline guard and claims the in-flight slot.
// Callers must release() exactly once.
func (s *Session) beginMutation(op string) (release func(), err error) {
	if !s.online.Load() {
		return nil, fmt.Errorf("cannot %s while offline: %w", op, ErrOffline)
	}
	if !s.op.TryLock() {
		return nil, fmt.Errorf("cannot %s: %w", op, ErrBusy)
	}
	return s.op.Unlock, nil
}

// commitCart replaces the local replica wholesale with a server response.
func (s *Session) commitCart(cart *domain.Cart) {
	s.stateMu.Lock()
	s.cart = *cart
	s.stateMu.Unlock()
}

// Open creates the session's first cart. Called once at process start.
func (s *Session) Open(ctx context.Context) error {
	release, err := s.beginMutation("create cart")
	if err != nil {
		return err
	}
	defer release()
	return s.newCart(ctx, "")
}

// newCart requests a fresh cart and arms the terminal with it. When the
// backend already issued a replacement code (on order creation) that code is
// reused; otherwise a collision-resistant one is generated client-side.
// Caller must hold the in-flight slot.
func (s *Session) newCart(ctx context.Context, preferredCode string) error {
	code := preferredCode
	if code == "" {
		code = ids.CartCode(s.terminalID)
	}
	cart, err := s.backend.CreateCart(ctx, domain.CreateCartRequest{
		CartCode: code,
		Username: s.username,
	})
	if err != nil {
		return err
	}
	s.commitCart(cart)
	s.logger.Info("cart ready", zap.String("cart_code", cart.CartCode))
	return nil
}

// AddProduct adds one unit of the product to the cart. The backend merges
// re-adds into the existing line item, so the operation is an
// idempotent-merge from the terminal's perspective.
func (s *Session) AddProduct(ctx context.Context, productID string) error {
	product, ok := s.catalog.Get(productID)
	if !ok {
		return fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}
	if !product.InStock() {
		return fmt.Errorf("%s: %w", product.Name, ErrOutOfStock)
	}

	release, err := s.beginMutation("add product")
	if err != nil {
		return err
	}
	defer release()

	cartCode := s.CartCode()
	if cartCode == "" {
		return ErrNoCart
	}

	cart, err := s.backend.AddProduct(ctx, cartCode, product.ID, 1)
	if err != nil {
		return err
	}
	s.commitCart(cart)
	return nil
}

// AddScannedCode is the decoded-barcode path: resolve the code against the
// catalog, add the product, and record the attempt in the scan history.
func (s *Session) AddScannedCode(ctx context.Context, code string) error {
	s.history.Record(code, s.clock())

	product, ok := s.catalog.Lookup(code)
	if !ok {
		s.history.Resolve(code, domain.ScanNotFound)
		return fmt.Errorf("barcode %s: %w", code, ErrProductNotFound)
	}
	if !product.InStock() {
		s.history.Resolve(code, domain.ScanOutOfStock)
		return fmt.Errorf("%s: %w", product.Name, ErrOutOfStock)
	}

	if err := s.AddProduct(ctx, product.ID); err != nil {
		s.history.Resolve(code, domain.ScanError)
		return err
	}
	s.history.Resolve(code, domain.ScanSuccess)
	return nil
}

// UpdateQuantity sets a line item's absolute quantity. A quantity of zero or
// less removes the line item.
func (s *Session) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveProduct(ctx, productID)
	}

	release, err := s.beginMutation("update quantity")
	if err != nil {
		return err
	}
	defer release()

	cartCode := s.CartCode()
	if cartCode == "" {
		return ErrNoCart
	}

	cart, err := s.backend.UpdateQuantity(ctx, cartCode, productID, quantity)
	if err != nil {
		return err
	}
	s.commitCart(cart)
	return nil
}

func (s *Session) RemoveProduct(ctx context.Context, productID string) error {
	release, err := s.beginMutation("remove product")
	if err != nil {
		return err
	}
	defer release()

	cartCode := s.CartCode()
	if cartCode == "" {
		return ErrNoCart
	}

	cart, err := s.backend.RemoveProduct(ctx, cartCode, productID)
	if err != nil {
		return err
	}
	s.commitCart(cart)
	return nil
}

// AddSubtotal appends a named charge. Not idempotent: calling twice adds the
// charge twice.
func (s *Session) AddSubtotal(ctx context.Context, name string, value decimal.Decimal) error {
	release, err := s.beginMutation("add subtotal")
	if err != nil {
		return err
	}
	defer release()

	cartCode := s.CartCode()
	if cartCode == "" {
		return ErrNoCart
	}

	cart, err := s.backend.AddSubtotal(ctx, cartCode, name, value)
	if err != nil {
		return err
	}
	s.commitCart(cart)
	return nil
}

// ClearCart deletes the remote cart and immediately re-arms the terminal
// with a fresh one. Any in-progress checkout is cancelled.
func (s *Session) ClearCart(ctx context.Context) error {
	release, err := s.beginMutation("clear cart")
	if err != nil {
		return err
	}
	defer release()

	cartCode := s.CartCode()
	if cartCode == "" {
		return ErrNoCart
	}

	if err := s.backend.DeleteCart(ctx, cartCode); err != nil {
		return err
	}

	s.stateMu.Lock()
	s.state = StateIdle
	s.stateMu.Unlock()

	return s.newCart(ctx, "")
}

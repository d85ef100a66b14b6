package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/ids"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/receipt"
)

// State is the checkout orchestrator's position. Validation failures loop
// back to StateAwaitingPayment; only a committed order reaches
// StateCompleted, after which the session resets to StateIdle.
type State string

const (
	StateIdle            State = "idle"
	StateAwaitingPayment State = "awaiting_payment_details"
	StateSubmitting      State = "submitting"
	StateCompleted       State = "completed"
)

// PaymentDetails is the operator's payment input.
type PaymentDetails struct {
	Method         string
	CashTendered   decimal.Decimal
	CustomerName   string
	CustomerMobile string
}

// CheckoutResult reports a committed order. LedgerErr and MarkPaidErr are
// partial failures: the order stands and is never rolled back.
type CheckoutResult struct {
	OrderCode      string
	CartCode       string
	Total          decimal.Decimal
	Change         decimal.Decimal
	LedgerRecorded bool
	LedgerErr      error
	MarkPaidErr    error
	Receipt        receipt.Receipt
}

func (s *Session) CheckoutState() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// BeginCheckout moves Idle -> AwaitingPaymentDetails. Guarded by a
// non-empty cart, the terminal being online, and no mutation in flight.
func (s *Session) BeginCheckout() error {
	if !s.online.Load() {
		return fmt.Errorf("cannot start checkout while offline: %w", ErrOffline)
	}
	if !s.op.TryLock() {
		return fmt.Errorf("cannot start checkout: %w", ErrBusy)
	}
	defer s.op.Unlock()

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.state != StateIdle {
		return ErrCheckoutActive
	}
	if s.cart.IsEmpty() {
		return ErrEmptyCart
	}
	s.state = StateAwaitingPayment
	return nil
}

// CancelCheckout returns to Idle without touching the cart.
func (s *Session) CancelCheckout() {
	s.stateMu.Lock()
	if s.state == StateAwaitingPayment {
		s.state = StateIdle
	}
	s.stateMu.Unlock()
}

func validatePayment(details PaymentDetails, total decimal.Decimal) error {
	switch details.Method {
	case domain.PaymentCash:
		if details.CashTendered.LessThan(total) {
			return ErrInsufficientPayment
		}
		return nil
	case domain.PaymentCredit:
		if strings.TrimSpace(details.CustomerName) == "" || strings.TrimSpace(details.CustomerMobile) == "" {
			return ErrMissingCustomerInfo
		}
		return nil
	default:
		return fmt.Errorf("%q: %w", details.Method, ErrInvalidPayment)
	}
}

// ConfirmPayment runs AwaitingPaymentDetails -> Submitting -> Completed.
//
// Validation failures and order-creation failures leave the session in
// AwaitingPaymentDetails so the operator can retry or cancel. Once the order
// is created it is never rolled back: a failed ledger write or mark-paid
// call is reported on the result instead.
func (s *Session) ConfirmPayment(ctx context.Context, details PaymentDetails) (CheckoutResult, error) {
	if !s.online.Load() {
		return CheckoutResult{}, fmt.Errorf("cannot submit order while offline: %w", ErrOffline)
	}
	if !s.op.TryLock() {
		return CheckoutResult{}, fmt.Errorf("cannot submit order: %w", ErrBusy)
	}
	defer s.op.Unlock()

	s.stateMu.Lock()
	if s.state != StateAwaitingPayment {
		s.stateMu.Unlock()
		return CheckoutResult{}, ErrNotAwaitingPayment
	}
	cart := s.cart
	s.stateMu.Unlock()

	if cart.IsEmpty() {
		return CheckoutResult{}, ErrEmptyCart
	}
	if err := validatePayment(details, cart.Total); err != nil {
		return CheckoutResult{}, err
	}

	s.setState(StateSubmitting)

	result, err := s.submitOrder(ctx, cart, details)
	if err != nil {
		s.setState(StateAwaitingPayment)
		return CheckoutResult{}, err
	}

	s.setState(StateCompleted)

	// Reset: fresh cart, back to Idle. The committed order stands even if
	// re-arming fails; the operator can retry via ClearCart.
	if err := s.newCart(ctx, result.newCartCode); err != nil {
		s.logger.Warn("failed to create replacement cart after checkout", zap.Error(err))
		s.stateMu.Lock()
		s.cart = domain.Cart{}
		s.stateMu.Unlock()
	}
	s.setState(StateIdle)

	return result.CheckoutResult, nil
}

type submitResult struct {
	CheckoutResult
	newCartCode string
}

func (s *Session) submitOrder(ctx context.Context, cart domain.Cart, details PaymentDetails) (submitResult, error) {
	// Placeholder charge line for future charge types; in-store pickup
	// carries a zero value.
	if cart.Total.IsPositive() {
		updated, err := s.backend.AddSubtotal(ctx, cart.CartCode, "Service Charge", decimal.Zero)
		if err != nil {
			return submitResult{}, err
		}
		s.commitCart(updated)
		cart = *updated
	}

	billing := domain.WalkInAddress
	if details.Method == domain.PaymentCredit {
		billing = fmt.Sprintf("%s - %s", strings.TrimSpace(details.CustomerName), strings.TrimSpace(details.CustomerMobile))
	}

	orderCode := ids.OrderCode(s.terminalID)
	order, err := s.backend.CreateOrder(ctx, domain.CreateOrderRequest{
		OrderCode:           orderCode,
		CartCode:            cart.CartCode,
		PaymentMethod:       details.Method,
		BillingAddress:      billing,
		ShippingAddress:     billing,
		SpecialInstructions: fmt.Sprintf("POS order from terminal %s", s.terminalID),
		DeliveryType:        domain.DeliveryPickup,
	}, ids.IdempotencyKey())
	if err != nil {
		return submitResult{}, err
	}

	result := submitResult{
		CheckoutResult: CheckoutResult{
			OrderCode: order.OrderCode,
			CartCode:  cart.CartCode,
			Total:     cart.Total,
		},
		newCartCode: order.NewCartCode,
	}

	switch details.Method {
	case domain.PaymentCash:
		result.Change = details.CashTendered.Sub(cart.Total)
		if err := s.backend.MarkOrderPaid(ctx, order.OrderCode); err != nil {
			s.logger.Warn("order created but mark-paid failed",
				zap.String("order_code", order.OrderCode), zap.Error(err))
			result.MarkPaidErr = fmt.Errorf("order created but could not be marked paid: %w", err)
		}
	case domain.PaymentCredit:
		entry := domain.LedgerEntry{
			FullName:        strings.TrimSpace(details.CustomerName),
			MobileNumber:    strings.TrimSpace(details.CustomerMobile),
			OrderCode:       order.OrderCode,
			AmountDue:       cart.Total,
			ExpectedDueDate: s.clock().AddDate(0, 0, domain.CreditDueDays).Format("2006-01-02"),
			IsPaid:          false,
		}
		if err := s.backend.CreateLedgerEntry(ctx, entry); err != nil {
			s.logger.Warn("order created but ledger entry failed",
				zap.String("order_code", order.OrderCode), zap.Error(err))
			result.LedgerErr = fmt.Errorf("order created but failed to add to ledger: %w", err)
		} else {
			result.LedgerRecorded = true
		}
	}

	// Receipt goes out regardless of payment branch. A print failure never
	// fails the checkout.
	result.Receipt = receipt.Build(receipt.Data{
		AppName:       s.appName,
		TerminalID:    s.terminalID,
		OrderCode:     order.OrderCode,
		PaymentMethod: details.Method,
		CustomerName:  strings.TrimSpace(details.CustomerName),
		Cart:          cart,
		CashTendered:  details.CashTendered,
		Change:        result.Change,
		IssuedAt:      s.clock(),
	})
	if err := s.printer.Print(ctx, result.Receipt); err != nil {
		s.logger.Warn("receipt print failed",
			zap.String("order_code", order.OrderCode), zap.Error(err))
	}

	s.logger.Info("order committed",
		zap.String("order_code", order.OrderCode),
		zap.String("payment_method", details.Method),
		zap.String("total", cart.Total.StringFixed(2)))

	return result, nil
}

func (s *Session) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

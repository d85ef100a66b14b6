package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category_code"`
	Stock    int             `json:"stock"`
	Barcode  string          `json:"barcode,omitempty"`
	ImageRef string          `json:"image,omitempty"`
}

// InStock reports whether the terminal may add the product to a cart.
// Stock is authoritative on the backend; the terminal only reads it.
func (p Product) InStock() bool {
	return p.Stock > 0
}

type LineItem struct {
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	DiscountApplied bool            `json:"discount_applied"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
}

type SubtotalAdjustment struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type DiscountInfo struct {
	TotalOriginalAmount decimal.Decimal `json:"total_original_amount"`
	TotalDiscountAmount decimal.Decimal `json:"total_discount_amount"`
}

// Cart mirrors the backend cart resource. The terminal never mutates it in
// place: every field is replaced wholesale with the last server response.
type Cart struct {
	CartCode            string               `json:"cart_code"`
	LineItems           []LineItem           `json:"line_items"`
	SubtotalAdjustments []SubtotalAdjustment `json:"subtotal_adjustments,omitempty"`
	DiscountInfo        *DiscountInfo        `json:"discount_info,omitempty"`
	Total               decimal.Decimal      `json:"total"`
}

func (c Cart) IsEmpty() bool {
	return len(c.LineItems) == 0
}

func (c Cart) FindLineItem(productID string) (LineItem, bool) {
	for _, item := range c.LineItems {
		if item.ProductID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

type CreateCartRequest struct {
	CartCode string `json:"cart_code"`
	Username string `json:"username"`
}

type AddProductRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveProductRequest struct {
	ProductID string `json:"product_id"`
}

type AddSubtotalRequest struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type CreateOrderRequest struct {
	OrderCode           string `json:"order_code"`
	CartCode            string `json:"cart_code"`
	PaymentMethod       string `json:"payment_method"`
	BillingAddress      string `json:"billing_address"`
	ShippingAddress     string `json:"shipping_address"`
	SpecialInstructions string `json:"special_instructions"`
	DeliveryType        string `json:"delivery_type"`
}

type Order struct {
	OrderCode           string `json:"order_code"`
	CartCode            string `json:"cart_code"`
	PaymentMethod       string `json:"payment_method"`
	BillingAddress      string `json:"billing_address"`
	ShippingAddress     string `json:"shipping_address"`
	SpecialInstructions string `json:"special_instructions"`
	DeliveryType        string `json:"delivery_type"`
	NewCartCode         string `json:"new_cart_code,omitempty"`
}

type LedgerEntry struct {
	FullName        string          `json:"full_name"`
	MobileNumber    string          `json:"mobile_number"`
	OrderCode       string          `json:"order_code"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	ExpectedDueDate string          `json:"expected_due_date"`
	IsPaid          bool            `json:"is_paid"`
}

// ScanEvent records one decoded barcode attempt for operator feedback.
// Events live in a bounded most-recent-first buffer and are never persisted.
type ScanEvent struct {
	Code      string     `json:"code"`
	Timestamp time.Time  `json:"timestamp"`
	Status    ScanStatus `json:"status"`
}

type ScanStatus string

const (
	ScanProcessing ScanStatus = "processing"
	ScanSuccess    ScanStatus = "success"
	ScanNotFound   ScanStatus = "not_found"
	ScanOutOfStock ScanStatus = "out_of_stock"
	ScanError      ScanStatus = "error"
)

const (
	PaymentCash   = "CASH"
	PaymentCredit = "CREDIT"
)

const (
	DeliveryPickup = "IN_STORE_PICKUP"

	WalkInAddress = "Walk-in Customer"
)

// CreditDueDays is how far out a credit sale's ledger entry comes due.
const CreditDueDays = 30

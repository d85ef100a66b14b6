// Package backendtest is an in-process stand-in for the commerce backend's
// REST API, for exercising the terminal against realistic cart semantics:
// server-side idempotent merge of re-added products, server-computed totals,
// and the success/message response envelope.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
)

type Server struct {
	mu       sync.Mutex
	products map[string]domain.Product
	carts    map[string]*domain.Cart
	orders   map[string]domain.Order
	ledgers  []domain.LedgerEntry
	paid     map[string]bool
	requests int

	rejectOrdersMsg string
	failLedger      bool
	failMarkPaid    bool
	issueCartCodes  bool
	nextCartCode    string

	httpServer *httptest.Server
}

func New() *Server {
	s := &Server{
		products: make(map[string]domain.Product),
		carts:    make(map[string]*domain.Cart),
		orders:   make(map[string]domain.Order),
		paid:     make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /products", s.handleListProducts)
	mux.HandleFunc("POST /carts", s.handleCreateCart)
	mux.HandleFunc("PUT /carts/{code}/add-product", s.handleAddProduct)
	mux.HandleFunc("PUT /carts/{code}/update-quantity", s.handleUpdateQuantity)
	mux.HandleFunc("PUT /carts/{code}/remove-product", s.handleRemoveProduct)
	mux.HandleFunc("PUT /carts/{code}/add-subtotal", s.handleAddSubtotal)
	mux.HandleFunc("DELETE /carts/{code}", s.handleDeleteCart)
	mux.HandleFunc("POST /orders", s.handleCreateOrder)
	mux.HandleFunc("PUT /orders/{code}/mark_paid", s.handleMarkPaid)
	mux.HandleFunc("POST /ledgers", s.handleCreateLedger)

	s.httpServer = httptest.NewServer(s.counting(mux))
	return s
}

func (s *Server) URL() string { return s.httpServer.URL }
func (s *Server) Close()      { s.httpServer.Close() }

func (s *Server) counting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Requests counts every HTTP request received, including health probes.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) SeedProducts(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = p
	}
}

// RejectOrders makes POST /orders answer success=false with msg.
func (s *Server) RejectOrders(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectOrdersMsg = msg
}

func (s *Server) FailLedger(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLedger = fail
}

func (s *Server) FailMarkPaid(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMarkPaid = fail
}

// IssueCartCode makes the next order creation return a server-issued
// replacement cart code.
func (s *Server) IssueCartCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issueCartCodes = true
	s.nextCartCode = code
}

func (s *Server) Cart(code string) (domain.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[code]
	if !ok {
		return domain.Cart{}, false
	}
	return *cart, true
}

func (s *Server) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out
}

func (s *Server) Ledgers() []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LedgerEntry, len(s.ledgers))
	copy(out, s.ledgers)
	return out
}

func (s *Server) MarkedPaid(orderCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paid[orderCode]
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]any{"success": success}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, false, message, nil)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// recompute derives the cart total the way the real backend does: sum of
// line final prices plus subtotal adjustments.
func recompute(cart *domain.Cart) {
	total := decimal.Zero
	for i := range cart.LineItems {
		item := &cart.LineItems[i]
		item.FinalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.FinalPrice)
	}
	for _, adj := range cart.SubtotalAdjustments {
		total = total.Add(adj.Value)
	}
	cart.Total = total
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	writeEnvelope(w, http.StatusOK, true, "", products)
}

func (s *Server) handleCreateCart(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCartRequest
	if !decode(w, r, &req) {
		return
	}
	if req.CartCode == "" {
		writeErr(w, http.StatusBadRequest, "cart_code is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[req.CartCode]
	if !ok {
		cart = &domain.Cart{CartCode: req.CartCode, LineItems: []domain.LineItem{}}
		s.carts[req.CartCode] = cart
	}
	writeEnvelope(w, http.StatusOK, true, "", cart)
}

func (s *Server) cartFor(w http.ResponseWriter, r *http.Request) *domain.Cart {
	cart, ok := s.carts[r.PathValue("code")]
	if !ok {
		writeErr(w, http.StatusNotFound, "cart not found")
		return nil
	}
	return cart
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.AddProductRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartFor(w, r)
	if cart == nil {
		return
	}
	product, ok := s.products[req.ProductID]
	if !ok {
		writeErr(w, http.StatusNotFound, "product not found")
		return
	}
	if product.Stock <= 0 {
		writeErr(w, http.StatusConflict, "product out of stock")
		return
	}

	merged := false
	for i := range cart.LineItems {
		if cart.LineItems[i].ProductID == req.ProductID {
			cart.LineItems[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.LineItems = append(cart.LineItems, domain.LineItem{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		})
	}
	recompute(cart)
	writeEnvelope(w, http.StatusOK, true, "", cart)
}

func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateQuantityRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartFor(w, r)
	if cart == nil {
		return
	}
	for i := range cart.LineItems {
		if cart.LineItems[i].ProductID == req.ProductID {
			cart.LineItems[i].Quantity = req.Quantity
			recompute(cart)
			writeEnvelope(w, http.StatusOK, true, "", cart)
			return
		}
	}
	writeErr(w, http.StatusNotFound, "line item not found")
}

func (s *Server) handleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.RemoveProductRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartFor(w, r)
	if cart == nil {
		return
	}
	kept := cart.LineItems[:0]
	for _, item := range cart.LineItems {
		if item.ProductID != req.ProductID {
			kept = append(kept, item)
		}
	}
	cart.LineItems = kept
	recompute(cart)
	writeEnvelope(w, http.StatusOK, true, "", cart)
}

func (s *Server) handleAddSubtotal(w http.ResponseWriter, r *http.Request) {
	var req domain.AddSubtotalRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartFor(w, r)
	if cart == nil {
		return
	}
	cart.SubtotalAdjustments = append(cart.SubtotalAdjustments, domain.SubtotalAdjustment{
		Name:  req.Name,
		Value: req.Value,
	})
	recompute(cart)
	writeEnvelope(w, http.StatusOK, true, "", cart)
}

func (s *Server) handleDeleteCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := r.PathValue("code")
	if _, ok := s.carts[code]; !ok {
		writeErr(w, http.StatusNotFound, "cart not found")
		return
	}
	delete(s.carts, code)
	writeEnvelope(w, http.StatusOK, true, "cart cleared", nil)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectOrdersMsg != "" {
		writeErr(w, http.StatusUnprocessableEntity, s.rejectOrdersMsg)
		return
	}
	if _, ok := s.carts[req.CartCode]; !ok {
		writeErr(w, http.StatusNotFound, "cart not found")
		return
	}

	order := domain.Order{
		OrderCode:           req.OrderCode,
		CartCode:            req.CartCode,
		PaymentMethod:       req.PaymentMethod,
		BillingAddress:      req.BillingAddress,
		ShippingAddress:     req.ShippingAddress,
		SpecialInstructions: req.SpecialInstructions,
		DeliveryType:        req.DeliveryType,
	}
	if s.issueCartCodes {
		order.NewCartCode = s.nextCartCode
	}
	s.orders[order.OrderCode] = order
	delete(s.carts, req.CartCode)

	writeEnvelope(w, http.StatusCreated, true, "", order)
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failMarkPaid {
		writeErr(w, http.StatusInternalServerError, "payment service unavailable")
		return
	}
	code := r.PathValue("code")
	if _, ok := s.orders[code]; !ok {
		writeErr(w, http.StatusNotFound, "order not found")
		return
	}
	s.paid[code] = true
	writeEnvelope(w, http.StatusOK, true, "", nil)
}

func (s *Server) handleCreateLedger(w http.ResponseWriter, r *http.Request) {
	var entry domain.LedgerEntry
	if !decode(w, r, &entry) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLedger {
		writeErr(w, http.StatusInternalServerError, "ledger service unavailable")
		return
	}
	s.ledgers = append(s.ledgers, entry)
	writeEnvelope(w, http.StatusCreated, true, "", entry)
}

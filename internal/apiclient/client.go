package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
)

// APIError is a remote rejection: the backend answered but reported
// success=false. The message is surfaced to the operator verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend rejected request (status %d)", e.Status)
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is the only component that talks HTTP to the backend. Every cart,
// order and ledger endpoint the terminal consumes lives here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func New(baseURL string, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
	}
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}

func (c *Client) CreateCart(ctx context.Context, req domain.CreateCartRequest) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodPost, "/carts", req, &cart, nil); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddProduct(ctx context.Context, cartCode string, productID string, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	req := domain.AddProductRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPut, "/carts/"+cartCode+"/add-product", req, &cart, nil); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) UpdateQuantity(ctx context.Context, cartCode string, productID string, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	req := domain.UpdateQuantityRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPut, "/carts/"+cartCode+"/update-quantity", req, &cart, nil); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) RemoveProduct(ctx context.Context, cartCode string, productID string) (*domain.Cart, error) {
	var cart domain.Cart
	req := domain.RemoveProductRequest{ProductID: productID}
	if err := c.do(ctx, http.MethodPut, "/carts/"+cartCode+"/remove-product", req, &cart, nil); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddSubtotal(ctx context.Context, cartCode string, name string, value decimal.Decimal) (*domain.Cart, error) {
	var cart domain.Cart
	req := domain.AddSubtotalRequest{Name: name, Value: value}
	if err := c.do(ctx, http.MethodPut, "/carts/"+cartCode+"/add-subtotal", req, &cart, nil); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) DeleteCart(ctx context.Context, cartCode string) error {
	return c.do(ctx, http.MethodDelete, "/carts/"+cartCode, nil, nil, nil)
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products, nil); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateOrder submits the order with an Idempotency-Key header so a stuck
// double-submit cannot create two orders on backends that honor the header.
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error) {
	var order domain.Order
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order, headers); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) MarkOrderPaid(ctx context.Context, orderCode string) error {
	return c.do(ctx, http.MethodPut, "/orders/"+orderCode+"/mark_paid", nil, nil, nil)
}

func (c *Client) CreateLedgerEntry(ctx context.Context, entry domain.LedgerEntry) error {
	return c.do(ctx, http.MethodPost, "/ledgers", entry, nil, nil)
}

// Ping probes backend reachability for the connectivity monitor. Any
// well-formed HTTP response counts as online, even an error status.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

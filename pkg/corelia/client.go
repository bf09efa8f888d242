// Package corelia is the HTTP client for the Corelia marketplace API. It
// covers the three endpoints checkout settlement needs: stock deduction,
// purchase-history inventory writes, and receipt creation.
package corelia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/corelia-app/corelia-cart/pkg/errors"
)

const (
	deductStockPath      = "/inventory/deduct-stock"
	inventoryPath        = "/inventory"
	billsPath            = "/user/bills"
	errorBodyReadLimit   = 2048
	defaultClientTimeout = 15 * time.Second
	defaultUnitOfMeasure = "pcs"
)

var errBaseURLRequired = errors.New("corelia base URL is required")

// Client talks to the Corelia backend on behalf of the local cart.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// APIError is a non-2xx answer from the backend, kept alongside whatever
// detail the server included in its body.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("corelia API status %d", e.Status)
	}
	return fmt.Sprintf("corelia API status %d: %s", e.Status, e.Detail)
}

// StatusCode reports the upstream HTTP status.
func (e *APIError) StatusCode() int { return e.Status }

// StockDeduction asks one vendor to release stock for the listed products.
type StockDeduction struct {
	VendorID string
	Items    []DeductionItem
}

// DeductionItem is one product's share of a deduction.
type DeductionItem struct {
	ProductID string
	Name      string
	Quantity  int
}

// Purchase records one bought line in the customer's own inventory.
type Purchase struct {
	ProductID  string
	Name       string
	Category   string
	UnitPrice  decimal.Decimal
	Unit       string
	Quantity   int
	VendorID   string
	VendorName string
}

// Receipt is the bill submitted after a successful settlement.
type Receipt struct {
	Items      []ReceiptItem
	Total      decimal.Decimal
	VendorName string
	VendorID   string
}

// ReceiptItem is one line on the bill.
type ReceiptItem struct {
	ProductID  string
	Name       string
	Category   string
	Quantity   int
	UnitPrice  decimal.Decimal
	Total      decimal.Decimal
	VendorID   string
	VendorName string
}

// DeductStock posts one vendor's deduction batch. The backend treats the
// batch as a unit, so a failed item fails the whole batch.
func (c *Client) DeductStock(ctx context.Context, deduction StockDeduction) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "corelia client not configured")
	}
	if deduction.VendorID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required for stock deduction")
	}
	if len(deduction.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock deduction needs at least one item")
	}

	payload := make([]deductionItemPayload, 0, len(deduction.Items))
	for _, item := range deduction.Items {
		payload = append(payload, deductionItemPayload{
			ShopID:    deduction.VendorID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
		})
	}
	return c.post(ctx, deductStockPath, payload, nil)
}

// AddToInventory appends one purchase to the customer's inventory.
func (c *Client) AddToInventory(ctx context.Context, purchase Purchase) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "corelia client not configured")
	}
	if purchase.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase name is required")
	}

	unit := purchase.Unit
	if unit == "" {
		unit = defaultUnitOfMeasure
	}
	body := purchasePayload{
		ProductID: purchase.ProductID,
		Name:      purchase.Name,
		Category:  purchase.Category,
		Price:     purchase.UnitPrice,
		Stock:     purchase.Quantity,
		Unit:      unit,
		ShopName:  purchase.VendorName,
		ShopID:    purchase.VendorID,
	}
	return c.post(ctx, inventoryPath, body, nil)
}

// CreateReceipt files the bill and returns the backend's id for it.
func (c *Client) CreateReceipt(ctx context.Context, receipt Receipt) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "corelia client not configured")
	}
	if len(receipt.Items) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "receipt needs at least one item")
	}

	items := make([]receiptItemPayload, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, receiptItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
			Total:     item.Total,
			ShopName:  item.VendorName,
			ShopID:    item.VendorID,
		})
	}
	body := receiptPayload{
		Items:       items,
		TotalAmount: receipt.Total,
		ShopName:    receipt.VendorName,
	}
	if receipt.VendorID != "" {
		body.ShopID = &receipt.VendorID
	}

	var resp receiptResponse
	if err := c.post(ctx, billsPath, body, &resp); err != nil {
		return "", err
	}
	return resp.BillID, nil
}

type deductionItemPayload struct {
	ShopID    string `json:"shop_id"`
	ProductID string `json:"product_id,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type purchasePayload struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Unit      string          `json:"unit"`
	ShopName  string          `json:"shop_name,omitempty"`
	ShopID    string          `json:"shop_id,omitempty"`
}

type receiptItemPayload struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	ShopName  string          `json:"shop_name,omitempty"`
	ShopID    string          `json:"shop_id,omitempty"`
}

type receiptPayload struct {
	Items       []receiptItemPayload `json:"items"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
	ShopName    string               `json:"shop_name"`
	ShopID      *string              `json:"shop_id"`
}

type receiptResponse struct {
	BillID string `json:"bill_id"`
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal request for "+path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request for "+path)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute request for "+path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response for "+path)
		}
	}
	return nil
}

// readDetail pulls the FastAPI-style "detail" field when the error body
// carries one, falling back to the raw text.
func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, errorBodyReadLimit))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return strings.TrimSpace(string(raw))
}

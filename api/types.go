package api

// types.go defines the wire models shared by the remote store clients.

import (
	"github.com/shopspring/decimal"
)

// CartLine is one product entry as the cart service represents it.
type CartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Cart is the cart service's view of a user's cart. The total is the
// server's bookkeeping only; clients recompute their own.
type Cart struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Product is the catalog entry used to denormalize order items.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	SKU   string          `json:"sku"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price"`
}

// Address is a delivery address record. At most one default per user,
// enforced by the address service.
type Address struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

// OrderItem carries the product display fields denormalized at
// submission time, so the order survives later catalog edits.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderRequest is the immutable submission snapshot. It is built once
// per checkout session and never mutated after the first network call,
// except to attach the payment reference the gateway hands back.
type OrderRequest struct {
	Items            []OrderItem     `json:"items"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	TotalQuantity    int             `json:"totalQuantity"`
	Address          Address         `json:"address"`
	Notes            string          `json:"notes,omitempty"`
	PaymentMethod    string          `json:"paymentMethod"`
	PaymentReference string          `json:"paymentReference,omitempty"`
}

// OrderResult is the order service's answer to a submission.
type OrderResult struct {
	OrderID       string `json:"orderId"`
	PaymentStatus string `json:"paymentStatus"`
	Message       string `json:"message,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

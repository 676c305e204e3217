package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// CartClient talks to the remote cart store. Every mutation returns the
// server's updated cart; after a mutation the server copy is
// authoritative and callers replace their state with it wholesale.
type CartClient struct {
	c *Client
}

func NewCartClient(c *Client) *CartClient {
	return &CartClient{c: c}
}

func (cc *CartClient) Get(ctx context.Context) (Cart, error) {
	var out Cart
	err := cc.c.do(ctx, http.MethodGet, "/api/cart", nil, &out)
	return out, err
}

// AddLine increments the product's quantity by one, creating the line
// at quantity 1 if it is absent.
func (cc *CartClient) AddLine(ctx context.Context, productID string, unitPrice decimal.Decimal) (Cart, error) {
	in := CartLine{ProductID: productID, Quantity: 1, UnitPrice: unitPrice}
	var out Cart
	err := cc.c.do(ctx, http.MethodPost, "/api/cart/lines", in, &out)
	return out, err
}

// DecrementLine decrements the product's quantity by one; the server
// deletes the line when it reaches zero.
func (cc *CartClient) DecrementLine(ctx context.Context, productID string) (Cart, error) {
	var out Cart
	err := cc.c.do(ctx, http.MethodPatch, "/api/cart/lines/"+url.PathEscape(productID), nil, &out)
	return out, err
}

// DeleteLine removes the line regardless of quantity.
func (cc *CartClient) DeleteLine(ctx context.Context, productID string) (Cart, error) {
	var out Cart
	err := cc.c.do(ctx, http.MethodDelete, "/api/cart/lines/"+url.PathEscape(productID), nil, &out)
	return out, err
}

func (cc *CartClient) Clear(ctx context.Context) (Cart, error) {
	var out Cart
	err := cc.c.do(ctx, http.MethodDelete, "/api/cart", nil, &out)
	return out, err
}

// Sync asks the cart store to fold the given lines into the cart it
// already holds for this user (union by product, quantities summed).
// The merge happens server side because the remote cart may have been
// mutated from another device.
func (cc *CartClient) Sync(ctx context.Context, lines []CartLine) (Cart, error) {
	in := struct {
		Lines []CartLine `json:"lines"`
	}{Lines: lines}
	var out Cart
	err := cc.c.do(ctx, http.MethodPost, "/api/cart/sync", in, &out)
	return out, err
}

package api

import (
	"context"
	"net/http"
)

// OrderClient talks to the remote order store.
type OrderClient struct {
	c *Client
}

func NewOrderClient(c *Client) *OrderClient {
	return &OrderClient{c: c}
}

// Create submits the order snapshot. The caller is responsible for
// making sure this happens at most once per checkout session.
func (oc *OrderClient) Create(ctx context.Context, req OrderRequest) (OrderResult, error) {
	var out OrderResult
	err := oc.c.do(ctx, http.MethodPost, "/api/orders", req, &out)
	return out, err
}

func (oc *OrderClient) History(ctx context.Context) ([]OrderResult, error) {
	var out []OrderResult
	err := oc.c.do(ctx, http.MethodGet, "/api/orders", nil, &out)
	return out, err
}

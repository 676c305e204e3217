package api

import (
	"context"
	"net/http"
	"net/url"
)

// CatalogClient fetches product metadata, used to denormalize order
// items at submission time.
type CatalogClient struct {
	c *Client
}

func NewCatalogClient(c *Client) *CatalogClient {
	return &CatalogClient{c: c}
}

func (cc *CatalogClient) Product(ctx context.Context, id string) (Product, error) {
	var out Product
	err := cc.c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &out)
	return out, err
}

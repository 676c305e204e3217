package api

import (
	"context"
	"net/http"
)

// AddressClient talks to the remote address store. Addresses are opaque
// records to this client; default handling is the server's business.
type AddressClient struct {
	c *Client
}

func NewAddressClient(c *Client) *AddressClient {
	return &AddressClient{c: c}
}

func (ac *AddressClient) List(ctx context.Context) ([]Address, error) {
	var out []Address
	err := ac.c.do(ctx, http.MethodGet, "/api/addresses", nil, &out)
	return out, err
}

func (ac *AddressClient) Create(ctx context.Context, a Address) (Address, error) {
	var out Address
	err := ac.c.do(ctx, http.MethodPost, "/api/addresses", a, &out)
	return out, err
}

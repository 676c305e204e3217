package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.HandlerFunc, token TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(strings.TrimPrefix(srv.URL, "http://"), token)
}

func TestDoSendsBearerToken(t *testing.T) {
	var gotAuth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}, func() string { return "tok-123" })

	require.NoError(t, c.do(context.Background(), http.MethodGet, "/x", nil, nil))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestDoOmitsAuthorizationWhenAnonymous(t *testing.T) {
	var gotAuth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}, nil)

	require.NoError(t, c.do(context.Background(), http.MethodGet, "/x", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestDoMapsUnauthorized(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}, func() string { return "stale" })

	err := c.do(context.Background(), http.MethodGet, "/api/cart", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
}

func TestDoWrapsOtherStatusesWithBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"cart store unavailable"}`, http.StatusInternalServerError)
	}, nil)

	err := c.do(context.Background(), http.MethodGet, "/api/cart", nil, nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "cart store unavailable", se.Body)
	assert.Contains(t, se.Error(), "GET /api/cart")
}

func TestDoKeepsPlainErrorBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of stock", http.StatusConflict)
	}, nil)

	err := c.do(context.Background(), http.MethodPost, "/api/orders", map[string]string{"x": "y"}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "out of stock", se.Body)
}

func TestDoDecodesResponse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lines":[{"productId":"p1","quantity":2,"unitPrice":"9.99"}],"total":"19.98"}`))
	}, nil)

	var out Cart
	require.NoError(t, c.do(context.Background(), http.MethodGet, "/api/cart", nil, &out))
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "p1", out.Lines[0].ProductID)
	assert.Equal(t, 2, out.Lines[0].Quantity)
	assert.Equal(t, "9.99", out.Lines[0].UnitPrice.String())
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, nil)

	err := c.do(ctx, http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

package api

import (
	"context"
	"net/http"
)

// Types for the auth service REST API.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Profile struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"created_at"`
}

// AuthClient talks to the auth service.
type AuthClient struct {
	c *Client
}

func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

func (ac *AuthClient) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := ac.c.do(ctx, http.MethodPost, "/api/login", LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

func (ac *AuthClient) Register(ctx context.Context, req RegisterRequest) error {
	return ac.c.do(ctx, http.MethodPost, "/api/register", req, nil)
}

// Profile fetches the signed-in user's profile using the client's
// bearer credential.
func (ac *AuthClient) Profile(ctx context.Context) (Profile, error) {
	var out Profile
	err := ac.c.do(ctx, http.MethodGet, "/api/profile", nil, &out)
	return out, err
}

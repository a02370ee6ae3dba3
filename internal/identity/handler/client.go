package handler

import (
	"context"

	"google.golang.org/grpc"

	"auth-ms/internal/identity/domain"
	"auth-ms/internal/server/codec"
)

// Client calls auth.v1.AuthService over an existing connection. Errors are
// converted back to credential service errors, so errors.Is works against the sentinels.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Register calls AuthService.Register.
func (c *Client) Register(ctx context.Context, name, email, password string) (*domain.AuthResult, error) {
	return c.invoke(ctx, RegisterMethod, &RegisterRequest{Name: name, Email: email, Password: password})
}

// Login calls AuthService.Login.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return c.invoke(ctx, LoginMethod, &LoginRequest{Email: email, Password: password})
}

// VerifyAndRefresh calls AuthService.VerifyAndRefresh and returns a refreshed token.
func (c *Client) VerifyAndRefresh(ctx context.Context, token string) (*domain.AuthResult, error) {
	return c.invoke(ctx, VerifyAndRefreshMethod, &VerifyRequest{Token: token})
}

func (c *Client) invoke(ctx context.Context, method string, req any) (*domain.AuthResult, error) {
	out := new(domain.AuthResult)
	if err := c.cc.Invoke(ctx, method, req, out, grpc.CallContentSubtype(codec.Name)); err != nil {
		return nil, FromStatus(err)
	}
	return out, nil
}

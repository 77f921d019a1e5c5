package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"attendclient/internal/tokenstore"
)

// Login authenticates and persists the returned token. It runs under the
// shorter login timeout unless the context overrides it.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	const op = "login"
	env, err := c.call(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    "/shared/login",
		body:    map[string]string{"username": username, "password": password},
		timeout: c.loginTimeout,
	})
	if err != nil {
		return LoginResult{}, err
	}
	if env.Token == "" {
		return LoginResult{}, &Error{Op: op, Kind: KindServer, StatusCode: http.StatusOK, Message: InvalidResponse}
	}
	if err := c.tokens.Set(ctx, tokenstore.TokenKey, env.Token); err != nil {
		return LoginResult{}, fmt.Errorf("apiclient: persist token: %w", err)
	}
	return LoginResult{Token: env.Token, Status: env.Status}, nil
}

// Register creates an account. The payload is sent as given.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	return c.message(ctx, "register", http.MethodPost, "/shared/register", req)
}

// Logout forgets the stored token. Nothing is sent to the server.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.tokens.Delete(ctx, tokenstore.TokenKey); err != nil {
		return fmt.Errorf("apiclient: clear token: %w", err)
	}
	return nil
}

// RefreshToken exchanges the current token for a fresh one and stores it.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	const op = "refresh_token"
	env, err := c.call(ctx, request{op: op, method: http.MethodPost, path: "/shared/refresh"})
	if err != nil {
		return "", err
	}
	if env.Token == "" {
		return "", &Error{Op: op, Kind: KindServer, StatusCode: http.StatusOK, Message: InvalidResponse}
	}
	if err := c.tokens.Set(ctx, tokenstore.TokenKey, env.Token); err != nil {
		return "", fmt.Errorf("apiclient: persist token: %w", err)
	}
	return env.Token, nil
}

// ForgotPassword asks the server for a password reset token.
func (c *Client) ForgotPassword(ctx context.Context, userID string) (string, error) {
	env, err := c.call(ctx, request{
		op:     "forgot_password",
		method: http.MethodPost,
		path:   "/shared/forgot_password",
		body:   map[string]string{"user_id": userID},
	})
	if err != nil {
		return "", err
	}
	return env.ResetToken, nil
}

// ResetPassword sets a new password using a token from ForgotPassword.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	return c.message(ctx, "reset_password", http.MethodPost, "/shared/reset_password", req)
}

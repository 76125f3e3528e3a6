package api

import (
	"context"
	"fmt"

	"github.com/avasquez/eventdesk/internal/model"
)

// Login authenticates with email and password, returning the issued
// credential and identity.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.Post(ctx, "/api/Users/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &resp, nil
}

// RegisterUser creates a new platform account.
func (c *Client) RegisterUser(ctx context.Context, req RegisterRequest) error {
	if err := c.Post(ctx, "/api/Users/register", req, nil); err != nil {
		return fmt.Errorf("registering user: %w", err)
	}
	return nil
}

// GetUser retrieves a single account profile by id.
func (c *Client) GetUser(ctx context.Context, userID int) (*model.User, error) {
	var user model.User
	if err := c.Get(ctx, fmt.Sprintf("/api/Users/%d", userID), &user); err != nil {
		return nil, fmt.Errorf("fetching user %d: %w", userID, err)
	}
	return &user, nil
}

// UpdateUser updates an account profile.
func (c *Client) UpdateUser(ctx context.Context, user model.User) error {
	path := fmt.Sprintf("/api/Users/update/%d", user.UserID)
	if err := c.Put(ctx, path, user, nil); err != nil {
		return fmt.Errorf("updating user %d: %w", user.UserID, err)
	}
	return nil
}

// ResetPassword sets a new password for the account with the given email.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword string) error {
	err := c.Put(ctx, "/api/Users/reset-password", ResetPasswordRequest{
		Email:       email,
		NewPassword: newPassword,
	}, nil)
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	return nil
}

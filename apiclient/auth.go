// apiclient/auth.go
package apiclient

import (
	"context"
	"net/http"

	"github.com/tvmsuite/console/httpclient"
	"github.com/tvmsuite/console/model"
)

// AuthClient wraps the /auth resource group.
type AuthClient struct {
	client *httpclient.Client
}

func NewAuthClient(client *httpclient.Client) *AuthClient {
	return &AuthClient{client: client}
}

func (a *AuthClient) Login(ctx context.Context, email, password string) (*model.AuthPayload, error) {
	body := map[string]string{"email": email, "password": password}
	raw, err := a.client.JSON(ctx, http.MethodPost, "/auth/login", nil, body)
	if err != nil {
		return nil, err
	}
	var payload model.AuthPayload
	if err := decode("auth", raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (a *AuthClient) Logout(ctx context.Context) error {
	raw, err := a.client.JSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	return decode("auth", raw, nil)
}

func (a *AuthClient) Me(ctx context.Context) (*model.User, error) {
	raw, err := a.client.JSON(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		User model.User `json:"user"`
	}
	if err := decode("auth", raw, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.User, nil
}

func (a *AuthClient) ChangePassword(ctx context.Context, current, newPassword string) error {
	body := map[string]string{"currentPassword": current, "newPassword": newPassword}
	raw, err := a.client.JSON(ctx, http.MethodPut, "/auth/change-password", nil, body)
	if err != nil {
		return err
	}
	return decode("auth", raw, nil)
}

package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/zcc135820/reqpipe/sdk/client"
)

// User is the account profile.
type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// LoginParams are the login credentials.
type LoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UserUpdate carries profile changes. Nil fields are left unchanged.
type UserUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// AvatarResult is returned by UploadAvatar.
type AvatarResult struct {
	Avatar string `json:"avatar"`
}

// UserAPI accesses the account endpoints.
type UserAPI struct {
	c     *client.Client
	store client.CredentialStore
}

// Login authenticates and, when a store is configured, persists the issued token so that
// later calls carry it.
func (u *UserAPI) Login(ctx context.Context, params LoginParams, opts ...client.RequestOption) (LoginResult, error) {
	res, err := unwrap(client.Post[LoginResult](ctx, u.c, "/auth/login", params, opts...))
	if err != nil {
		return res, err
	}
	if strings.TrimSpace(res.Token) == "" {
		return res, fmt.Errorf("api: login response carries no token")
	}
	if u.store != nil {
		if errSet := u.store.Set(ctx, res.Token); errSet != nil {
			return res, fmt.Errorf("api: store token: %w", errSet)
		}
	}
	return res, nil
}

// Logout revokes the current token on the server and clears it locally. The local credential
// is cleared even when the server call fails.
func (u *UserAPI) Logout(ctx context.Context, opts ...client.RequestOption) error {
	_, err := client.Post[any](ctx, u.c, "/auth/logout", nil, opts...)
	if u.store != nil {
		if errClear := u.store.Clear(ctx); errClear != nil && err == nil {
			err = fmt.Errorf("api: clear token: %w", errClear)
		}
	}
	return err
}

// Info fetches the current profile.
func (u *UserAPI) Info(ctx context.Context, opts ...client.RequestOption) (User, error) {
	return unwrap(client.Get[User](ctx, u.c, "/user/info", opts...))
}

// Update changes the current profile.
func (u *UserAPI) Update(ctx context.Context, in UserUpdate, opts ...client.RequestOption) (User, error) {
	return unwrap(client.Put[User](ctx, u.c, "/user/profile", in, opts...))
}

// UploadAvatar uploads the image at filePath as the profile avatar.
func (u *UserAPI) UploadAvatar(ctx context.Context, filePath string, opts ...client.RequestOption) (AvatarResult, error) {
	return unwrap(client.UploadFile[AvatarResult](ctx, u.c, "/user/avatar", filePath, opts...))
}

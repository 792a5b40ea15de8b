package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
)

const (
	authTokenPath  = "/auth/v1/token?grant_type=password"
	authLogoutPath = "/auth/v1/logout"
	authUserPath   = "/auth/v1/user"
)

type authUserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenPayload struct {
	AccessToken string          `json:"access_token"`
	User        authUserPayload `json:"user"`
}

// SignIn exchanges an email/password pair for an access token.
func (c *Client) SignIn(ctx context.Context, email, password string) (store.AuthSession, error) {
	credentials := map[string]any{
		"email":    strings.TrimSpace(email),
		"password": password,
	}
	response, err := c.do(ctx, http.MethodPost, c.baseURL+authTokenPath, credentials, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
			return store.AuthSession{}, store.ErrInvalidCredentials
		}
		return store.AuthSession{}, err
	}
	var payload tokenPayload
	if err := decodeBody(response, &payload); err != nil {
		return store.AuthSession{}, err
	}
	if payload.AccessToken == "" {
		return store.AuthSession{}, store.ErrInvalidCredentials
	}
	return store.AuthSession{
		AccessToken: payload.AccessToken,
		User:        store.AuthUser{ID: payload.User.ID, Email: payload.User.Email},
	}, nil
}

// SignOut revokes the access token. A token the service no longer knows is
// already signed out.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	headers := http.Header{"Authorization": []string{"Bearer " + accessToken}}
	response, err := c.do(ctx, http.MethodPost, c.baseURL+authLogoutPath, nil, headers)
	if err != nil {
		if isSessionRejection(err) {
			return nil
		}
		return err
	}
	return decodeBody(response, nil)
}

// User resolves the identity behind an access token.
func (c *Client) User(ctx context.Context, accessToken string) (store.AuthUser, error) {
	if strings.TrimSpace(accessToken) == "" {
		return store.AuthUser{}, store.ErrSessionNotFound
	}
	headers := http.Header{"Authorization": []string{"Bearer " + accessToken}}
	response, err := c.do(ctx, http.MethodGet, c.baseURL+authUserPath, nil, headers)
	if err != nil {
		if isSessionRejection(err) {
			return store.AuthUser{}, store.ErrSessionNotFound
		}
		return store.AuthUser{}, err
	}
	var payload authUserPayload
	if err := decodeBody(response, &payload); err != nil {
		return store.AuthUser{}, err
	}
	if payload.ID == "" {
		return store.AuthUser{}, store.ErrSessionNotFound
	}
	return store.AuthUser{ID: payload.ID, Email: payload.Email}, nil
}

func isSessionRejection(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}

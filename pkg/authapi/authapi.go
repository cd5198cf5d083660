package authapi

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/authkit/pkg/httpclient"
	"github.com/dmitrymomot/authkit/pkg/session"
)

// Endpoint paths relative to the client base URL.
const (
	PathLogin            = "/auth/login"
	PathRegister         = "/auth/register"
	PathSendCode         = "/auth/send-verification-code"
	PathResetPassword    = "/auth/reset-password"
	PathRefreshToken     = "/auth/refresh-token"
	PathUserInfo         = "/user/info"
	PathLogout           = "/auth/logout"
	PathVerifyInviteCode = "/auth/verify-invite-code"
	PathCheckEmail       = "/auth/check-email"
)

// API is the authentication API.
type API struct {
	client *httpclient.Client
}

var _ session.Endpoints = (*API)(nil)

// New returns an API that sends its calls through client. client must not be
// bound to the session manager that uses the API.
func New(client *httpclient.Client) *API {
	if client == nil {
		panic("authapi: nil client")
	}
	return &API{client: client}
}

func (a *API) Login(ctx context.Context, p session.LoginParams) (*session.LoginResponse, error) {
	var resp session.LoginResponse
	if err := a.client.Post(ctx, PathLogin, p, &resp, httpclient.WithoutAuth()); err != nil {
		return nil, fmt.Errorf("authapi.Login: %w", err)
	}
	return &resp, nil
}

func (a *API) Register(ctx context.Context, p session.RegisterParams) error {
	if err := a.client.Post(ctx, PathRegister, p, nil, httpclient.WithoutAuth()); err != nil {
		return fmt.Errorf("authapi.Register: %w", err)
	}
	return nil
}

func (a *API) ResetPassword(ctx context.Context, p session.ResetPasswordParams) error {
	if err := a.client.Post(ctx, PathResetPassword, p, nil, httpclient.WithoutAuth()); err != nil {
		return fmt.Errorf("authapi.ResetPassword: %w", err)
	}
	return nil
}

func (a *API) SendVerificationCode(ctx context.Context, p session.SendCodeParams) error {
	if err := a.client.Post(ctx, PathSendCode, p, nil, httpclient.WithoutAuth()); err != nil {
		return fmt.Errorf("authapi.SendVerificationCode: %w", err)
	}
	return nil
}

// RefreshToken posts {"token": refreshToken}. The server answers with the
// new access token and, when it rotates them, a new refresh token.
func (a *API) RefreshToken(ctx context.Context, refreshToken string) (*session.TokenPair, error) {
	body := struct {
		Token string `json:"token"`
	}{Token: refreshToken}

	var pair session.TokenPair
	if err := a.client.Post(ctx, PathRefreshToken, body, &pair, httpclient.WithoutAuth()); err != nil {
		return nil, fmt.Errorf("authapi.RefreshToken: %w", err)
	}
	return &pair, nil
}

func (a *API) UserInfo(ctx context.Context, accessToken string) (*session.User, error) {
	var u session.User
	if err := a.client.Get(ctx, PathUserInfo, &u, httpclient.WithBearer(accessToken)); err != nil {
		return nil, fmt.Errorf("authapi.UserInfo: %w", err)
	}
	return &u, nil
}

func (a *API) Logout(ctx context.Context, accessToken string) error {
	if err := a.client.Post(ctx, PathLogout, nil, nil, httpclient.WithBearer(accessToken)); err != nil {
		return fmt.Errorf("authapi.Logout: %w", err)
	}
	return nil
}

func (a *API) VerifyInviteCode(ctx context.Context, code string) (*session.InviteStatus, error) {
	body := struct {
		InviteCode string `json:"inviteCode"`
	}{InviteCode: code}

	var status session.InviteStatus
	if err := a.client.Post(ctx, PathVerifyInviteCode, body, &status, httpclient.WithoutAuth()); err != nil {
		return nil, fmt.Errorf("authapi.VerifyInviteCode: %w", err)
	}
	return &status, nil
}

func (a *API) CheckEmailExists(ctx context.Context, email string) (*session.EmailStatus, error) {
	var status session.EmailStatus
	err := a.client.Get(ctx, PathCheckEmail, &status, httpclient.WithoutAuth(), httpclient.WithParam("email", email))
	if err != nil {
		return nil, fmt.Errorf("authapi.CheckEmailExists: %w", err)
	}
	return &status, nil
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"rotalize/client/internal/auth"
)

// LoginResult carries what the sign-in flow needs from the login
// response: the bearer token and, when the backend includes it, the
// e-mail confirmation flag (absent flag means "read it from the token").
type LoginResult struct {
	Token          string
	EmailConfirmed *bool
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates and extracts the bearer token. Backend versions
// disagree on where the token lives in the response, so several shapes
// are probed before giving up.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	raw, err := c.doRaw(ctx, http.MethodPost, "/User/login", nil, loginRequest{Username: username, Password: password}, nil)
	if err != nil {
		return LoginResult{}, err
	}

	token, confirmed := extractLogin(raw)
	token = auth.StripBearer(token)
	if !auth.IsLikelyJWT(token) {
		return LoginResult{}, &Error{Status: http.StatusOK, Message: "login response did not include a bearer token"}
	}
	return LoginResult{Token: token, EmailConfirmed: confirmed}, nil
}

// extractLogin probes the known login response shapes:
// {success,data:{token,emailConfirmed}}, {success,data:[{token}]},
// {token}, {accessToken} and {jwt}.
func extractLogin(raw []byte) (string, *bool) {
	type loginFields struct {
		Token          string `json:"token"`
		AccessToken    string `json:"accessToken"`
		JWT            string `json:"jwt"`
		EmailConfirmed *bool  `json:"emailConfirmed"`
	}

	var outer struct {
		loginFields
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return "", nil
	}

	pick := func(f loginFields) string {
		switch {
		case f.Token != "":
			return f.Token
		case f.AccessToken != "":
			return f.AccessToken
		default:
			return f.JWT
		}
	}

	if len(outer.Data) > 0 {
		var inner loginFields
		if json.Unmarshal(outer.Data, &inner) == nil {
			if token := pick(inner); token != "" {
				return token, inner.EmailConfirmed
			}
		}
		var list []loginFields
		if json.Unmarshal(outer.Data, &list) == nil && len(list) > 0 {
			if token := pick(list[0]); token != "" {
				return token, list[0].EmailConfirmed
			}
		}
	}
	return pick(outer.loginFields), outer.EmailConfirmed
}

// CreateUser registers a new driver account.
func (c *Client) CreateUser(ctx context.Context, input CreateUserInput) error {
	return c.do(ctx, http.MethodPost, "/User", nil, input, nil)
}

// Me returns the account behind the session token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/User", nil, nil, &user)
	return user, err
}

// UpdateOwnUser edits the signed-in account.
func (c *Client) UpdateOwnUser(ctx context.Context, input UpdateUserInput) error {
	return c.do(ctx, http.MethodPut, "/User/own", nil, input, nil)
}

// AllUsers lists every account (admin view).
func (c *Client) AllUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.do(ctx, http.MethodGet, "/User/all", nil, nil, &users)
	return users, err
}

// ConfirmEmail submits the e-mailed verification code. The pending token
// from the unconfirmed login authorizes this call, not the session.
func (c *Client) ConfirmEmail(ctx context.Context, pendingToken string, code int) error {
	query := url.Values{}
	query.Set("emailCode", strconv.Itoa(code))
	header := http.Header{}
	header.Set("Authorization", "Bearer "+auth.StripBearer(pendingToken))
	_, err := c.doRaw(ctx, http.MethodPost, "/ApprovalProcess/confirm-email", query, nil, header)
	return err
}

// RequestPasswordRecovery asks the backend to e-mail a reset token.
func (c *Client) RequestPasswordRecovery(ctx context.Context, email string) error {
	query := url.Values{}
	query.Set("email", email)
	return c.do(ctx, http.MethodPost, "/PasswordRecovery/request-recovery", query, nil, nil)
}

// ResetPassword redeems a recovery token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	query := url.Values{}
	query.Set("token", token)
	query.Set("newPassword", newPassword)
	return c.do(ctx, http.MethodPost, "/PasswordRecovery/reset-password", query, nil, nil)
}

// SetUserAsManager links a user to an enterprise as its manager.
func (c *Client) SetUserAsManager(ctx context.Context, userID, enterpriseID string) error {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("newEnterpriseId", enterpriseID)
	return c.do(ctx, http.MethodPut, "/User/set-as-manager", query, nil, nil)
}

// ManagerActiveUsers lists the users linked to the manager's enterprise.
func (c *Client) ManagerActiveUsers(ctx context.Context) ([]ManagerUser, error) {
	var users []ManagerUser
	err := c.do(ctx, http.MethodGet, "/Manager/active-users", nil, nil, &users)
	return users, err
}

// UsersWithoutEnterprise lists accounts not yet linked to an enterprise.
func (c *Client) UsersWithoutEnterprise(ctx context.Context) ([]ManagerUser, error) {
	var users []ManagerUser
	err := c.do(ctx, http.MethodGet, "/Manager/users-without-enterprise", nil, nil, &users)
	return users, err
}

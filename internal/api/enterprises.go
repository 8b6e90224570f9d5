package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Enterprises lists every registered enterprise (admin view).
func (c *Client) Enterprises(ctx context.Context) ([]Enterprise, error) {
	var list []Enterprise
	err := c.do(ctx, http.MethodGet, "/Enterprise/all", nil, nil, &list)
	return list, err
}

// CreateEnterprise registers a new enterprise.
func (c *Client) CreateEnterprise(ctx context.Context, input EnterpriseInput) error {
	return c.do(ctx, http.MethodPost, "/Enterprise", nil, input, nil)
}

// UpdateEnterprise edits an enterprise's name or register number.
func (c *Client) UpdateEnterprise(ctx context.Context, input EnterpriseInput) error {
	return c.do(ctx, http.MethodPut, "/Enterprise", nil, input, nil)
}

// DeleteEnterprise removes an enterprise (query param per the swagger).
func (c *Client) DeleteEnterprise(ctx context.Context, enterpriseID string) error {
	query := url.Values{}
	query.Set("enterpriseId", enterpriseID)
	return c.do(ctx, http.MethodDelete, "/Enterprise", query, nil, nil)
}

// EnterpriseByUser returns the enterprise linked to the session's user,
// or nil when the account has none (the backend reports that as 400/404).
func (c *Client) EnterpriseByUser(ctx context.Context) (*Enterprise, error) {
	var enterprise Enterprise
	err := c.do(ctx, http.MethodGet, "/Enterprise/enterprise-by-user", nil, nil, &enterprise)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &enterprise, nil
}

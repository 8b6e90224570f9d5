package api

import (
	"context"
	"net/http"
	"net/url"
)

// ProcessRoutePoints submits an assembled route draft. The backend
// geoprocesses the points and returns the created route's ID when it
// includes one.
func (c *Client) ProcessRoutePoints(ctx context.Context, payload CreateRoutePayload) (string, error) {
	var created struct {
		RouteID string `json:"routeId"`
	}
	if err := c.do(ctx, http.MethodPost, "/RoutePoint/process-route-points", nil, payload, &created); err != nil {
		return "", err
	}
	return created.RouteID, nil
}

// ActiveRoutes lists the session user's in-progress routes.
func (c *Client) ActiveRoutes(ctx context.Context) ([]ActiveRoute, error) {
	var routes []ActiveRoute
	err := c.do(ctx, http.MethodGet, "/Route/active-routes", nil, nil, &routes)
	return routes, err
}

// RouteDetailed fetches one route with its ordered points, distances and
// consumption estimate.
func (c *Client) RouteDetailed(ctx context.Context, routeID string) (RouteDetail, error) {
	query := url.Values{}
	query.Set("routeId", routeID)
	var detail RouteDetail
	err := c.do(ctx, http.MethodGet, "/Route/detailed", query, nil, &detail)
	return detail, err
}

// FinishRoute closes an in-progress route. PUT with no body, per the
// swagger.
func (c *Client) FinishRoute(ctx context.Context, routeID string) error {
	query := url.Values{}
	query.Set("routeId", routeID)
	return c.do(ctx, http.MethodPut, "/Route/finish", query, nil, nil)
}

// RouteHistory lists the session user's finished routes.
func (c *Client) RouteHistory(ctx context.Context) ([]ActiveRoute, error) {
	var routes []ActiveRoute
	err := c.do(ctx, http.MethodGet, "/Route/history", nil, nil, &routes)
	return routes, err
}

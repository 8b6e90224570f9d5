package api

import (
	"context"
	"net/http"
	"net/url"
)

// CreateVehicle registers a vehicle for the signed-in driver.
func (c *Client) CreateVehicle(ctx context.Context, input VehicleInput) (Vehicle, error) {
	var vehicle Vehicle
	err := c.do(ctx, http.MethodPost, "/Vehicle", nil, input, &vehicle)
	return vehicle, err
}

// UpdateVehicle edits an existing vehicle.
func (c *Client) UpdateVehicle(ctx context.Context, input VehicleInput) error {
	return c.do(ctx, http.MethodPut, "/Vehicle", nil, input, nil)
}

// VehicleByID fetches one vehicle.
func (c *Client) VehicleByID(ctx context.Context, vehicleID string) (Vehicle, error) {
	var vehicle Vehicle
	err := c.do(ctx, http.MethodGet, "/Vehicle/"+url.PathEscape(vehicleID), nil, nil, &vehicle)
	return vehicle, err
}

// VehiclesByUser lists a user's vehicles.
func (c *Client) VehiclesByUser(ctx context.Context, userID string) ([]Vehicle, error) {
	query := url.Values{}
	query.Set("userId", userID)
	var vehicles []Vehicle
	err := c.do(ctx, http.MethodGet, "/Vehicle/by-user-id", query, nil, &vehicles)
	return vehicles, err
}

// ActivateVehicle marks a vehicle active again.
func (c *Client) ActivateVehicle(ctx context.Context, vehicleID string) error {
	query := url.Values{}
	query.Set("vehicleId", vehicleID)
	return c.do(ctx, http.MethodPatch, "/Vehicle/activate", query, nil, nil)
}

// DeactivateVehicle marks a vehicle inactive; vehicles are never deleted.
func (c *Client) DeactivateVehicle(ctx context.Context, vehicleID string) error {
	query := url.Values{}
	query.Set("vehicleId", vehicleID)
	return c.do(ctx, http.MethodPatch, "/Vehicle/deactivate", query, nil, nil)
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rotalize/client/internal/api"
)

// RouteCache persists route details fetched from the backend.
type RouteCache struct {
	db *sql.DB
}

// NewRouteCache wraps an opened cache database.
func NewRouteCache(db *sql.DB) *RouteCache {
	return &RouteCache{db: db}
}

// CachedRoute is a cache listing entry.
type CachedRoute struct {
	RouteID  string
	Name     string
	Status   string
	CachedAt time.Time
}

// Save stores a route detail, replacing any previous copy.
func (c *RouteCache) Save(ctx context.Context, detail *api.RouteDetail) error {
	if detail == nil || detail.ID == "" {
		return fmt.Errorf("save route: missing route id")
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("save route %s: %w", detail.ID, err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO route_cache (route_id, name, status, payload, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(route_id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`, detail.ID, detail.RouteName, string(detail.Status), string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save route %s: %w", detail.ID, err)
	}
	return nil
}

// Route returns a cached route detail, or nil when the route was never
// cached.
func (c *RouteCache) Route(ctx context.Context, routeID string) (*api.RouteDetail, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM route_cache WHERE route_id = ?`, routeID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load route %s: %w", routeID, err)
	}
	var detail api.RouteDetail
	if err := json.Unmarshal([]byte(payload), &detail); err != nil {
		return nil, fmt.Errorf("load route %s: %w", routeID, err)
	}
	return &detail, nil
}

// Recent lists cached routes, newest first.
func (c *RouteCache) Recent(ctx context.Context, limit int) ([]CachedRoute, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT route_id, name, status, cached_at
		FROM route_cache
		ORDER BY cached_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list cached routes: %w", err)
	}
	defer rows.Close()

	var out []CachedRoute
	for rows.Next() {
		var r CachedRoute
		if err := rows.Scan(&r.RouteID, &r.Name, &r.Status, &r.CachedAt); err != nil {
			return nil, fmt.Errorf("list cached routes: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cached routes: %w", err)
	}
	return out, nil
}

// Delete drops a cached route. Unknown ids are not an error.
func (c *RouteCache) Delete(ctx context.Context, routeID string) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM route_cache WHERE route_id = ?`, routeID); err != nil {
		return fmt.Errorf("delete route %s: %w", routeID, err)
	}
	return nil
}

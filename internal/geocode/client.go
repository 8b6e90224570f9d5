// Package geocode resolves free-text address queries to labeled
// coordinates through a Nominatim-compatible endpoint, and drives the
// route screen's debounced per-stop lookups.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Candidate is one geocoding result offered for selection.
type Candidate struct {
	Label string
	Lat   float64
	Lon   float64
}

// regionHintPattern detects queries that already carry a region or
// country hint, so the default suffix is not appended twice.
var regionHintPattern = regexp.MustCompile(`(?i)paraná|pr\b|brasil`)

const minQueryLen = 3

type Client struct {
	baseURL      string
	countryCodes string
	regionSuffix string
	limit        int
	userAgent    string
	http         *http.Client
	cache        *candidateCache
}

type Options struct {
	BaseURL      string
	CountryCodes string
	RegionSuffix string
	Limit        int
	UserAgent    string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

func NewClient(opts Options) *Client {
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		countryCodes: opts.CountryCodes,
		regionSuffix: opts.RegionSuffix,
		limit:        opts.Limit,
		userAgent:    opts.UserAgent,
		http:         &http.Client{Timeout: opts.Timeout},
		cache:        newCandidateCache(opts.CacheTTL),
	}
}

// nominatimItem is the wire shape; coordinates arrive as strings.
type nominatimItem struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search resolves a query to up to limit candidates. Queries shorter
// than three trimmed characters return nothing without touching the
// network. Unless the query already names the region, the configured
// suffix is appended to narrow the search.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < minQueryLen {
		return nil, nil
	}

	effective := trimmed
	if c.regionSuffix != "" && !regionHintPattern.MatchString(trimmed) {
		effective = trimmed + c.regionSuffix
	}

	if cached, ok := c.cache.get(effective); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(c.limit))
	if c.countryCodes != "" {
		params.Set("countrycodes", c.countryCodes)
	}
	params.Set("q", effective)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode lookup: status %d", resp.StatusCode)
	}

	var items []nominatimItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		lat, latErr := strconv.ParseFloat(item.Lat, 64)
		lon, lonErr := strconv.ParseFloat(item.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		candidates = append(candidates, Candidate{Label: item.DisplayName, Lat: lat, Lon: lon})
	}

	c.cache.set(effective, candidates)
	return candidates, nil
}

// Package api is the HTTP client for the Rotalize backend. Every screen
// goes through it; it owns request authorization, the response envelope
// convention and the 401 credential-clear signal.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the bearer token attached to authorized requests
// and receives the invalidation signal when the backend answers 401.
type TokenSource interface {
	Token() string
	Invalidate()
}

// Error is a backend-reported failure: HTTP status plus whatever message
// the envelope carried.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

// envelope is the backend's usual response wrapper. Some endpoints return
// bare JSON instead, so Success is a pointer to tell "absent" from
// "false".
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Err     string          `json:"error"`
	Errors  []string        `json:"errors"`
}

func (e envelope) message() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != "":
		return e.Err
	case len(e.Errors) > 0:
		return strings.Join(e.Errors, "; ")
	default:
		return ""
	}
}

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the backend at baseURL. All requests except
// those carrying an explicit Authorization header are authorized from
// source.
func New(baseURL string, timeout time.Duration, userAgent string, source TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &authTransport{
				source:    source,
				userAgent: userAgent,
				next:      http.DefaultTransport,
			},
		},
	}
}

// do runs one backend call. A non-nil out receives the envelope's data
// field, falling back to the raw body for endpoints that skip the
// envelope.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	raw, err := c.doRaw(ctx, method, path, query, body, nil)
	if err != nil {
		return err
	}
	return decodeBody(raw, out)
}

// doRaw runs one backend call and returns the raw response body after
// envelope-level error checks. Extra headers override the defaults.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body any, header http.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	enveloped := json.Unmarshal(raw, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if enveloped {
			msg = env.message()
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	if enveloped && env.Success != nil && !*env.Success {
		msg := env.message()
		if msg == "" {
			msg = "request failed"
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	return raw, nil
}

// decodeBody unmarshals a response into out, unwrapping the {success,
// data} envelope when present.
func decodeBody(raw []byte, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	payload := raw
	var env envelope
	if json.Unmarshal(raw, &env) == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

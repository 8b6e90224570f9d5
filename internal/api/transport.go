package api

import "net/http"

// authTransport injects the session's bearer token into outgoing requests
// and clears the credential when the backend answers 401. It never
// navigates; the session gate observes the dropped credential on its next
// evaluation and redirects from there.
type authTransport struct {
	source    TokenSource
	userAgent string
	next      http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	// An explicit Authorization header wins: the e-mail confirmation
	// flow authorizes with a pending token instead of the session's.
	if t.source != nil && clone.Header.Get("Authorization") == "" {
		if token := t.source.Token(); token != "" {
			clone.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.next.RoundTrip(clone)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && t.source != nil {
		t.source.Invalidate()
	}
	return resp, nil
}

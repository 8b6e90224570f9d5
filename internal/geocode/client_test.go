package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGeocoder(t *testing.T, handler http.Handler) (*Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler.ServeHTTP(w, r)
	})
	server := httptest.NewServer(counting)
	t.Cleanup(server.Close)
	return NewClient(Options{
		BaseURL:      server.URL,
		CountryCodes: "br",
		RegionSuffix: ", Paraná, Brasil",
		Limit:        5,
		UserAgent:    "RotalizeClient/test",
		CacheTTL:     time.Minute,
	}), &calls
}

const candidateBody = `[
	{"display_name":"Rua XV de Novembro, Curitiba","lat":"-25.4284","lon":"-49.2733"},
	{"display_name":"Rua XV, Londrina","lat":"-23.31","lon":"-51.16"}
]`

func TestSearchShortQuerySkipsNetwork(t *testing.T) {
	client, calls := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody))
	}))

	for _, q := range []string{"", "ab", "  ab  "} {
		candidates, err := client.Search(context.Background(), q)
		if err != nil || candidates != nil {
			t.Fatalf("Search(%q) = (%v, %v), want (nil, nil)", q, candidates, err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("short queries hit the network %d times", calls.Load())
	}
}

func TestSearchAppendsRegionSuffix(t *testing.T) {
	var gotQuery string
	client, _ := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if got := r.URL.Query().Get("countrycodes"); got != "br" {
			t.Errorf("countrycodes = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q", got)
		}
		w.Write([]byte(candidateBody))
	}))

	if _, err := client.Search(context.Background(), "Rua XV"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "Rua XV, Paraná, Brasil" {
		t.Fatalf("query = %q, want region suffix appended", gotQuery)
	}
}

func TestSearchKeepsExistingRegionHint(t *testing.T) {
	var gotQuery string
	client, _ := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(candidateBody))
	}))

	cases := []string{"Rua XV, Curitiba PR", "Praça do Brasil", "Avenida Paraná 100"}
	for _, q := range cases {
		if _, err := client.Search(context.Background(), q); err != nil {
			t.Fatalf("Search(%q) error = %v", q, err)
		}
		if gotQuery != q {
			t.Fatalf("query = %q, want %q unchanged", gotQuery, q)
		}
	}
}

func TestSearchParsesCandidates(t *testing.T) {
	client, _ := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody))
	}))

	candidates, err := client.Search(context.Background(), "Rua XV de Novembro")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	first := candidates[0]
	if first.Label != "Rua XV de Novembro, Curitiba" || first.Lat != -25.4284 || first.Lon != -49.2733 {
		t.Fatalf("first candidate = %+v", first)
	}
}

func TestSearchSkipsUnparsableCoordinates(t *testing.T) {
	client, _ := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"display_name":"bad","lat":"??","lon":"0"},{"display_name":"ok","lat":"1","lon":"2"}]`))
	}))

	candidates, err := client.Search(context.Background(), "somewhere")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].Label != "ok" {
		t.Fatalf("candidates = %+v, want only the parsable one", candidates)
	}
}

func TestSearchCachesPerEffectiveQuery(t *testing.T) {
	client, calls := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody))
	}))

	for i := 0; i < 3; i++ {
		if _, err := client.Search(context.Background(), "Rua XV"); err != nil {
			t.Fatalf("Search() error = %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("network calls = %d, want 1 (cached afterwards)", calls.Load())
	}
}

package credstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rotalize/client/internal/rbac"
)

const wellFormedToken = "eyJhbGciOiJIUzI1NiJ9.eyJVc2VyVHlwZSI6IlVzZXIifQ.c2ln"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store
}

func TestSaveAndRestore(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(wellFormedToken, rbac.RoleManager); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	token, role := store.Restore()
	if token != wellFormedToken || role != rbac.RoleManager {
		t.Fatalf("Restore() = (%q, %q), want (%q, %q)", token, role, wellFormedToken, rbac.RoleManager)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(wellFormedToken, rbac.RoleUser); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second := "aaa.bbb.ccc"
	if err := store.Save(second, rbac.RoleAdmin); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	token, role := store.Restore()
	if token != second || role != rbac.RoleAdmin {
		t.Fatalf("Restore() = (%q, %q), want overwritten pair", token, role)
	}
}

func TestRestoreEmpty(t *testing.T) {
	store := newTestStore(t)
	token, role := store.Restore()
	if token != "" || role != rbac.RoleUnknown {
		t.Fatalf("Restore() on empty store = (%q, %q), want (\"\", unknown)", token, role)
	}
}

func TestRestoreRejectsMalformedToken(t *testing.T) {
	cases := []string{"not-a-jwt", "only.two", "a.b.c.d", ""}
	for _, bad := range cases {
		t.Run(bad, func(t *testing.T) {
			store := newTestStore(t)
			if err := store.Save(bad, rbac.RoleAdmin); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			token, role := store.Restore()
			if token != "" || role != rbac.RoleUnknown {
				t.Fatalf("Restore() = (%q, %q), want cleared pair", token, role)
			}
			// The stale pair must be gone, role included.
			if _, role := store.Restore(); role != rbac.RoleUnknown {
				t.Fatalf("second Restore() role = %q, want unknown", role)
			}
		})
	}
}

func TestRestoreStripsBearerPrefix(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save("Bearer "+wellFormedToken, rbac.RoleUser); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	token, _ := store.Restore()
	if token != wellFormedToken {
		t.Fatalf("Restore() token = %q, want bearer prefix stripped", token)
	}
}

func TestRestoreRejectsTamperedBlob(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.Save(wellFormedToken, rbac.RoleUser); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	path := filepath.Join(dir, credentialFile)
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0o600); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	token, role := store.Restore()
	if token != "" || role != rbac.RoleUnknown {
		t.Fatalf("Restore() of tampered blob = (%q, %q), want (\"\", unknown)", token, role)
	}
}

func TestClearIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(wellFormedToken, rbac.RoleUser); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
	if token, role := store.Restore(); token != "" || role != rbac.RoleUnknown {
		t.Fatal("Restore() after Clear() returned a credential")
	}
}

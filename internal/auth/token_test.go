package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"rotalize/client/internal/rbac"
)

// tokenWith builds an unsigned-but-well-formed JWT carrying the given
// payload claims.
func tokenWith(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "two segments", token: "abc.def"},
		{name: "four segments", token: "a.b.c.d"},
		{name: "bad base64", token: "!!!.???.###"},
		{name: "bad json", token: base64.RawURLEncoding.EncodeToString([]byte("{")) + "." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if claims, ok := Decode(tc.token); ok {
				t.Fatalf("Decode(%q) = %v, want failure", tc.token, claims)
			}
		})
	}
}

func TestRoleOf(t *testing.T) {
	cases := []struct {
		name   string
		claims map[string]any
		want   rbac.Role
	}{
		{name: "short key", claims: map[string]any{"UserType": "User"}, want: rbac.RoleUser},
		{name: "mixed case manager", claims: map[string]any{"UserType": "Manager"}, want: rbac.RoleManager},
		{name: "namespaced key", claims: map[string]any{"http://schemas.microsoft.com/ws/2008/06/identity/claims/role": "Admin"}, want: rbac.RoleAdmin},
		{name: "generic role key", claims: map[string]any{"role": "manager"}, want: rbac.RoleManager},
		{name: "roles array", claims: map[string]any{"roles": []any{"Admin", "User"}}, want: rbac.RoleAdmin},
		{name: "empty roles array", claims: map[string]any{"roles": []any{}}, want: rbac.RoleUnknown},
		{name: "short key wins over generic", claims: map[string]any{"UserType": "Admin", "role": "user"}, want: rbac.RoleAdmin},
		{name: "localized user", claims: map[string]any{"UserType": "Usuário"}, want: rbac.RoleUser},
		{name: "admin before manager", claims: map[string]any{"role": "admin-manager"}, want: rbac.RoleAdmin},
		{name: "unknown value", claims: map[string]any{"role": "driver"}, want: rbac.RoleUnknown},
		{name: "no role claim", claims: map[string]any{"sub": "1"}, want: rbac.RoleUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, ok := Decode(tokenWith(t, tc.claims))
			if !ok {
				t.Fatal("Decode() failed on well-formed token")
			}
			if got := RoleOf(claims); got != tc.want {
				t.Fatalf("RoleOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRoleOfNeverPanicsOnOddShapes(t *testing.T) {
	odd := []map[string]any{
		{"UserType": 42},
		{"roles": "not-an-array"},
		{"roles": []any{nil}},
		{"role": map[string]any{"nested": true}},
	}
	for _, claims := range odd {
		token := tokenWith(t, claims)
		decoded, ok := Decode(token)
		if !ok {
			t.Fatalf("Decode failed for %v", claims)
		}
		_ = RoleOf(decoded)
	}
}

func TestEmailConfirmedOf(t *testing.T) {
	cases := []struct {
		name   string
		claims map[string]any
		want   bool
	}{
		{name: "native bool", claims: map[string]any{"emailConfirmed": true}, want: true},
		{name: "native false", claims: map[string]any{"emailConfirmed": false}, want: false},
		{name: "string true", claims: map[string]any{"emailVerified": "True"}, want: true},
		{name: "string one", claims: map[string]any{"isEmailConfirmed": "1"}, want: true},
		{name: "string zero", claims: map[string]any{"isVerified": "0"}, want: false},
		{name: "first key wins", claims: map[string]any{"emailConfirmed": "0", "emailVerified": true}, want: false},
		{name: "absent", claims: map[string]any{"sub": "1"}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, ok := Decode(tokenWith(t, tc.claims))
			if !ok {
				t.Fatal("Decode() failed on well-formed token")
			}
			if got := EmailConfirmedOf(claims); got != tc.want {
				t.Fatalf("EmailConfirmedOf() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExpiryOf(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	claims, ok := Decode(tokenWith(t, map[string]any{"exp": exp}))
	if !ok {
		t.Fatal("Decode() failed")
	}
	got, present := ExpiryOf(claims)
	if !present || got.Unix() != exp {
		t.Fatalf("ExpiryOf() = (%v, %v), want unix %d", got, present, exp)
	}
	if _, present := ExpiryOf(Claims{}); present {
		t.Fatal("ExpiryOf() reported a missing exp claim as present")
	}
}

func TestStripBearer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{in: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{in: "abc.def.ghi", want: "abc.def.ghi"},
		{in: "  Bearer   abc.def.ghi  ", want: "abc.def.ghi"},
		{in: "bearerabc.def.ghi", want: "bearerabc.def.ghi"},
		{in: "bearer", want: "bearer"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := StripBearer(tc.in); got != tc.want {
			t.Errorf("StripBearer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsLikelyJWT(t *testing.T) {
	if !IsLikelyJWT("a.b.c") {
		t.Error("three segments should pass")
	}
	for _, bad := range []string{"", "a.b", "a.b.c.d", "abc"} {
		if IsLikelyJWT(bad) {
			t.Errorf("IsLikelyJWT(%q) = true, want false", bad)
		}
	}
}

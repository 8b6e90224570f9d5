// Package auth reads the claims the backend embeds in its bearer tokens.
// The backend signs and validates tokens; the client only decodes them to
// learn the caller's role and e-mail confirmation status, so parsing here
// is deliberately unverified and tolerant of claim-key drift between
// backend versions.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rotalize/client/internal/rbac"
)

// Claims is the raw claim set decoded from a bearer token.
type Claims map[string]any

// roleClaimKeys is the prioritized probe list for the role claim. The
// backend has shipped all four shapes at some point.
var roleClaimKeys = []string{
	"UserType",
	"http://schemas.microsoft.com/ws/2008/06/identity/claims/role",
	"role",
	"roles",
}

// emailConfirmedKeys is the probe list for the e-mail confirmation flag.
var emailConfirmedKeys = []string{
	"emailConfirmed",
	"emailVerified",
	"isEmailConfirmed",
	"isVerified",
}

// Decode parses a token's claims without verifying its signature.
// Malformed input (wrong segment count, bad base64, bad JSON) yields
// (nil, false); it never panics.
func Decode(token string) (Claims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return Claims(claims), true
}

// RoleOf resolves the caller's role from a claim set. The first claim key
// present wins; the resolved value is matched case-insensitively, admin
// before manager before user. Anything else is RoleUnknown.
func RoleOf(claims Claims) rbac.Role {
	var raw any
	for _, key := range roleClaimKeys {
		value, ok := claims[key]
		if !ok || value == nil {
			continue
		}
		if key == "roles" {
			list, ok := value.([]any)
			if !ok || len(list) == 0 {
				continue
			}
			value = list[0]
		}
		raw = value
		break
	}

	resolved := strings.ToLower(fmt.Sprint(raw))
	switch {
	case raw == nil:
		return rbac.RoleUnknown
	case strings.Contains(resolved, "admin"):
		return rbac.RoleAdmin
	case strings.Contains(resolved, "manager"):
		return rbac.RoleManager
	case strings.Contains(resolved, "user"), strings.Contains(resolved, "usu"):
		return rbac.RoleUser
	default:
		return rbac.RoleUnknown
	}
}

// EmailConfirmedOf reports whether the token says the account's e-mail is
// confirmed. The first candidate key holding a boolean-ish value decides;
// absent claims default to false.
func EmailConfirmedOf(claims Claims) bool {
	for _, key := range emailConfirmedKeys {
		switch value := claims[key].(type) {
		case bool:
			return value
		case string:
			lowered := strings.ToLower(value)
			return lowered == "true" || lowered == "1"
		}
	}
	return false
}

// HasEmailConfirmedClaim reports whether the token carries any of the
// confirmation claims at all, so callers can tell "unconfirmed" apart
// from "the backend never said".
func HasEmailConfirmedClaim(claims Claims) bool {
	for _, key := range emailConfirmedKeys {
		switch claims[key].(type) {
		case bool, string:
			return true
		}
	}
	return false
}

// ExpiryOf returns the token's exp claim when present.
func ExpiryOf(claims Claims) (time.Time, bool) {
	switch value := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(value), 0), true
	case int64:
		return time.Unix(value, 0), true
	default:
		return time.Time{}, false
	}
}

// userIDClaimKeys is the probe list for the subject identifier.
var userIDClaimKeys = []string{
	"nameid",
	"sub",
	"userId",
	"uid",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
}

// UserIDOf resolves the caller's user ID from a claim set, or "" when no
// known identifier claim is present.
func UserIDOf(claims Claims) string {
	for _, key := range userIDClaimKeys {
		if id, ok := claims[key].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// EmailOf returns the token's email claim when present.
func EmailOf(claims Claims) string {
	if email, ok := claims["email"].(string); ok {
		return email
	}
	return ""
}

// StripBearer removes a leading "Bearer " prefix, which some backend
// responses include in the token field itself. The word must be
// followed by whitespace; a token merely starting with "bearer" is left
// alone.
func StripBearer(token string) string {
	trimmed := strings.TrimSpace(token)
	if len(trimmed) > 6 && strings.EqualFold(trimmed[:6], "bearer") &&
		(trimmed[6] == ' ' || trimmed[6] == '\t') {
		return strings.TrimSpace(trimmed[6:])
	}
	return trimmed
}

// IsLikelyJWT checks the basic JWT shape: three dot-separated segments.
func IsLikelyJWT(token string) bool {
	return token != "" && strings.Count(token, ".") == 2
}

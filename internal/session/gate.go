// Package session tracks the signed-in user and decides which screens
// may render. The gate starts in a loading state, restores persisted
// credentials once, and from then on answers screen-by-screen
// authorization questions.
package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"rotalize/client/internal/auth"
	"rotalize/client/internal/rbac"
)

// State is the gate's authentication state.
type State int

const (
	// StateLoading means restore has not finished; render nothing yet.
	StateLoading State = iota
	// StateUnauthenticated means no valid session exists.
	StateUnauthenticated
	// StateAuthenticated means a token is held and a role is known.
	StateAuthenticated
)

// Verdict says what a screen should do.
type Verdict int

const (
	// VerdictWait keeps the splash up while restore is in flight.
	VerdictWait Verdict = iota
	// VerdictRender lets the screen show.
	VerdictRender
	// VerdictRedirect sends the user to Decision.Target instead.
	VerdictRedirect
)

// Decision is the outcome of evaluating one screen.
type Decision struct {
	Verdict Verdict
	Target  rbac.Screen
}

// Credentials is the persistence behind the gate. *credstore.Store
// implements it.
type Credentials interface {
	Save(token string, role rbac.Role) error
	Restore() (string, rbac.Role)
	Clear() error
}

// ErrPendingVerification is returned by Establish when the account has
// not confirmed its email yet; the token is held aside for the
// confirmation call but no session starts.
var ErrPendingVerification = fmt.Errorf("session: email not confirmed")

// Gate owns the session credentials and the role they grant.
type Gate struct {
	creds Credentials

	mu    sync.Mutex
	state State
	token string
	role  rbac.Role
}

// NewGate builds a gate in the loading state.
func NewGate(creds Credentials) *Gate {
	return &Gate{creds: creds, state: StateLoading, role: rbac.RoleUnknown}
}

// Restore loads persisted credentials and leaves the loading state.
// A missing or unusable pair lands in the unauthenticated state; the
// gate never errors out of loading.
func (g *Gate) Restore() {
	token, role := g.creds.Restore()

	// A stored token past its exp claim is as good as no token.
	if token != "" {
		if claims, ok := auth.Decode(token); ok {
			if exp, ok := auth.ExpiryOf(claims); ok && time.Now().After(exp) {
				log.Printf("session: stored token expired, clearing")
				if err := g.creds.Clear(); err != nil {
					log.Printf("session: clear expired credentials: %v", err)
				}
				token, role = "", rbac.RoleUnknown
			}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if token == "" || role == rbac.RoleUnknown {
		g.state = StateUnauthenticated
		g.token = ""
		g.role = rbac.RoleUnknown
		return
	}
	g.state = StateAuthenticated
	g.token = token
	g.role = role
}

// Establish starts a session from a freshly issued token. The role
// comes from the token's claims; a token that grants no known role is
// rejected. When emailConfirmed is known-false the session does not
// start and ErrPendingVerification is returned.
func (g *Gate) Establish(token string, emailConfirmed *bool) error {
	token = auth.StripBearer(token)
	claims, ok := auth.Decode(token)
	if !ok {
		return fmt.Errorf("session: token is not a decodable JWT")
	}

	confirmed := emailConfirmed
	if confirmed == nil && auth.HasEmailConfirmedClaim(claims) {
		v := auth.EmailConfirmedOf(claims)
		confirmed = &v
	}
	if confirmed != nil && !*confirmed {
		return ErrPendingVerification
	}

	role := auth.RoleOf(claims)
	if role == rbac.RoleUnknown {
		return fmt.Errorf("session: token grants no known role")
	}

	g.mu.Lock()
	g.state = StateAuthenticated
	g.token = token
	g.role = role
	g.mu.Unlock()

	// Persistence is best effort; the in-memory session stands either
	// way.
	if err := g.creds.Save(token, role); err != nil {
		log.Printf("session: persist credentials: %v", err)
	}
	return nil
}

// SignOut ends the session and clears persisted credentials.
func (g *Gate) SignOut() {
	g.mu.Lock()
	g.state = StateUnauthenticated
	g.token = ""
	g.role = rbac.RoleUnknown
	g.mu.Unlock()

	if err := g.creds.Clear(); err != nil {
		log.Printf("session: clear credentials: %v", err)
	}
}

// Token returns the session token, empty when signed out. Implements
// api.TokenSource.
func (g *Gate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Invalidate drops the session after the backend rejected its token.
// Implements api.TokenSource.
func (g *Gate) Invalidate() {
	log.Printf("session: token rejected by backend, signing out")
	g.SignOut()
}

// State returns the gate's current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CurrentRole returns the signed-in role, RoleUnknown when signed out.
func (g *Gate) CurrentRole() rbac.Role {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.role
}

// IsAllowed reports whether the current session may use a screen.
// Unauthenticated sessions get the auth section only; the unknown role
// is never allowed anything that names required roles.
func (g *Gate) IsAllowed(screen rbac.Screen) bool {
	g.mu.Lock()
	state, role := g.state, g.role
	g.mu.Unlock()
	return allowed(state, role, screen)
}

func allowed(state State, role rbac.Role, screen rbac.Screen) bool {
	if state != StateAuthenticated {
		return rbac.IsAuthSection(screen)
	}
	if role == rbac.RoleUnknown {
		return false
	}
	required := rbac.RequiredRoles(screen)
	if required == nil {
		// Auth section while signed in: only the password flows stay
		// reachable.
		return rbac.ReachableWhileAuthenticated(screen)
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// Evaluate answers what a screen should do right now: wait during
// restore, render when allowed, otherwise redirect to where the
// session belongs. The whole decision comes from one snapshot of the
// session, so a concurrent sign-out cannot split the verdict and the
// redirect target across two different sessions.
func (g *Gate) Evaluate(screen rbac.Screen) Decision {
	g.mu.Lock()
	state, role := g.state, g.role
	g.mu.Unlock()

	if state == StateLoading {
		return Decision{Verdict: VerdictWait}
	}
	if allowed(state, role, screen) {
		return Decision{Verdict: VerdictRender}
	}
	return Decision{Verdict: VerdictRedirect, Target: rbac.HomeOf(role)}
}

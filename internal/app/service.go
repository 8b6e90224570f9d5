// Package app wires the session gate, backend client, route draft and
// offline cache into the operations the screens call.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"rotalize/client/internal/api"
	"rotalize/client/internal/export"
	"rotalize/client/internal/geocode"
	"rotalize/client/internal/rbac"
	"rotalize/client/internal/routedraft"
	"rotalize/client/internal/session"
	"rotalize/client/internal/store"
)

// Backend is the slice of the HTTP client the service uses. *api.Client
// implements it.
type Backend interface {
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	CreateUser(ctx context.Context, input api.CreateUserInput) error
	Me(ctx context.Context) (api.User, error)
	UpdateOwnUser(ctx context.Context, input api.UpdateUserInput) error
	ConfirmEmail(ctx context.Context, pendingToken string, code int) error
	RequestPasswordRecovery(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	ProcessRoutePoints(ctx context.Context, payload api.CreateRoutePayload) (string, error)
	ActiveRoutes(ctx context.Context) ([]api.ActiveRoute, error)
	RouteDetailed(ctx context.Context, routeID string) (api.RouteDetail, error)
	FinishRoute(ctx context.Context, routeID string) error
	RouteHistory(ctx context.Context) ([]api.ActiveRoute, error)

	CreateVehicle(ctx context.Context, input api.VehicleInput) (api.Vehicle, error)
	UpdateVehicle(ctx context.Context, input api.VehicleInput) error
	VehicleByID(ctx context.Context, vehicleID string) (api.Vehicle, error)
	VehiclesByUser(ctx context.Context, userID string) ([]api.Vehicle, error)
	ActivateVehicle(ctx context.Context, vehicleID string) error
	DeactivateVehicle(ctx context.Context, vehicleID string) error

	Enterprises(ctx context.Context) ([]api.Enterprise, error)
	CreateEnterprise(ctx context.Context, input api.EnterpriseInput) error
	UpdateEnterprise(ctx context.Context, input api.EnterpriseInput) error
	DeleteEnterprise(ctx context.Context, enterpriseID string) error
	EnterpriseByUser(ctx context.Context) (*api.Enterprise, error)
	AllUsers(ctx context.Context) ([]api.User, error)
	SetUserAsManager(ctx context.Context, userID, enterpriseID string) error
	ManagerActiveUsers(ctx context.Context) ([]api.ManagerUser, error)
	UsersWithoutEnterprise(ctx context.Context) ([]api.ManagerUser, error)
}

// Exporter renders route reports. *export.Service implements it.
type Exporter interface {
	RouteReport(detail *api.RouteDetail) (*export.Result, error)
}

// Service is the application core behind every screen.
type Service struct {
	backend  Backend
	gate     *session.Gate
	cache    *store.RouteCache
	exporter Exporter

	draft    *routedraft.Draft
	lookup   geocode.Lookup
	searcher *geocode.Searcher

	mu           sync.Mutex
	pendingToken string
	candidates   map[string][]geocode.Candidate
}

// NewService assembles the core. cache and exporter may be nil; the
// matching features degrade gracefully.
func NewService(backend Backend, gate *session.Gate, lookup geocode.Lookup, debounce time.Duration, cache *store.RouteCache, exporter Exporter) *Service {
	s := &Service{
		backend:    backend,
		gate:       gate,
		cache:      cache,
		exporter:   exporter,
		draft:      routedraft.New(),
		lookup:     lookup,
		candidates: make(map[string][]geocode.Candidate),
	}
	s.searcher = geocode.NewSearcher(lookup, debounce, s.applyCandidates)
	return s
}

// Close releases background work.
func (s *Service) Close() {
	s.searcher.Close()
}

// Boot restores any persisted session, moving the gate out of its
// loading state.
func (s *Service) Boot() {
	s.gate.Restore()
}

// Evaluate answers whether a screen may render for the current session.
func (s *Service) Evaluate(screen rbac.Screen) session.Decision {
	return s.gate.Evaluate(screen)
}

// Role returns the signed-in role.
func (s *Service) Role() rbac.Role {
	return s.gate.CurrentRole()
}

// SignIn authenticates and starts a session. When the account's e-mail
// is unconfirmed the token is parked for ConfirmEmail and
// session.ErrPendingVerification comes back.
func (s *Service) SignIn(ctx context.Context, username, password string) error {
	result, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return err
	}

	err = s.gate.Establish(result.Token, result.EmailConfirmed)
	if errors.Is(err, session.ErrPendingVerification) {
		s.mu.Lock()
		s.pendingToken = result.Token
		s.mu.Unlock()
	}
	return err
}

// ConfirmEmail submits the verification code using the token parked by
// SignIn. The user signs in again afterwards.
func (s *Service) ConfirmEmail(ctx context.Context, code int) error {
	s.mu.Lock()
	token := s.pendingToken
	s.mu.Unlock()
	if token == "" {
		return fmt.Errorf("confirm email: no pending verification")
	}
	if err := s.backend.ConfirmEmail(ctx, token, code); err != nil {
		return err
	}
	s.mu.Lock()
	s.pendingToken = ""
	s.mu.Unlock()
	return nil
}

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, input api.CreateUserInput) error {
	return s.backend.CreateUser(ctx, input)
}

// SignOut ends the session.
func (s *Service) SignOut() {
	s.gate.SignOut()
}

// Me fetches the signed-in user's profile.
func (s *Service) Me(ctx context.Context) (api.User, error) {
	return s.backend.Me(ctx)
}

// UpdateProfile changes the signed-in user's profile.
func (s *Service) UpdateProfile(ctx context.Context, input api.UpdateUserInput) error {
	return s.backend.UpdateOwnUser(ctx, input)
}

// RequestPasswordRecovery asks the backend to mail a recovery link.
func (s *Service) RequestPasswordRecovery(ctx context.Context, email string) error {
	return s.backend.RequestPasswordRecovery(ctx, email)
}

// ResetPassword completes a recovery with the mailed token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.backend.ResetPassword(ctx, token, newPassword)
}

// Draft returns the route under construction.
func (s *Service) Draft() *routedraft.Draft {
	return s.draft
}

// SetRouteName names the draft.
func (s *Service) SetRouteName(name string) {
	s.draft.SetName(name)
}

// AddStop appends a blank stop and returns its id.
func (s *Service) AddStop() string {
	return s.draft.AddStop()
}

// RemoveStop drops a stop plus its pending lookups and candidates.
func (s *Service) RemoveStop(stopID string) {
	s.draft.RemoveStop(stopID)
	s.searcher.Forget(stopID)
	s.mu.Lock()
	delete(s.candidates, stopID)
	s.mu.Unlock()
}

// UpdateStopQuery records a keystroke on a stop and schedules a
// debounced geocode lookup.
func (s *Service) UpdateStopQuery(stopID, text string) {
	s.draft.UpdateQuery(stopID, text)
	s.searcher.Update(stopID, text)
}

// ResolveStop geocodes a stop's text right away, skipping the debounce,
// and records the candidates. Non-interactive callers use this where a
// screen would use UpdateStopQuery; any pending debounced lookup for
// the stop is superseded.
func (s *Service) ResolveStop(ctx context.Context, stopID, text string) ([]geocode.Candidate, error) {
	s.draft.UpdateQuery(stopID, text)
	s.searcher.Forget(stopID)

	candidates, err := s.lookup.Search(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("resolve stop: %w", err)
	}
	s.mu.Lock()
	s.candidates[stopID] = candidates
	s.mu.Unlock()
	return candidates, nil
}

// SelectStopPlace pins a stop to a candidate and drops the stop's
// suggestion list.
func (s *Service) SelectStopPlace(stopID string, c geocode.Candidate) error {
	if err := s.draft.SelectPlace(stopID, c); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.candidates, stopID)
	s.mu.Unlock()
	return nil
}

// SetInitialStop marks the departure stop.
func (s *Service) SetInitialStop(stopID string) error {
	return s.draft.SetInitial(stopID)
}

// Candidates returns a stop's current suggestion list.
func (s *Service) Candidates(stopID string) []geocode.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates[stopID]
}

func (s *Service) applyCandidates(r geocode.Results) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Candidates == nil {
		delete(s.candidates, r.StopID)
		return
	}
	s.candidates[r.StopID] = r.Candidates
}

// SubmitDraft sends the draft to the backend and returns the new route
// id. The draft survives a failed submission untouched; a successful
// one resets it to blank.
func (s *Service) SubmitDraft(ctx context.Context) (string, error) {
	payload, err := s.draft.BuildPayload()
	if err != nil {
		return "", err
	}
	routeID, err := s.backend.ProcessRoutePoints(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("submit route: %w", err)
	}

	// Warm the offline cache with the route just created.
	if s.cache != nil && routeID != "" {
		if detail, err := s.backend.RouteDetailed(ctx, routeID); err == nil {
			if err := s.cache.Save(ctx, &detail); err != nil {
				log.Printf("app: cache new route %s: %v", routeID, err)
			}
		}
	}

	s.draft.Reset()
	s.mu.Lock()
	s.candidates = make(map[string][]geocode.Candidate)
	s.mu.Unlock()
	return routeID, nil
}

// ActiveRoutes lists the routes currently in progress.
func (s *Service) ActiveRoutes(ctx context.Context) ([]api.ActiveRoute, error) {
	return s.backend.ActiveRoutes(ctx)
}

// RouteHistory lists finished routes.
func (s *Service) RouteHistory(ctx context.Context) ([]api.ActiveRoute, error) {
	return s.backend.RouteHistory(ctx)
}

// RouteDetail fetches one route, falling back to the offline cache
// when the backend is unreachable. fromCache reports which copy came
// back.
func (s *Service) RouteDetail(ctx context.Context, routeID string) (detail *api.RouteDetail, fromCache bool, err error) {
	fetched, err := s.backend.RouteDetailed(ctx, routeID)
	if err == nil {
		if s.cache != nil {
			if cacheErr := s.cache.Save(ctx, &fetched); cacheErr != nil {
				log.Printf("app: cache route %s: %v", routeID, cacheErr)
			}
		}
		return &fetched, false, nil
	}

	if s.cache != nil {
		cached, cacheErr := s.cache.Route(ctx, routeID)
		if cacheErr == nil && cached != nil {
			log.Printf("app: serving route %s from the offline cache: %v", routeID, err)
			return cached, true, nil
		}
	}
	return nil, false, err
}

// FinishRoute completes an active route.
func (s *Service) FinishRoute(ctx context.Context, routeID string) error {
	if err := s.backend.FinishRoute(ctx, routeID); err != nil {
		return err
	}
	// Refresh the cached copy so its status is no longer stale.
	if s.cache != nil {
		if detail, err := s.backend.RouteDetailed(ctx, routeID); err == nil {
			if err := s.cache.Save(ctx, &detail); err != nil {
				log.Printf("app: refresh cached route %s: %v", routeID, err)
			}
		}
	}
	return nil
}

// ExportRouteReport renders a route's PDF report, using the offline
// cache when the backend is down.
func (s *Service) ExportRouteReport(ctx context.Context, routeID string) (*export.Result, error) {
	if s.exporter == nil {
		return nil, fmt.Errorf("export route report: exporting is not configured")
	}
	detail, _, err := s.RouteDetail(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return s.exporter.RouteReport(detail)
}

// CreateVehicle registers a vehicle for the signed-in user.
func (s *Service) CreateVehicle(ctx context.Context, input api.VehicleInput) (api.Vehicle, error) {
	return s.backend.CreateVehicle(ctx, input)
}

// UpdateVehicle edits a vehicle.
func (s *Service) UpdateVehicle(ctx context.Context, input api.VehicleInput) error {
	return s.backend.UpdateVehicle(ctx, input)
}

// Vehicle fetches one vehicle.
func (s *Service) Vehicle(ctx context.Context, vehicleID string) (api.Vehicle, error) {
	return s.backend.VehicleByID(ctx, vehicleID)
}

// Vehicles lists a user's vehicles.
func (s *Service) Vehicles(ctx context.Context, userID string) ([]api.Vehicle, error) {
	return s.backend.VehiclesByUser(ctx, userID)
}

// ActivateVehicle marks a vehicle as the active one.
func (s *Service) ActivateVehicle(ctx context.Context, vehicleID string) error {
	return s.backend.ActivateVehicle(ctx, vehicleID)
}

// DeactivateVehicle retires a vehicle.
func (s *Service) DeactivateVehicle(ctx context.Context, vehicleID string) error {
	return s.backend.DeactivateVehicle(ctx, vehicleID)
}

// Enterprises lists every company.
func (s *Service) Enterprises(ctx context.Context) ([]api.Enterprise, error) {
	return s.backend.Enterprises(ctx)
}

// CreateEnterprise registers a company.
func (s *Service) CreateEnterprise(ctx context.Context, input api.EnterpriseInput) error {
	return s.backend.CreateEnterprise(ctx, input)
}

// UpdateEnterprise edits a company.
func (s *Service) UpdateEnterprise(ctx context.Context, input api.EnterpriseInput) error {
	return s.backend.UpdateEnterprise(ctx, input)
}

// DeleteEnterprise removes a company.
func (s *Service) DeleteEnterprise(ctx context.Context, enterpriseID string) error {
	return s.backend.DeleteEnterprise(ctx, enterpriseID)
}

// OwnEnterprise returns the signed-in manager's company, nil when none
// is linked yet.
func (s *Service) OwnEnterprise(ctx context.Context) (*api.Enterprise, error) {
	return s.backend.EnterpriseByUser(ctx)
}

// AllUsers lists every account, for the admin screens.
func (s *Service) AllUsers(ctx context.Context) ([]api.User, error) {
	return s.backend.AllUsers(ctx)
}

// PromoteToManager links a user to a company as its manager.
func (s *Service) PromoteToManager(ctx context.Context, userID, enterpriseID string) error {
	return s.backend.SetUserAsManager(ctx, userID, enterpriseID)
}

// TeamMembers lists the manager's active users.
func (s *Service) TeamMembers(ctx context.Context) ([]api.ManagerUser, error) {
	return s.backend.ManagerActiveUsers(ctx)
}

// UnassignedUsers lists accounts not linked to any company.
func (s *Service) UnassignedUsers(ctx context.Context) ([]api.ManagerUser, error) {
	return s.backend.UsersWithoutEnterprise(ctx)
}

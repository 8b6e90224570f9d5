package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"rotalize/client/internal/api"
	"rotalize/client/internal/app"
	"rotalize/client/internal/config"
	"rotalize/client/internal/credstore"
	"rotalize/client/internal/export"
	"rotalize/client/internal/geocode"
	"rotalize/client/internal/rbac"
	"rotalize/client/internal/session"
	"rotalize/client/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()

	creds, err := credstore.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("credential store: %v", err)
	}
	gate := session.NewGate(creds)
	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, cfg.UserAgent, gate)
	geocoder := geocode.NewClient(geocode.Options{
		BaseURL:      cfg.NominatimURL,
		CountryCodes: cfg.CountryCodes,
		RegionSuffix: cfg.RegionSuffix,
		Limit:        cfg.GeocodeLimit,
		UserAgent:    cfg.UserAgent,
		CacheTTL:     cfg.GeocodeTTL,
	})

	var cache *store.RouteCache
	db, err := store.Open(filepath.Join(cfg.DataDir, "routes.db"))
	if err != nil {
		log.Printf("offline route cache unavailable: %v", err)
	} else {
		defer db.Close()
		cache = store.NewRouteCache(db)
	}

	svc := app.NewService(client, gate, geocoder, cfg.DebounceDelay, cache, export.NewService())
	defer svc.Close()
	svc.Boot()

	ctx := context.Background()
	if err := run(ctx, svc, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rotalize <command> [flags]

commands:
  login        sign in
  verify       confirm the e-mail verification code
  signup       create an account
  logout       sign out
  whoami       show the signed-in user
  forgot       request a password recovery e-mail
  reset        reset the password with a recovery token
  route        new | active | detail | finish | history | report
  vehicle      list | add | activate | deactivate
  enterprise   list | add | delete
  team         list the manager's active users
  unassigned   list users without a company
  promote      link a user to a company as manager
  users        list every account (admin)`)
}

// requireScreen refuses commands the current session may not use, the
// same decision the screens get.
func requireScreen(svc *app.Service, screen rbac.Screen) error {
	d := svc.Evaluate(screen)
	switch d.Verdict {
	case session.VerdictRender:
		return nil
	case session.VerdictRedirect:
		if d.Target == rbac.ScreenLogin {
			return errors.New("sign in first: rotalize login")
		}
		return fmt.Errorf("not available for the %s role", svc.Role())
	default:
		return errors.New("session still loading")
	}
}

func run(ctx context.Context, svc *app.Service, command string, args []string) error {
	switch command {
	case "login":
		return cmdLogin(ctx, svc, args)
	case "verify":
		return cmdVerify(ctx, svc, args)
	case "signup":
		return cmdSignup(ctx, svc, args)
	case "logout":
		svc.SignOut()
		fmt.Println("signed out")
		return nil
	case "whoami":
		return cmdWhoami(ctx, svc)
	case "forgot":
		return cmdForgot(ctx, svc, args)
	case "reset":
		return cmdReset(ctx, svc, args)
	case "route":
		return cmdRoute(ctx, svc, args)
	case "vehicle":
		return cmdVehicle(ctx, svc, args)
	case "enterprise":
		return cmdEnterprise(ctx, svc, args)
	case "team":
		if err := requireScreen(svc, rbac.ScreenUserList); err != nil {
			return err
		}
		users, err := svc.TeamMembers(ctx)
		if err != nil {
			return err
		}
		printManagerUsers(users)
		return nil
	case "unassigned":
		if err := requireScreen(svc, rbac.ScreenUserLink); err != nil {
			return err
		}
		users, err := svc.UnassignedUsers(ctx)
		if err != nil {
			return err
		}
		printManagerUsers(users)
		return nil
	case "promote":
		return cmdPromote(ctx, svc, args)
	case "users":
		if err := requireScreen(svc, rbac.ScreenCustomerList); err != nil {
			return err
		}
		users, err := svc.AllUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%s\t%s\t%s\n", u.ID, u.Name, u.Email)
		}
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdLogin(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	fs.Parse(args)
	if *username == "" || *password == "" {
		return errors.New("login: -u and -p are required")
	}

	err := svc.SignIn(ctx, *username, *password)
	if errors.Is(err, session.ErrPendingVerification) {
		fmt.Println("e-mail not confirmed yet; run: rotalize verify -code <code>")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", svc.Role())
	return nil
}

func cmdVerify(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	code := fs.Int("code", 0, "verification code from the e-mail")
	fs.Parse(args)
	if *code == 0 {
		return errors.New("verify: -code is required")
	}
	if err := svc.ConfirmEmail(ctx, *code); err != nil {
		return err
	}
	fmt.Println("e-mail confirmed; sign in again with: rotalize login")
	return nil
}

func cmdSignup(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	username := fs.String("username", "", "username")
	name := fs.String("name", "", "full name")
	register := fs.String("register", "", "register number")
	password := fs.String("password", "", "password")
	email := fs.String("email", "", "e-mail address")
	fs.Parse(args)
	if *username == "" || *password == "" || *email == "" {
		return errors.New("signup: -username, -password and -email are required")
	}

	err := svc.SignUp(ctx, api.CreateUserInput{
		Username:       *username,
		Name:           *name,
		RegisterNumber: *register,
		Password:       *password,
		Email:          *email,
	})
	if err != nil {
		return err
	}
	fmt.Println("account created; check your e-mail for the verification code")
	return nil
}

func cmdWhoami(ctx context.Context, svc *app.Service) error {
	if svc.Role() == rbac.RoleUnknown {
		fmt.Println("signed out")
		return nil
	}
	me, err := svc.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s) role=%s\n", me.Name, me.Email, svc.Role())
	return nil
}

func cmdForgot(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("forgot", flag.ExitOnError)
	email := fs.String("email", "", "account e-mail")
	fs.Parse(args)
	if *email == "" {
		return errors.New("forgot: -email is required")
	}
	if err := svc.RequestPasswordRecovery(ctx, *email); err != nil {
		return err
	}
	fmt.Println("recovery e-mail requested")
	return nil
}

func cmdReset(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	token := fs.String("token", "", "recovery token from the e-mail")
	newPassword := fs.String("new-password", "", "new password")
	fs.Parse(args)
	if *token == "" || *newPassword == "" {
		return errors.New("reset: -token and -new-password are required")
	}
	if err := svc.ResetPassword(ctx, *token, *newPassword); err != nil {
		return err
	}
	fmt.Println("password updated")
	return nil
}

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ", ") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func cmdRoute(ctx context.Context, svc *app.Service, args []string) error {
	if len(args) == 0 {
		return errors.New("route: expected new, active, detail, finish, history or report")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "new":
		if err := requireScreen(svc, rbac.ScreenRouteNew); err != nil {
			return err
		}
		return routeNew(ctx, svc, rest)
	case "active":
		if err := requireScreen(svc, rbac.ScreenRouteProgress); err != nil {
			return err
		}
		routes, err := svc.ActiveRoutes(ctx)
		if err != nil {
			return err
		}
		printRoutes(routes)
		return nil
	case "detail":
		if err := requireScreen(svc, rbac.ScreenRouteDetail); err != nil {
			return err
		}
		fs := flag.NewFlagSet("route detail", flag.ExitOnError)
		id := fs.String("id", "", "route id")
		fs.Parse(rest)
		if *id == "" {
			return errors.New("route detail: -id is required")
		}
		detail, fromCache, err := svc.RouteDetail(ctx, *id)
		if err != nil {
			return err
		}
		printRouteDetail(detail, fromCache)
		return nil
	case "finish":
		if err := requireScreen(svc, rbac.ScreenRouteProgress); err != nil {
			return err
		}
		fs := flag.NewFlagSet("route finish", flag.ExitOnError)
		id := fs.String("id", "", "route id")
		fs.Parse(rest)
		if *id == "" {
			return errors.New("route finish: -id is required")
		}
		if err := svc.FinishRoute(ctx, *id); err != nil {
			return err
		}
		fmt.Println("route finished")
		return nil
	case "history":
		if err := requireScreen(svc, rbac.ScreenRouteHistory); err != nil {
			return err
		}
		routes, err := svc.RouteHistory(ctx)
		if err != nil {
			return err
		}
		printRoutes(routes)
		return nil
	case "report":
		if err := requireScreen(svc, rbac.ScreenRouteReport); err != nil {
			return err
		}
		fs := flag.NewFlagSet("route report", flag.ExitOnError)
		id := fs.String("id", "", "route id")
		out := fs.String("o", "", "output file (default: the report name)")
		fs.Parse(rest)
		if *id == "" {
			return errors.New("route report: -id is required")
		}
		result, err := svc.ExportRouteReport(ctx, *id)
		if err != nil {
			return err
		}
		path := *out
		if path == "" {
			path = result.Filename
		}
		if err := os.WriteFile(path, result.Data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("report written to %s\n", path)
		return nil
	default:
		return fmt.Errorf("route: unknown subcommand %q", sub)
	}
}

// routeNew builds a draft from the command line: each -stop is geocoded
// and pinned to its first candidate, mirroring the interactive flow.
func routeNew(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("route new", flag.ExitOnError)
	name := fs.String("name", "", "route name")
	var stops stringList
	fs.Var(&stops, "stop", "stop address (repeat per stop, first is the departure)")
	fs.Parse(args)
	if *name == "" {
		return errors.New("route new: -name is required")
	}
	if len(stops) < 2 {
		return errors.New("route new: at least two -stop addresses are required")
	}

	svc.SetRouteName(*name)
	draft := svc.Draft()
	for len(draft.Stops) < len(stops) {
		svc.AddStop()
	}
	for i, query := range stops {
		candidates, err := svc.ResolveStop(ctx, draft.Stops[i].ID, query)
		if err != nil {
			return fmt.Errorf("geocode %q: %w", query, err)
		}
		if len(candidates) == 0 {
			return fmt.Errorf("geocode %q: no results", query)
		}
		if err := svc.SelectStopPlace(draft.Stops[i].ID, candidates[0]); err != nil {
			return err
		}
		fmt.Printf("stop %d: %s\n", i+1, candidates[0].Label)
	}

	routeID, err := svc.SubmitDraft(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("route created: %s\n", routeID)
	return nil
}

func cmdVehicle(ctx context.Context, svc *app.Service, args []string) error {
	if len(args) == 0 {
		return errors.New("vehicle: expected list, add, activate or deactivate")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		if err := requireScreen(svc, rbac.ScreenVehicleList); err != nil {
			return err
		}
		fs := flag.NewFlagSet("vehicle list", flag.ExitOnError)
		userID := fs.String("user", "", "user id")
		fs.Parse(rest)
		vehicles, err := svc.Vehicles(ctx, *userID)
		if err != nil {
			return err
		}
		for _, v := range vehicles {
			active := " "
			if v.IsActive {
				active = "*"
			}
			fmt.Printf("%s %s\t%s %s %d\t%.1f km/L\n", active, v.ID, v.Model, v.Motor, v.Year, float64(v.EstimatedConsumption))
		}
		return nil
	case "add":
		if err := requireScreen(svc, rbac.ScreenNewVehicle); err != nil {
			return err
		}
		fs := flag.NewFlagSet("vehicle add", flag.ExitOnError)
		model := fs.String("model", "", "model")
		motor := fs.String("motor", "", "motor")
		year := fs.Int("year", 0, "year")
		consumption := fs.Float64("consumption", 0, "estimated consumption (km/L)")
		fs.Parse(rest)
		if *model == "" {
			return errors.New("vehicle add: -model is required")
		}
		v, err := svc.CreateVehicle(ctx, api.VehicleInput{
			Model:                *model,
			Motor:                *motor,
			Year:                 *year,
			EstimatedConsumption: *consumption,
		})
		if err != nil {
			return err
		}
		fmt.Printf("vehicle created: %s\n", v.ID)
		return nil
	case "activate", "deactivate":
		if err := requireScreen(svc, rbac.ScreenVehicleDetail); err != nil {
			return err
		}
		fs := flag.NewFlagSet("vehicle "+sub, flag.ExitOnError)
		id := fs.String("id", "", "vehicle id")
		fs.Parse(rest)
		if *id == "" {
			return fmt.Errorf("vehicle %s: -id is required", sub)
		}
		var err error
		if sub == "activate" {
			err = svc.ActivateVehicle(ctx, *id)
		} else {
			err = svc.DeactivateVehicle(ctx, *id)
		}
		if err != nil {
			return err
		}
		fmt.Printf("vehicle %sd\n", sub)
		return nil
	default:
		return fmt.Errorf("vehicle: unknown subcommand %q", sub)
	}
}

func cmdEnterprise(ctx context.Context, svc *app.Service, args []string) error {
	if len(args) == 0 {
		return errors.New("enterprise: expected list, add or delete")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		if err := requireScreen(svc, rbac.ScreenCompanyList); err != nil {
			return err
		}
		enterprises, err := svc.Enterprises(ctx)
		if err != nil {
			return err
		}
		for _, e := range enterprises {
			fmt.Printf("%s\t%s\t%s\n", e.ID, e.Name, e.RegisterNumber)
		}
		return nil
	case "add":
		if err := requireScreen(svc, rbac.ScreenNewCompany); err != nil {
			return err
		}
		fs := flag.NewFlagSet("enterprise add", flag.ExitOnError)
		name := fs.String("name", "", "company name")
		register := fs.String("register", "", "company register number (CNPJ)")
		fs.Parse(rest)
		if *name == "" {
			return errors.New("enterprise add: -name is required")
		}
		if err := svc.CreateEnterprise(ctx, api.EnterpriseInput{Name: *name, RegisterNumber: *register}); err != nil {
			return err
		}
		fmt.Println("company created")
		return nil
	case "delete":
		if err := requireScreen(svc, rbac.ScreenCompanyList); err != nil {
			return err
		}
		fs := flag.NewFlagSet("enterprise delete", flag.ExitOnError)
		id := fs.String("id", "", "company id")
		fs.Parse(rest)
		if *id == "" {
			return errors.New("enterprise delete: -id is required")
		}
		if err := svc.DeleteEnterprise(ctx, *id); err != nil {
			return err
		}
		fmt.Println("company deleted")
		return nil
	default:
		return fmt.Errorf("enterprise: unknown subcommand %q", sub)
	}
}

func cmdPromote(ctx context.Context, svc *app.Service, args []string) error {
	if err := requireScreen(svc, rbac.ScreenManagerLink); err != nil {
		return err
	}
	fs := flag.NewFlagSet("promote", flag.ExitOnError)
	userID := fs.String("user", "", "user id")
	enterpriseID := fs.String("enterprise", "", "company id")
	fs.Parse(args)
	if *userID == "" || *enterpriseID == "" {
		return errors.New("promote: -user and -enterprise are required")
	}
	if err := svc.PromoteToManager(ctx, *userID, *enterpriseID); err != nil {
		return err
	}
	fmt.Println("user promoted to manager")
	return nil
}

func printManagerUsers(users []api.ManagerUser) {
	if len(users) == 0 {
		fmt.Println("no users")
		return
	}
	for _, u := range users {
		fmt.Printf("%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
}

func printRoutes(routes []api.ActiveRoute) {
	if len(routes) == 0 {
		fmt.Println("no routes")
		return
	}
	for _, r := range routes {
		fmt.Printf("%s\t%s\t%s\t%s\n", r.ID, r.RouteName, r.Status, r.CreatedAt)
	}
}

func printRouteDetail(detail *api.RouteDetail, fromCache bool) {
	fmt.Printf("%s (%s)\n", detail.RouteName, detail.Status)
	if fromCache {
		fmt.Println("  [offline copy]")
	}
	for _, p := range detail.RoutePoints {
		marker := " "
		if p.IsInitialPoint {
			marker = "*"
		}
		fmt.Printf("  %s %d. %s (%.5f, %.5f)\n", marker, p.Position, p.Address, float64(p.Latitude), float64(p.Longitude))
	}
}

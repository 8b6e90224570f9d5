// Package rbac defines the app's roles, screen identifiers and the
// role-to-screen tables consumed by the session gate.
package rbac

type Role string
type Screen string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
	RoleUnknown Role = "unknown"
)

// Auth section screens. These are the only ones reachable without a session.
const (
	ScreenLogin          Screen = "auth/login"
	ScreenSignUp         Screen = "auth/sign-up"
	ScreenVerifyCode     Screen = "auth/verify-code"
	ScreenForgotPassword Screen = "auth/forgot-password"
	ScreenResetPassword  Screen = "auth/reset-password"
	ScreenNewPassword    Screen = "auth/new-password"
)

// Admin section.
const (
	ScreenAdminHome     Screen = "admin/home"
	ScreenAdminSettings Screen = "admin/settings"
	ScreenCompanyList   Screen = "admin/company-list"
	ScreenNewCompany    Screen = "admin/new-company"
	ScreenCompanyEdit   Screen = "admin/company-edit"
	ScreenCustomerList  Screen = "admin/customer-list"
	ScreenManagerLink   Screen = "admin/manager-vinculation"
)

// Manager section.
const (
	ScreenManagerHome    Screen = "manager/home"
	ScreenManagerAccount Screen = "manager/account"
	ScreenManagerCompany Screen = "manager/company"
	ScreenUserList       Screen = "manager/user-list"
	ScreenUserLink       Screen = "manager/user-vinculation"
	ScreenUserData       Screen = "manager/user-data"
)

// Driver (user) section.
const (
	ScreenUserHome      Screen = "user/home"
	ScreenUserAccount   Screen = "user/account"
	ScreenSecurity      Screen = "user/security"
	ScreenVehicleList   Screen = "user/vehicle"
	ScreenVehicleDetail Screen = "user/vehicle-detail"
	ScreenNewVehicle    Screen = "user/new-vehicle"
	ScreenRouteNew      Screen = "user/route-new"
	ScreenRouteProgress Screen = "user/route-progress"
	ScreenRouteDetail   Screen = "user/route-detail"
	ScreenRouteHistory  Screen = "user/route-history"
	ScreenRouteReport   Screen = "user/route-report"
)

func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleManager, RoleUser:
		return Role(role)
	default:
		return RoleUnknown
	}
}

// homeScreens is the fixed role-to-home table. RoleUnknown deliberately
// maps back to the login screen so an unresolved role never lands on a
// privileged view.
var homeScreens = map[Role]Screen{
	RoleAdmin:   ScreenAdminHome,
	RoleManager: ScreenManagerHome,
	RoleUser:    ScreenUserHome,
	RoleUnknown: ScreenLogin,
}

// HomeOf returns the designated home screen for a role.
func HomeOf(role Role) Screen {
	if home, ok := homeScreens[role]; ok {
		return home
	}
	return ScreenLogin
}

// requiredRoles lists, per guarded screen, the roles allowed to render it.
// Auth-section screens carry no entry: they are public.
var requiredRoles = map[Screen][]Role{
	ScreenAdminHome:     {RoleAdmin},
	ScreenAdminSettings: {RoleAdmin},
	ScreenCompanyList:   {RoleAdmin},
	ScreenNewCompany:    {RoleAdmin},
	ScreenCompanyEdit:   {RoleAdmin},
	ScreenCustomerList:  {RoleAdmin},
	ScreenManagerLink:   {RoleAdmin},

	ScreenManagerHome:    {RoleManager},
	ScreenManagerAccount: {RoleManager},
	ScreenManagerCompany: {RoleManager},
	ScreenUserList:       {RoleManager},
	ScreenUserLink:       {RoleManager},
	ScreenUserData:       {RoleManager},

	ScreenUserHome:      {RoleUser},
	ScreenUserAccount:   {RoleUser},
	ScreenSecurity:      {RoleUser},
	ScreenVehicleList:   {RoleUser},
	ScreenVehicleDetail: {RoleUser},
	ScreenNewVehicle:    {RoleUser},
	ScreenRouteNew:      {RoleUser},
	ScreenRouteProgress: {RoleUser},
	ScreenRouteDetail:   {RoleUser},
	ScreenRouteHistory:  {RoleUser},
	ScreenRouteReport:   {RoleUser},
}

// RequiredRoles returns the roles allowed on a screen. An empty result
// means the screen requires no session.
func RequiredRoles(screen Screen) []Role {
	return requiredRoles[screen]
}

// IsAuthSection reports whether a screen belongs to the unauthenticated
// section of the app.
func IsAuthSection(screen Screen) bool {
	_, guarded := requiredRoles[screen]
	return !guarded
}

// authAllowedWhileSignedIn lists the auth-section screens that stay
// reachable with an active session (password recovery flows).
var authAllowedWhileSignedIn = map[Screen]struct{}{
	ScreenForgotPassword: {},
	ScreenResetPassword:  {},
	ScreenNewPassword:    {},
}

// ReachableWhileAuthenticated reports whether an auth-section screen may
// still render for a signed-in session.
func ReachableWhileAuthenticated(screen Screen) bool {
	_, ok := authAllowedWhileSignedIn[screen]
	return ok
}

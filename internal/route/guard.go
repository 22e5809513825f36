// Package route decides whether navigation to a console screen is allowed.
package route

import "strings"

const (
	// Login is the entry point unauthenticated navigation is sent to.
	Login = "/login"
	// Home is where an authenticated user lands after login.
	Home = "/pets"
)

// Allow reports whether an authenticated-only screen may be shown.
func Allow(authenticated bool) bool {
	return authenticated
}

// Authority is the source of the authenticated signal. session.Controller
// satisfies it.
type Authority interface {
	Authenticated() bool
}

// Guard checks navigation against an Authority. It holds no state of its own
// and asks the authority on every check.
type Guard struct {
	auth Authority
}

// NewGuard builds a Guard over auth.
func NewGuard(auth Authority) *Guard {
	return &Guard{auth: auth}
}

// Check returns the path to show for a request to path. Public paths are
// always allowed; any other path needs an authenticated session and falls
// back to Login. An authenticated request for Login goes Home.
func (g *Guard) Check(path string) string {
	authed := g.auth.Authenticated()
	if isPublic(path) {
		if path == Login && authed {
			return Home
		}
		return path
	}
	if !Allow(authed) {
		return Login
	}
	return path
}

func isPublic(path string) bool {
	return path == Login || strings.HasPrefix(path, Login+"/")
}

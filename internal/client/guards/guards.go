// Package guards decides whether a CLI view may be entered. The checks are
// pure functions over the session and a token snapshot.
package guards

import (
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/models"
)

// Views a guard may redirect to.
const (
	ViewLogin     = "login"
	ViewDashboard = "dashboard"
)

// Decision is the outcome of a guard. Redirect is set when Allowed is false.
type Decision struct {
	Allowed  bool
	Redirect string
}

func allow() Decision { return Decision{Allowed: true} }

func redirect(view string) Decision { return Decision{Redirect: view} }

// RequireSession lets signed-in staff through.
func RequireSession(s *models.Session) Decision {
	if s == nil {
		return redirect(ViewLogin)
	}
	return allow()
}

// RequireAdmin lets admins through; other staff go back to the dashboard.
func RequireAdmin(s *models.Session) Decision {
	if s == nil {
		return redirect(ViewLogin)
	}
	if !s.IsAdmin {
		return redirect(ViewDashboard)
	}
	return allow()
}

// RequireRegistryToken checks the token a view will use. With an id, that
// record must exist and be usable; without one, the current token must be.
func RequireRegistryToken(st models.TokenState, id string, now time.Time) Decision {
	if len(st.Tokens) == 0 {
		return redirect(ViewDashboard)
	}

	if id != "" {
		for _, rec := range st.Tokens {
			if rec.ID == id {
				if rec.Valid(now) {
					return allow()
				}
				return redirect(ViewDashboard)
			}
		}
		return redirect(ViewDashboard)
	}

	if st.Current == nil || !st.Current.Valid(now) {
		return redirect(ViewDashboard)
	}
	return allow()
}

package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/regkeeper/internal/client/guards"
	"github.com/dmitrijs2005/regkeeper/internal/common"
)

// getSimpleText, getPassword and confirm are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var confirm = Confirm

// allowed prints the redirect for a failed guard and reports whether the
// command may run.
func (a *App) allowed(d guards.Decision) bool {
	if d.Allowed {
		return true
	}
	switch d.Redirect {
	case guards.ViewLogin:
		fmt.Fprintln(a.out, "Please log in first.")
	default:
		fmt.Fprintln(a.out, "Not available here, back to the dashboard.")
	}
	return false
}

// Login prompts for LMS credentials and starts a session.
//
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	if s := a.session.Current(); s != nil {
		fmt.Fprintf(a.out, "Already logged in as %s.\n", s.Username)
		return nil
	}

	userName, err := getSimpleText(a.reader, "Enter LMS username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter LMS password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.session.Login(ctx, userName, string(password))
	if err != nil {
		a.log.Warn(ctx, "login failed", "username", userName, "error", err)
		fmt.Fprintln(a.out, red("Login failed: "+err.Error()))
		return err
	}

	role := ""
	if s.IsAdmin {
		role = " (admin)"
	}
	fmt.Fprintf(a.out, "Welcome, %s%s.\n", s.DisplayName, role)
	return nil
}

// Logout ends the session and clears the current registry token. Stored
// tokens stay for the next login.
func (a *App) Logout(ctx context.Context) error {
	if !a.allowed(guards.RequireSession(a.session.Current())) {
		return nil
	}
	if err := a.session.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, red("Logged out, but token cleanup failed: "+err.Error()))
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

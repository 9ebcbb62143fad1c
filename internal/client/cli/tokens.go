package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/regkeeper/internal/client/guards"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/client/services"
	"github.com/dmitrijs2005/regkeeper/internal/common"
)

var errAmbiguousID = errors.New("id prefix matches more than one token")

// resolveID finds the record whose id equals or starts with prefix.
func resolveID(st models.TokenState, prefix string) (models.TokenRecord, error) {
	var found []models.TokenRecord
	for _, rec := range st.Tokens {
		if rec.ID == prefix {
			return rec, nil
		}
		if strings.HasPrefix(rec.ID, prefix) {
			found = append(found, rec)
		}
	}
	switch len(found) {
	case 0:
		return models.TokenRecord{}, fmt.Errorf("%w: %s", common.ErrTokenNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return models.TokenRecord{}, fmt.Errorf("%w: %s", errAmbiguousID, prefix)
	}
}

// target resolves the id argument of a token command, printing usage or
// lookup errors.
func (a *App) target(cmd string, args []string) (models.TokenRecord, bool) {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "Usage: %s <id>\n", cmd)
		return models.TokenRecord{}, false
	}
	rec, err := resolveID(a.tokens.Snapshot(), args[0])
	if err != nil {
		fmt.Fprintln(a.out, red(err.Error()))
		return models.TokenRecord{}, false
	}
	return rec, true
}

// Tokens lists every stored registry token.
func (a *App) Tokens(ctx context.Context) error {
	if !a.allowed(guards.RequireSession(a.session.Current())) {
		return nil
	}
	renderTokens(a.out, a.tokens.Snapshot(), a.clock())
	return nil
}

// Issue logs a service account in to the registry using its stored
// credentials.
func (a *App) Issue(ctx context.Context, args []string) error {
	if !a.allowed(guards.RequireAdmin(a.session.Current())) {
		return nil
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Fprintln(a.out, "Service accounts: "+strings.Join(a.creds.Usernames(), ", "))
		u, err := getSimpleText(a.reader, "Username", a.out)
		if err != nil {
			return err
		}
		username = u
	}

	creds, ok := a.creds.Lookup(username)
	if !ok {
		fmt.Fprintf(a.out, "No stored credentials for %s. Use 'issue-manual'.\n", username)
		return fmt.Errorf("%w: %s", common.ErrCredentialsNotFound, username)
	}
	return a.issue(ctx, creds)
}

// IssueManual logs in with credentials typed by the operator.
func (a *App) IssueManual(ctx context.Context) error {
	if !a.allowed(guards.RequireAdmin(a.session.Current())) {
		return nil
	}

	username, err := getSimpleText(a.reader, "Registry username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Registry password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.issue(ctx, models.Credentials{Username: username, Password: string(password)})
}

func (a *App) issue(ctx context.Context, creds models.Credentials) error {
	rec, err := a.tokens.Issue(ctx, creds)
	if err != nil {
		fmt.Fprintln(a.out, red("Issue failed: "+err.Error()))
		return err
	}
	fmt.Fprintf(a.out, "Issued %s for %s, %s left.\n", shortID(rec.ID), rec.Username, remaining(rec, a.clock()))
	return nil
}

// Activate makes a token the one outbound calls use.
func (a *App) Activate(ctx context.Context, args []string) error {
	if !a.allowed(guards.RequireSession(a.session.Current())) {
		return nil
	}
	rec, ok := a.target("activate", args)
	if !ok {
		return nil
	}

	if err := a.tokens.Activate(ctx, rec.ID); err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			fmt.Fprintln(a.out, red("Token has expired. Rotate it or issue a new one."))
		} else {
			fmt.Fprintln(a.out, red("Activate failed: "+err.Error()))
		}
		return err
	}
	return nil
}

// Remove deletes a token. With --logout the registry session is ended first.
func (a *App) Remove(ctx context.Context, args []string) error {
	if !a.allowed(guards.RequireAdmin(a.session.Current())) {
		return nil
	}

	logout := false
	var rest []string
	for _, arg := range args {
		if arg == "--logout" {
			logout = true
			continue
		}
		rest = append(rest, arg)
	}

	rec, ok := a.target("remove", rest)
	if !ok {
		return nil
	}

	yes, err := confirm(a.reader, fmt.Sprintf("Remove token %s for %s?", shortID(rec.ID), rec.Username), a.out)
	if err != nil || !yes {
		return err
	}

	if logout && rec.Valid(a.clock()) {
		if err := a.regAuth.Logout(ctx, rec.Token); err != nil {
			a.log.Warn(ctx, "registry logout failed", "id", rec.ID, "error", err)
		}
	}

	if err := a.tokens.Remove(ctx, rec.ID); err != nil {
		fmt.Fprintln(a.out, red("Remove failed: "+err.Error()))
		return err
	}
	fmt.Fprintf(a.out, "Removed %s.\n", shortID(rec.ID))
	return nil
}

// Rotate replaces a token with a fresh one for the same account.
func (a *App) Rotate(ctx context.Context, args []string) error {
	if !a.allowed(guards.RequireAdmin(a.session.Current())) {
		return nil
	}
	rec, ok := a.target("rotate", args)
	if !ok {
		return nil
	}

	next, err := a.tokens.Rotate(ctx, rec.ID)
	switch {
	case services.IsCredentialsMissing(err):
		fmt.Fprintf(a.out, "No stored credentials for %s. The token was deactivated.\n", rec.Username)
		return err
	case err != nil:
		fmt.Fprintln(a.out, red("Rotate failed: "+err.Error()))
		return err
	}
	fmt.Fprintf(a.out, "Rotated %s -> %s.\n", shortID(rec.ID), shortID(next.ID))
	return nil
}

// Refresh runs one auto-refresh sweep now.
func (a *App) Refresh(ctx context.Context) error {
	if !a.allowed(guards.RequireAdmin(a.session.Current())) {
		return nil
	}
	due := a.refresher.Due()
	if len(due) == 0 {
		fmt.Fprintln(a.out, "Nothing to refresh.")
		return nil
	}
	if err := a.refresher.SweepOnce(ctx); err != nil {
		fmt.Fprintln(a.out, red(err.Error()))
		return err
	}
	fmt.Fprintf(a.out, "Refreshed %d token(s).\n", len(due))
	return nil
}

// Dismiss clears the last error banner.
func (a *App) Dismiss(ctx context.Context) error {
	a.tokens.ClearError()
	return nil
}

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/auth"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

const shortIDLen = 8

// FormatRemaining renders the time left until exp as "3h 12m", or "Expired".
func FormatRemaining(exp, now time.Time) string {
	d := exp.Sub(now)
	if d <= 0 {
		return "Expired"
	}
	return fmt.Sprintf("%dh %dm", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func tokenStatus(rec models.TokenRecord, now time.Time) string {
	switch {
	case !rec.IsActive:
		return yellow("inactive")
	case auth.IsExpired(rec.Token, now):
		return red("expired")
	default:
		return green("active")
	}
}

// remaining uses the token's own expiry. Undecodable tokens count as expired.
func remaining(rec models.TokenRecord, now time.Time) string {
	exp, err := auth.ExpiresAt(rec.Token)
	if err != nil {
		return "Expired"
	}
	return FormatRemaining(exp, now)
}

// renderTokens writes the collection as a table, current token first-marked
// with '*'.
func renderTokens(w io.Writer, st models.TokenState, now time.Time) {
	if len(st.Tokens) == 0 {
		fmt.Fprintln(w, "No registry tokens. Use 'issue <username>' to get one.")
		return
	}

	current := ""
	if st.Current != nil {
		current = st.Current.ID
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tUSERNAME\tSTATUS\tREMAINING\tISSUED")
	for _, rec := range st.Tokens {
		mark := " "
		if rec.ID == current {
			mark = bold("*")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark,
			shortID(rec.ID),
			rec.Username,
			tokenStatus(rec, now),
			remaining(rec, now),
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	_ = tw.Flush()

	if st.LastError != "" {
		fmt.Fprintln(w, red("! "+st.LastError)+" (type 'dismiss' to clear)")
	}
}

func renderSession(s *models.Session) string {
	if s == nil {
		return ""
	}
	parts := []string{s.Username}
	if s.IsAdmin {
		parts = append(parts, "admin")
	}
	return strings.Join(parts, " ")
}

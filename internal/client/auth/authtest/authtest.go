// Package authtest mints registry-shaped tokens for tests.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Options describe the claims of a minted token. Zero values are omitted.
type Options struct {
	Subject     string
	Username    string
	FullName    string
	InstituteID string
	ExpiresAt   time.Time

	// Extra claims are set as given, overriding the fields above.
	Extra map[string]any
}

var secret = []byte("authtest-signing-key")

// Mint returns an HS256 token carrying the given claims.
func Mint(t testing.TB, o Options) string {
	t.Helper()

	claims := jwt.MapClaims{}
	if o.Subject != "" {
		claims["sub"] = o.Subject
	}
	if o.Username != "" {
		claims["user.username"] = o.Username
	}
	if o.FullName != "" {
		claims["user.fullname"] = o.FullName
	}
	if o.InstituteID != "" {
		claims["user.instituteid"] = o.InstituteID
	}
	if !o.ExpiresAt.IsZero() {
		claims["exp"] = o.ExpiresAt.Unix()
	}
	for k, v := range o.Extra {
		claims[k] = v
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return s
}

// Expiring is shorthand for a token for username expiring after d.
func Expiring(t testing.TB, username string, d time.Duration) string {
	t.Helper()
	return Mint(t, Options{Subject: username, Username: username, ExpiresAt: time.Now().Add(d)})
}

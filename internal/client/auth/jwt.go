// Package auth decodes registry access tokens. Tokens are never verified
// here: the registry owns the signing key and only the embedded claims are
// needed to decide expiry and to show who a token belongs to.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned for tokens that carry no exp claim.
var ErrNoExpiry = errors.New("token has no expiry claim")

// Claims are the registry token claims regkeeper reads. The registry uses
// flat dotted keys for the user attributes and is loose about their JSON
// types, so numbers and strings are both accepted.
type Claims struct {
	Sub            string
	UserID         string
	Username       string
	FullName       string
	RoleName       string
	InstituteID    string
	UniversityName string
	ExpiresAt      *jwt.NumericDate
}

var parser = jwt.NewParser(jwt.WithJSONNumber())

// ParseClaims decodes the token payload without checking the signature.
func ParseClaims(token string) (*Claims, error) {
	m := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	exp, err := m.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return &Claims{
		Sub:            claimString(m, "sub"),
		UserID:         claimString(m, "user.id"),
		Username:       claimString(m, "user.username"),
		FullName:       claimString(m, "user.fullname"),
		RoleName:       claimString(m, "user.rolename"),
		InstituteID:    claimString(m, "user.instituteid"),
		UniversityName: claimString(m, "user.universityname"),
		ExpiresAt:      exp,
	}, nil
}

// claimString renders a scalar claim as text. Other shapes read as empty.
func claimString(m jwt.MapClaims, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// ExpiresAt returns the exp claim of token.
func ExpiresAt(token string) (time.Time, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether token has expired at now. A token whose expiry
// cannot be decoded counts as expired.
func IsExpired(token string, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return !exp.After(now)
}

// Subject returns the best available account name for token: the
// user.username claim, else sub.
func (c *Claims) Subject() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Sub
}

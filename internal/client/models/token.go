// Package models defines the client-side data model of regkeeper.
package models

import (
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/auth"
)

// TokenRecord is one registry access token issued for a service account.
type TokenRecord struct {
	// ID is generated locally when the token is issued.
	ID string
	// Username is the service account the token was issued for. Several
	// records, at most one of them active, may share it.
	Username string
	// Token is the signed access token exactly as the registry returned it.
	Token string
	// CreatedAt is the local issue time.
	CreatedAt time.Time
	// ExpiresAt is the expiry decoded at issue time. Display only: validity is
	// always decided from the token itself.
	ExpiresAt time.Time
	// IsActive turns false when a newer token supersedes this one or when it
	// can no longer be refreshed.
	IsActive bool
}

// Valid reports whether r can be used at now: active and not expired.
func (r TokenRecord) Valid(now time.Time) bool {
	return r.IsActive && !auth.IsExpired(r.Token, now)
}

// TokenCollection is the persisted part of the token state.
type TokenCollection struct {
	Tokens    []TokenRecord
	CurrentID string
}

// Find returns the index of the record with id, or -1.
func (c *TokenCollection) Find(id string) int {
	for i := range c.Tokens {
		if c.Tokens[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate it freely.
func (c TokenCollection) Clone() TokenCollection {
	out := TokenCollection{CurrentID: c.CurrentID}
	if c.Tokens != nil {
		out.Tokens = make([]TokenRecord, len(c.Tokens))
		copy(out.Tokens, c.Tokens)
	}
	return out
}

// TokenChange is the delta committed to storage for one mutation.
type TokenChange struct {
	Upsert []TokenRecord
	Delete []string
	// Current, when non-nil, replaces the stored current id. An empty string
	// clears it.
	Current *string
}

// IsEmpty reports whether the change writes nothing.
func (c TokenChange) IsEmpty() bool {
	return len(c.Upsert) == 0 && len(c.Delete) == 0 && c.Current == nil
}

// TokenState is an immutable snapshot handed to readers.
type TokenState struct {
	Tokens    []TokenRecord
	Current   *TokenRecord
	IsLoading bool
	LastError string
}

// Session is the identity of the staff member signed in through the LMS.
type Session struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
}

// Credentials is a username and password pair for a service account.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/auth/authtest"
	"github.com/stretchr/testify/assert"
)

func TestTokenCollection_Find(t *testing.T) {
	c := TokenCollection{Tokens: []TokenRecord{{ID: "a"}, {ID: "b"}}}

	assert.Equal(t, 1, c.Find("b"))
	assert.Equal(t, -1, c.Find("zzz"))
}

func TestTokenCollection_CloneIsIndependent(t *testing.T) {
	c := TokenCollection{Tokens: []TokenRecord{{ID: "a", IsActive: true}}, CurrentID: "a"}

	cl := c.Clone()
	cl.Tokens[0].IsActive = false
	cl.CurrentID = ""

	assert.True(t, c.Tokens[0].IsActive)
	assert.Equal(t, "a", c.CurrentID)
}

func TestTokenChange_IsEmpty(t *testing.T) {
	assert.True(t, TokenChange{}.IsEmpty())

	empty := ""
	assert.False(t, TokenChange{Current: &empty}.IsEmpty())
	assert.False(t, TokenChange{Delete: []string{"x"}}.IsEmpty())
}

func TestTokenRecord_Valid(t *testing.T) {
	now := time.Now()
	live := authtest.Expiring(t, "svc", time.Hour)
	numeric := authtest.Mint(t, authtest.Options{
		ExpiresAt: now.Add(time.Hour),
		Extra:     map[string]any{"user.id": 42},
	})

	tests := []struct {
		name string
		rec  TokenRecord
		want bool
	}{
		{name: "active", rec: TokenRecord{Token: live, IsActive: true}, want: true},
		{name: "numeric user claims", rec: TokenRecord{Token: numeric, IsActive: true}, want: true},
		{name: "inactive", rec: TokenRecord{Token: live}, want: false},
		{name: "expired", rec: TokenRecord{Token: authtest.Expiring(t, "svc", -time.Minute), IsActive: true}, want: false},
		{name: "garbage", rec: TokenRecord{Token: "x", IsActive: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Valid(now))
		})
	}
}

// Package metadata stores small keyed values: the current token id, the
// signed-in session and the store salt.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyCurrentTokenID = "current_token_id"
	KeySession        = "session"
	KeyStoreSalt      = "store_salt"
	KeyStoreVerifier  = "store_verifier"
)

// Repository reads and writes metadata rows. Implementations accept either a
// *sql.DB or a transaction.
type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

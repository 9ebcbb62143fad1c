package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/regkeeper/internal/common"
	"github.com/dmitrijs2005/regkeeper/internal/cryptox"
	"github.com/dmitrijs2005/regkeeper/internal/dbx"
)

// ErrWrongStoreSecret means the configured secret does not match the one the
// database was first opened with.
var ErrWrongStoreSecret = errors.New("store secret does not match this database")

// OpenCipher returns the cipher that seals tokens at rest. Without a secret
// tokens are stored as they are. The first call with a secret stores a fresh
// salt and a verifier of the derived key; later calls check against it.
func OpenCipher(ctx context.Context, db *sql.DB, repos repomanager.RepositoryManager, secret string) (cryptox.Cipher, error) {
	if secret == "" {
		return cryptox.PlainCipher{}, nil
	}

	var key []byte
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		md := repos.Metadata(tx)

		salt, err := md.Get(ctx, metadata.KeyStoreSalt)
		if err != nil {
			return err
		}
		verifier, err := md.Get(ctx, metadata.KeyStoreVerifier)
		if err != nil {
			return err
		}

		if salt == nil {
			salt = common.GenerateRandByteArray(cryptox.SaltSize)
			key = cryptox.DeriveKey([]byte(secret), salt)
			if err := md.Set(ctx, metadata.KeyStoreSalt, salt); err != nil {
				return err
			}
			return md.Set(ctx, metadata.KeyStoreVerifier, cryptox.MakeVerifier(key))
		}

		key = cryptox.DeriveKey([]byte(secret), salt)
		if subtle.ConstantTimeCompare(verifier, cryptox.MakeVerifier(key)) == 0 {
			return ErrWrongStoreSecret
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open store cipher: %w", err)
	}
	defer common.WipeByteArray(key)

	return cryptox.NewAESCipher(key)
}

package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/common"
	"github.com/dmitrijs2005/regkeeper/internal/cryptox"
	"github.com/dmitrijs2005/regkeeper/internal/dbx"
)

// SQLRepository stores records in registry_tokens. The token column is
// sealed with the configured cipher; timestamps are Unix milliseconds.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	cipher  cryptox.Cipher
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect, cipher cryptox.Cipher) *SQLRepository {
	if cipher == nil {
		cipher = cryptox.PlainCipher{}
	}
	return &SQLRepository{db: db, dialect: dialect, cipher: cipher}
}

func (r *SQLRepository) List(ctx context.Context) ([]models.TokenRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, token, created_at, expires_at, is_active
		FROM registry_tokens
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var result []models.TokenRecord
	for rows.Next() {
		var (
			rec       models.TokenRecord
			sealed    []byte
			createdAt int64
			expiresAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Username, &sealed, &createdAt, &expiresAt, &rec.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		plain, err := r.cipher.Open(sealed)
		if err != nil {
			return nil, fmt.Errorf("failed to open token %s: %w", rec.ID, err)
		}
		rec.Token = string(plain)
		rec.CreatedAt = time.UnixMilli(createdAt)
		rec.ExpiresAt = time.UnixMilli(expiresAt)
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate token rows: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Upsert(ctx context.Context, rec models.TokenRecord) error {
	sealed, err := r.cipher.Seal([]byte(rec.Token))
	if err != nil {
		return fmt.Errorf("failed to seal token %s: %w", rec.ID, err)
	}

	_, err = r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO registry_tokens (id, username, token, created_at, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			token = excluded.token,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			is_active = excluded.is_active
	`), rec.ID, rec.Username, sealed, rec.CreatedAt.UnixMilli(), rec.ExpiresAt.UnixMilli(), rec.IsActive)
	if err != nil {
		return fmt.Errorf("failed to upsert token %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM registry_tokens WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete token %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete token %s: %w", id, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

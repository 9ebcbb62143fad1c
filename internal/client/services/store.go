package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/regkeeper/internal/common"
	"github.com/dmitrijs2005/regkeeper/internal/dbx"
)

// TokenStore persists the token collection.
type TokenStore interface {
	Load(ctx context.Context) (models.TokenCollection, error)
	// Commit writes change atomically. On error nothing is written.
	Commit(ctx context.Context, change models.TokenChange) error
}

// SQLTokenStore keeps records in registry_tokens and the current id in the
// metadata table.
type SQLTokenStore struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewSQLTokenStore(db *sql.DB, repos repomanager.RepositoryManager) *SQLTokenStore {
	return &SQLTokenStore{db: db, repos: repos}
}

func (s *SQLTokenStore) Load(ctx context.Context) (models.TokenCollection, error) {
	var coll models.TokenCollection

	recs, err := s.repos.Tokens(s.db).List(ctx)
	if err != nil {
		return coll, fmt.Errorf("load tokens: %w", err)
	}
	cur, err := s.repos.Metadata(s.db).Get(ctx, metadata.KeyCurrentTokenID)
	if err != nil {
		return coll, fmt.Errorf("load current token: %w", err)
	}

	coll.Tokens = recs
	coll.CurrentID = string(cur)
	if coll.CurrentID != "" && coll.Find(coll.CurrentID) < 0 {
		coll.CurrentID = ""
	}
	return coll, nil
}

func (s *SQLTokenStore) Commit(ctx context.Context, change models.TokenChange) error {
	if change.IsEmpty() {
		return nil
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repos.Tokens(tx)
		for _, rec := range change.Upsert {
			if err := tokens.Upsert(ctx, rec); err != nil {
				return err
			}
		}
		for _, id := range change.Delete {
			if err := tokens.Delete(ctx, id); err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
		}
		if change.Current == nil {
			return nil
		}
		md := s.repos.Metadata(tx)
		if *change.Current == "" {
			return md.Delete(ctx, metadata.KeyCurrentTokenID)
		}
		return md.Set(ctx, metadata.KeyCurrentTokenID, []byte(*change.Current))
	})
}

// Package tokens persists registry token records.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/regkeeper/internal/client/models"
)

type Repository interface {
	// List returns every record, oldest first.
	List(ctx context.Context) ([]models.TokenRecord, error)
	Upsert(ctx context.Context, rec models.TokenRecord) error
	// Delete returns common.ErrorNotFound when no row matched.
	Delete(ctx context.Context, id string) error
}

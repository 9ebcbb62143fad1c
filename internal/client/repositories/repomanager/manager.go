// Package repomanager vends repositories for the configured SQL dialect and
// runs the matching embedded migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/regkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/tokens"
	"github.com/dmitrijs2005/regkeeper/internal/cryptox"
	"github.com/dmitrijs2005/regkeeper/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Metadata(db dbx.DBTX) metadata.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Dialect() dbx.Dialect
}

// SQLRepositoryManager serves both SQLite and Postgres; only the migration
// directory, goose dialect and placeholder style differ.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
	cipher  cryptox.Cipher
}

// New returns a manager for dialect. cipher seals token values at rest and
// may be swapped later with SetCipher once the store key is known.
func New(dialect dbx.Dialect, cipher cryptox.Cipher) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect, cipher: cipher}
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect { return m.dialect }

// SetCipher replaces the cipher used by repositories created afterwards.
func (m *SQLRepositoryManager) SetCipher(c cryptox.Cipher) { m.cipher = c }

func (m *SQLRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewSQLRepository(db, m.dialect, m.cipher)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *SQLRepositoryManager) gooseDialect() (string, string) {
	if m.dialect == dbx.Postgres {
		return "pgx", "postgres"
	}
	return "sqlite3", "sqlite"
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	gd, dir := m.gooseDialect()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gd); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, dir)
}

// Open connects to dsn with the driver for dialect and runs migrations.
func Open(ctx context.Context, m RepositoryManager, dsn string) (*sql.DB, error) {
	db, err := sql.Open(m.Dialect().DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	if m.Dialect() == dbx.SQLite {
		// one connection: in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

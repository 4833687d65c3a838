package storage

import (
	"merchant-service/internal/config"
	"merchant-service/internal/domain/repositories"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// Repositories groups the stores used by the service.
type Repositories struct {
	db                 *sqlx.DB
	MerchantRepository repositories.MerchantRepository
}

// NewDBConnection opens and pings a Postgres pool sized from cfg.
func NewDBConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrapf(err, "connect postgres %s:%s/%s", cfg.Host, cfg.Port, cfg.DBName)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// NewRepositories wires the Postgres-backed stores onto db.
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		db:                 db,
		MerchantRepository: NewPostgresMerchantRepository(db),
	}
}

// Close releases the underlying pool.
func (r *Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

/**
 * @description
 * PostgreSQL data access for RemindYourSubs. One repository struct backed by
 * a pgx connection pool; per-entity methods live in the sibling files.
 * Tables are created by external migrations, not by this service.
 */
package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the pgx-backed implementation of the repository
// interfaces consumed by the app layer.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a repository on top of the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

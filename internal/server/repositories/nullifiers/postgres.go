package nullifiers

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/glueauth/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, nullifier string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM nullifiers WHERE nullifier = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, nullifier).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, nullifier string) (bool, error) {
	query :=
		`INSERT INTO nullifiers (nullifier)
		 VALUES ($1)
		 ON CONFLICT (nullifier) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, nullifier)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

package commitments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/dbx"
	"github.com/dmitrijs2005/glueauth/internal/server/models"
)

// advisoryLockKey identifies the membership append lock.
const advisoryLockKey = 0x6c756567

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Lock(ctx context.Context) error {
	query := `SELECT pg_advisory_xact_lock($1)`

	if _, err := r.db.ExecContext(ctx, query, advisoryLockKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, commitment string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM commitments WHERE commitment = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, commitment).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) NextIndex(ctx context.Context) (int64, error) {
	query :=
		`SELECT COALESCE(MAX(merkle_index) + 1, 0) FROM commitments`

	var next int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return next, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Commitment) (*models.Commitment, error) {
	query :=
		`INSERT INTO commitments (merkle_index, user_id, commitment)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, c.MerkleIndex, c.UserID, c.Value).Scan(&c.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Commitment, error) {
	query :=
		`SELECT merkle_index, user_id, commitment, created_at
		 FROM commitments
		 ORDER BY merkle_index
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Commitment, 0)
	for rows.Next() {
		c := &models.Commitment{}
		if err := rows.Scan(&c.MerkleIndex, &c.UserID, &c.Value, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Package commitments declares the storage contract for the append-only
// membership set and its PostgreSQL implementation.
package commitments

import (
	"context"

	"github.com/dmitrijs2005/glueauth/internal/server/models"
)

// Repository stores identity commitments ordered by merkle index. There is
// deliberately no update or delete operation.
type Repository interface {
	// Lock serializes appends for the rest of the current transaction.
	Lock(ctx context.Context) error

	// Exists reports whether commitment is already enrolled.
	Exists(ctx context.Context, commitment string) (bool, error)

	// NextIndex returns the merkle index the next member will receive.
	NextIndex(ctx context.Context) (int64, error)

	// Create inserts c. A duplicate commitment yields common.ErrAlreadyExists.
	Create(ctx context.Context, c *models.Commitment) (*models.Commitment, error)

	// List returns all members ordered by merkle index.
	List(ctx context.Context) ([]*models.Commitment, error)
}

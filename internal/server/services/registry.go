package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/dbx"
	"github.com/dmitrijs2005/glueauth/internal/merkle"
	"github.com/dmitrijs2005/glueauth/internal/server/models"
	"github.com/dmitrijs2005/glueauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Registry is the append-only membership set. Every read goes to storage,
// so the root always reflects committed members.
type Registry struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRegistry(db *sql.DB, m repomanager.RepositoryManager) *Registry {
	return &Registry{db: db, repomanager: m}
}

// AddCommitment enrolls commitment at the next merkle index. Appends are
// serialized by a transaction-scoped lock; an already enrolled commitment
// yields common.ErrAlreadyExists.
func (r *Registry) AddCommitment(ctx context.Context, commitment string) (*models.Commitment, error) {
	var created *models.Commitment

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repomanager.Commitments(tx)

		if err := repo.Lock(ctx); err != nil {
			return err
		}

		exists, err := repo.Exists(ctx, commitment)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrAlreadyExists
		}

		index, err := repo.NextIndex(ctx)
		if err != nil {
			return err
		}

		created, err = repo.Create(ctx, &models.Commitment{
			MerkleIndex: index,
			UserID:      uuid.NewString(),
			Value:       commitment,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Registry) Contains(ctx context.Context, commitment string) (bool, error) {
	return r.repomanager.Commitments(r.db).Exists(ctx, commitment)
}

// AllCommitments returns every member in merkle index order.
func (r *Registry) AllCommitments(ctx context.Context) ([]string, error) {
	items, err := r.repomanager.Commitments(r.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing commitments: %w", err)
	}

	res := make([]string, 0, len(items))
	for _, c := range items {
		res = append(res, c.Value)
	}
	return res, nil
}

// Head returns the merkle tree head over the current membership.
func (r *Registry) Head(ctx context.Context) (merkle.TreeHead, error) {
	members, err := r.AllCommitments(ctx)
	if err != nil {
		return merkle.TreeHead{}, err
	}
	return merkle.Head(members), nil
}

// Root returns the hex merkle root and the member count.
func (r *Registry) Root(ctx context.Context) (string, int, error) {
	head, err := r.Head(ctx)
	if err != nil {
		return "", 0, err
	}
	return head.RootHex(), head.Size, nil
}

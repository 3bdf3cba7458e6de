package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/server/repositories/repomanager"
)

// Ledger remembers every nullifier that has been used for a login.
type Ledger struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewLedger(db *sql.DB, m repomanager.RepositoryManager) *Ledger {
	return &Ledger{db: db, repomanager: m}
}

func (l *Ledger) Exists(ctx context.Context, nullifier string) (bool, error) {
	return l.repomanager.Nullifiers(l.db).Exists(ctx, nullifier)
}

// Record marks nullifier as used. A nullifier that is already recorded,
// including one recorded concurrently, yields common.ErrAlreadyExists.
func (l *Ledger) Record(ctx context.Context, nullifier string) error {
	inserted, err := l.repomanager.Nullifiers(l.db).Create(ctx, nullifier)
	if err != nil {
		return err
	}
	if !inserted {
		return common.ErrAlreadyExists
	}
	return nil
}

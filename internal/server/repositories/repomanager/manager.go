package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/glueauth/internal/dbx"
	"github.com/dmitrijs2005/glueauth/internal/server/repositories/commitments"
	"github.com/dmitrijs2005/glueauth/internal/server/repositories/nullifiers"
	"github.com/dmitrijs2005/glueauth/internal/server/repositories/sessions"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Commitments(db dbx.DBTX) commitments.Repository
	Nullifiers(db dbx.DBTX) nullifiers.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

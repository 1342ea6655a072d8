// Package repomanager hands out repository instances bound to a DBTX, so the
// same repository code runs against *sql.DB or inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/lucasvieira/questify/internal/dbx"
	"github.com/lucasvieira/questify/internal/server/repositories/ledger"
	"github.com/lucasvieira/questify/internal/server/repositories/missions"
	"github.com/lucasvieira/questify/internal/server/repositories/refreshtokens"
	"github.com/lucasvieira/questify/internal/server/repositories/stats"
	"github.com/lucasvieira/questify/internal/server/repositories/users"
)

// RepositoryManager is the factory the services use to obtain repositories
// bound to either the shared connection or a transaction handle.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Missions(db dbx.DBTX) missions.Repository
	Ledger(db dbx.DBTX) ledger.Repository
	Stats(db dbx.DBTX) stats.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}

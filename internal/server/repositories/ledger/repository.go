// Package ledger declares the repository contract for the append-only
// progression ledger. Entries are never updated or deleted by normal
// operation; only account deletion cascades them away.
package ledger

import (
	"context"
	"time"

	"github.com/lucasvieira/questify/internal/server/models"
)

// Repository defines storage operations for ledger entries.
type Repository interface {
	// Append stores a new entry. Returns common.ErrDuplicateEntry when an
	// entry for the same mission already exists — the exactly-once backstop.
	Append(ctx context.Context, entry *models.LedgerEntry) error

	// SumXPByUser returns the total XP over all entries for a user.
	SumXPByUser(ctx context.Context, userID string) (int64, error)

	// CountByUser returns the number of entries for a user.
	CountByUser(ctx context.Context, userID string) (int, error)

	// CompletionDaysByUser returns the distinct UTC calendar days on which
	// the user completed at least one mission, most recent first.
	CompletionDaysByUser(ctx context.Context, userID string) ([]time.Time, error)
}

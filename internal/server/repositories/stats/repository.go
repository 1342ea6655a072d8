// Package stats declares the repository contract for the per-user stats
// projection row. The row is written only through the progression service;
// handlers read it, never mutate it.
package stats

import (
	"context"
	"time"

	"github.com/lucasvieira/questify/internal/server/models"
)

// Repository defines storage operations for the stats projection.
type Repository interface {
	// Init creates the zeroed projection row for a new user. Registration
	// calls it in the same transaction that creates the user.
	Init(ctx context.Context, userID string) error

	// Get returns the projection for a user or common.ErrNotFound.
	Get(ctx context.Context, userID string) (*models.StatsProjection, error)

	// ApplyDelta adds the increments to the accumulator fields and returns
	// the updated row. The increments commute, and the UPDATE takes the row
	// lock, serializing concurrent completions of different missions.
	ApplyDelta(ctx context.Context, userID string, xpDelta int64, completedDelta int) (*models.StatsProjection, error)

	// SetDerived writes the recomputed level, completion rate, streak and
	// last completion day.
	SetDerived(ctx context.Context, userID string, level, completionRate, streak int, lastCompletedOn *time.Time) error

	// Write overwrites the whole projection row (rebuild path).
	Write(ctx context.Context, projection *models.StatsProjection) error
}

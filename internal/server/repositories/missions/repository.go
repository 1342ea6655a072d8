// Package missions declares the repository contract for mission records and
// the one-way Open→Completed lifecycle gate.
package missions

import (
	"context"
	"time"

	"github.com/lucasvieira/questify/internal/server/models"
)

// Repository defines storage operations for missions.
type Repository interface {
	// Create stores a new open mission owned by mission.UserID.
	Create(ctx context.Context, mission *models.Mission) (*models.Mission, error)

	// Get returns the mission with the given id if it belongs to userID,
	// common.ErrNotFound otherwise.
	Get(ctx context.Context, userID, missionID string) (*models.Mission, error)

	// ListByUser returns all missions of a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Mission, error)

	// MarkCompleted transitions the mission to Completed and returns its
	// reward. The update is conditional on the current status being Open,
	// making the check-and-transition a single atomic read-modify-write.
	// Returns common.ErrNotFound when no open mission matched; the caller
	// distinguishes "absent" from "already completed" with Get.
	MarkCompleted(ctx context.Context, userID, missionID string, completedAt time.Time) (int, error)

	// CountByUser returns the total and completed mission counts for a user.
	CountByUser(ctx context.Context, userID string) (total int, completed int, err error)

	// Delete removes a mission owned by userID. Returns common.ErrNotFound
	// when nothing was deleted.
	Delete(ctx context.Context, userID, missionID string) error
}

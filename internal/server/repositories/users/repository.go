// Package users declares the repository contract for account records.
package users

import (
	"context"

	"github.com/lucasvieira/questify/internal/server/models"
)

// Repository defines storage operations for user accounts.
type Repository interface {
	// Create stores a new user. Returns common.ErrEmailExists when the
	// e-mail is already taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with the given e-mail or common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)
}

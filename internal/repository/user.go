package repository

import (
	"context"

	"filevault/internal/model"
)

// UserRepository persists accounts.
type UserRepository interface {
	// Create inserts a user. A second user with the same (case-insensitive) email yields ErrDuplicate.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByEmail looks the user up by normalized email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	FindByID(ctx context.Context, id string) (*model.User, error)
}

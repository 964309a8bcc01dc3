package repository

import (
	"context"

	"filevault/internal/model"
)

// FileRepository defines data access for file metadata using SQL queries only.
// No business logic here: ownership is decided by the service layer.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file by its ID, taking the requested row lock.
	FindByID(ctx context.Context, id string, lock Lock) (*model.File, error)

	// FindByStoragePath returns a file by its object key.
	FindByStoragePath(ctx context.Context, path string) (*model.File, error)

	// ListByOwner returns every file of ownerID in creation order.
	ListByOwner(ctx context.Context, ownerID string) ([]model.File, error)

	// Delete removes a file by ID. Missing rows yield ErrNotFound.
	Delete(ctx context.Context, id string) error
}

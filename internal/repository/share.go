package repository

import (
	"context"
	"time"

	"filevault/internal/model"
)

// ShareTokenRepository persists share tokens keyed by the hash of their secret.
type ShareTokenRepository interface {
	// Create inserts a token. A file deleted in the meantime yields ErrReferenceMissing.
	Create(ctx context.Context, t *model.ShareToken) error

	FindByHash(ctx context.Context, hash []byte) (*model.ShareToken, error)

	// DeleteByFile removes every token bound to fileID and returns how many were removed.
	DeleteByFile(ctx context.Context, fileID string) (int64, error)

	// DeleteExpired removes tokens whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

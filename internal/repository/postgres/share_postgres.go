package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"filevault/internal/dbx"
	"filevault/internal/model"
	"filevault/internal/repository"
)

// ShareTokenPostgres is a PostgreSQL implementation of repository.ShareTokenRepository.
type ShareTokenPostgres struct {
	db dbx.DBTX
}

// NewShareTokenPostgres creates a new ShareTokenPostgres repository.
func NewShareTokenPostgres(db dbx.DBTX) *ShareTokenPostgres {
	return &ShareTokenPostgres{db: db}
}

var _ repository.ShareTokenRepository = (*ShareTokenPostgres)(nil)

func (r *ShareTokenPostgres) Create(ctx context.Context, t *model.ShareToken) error {
	const q = `
		INSERT INTO share_tokens (id, file_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, q, t.ID, t.FileID, t.TokenHash, t.CreatedAt, t.ExpiresAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *ShareTokenPostgres) FindByHash(ctx context.Context, hash []byte) (*model.ShareToken, error) {
	const q = `
		SELECT id, file_id, token_hash, created_at, expires_at
		FROM share_tokens
		WHERE token_hash = $1
	`
	var t model.ShareToken
	err := r.db.QueryRowContext(ctx, q, hash).Scan(&t.ID, &t.FileID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *ShareTokenPostgres) DeleteByFile(ctx context.Context, fileID string) (int64, error) {
	const q = `DELETE FROM share_tokens WHERE file_id = $1`
	return r.exec(ctx, q, fileID)
}

func (r *ShareTokenPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM share_tokens WHERE expires_at <= $1`
	return r.exec(ctx, q, now)
}

func (r *ShareTokenPostgres) exec(ctx context.Context, q string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, q, arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

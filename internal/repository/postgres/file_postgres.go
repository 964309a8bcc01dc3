package postgres

import (
	"context"
	"database/sql"
	"errors"

	"filevault/internal/dbx"
	"filevault/internal/model"
	"filevault/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses parameterized queries and contains no business logic.
type FilePostgres struct {
	db dbx.DBTX
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db dbx.DBTX) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, owner_id, name, storage_path, size, content_type, created_at`

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (id, owner_id, name, storage_path, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.OwnerID,
		f.Name,
		f.StoragePath,
		f.Size,
		f.ContentType,
		f.CreatedAt,
	)
	out, err := scanFile(row)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// FindByID fetches a single file by its ID with the requested row lock.
func (r *FilePostgres) FindByID(ctx context.Context, id string, lock repository.Lock) (*model.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files WHERE id = $1` + lockClause(lock)
	return r.findOne(ctx, q, id)
}

// FindByStoragePath fetches a single file by its object key.
func (r *FilePostgres) FindByStoragePath(ctx context.Context, path string) (*model.File, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE storage_path = $1`
	return r.findOne(ctx, q, path)
}

// ListByOwner returns the owner's files oldest first.
func (r *FilePostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a file row. Share tokens go with it through ON DELETE CASCADE.
func (r *FilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *FilePostgres) findOne(ctx context.Context, q string, arg any) (*model.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*model.File, error) {
	var f model.File
	if err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.Name,
		&f.StoragePath,
		&f.Size,
		&f.ContentType,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

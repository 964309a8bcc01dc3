package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"filevault/internal/dbx"
	"filevault/internal/repository"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Manager is the PostgreSQL implementation of repository.Manager.
type Manager struct{}

// NewManager creates a Manager.
func NewManager() *Manager {
	return &Manager{}
}

var _ repository.Manager = (*Manager)(nil)

func (m *Manager) Users(db dbx.DBTX) repository.UserRepository {
	return NewUserPostgres(db)
}

func (m *Manager) Files(db dbx.DBTX) repository.FileRepository {
	return NewFilePostgres(db)
}

func (m *Manager) ShareTokens(db dbx.DBTX) repository.ShareTokenRepository {
	return NewShareTokenPostgres(db)
}

// mapError translates driver errors into repository sentinels, wrapping the original.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Join(repository.ErrDuplicate, err)
		case pgForeignKeyViolation:
			return errors.Join(repository.ErrReferenceMissing, err)
		}
	}
	return err
}

func lockClause(l repository.Lock) string {
	switch l {
	case repository.LockShare:
		return " FOR SHARE"
	case repository.LockUpdate:
		return " FOR UPDATE"
	default:
		return ""
	}
}

package repository

// Package repository contains data access abstractions.
// Implementations live in subpackages (e.g. postgres) inside this directory.

import (
	"errors"

	"filevault/internal/dbx"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenceMissing is returned when an insert references a row that no longer exists.
	ErrReferenceMissing = errors.New("referenced record missing")
)

// Lock selects the row lock taken by a read inside a transaction.
type Lock int

const (
	LockNone Lock = iota
	// LockShare blocks concurrent deletes of the row until the transaction ends.
	LockShare
	// LockUpdate excludes every other locking reader and writer of the row.
	LockUpdate
)

// Manager vends repositories bound to a DBTX, so the same repository code
// runs against the pool or inside a transaction.
type Manager interface {
	Users(db dbx.DBTX) UserRepository
	Files(db dbx.DBTX) FileRepository
	ShareTokens(db dbx.DBTX) ShareTokenRepository
}

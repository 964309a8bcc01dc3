package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password length is out of range")
	ErrInvalidEmail       = errors.New("email address is invalid")

	// ErrNotFound also covers files owned by someone else at the gateway; see ErrForbidden.
	ErrNotFound = errors.New("file not found")
	// ErrForbidden is returned when the caller does not own the file.
	ErrForbidden    = errors.New("file belongs to another user")
	ErrFileRequired = errors.New("file is required")

	ErrInvalidShareToken = errors.New("share token is invalid")
	ErrShareTokenExpired = errors.New("share token has expired")
	ErrInvalidTTL        = errors.New("share lifetime is out of range")

	// ErrStorageUnavailable is returned when the object store rejects or times out an operation.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

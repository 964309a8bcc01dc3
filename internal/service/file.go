package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"filevault/internal/dbx"
	"filevault/internal/metrics"
	"filevault/internal/model"
	"filevault/internal/repository"
	"filevault/internal/storage"
)

// sniffLen is how much of an upload is inspected to detect its content type.
const sniffLen = 3072

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,16}$`)

// FileService is the owner-scoped file API handed to the gateway.
type FileService interface {
	// Store uploads the content and records its metadata, all or nothing.
	// size may be -1 when unknown.
	Store(ctx context.Context, ownerID, name string, r io.Reader, size int64, contentType string) (*model.File, error)

	// List returns the owner's files in creation order.
	List(ctx context.Context, ownerID string) ([]model.File, error)

	// Fetch opens a file of ownerID by id. The caller closes the stream.
	Fetch(ctx context.Context, ownerID, fileID string) (*model.File, io.ReadCloser, error)

	// FetchByLocator opens a file of ownerID by its storage locator.
	FetchByLocator(ctx context.Context, ownerID, locator string) (*model.File, io.ReadCloser, error)

	// Delete removes the file, every share token bound to it, and finally its content.
	Delete(ctx context.Context, ownerID, fileID string) error
}

// AnonymousFileReader reads files without an ownership check.
// Only the share manager holds one; the gateway never does.
type AnonymousFileReader interface {
	// FindByAnyone reads the file row inside tx. It does no storage I/O, so tx can commit before content is opened.
	FindByAnyone(ctx context.Context, tx dbx.DBTX, fileID string) (*model.File, error)

	// OpenByAnyone opens the content of f. Call it after the transaction that found f has ended.
	// A file deleted in between reports ErrNotFound.
	OpenByAnyone(ctx context.Context, f *model.File) (io.ReadCloser, error)
}

// FileRegistry tracks stored files and enforces owner-only access.
type FileRegistry struct {
	db      *sql.DB
	repos   repository.Manager
	store   storage.Storage
	metrics *metrics.Domain
	log     *zap.Logger
}

// NewFileRegistry constructs a FileRegistry.
func NewFileRegistry(db *sql.DB, repos repository.Manager, store storage.Storage, m *metrics.Domain, log *zap.Logger) *FileRegistry {
	return &FileRegistry{db: db, repos: repos, store: store, metrics: m, log: log}
}

var (
	_ FileService         = (*FileRegistry)(nil)
	_ AnonymousFileReader = (*FileRegistry)(nil)
)

func (r *FileRegistry) Store(ctx context.Context, ownerID, name string, body io.Reader, size int64, contentType string) (*model.File, error) {
	name = displayName(name)
	if body == nil || name == "" {
		return nil, ErrFileRequired
	}

	if contentType == "" || contentType == "application/octet-stream" {
		var err error
		contentType, body, err = sniffContentType(body)
		if err != nil {
			return nil, fmt.Errorf("%w: read upload: %v", ErrStorageUnavailable, err)
		}
	}

	// Locator is uuid + extension; the display name never reaches the object key.
	ext := strings.ToLower(path.Ext(name))
	if !safeExt.MatchString(ext) {
		ext = ""
	}
	key := uuid.NewString() + ext

	info, err := r.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put object: %v", ErrStorageUnavailable, err)
	}

	stored, err := r.repos.Files(r.db).Create(ctx, &model.File{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		StoragePath: key,
		Size:        info.Size,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		// Rollback: the object must not outlive a failed metadata insert.
		if delErr := r.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			r.log.Error("rollback delete failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("save file metadata: %w", err)
	}

	r.metrics.Uploaded(stored.Size)
	return stored, nil
}

func (r *FileRegistry) List(ctx context.Context, ownerID string) ([]model.File, error) {
	files, err := r.repos.Files(r.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []model.File{}
	}
	return files, nil
}

func (r *FileRegistry) Fetch(ctx context.Context, ownerID, fileID string) (*model.File, io.ReadCloser, error) {
	if uuid.Validate(fileID) != nil {
		return nil, nil, ErrNotFound
	}
	f, err := r.repos.Files(r.db).FindByID(ctx, fileID, repository.LockNone)
	if err != nil {
		return nil, nil, mapFileLookup(err)
	}
	return r.openOwned(ctx, ownerID, f)
}

func (r *FileRegistry) FetchByLocator(ctx context.Context, ownerID, locator string) (*model.File, io.ReadCloser, error) {
	if locator == "" {
		return nil, nil, ErrNotFound
	}
	f, err := r.repos.Files(r.db).FindByStoragePath(ctx, locator)
	if err != nil {
		return nil, nil, mapFileLookup(err)
	}
	return r.openOwned(ctx, ownerID, f)
}

func (r *FileRegistry) openOwned(ctx context.Context, ownerID string, f *model.File) (*model.File, io.ReadCloser, error) {
	if f.OwnerID != ownerID {
		return nil, nil, ErrForbidden
	}
	rc, err := r.open(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return f, rc, nil
}

func (r *FileRegistry) Delete(ctx context.Context, ownerID, fileID string) error {
	if uuid.Validate(fileID) != nil {
		return ErrNotFound
	}

	var key string
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		f, err := r.repos.Files(tx).FindByID(ctx, fileID, repository.LockUpdate)
		if err != nil {
			return mapFileLookup(err)
		}
		if f.OwnerID != ownerID {
			return ErrForbidden
		}

		revoked, err := r.repos.ShareTokens(tx).DeleteByFile(ctx, fileID)
		if err != nil {
			return fmt.Errorf("revoke share tokens: %w", err)
		}
		if err := r.repos.Files(tx).Delete(ctx, fileID); err != nil {
			return mapFileLookup(err)
		}

		key = f.StoragePath
		r.log.Debug("file deleted", zap.String("file_id", fileID), zap.Int64("share_tokens_revoked", revoked))
		return nil
	})
	if err != nil {
		return err
	}

	// The metadata is gone, so the object is already unreachable; a failure here only leaves an orphan.
	if err := r.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		r.log.Error("orphaned object after delete", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (r *FileRegistry) FindByAnyone(ctx context.Context, tx dbx.DBTX, fileID string) (*model.File, error) {
	if uuid.Validate(fileID) != nil {
		return nil, ErrNotFound
	}
	f, err := r.repos.Files(tx).FindByID(ctx, fileID, repository.LockShare)
	if err != nil {
		return nil, mapFileLookup(err)
	}
	return f, nil
}

func (r *FileRegistry) OpenByAnyone(ctx context.Context, f *model.File) (io.ReadCloser, error) {
	return r.open(ctx, f)
}

func (r *FileRegistry) open(ctx context.Context, f *model.File) (io.ReadCloser, error) {
	rc, _, err := r.store.Get(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get object: %v", ErrStorageUnavailable, err)
	}
	return rc, nil
}

func mapFileLookup(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// displayName keeps the last path element of a client-supplied name.
func displayName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// sniffContentType detects the type from the first bytes and returns a reader that replays them.
func sniffContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

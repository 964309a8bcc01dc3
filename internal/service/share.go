package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"filevault/internal/dbx"
	"filevault/internal/metrics"
	"filevault/internal/model"
	"filevault/internal/repository"
	"filevault/internal/security"
)

// IssuedShareToken is returned once, at creation. The token is not recoverable afterwards.
type IssuedShareToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ShareService issues and redeems share tokens.
type ShareService interface {
	// Create issues a token for a file owned by ownerID. A zero ttl selects the default lifetime.
	Create(ctx context.Context, ownerID, fileID string, ttl time.Duration) (*IssuedShareToken, error)

	// Redeem opens the file bound to token. No identity is involved.
	Redeem(ctx context.Context, token string) (*model.File, io.ReadCloser, error)
}

// SharePolicy bounds share lifetimes.
type SharePolicy struct {
	DefaultTTL time.Duration
	MaxTTL     time.Duration
}

// ShareManager issues single-file, time-limited bearer tokens.
// Tokens are multi-use until expiry; issuing a new one never invalidates older ones.
type ShareManager struct {
	db      *sql.DB
	repos   repository.Manager
	files   AnonymousFileReader
	policy  SharePolicy
	metrics *metrics.Domain
	log     *zap.Logger
	now     func() time.Time
}

// NewShareManager constructs a ShareManager.
func NewShareManager(db *sql.DB, repos repository.Manager, files AnonymousFileReader, policy SharePolicy, m *metrics.Domain, log *zap.Logger) *ShareManager {
	return &ShareManager{
		db:      db,
		repos:   repos,
		files:   files,
		policy:  policy,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

var _ ShareService = (*ShareManager)(nil)

// clock returns now at the precision Postgres stores.
func (s *ShareManager) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *ShareManager) Create(ctx context.Context, ownerID, fileID string, ttl time.Duration) (*IssuedShareToken, error) {
	if ttl == 0 {
		ttl = s.policy.DefaultTTL
	}
	if ttl <= 0 || ttl > s.policy.MaxTTL {
		return nil, ErrInvalidTTL
	}
	if uuid.Validate(fileID) != nil {
		return nil, ErrNotFound
	}

	token, err := security.NewShareToken()
	if err != nil {
		return nil, fmt.Errorf("generate share token: %w", err)
	}
	now := s.clock()
	rec := &model.ShareToken{
		ID:        uuid.NewString(),
		FileID:    fileID,
		TokenHash: security.HashShareToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// The share lock makes a concurrent delete wait for this insert, which it then revokes.
		f, err := s.repos.Files(tx).FindByID(ctx, fileID, repository.LockShare)
		if err != nil {
			return mapFileLookup(err)
		}
		if f.OwnerID != ownerID {
			return ErrForbidden
		}
		if err := s.repos.ShareTokens(tx).Create(ctx, rec); err != nil {
			if errors.Is(err, repository.ErrReferenceMissing) {
				return ErrNotFound
			}
			return fmt.Errorf("insert share token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ShareIssued()
	s.log.Info("share token issued", zap.String("file_id", fileID), zap.Time("expires_at", rec.ExpiresAt))
	return &IssuedShareToken{Token: token, ExpiresAt: rec.ExpiresAt}, nil
}

func (s *ShareManager) Redeem(ctx context.Context, token string) (*model.File, io.ReadCloser, error) {
	if !security.ValidShareToken(token) {
		s.metrics.Redemption(metrics.ResultInvalid)
		return nil, nil, ErrInvalidShareToken
	}
	hash := security.HashShareToken(token)

	var file *model.File
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		t, err := s.repos.ShareTokens(tx).FindByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidShareToken
			}
			return err
		}
		if t.Expired(s.clock()) {
			return ErrShareTokenExpired
		}

		file, err = s.files.FindByAnyone(ctx, tx, t.FileID)
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidShareToken
		}
		return err
	})
	if err != nil {
		s.metrics.Redemption(redemptionResult(err))
		return nil, nil, err
	}

	// Content is opened after commit. Delete removes the row before the object, so a delete
	// racing this point surfaces as a missing object and the redemption fails cleanly.
	rc, err := s.files.OpenByAnyone(ctx, file)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidShareToken
		}
		s.metrics.Redemption(redemptionResult(err))
		return nil, nil, err
	}

	s.metrics.Redemption(metrics.ResultOK)
	return file, rc, nil
}

// SweepExpired removes tokens that can no longer be redeemed. Redemption never relies on it.
func (s *ShareManager) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repos.ShareTokens(s.db).DeleteExpired(ctx, s.clock())
	if err != nil {
		return 0, err
	}
	s.metrics.Swept(n)
	return n, nil
}

func redemptionResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidShareToken):
		return metrics.ResultInvalid
	case errors.Is(err, ErrShareTokenExpired):
		return metrics.ResultExpired
	case errors.Is(err, ErrNotFound):
		return metrics.ResultMissing
	default:
		return metrics.ResultError
	}
}

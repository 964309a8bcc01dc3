package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filevault/internal/dbx"
	"filevault/internal/model"
	"filevault/internal/repository"
	repoMocks "filevault/internal/repository/mocks"
	"filevault/internal/security"
	"filevault/internal/storage"
)

type mockAnonReader struct {
	mock.Mock
}

func (m *mockAnonReader) FindByAnyone(ctx context.Context, tx dbx.DBTX, id string) (*model.File, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *mockAnonReader) OpenByAnyone(ctx context.Context, f *model.File) (io.ReadCloser, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

var testPolicy = SharePolicy{DefaultTTL: 24 * time.Hour, MaxTTL: 30 * 24 * time.Hour}

func TestShareManager_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	owned := &model.File{ID: fileID, OwnerID: ownerA}

	tests := []struct {
		name       string
		caller     string
		id         string
		ttl        time.Duration
		setupMocks func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager)
		wantErr    error
		wantExpiry time.Time
	}{
		{
			name:   "default ttl",
			caller: ownerA,
			id:     fileID,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager) {
				sm.ExpectBegin()
				repos.FileRepo.On("FindByID", mock.Anything, fileID, repository.LockShare).Return(owned, nil)
				repos.ShareRepo.On("Create", mock.Anything, mock.MatchedBy(func(tok *model.ShareToken) bool {
					return tok.FileID == fileID && len(tok.TokenHash) == 32 && tok.ExpiresAt.Equal(now.Add(24*time.Hour))
				})).Return(nil)
				sm.ExpectCommit()
			},
			wantExpiry: now.Add(24 * time.Hour),
		},
		{
			name:   "explicit ttl",
			caller: ownerA,
			id:     fileID,
			ttl:    7 * 24 * time.Hour,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager) {
				sm.ExpectBegin()
				repos.FileRepo.On("FindByID", mock.Anything, fileID, repository.LockShare).Return(owned, nil)
				repos.ShareRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
				sm.ExpectCommit()
			},
			wantExpiry: now.Add(7 * 24 * time.Hour),
		},
		{
			name:       "negative ttl",
			caller:     ownerA,
			id:         fileID,
			ttl:        -time.Hour,
			setupMocks: func(sqlmock.Sqlmock, *repoMocks.MockManager) {},
			wantErr:    ErrInvalidTTL,
		},
		{
			name:       "ttl above maximum",
			caller:     ownerA,
			id:         fileID,
			ttl:        31 * 24 * time.Hour,
			setupMocks: func(sqlmock.Sqlmock, *repoMocks.MockManager) {},
			wantErr:    ErrInvalidTTL,
		},
		{
			name:   "not the owner",
			caller: ownerB,
			id:     fileID,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager) {
				sm.ExpectBegin()
				repos.FileRepo.On("FindByID", mock.Anything, fileID, repository.LockShare).Return(owned, nil)
				sm.ExpectRollback()
			},
			wantErr: ErrForbidden,
		},
		{
			name:   "file missing",
			caller: ownerA,
			id:     fileID,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager) {
				sm.ExpectBegin()
				repos.FileRepo.On("FindByID", mock.Anything, fileID, repository.LockShare).Return(nil, repository.ErrNotFound)
				sm.ExpectRollback()
			},
			wantErr: ErrNotFound,
		},
		{
			name:   "file deleted before insert",
			caller: ownerA,
			id:     fileID,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager) {
				sm.ExpectBegin()
				repos.FileRepo.On("FindByID", mock.Anything, fileID, repository.LockShare).Return(owned, nil)
				repos.ShareRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrReferenceMissing)
				sm.ExpectRollback()
			},
			wantErr: ErrNotFound,
		},
		{
			name:       "malformed file id",
			caller:     ownerA,
			id:         "42",
			setupMocks: func(sqlmock.Sqlmock, *repoMocks.MockManager) {},
			wantErr:    ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, sm := newSQLMock(t)
			repos := repoMocks.NewMockManager()
			mgr := NewShareManager(db, repos, new(mockAnonReader), testPolicy, nil, zap.NewNop())
			mgr.now = func() time.Time { return now }
			tt.setupMocks(sm, repos)

			issued, err := mgr.Create(ctx, tt.caller, tt.id, tt.ttl)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, issued)
			} else {
				require.NoError(t, err)
				assert.True(t, security.ValidShareToken(issued.Token))
				assert.Equal(t, tt.wantExpiry, issued.ExpiresAt)
			}

			assert.NoError(t, sm.ExpectationsWereMet())
			repos.FileRepo.AssertExpectations(t)
			repos.ShareRepo.AssertExpectations(t)
		})
	}
}

func TestShareManager_CreateStoresOnlyHash(t *testing.T) {
	db, sm := newSQLMock(t)
	repos := repoMocks.NewMockManager()
	mgr := NewShareManager(db, repos, new(mockAnonReader), testPolicy, nil, zap.NewNop())

	var saved *model.ShareToken
	sm.ExpectBegin()
	repos.FileRepo.On("FindByID", mock.Anything, fileID, repository.LockShare).Return(&model.File{ID: fileID, OwnerID: ownerA}, nil)
	repos.ShareRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.ShareToken) }).
		Return(nil)
	sm.ExpectCommit()

	issued, err := mgr.Create(context.Background(), ownerA, fileID, 0)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, security.HashShareToken(issued.Token), saved.TokenHash)
	assert.NotContains(t, string(saved.TokenHash), issued.Token)
}

func TestShareManager_Redeem(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	expires := created.Add(24 * time.Hour)
	token, err := security.NewShareToken()
	require.NoError(t, err)
	hash := security.HashShareToken(token)
	rec := &model.ShareToken{ID: "t1", FileID: fileID, TokenHash: hash, CreatedAt: created, ExpiresAt: expires}
	file := &model.File{ID: fileID, OwnerID: ownerB, Name: "report.pdf"}

	tests := []struct {
		name       string
		token      string
		at         time.Time
		setupMocks func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager, files *mockAnonReader)
		wantErr    error
	}{
		{
			name:  "one second before expiry",
			token: token,
			at:    expires.Add(-time.Second),
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager, files *mockAnonReader) {
				sm.ExpectBegin()
				repos.ShareRepo.On("FindByHash", mock.Anything, hash).Return(rec, nil)
				files.On("FindByAnyone", mock.Anything, mock.Anything, fileID).Return(file, nil)
				sm.ExpectCommit()
				files.On("OpenByAnyone", mock.Anything, file).
					Return(io.NopCloser(strings.NewReader("0123456789")), nil)
			},
		},
		{
			name:  "exactly at expiry",
			token: token,
			at:    expires,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager, files *mockAnonReader) {
				sm.ExpectBegin()
				repos.ShareRepo.On("FindByHash", mock.Anything, hash).Return(rec, nil)
				sm.ExpectRollback()
			},
			wantErr: ErrShareTokenExpired,
		},
		{
			name:  "one second after expiry",
			token: token,
			at:    expires.Add(time.Second),
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager, files *mockAnonReader) {
				sm.ExpectBegin()
				repos.ShareRepo.On("FindByHash", mock.Anything, hash).Return(rec, nil)
				sm.ExpectRollback()
			},
			wantErr: ErrShareTokenExpired,
		},
		{
			name:  "well formed but never issued",
			token: strings.Repeat("A", 43),
			at:    created,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager, files *mockAnonReader) {
				sm.ExpectBegin()
				repos.ShareRepo.On("FindByHash", mock.Anything, security.HashShareToken(strings.Repeat("A", 43))).
					Return(nil, repository.ErrNotFound)
				sm.ExpectRollback()
			},
			wantErr: ErrInvalidShareToken,
		},
		{
			name:       "malformed never reaches the store",
			token:      "short",
			at:         created,
			setupMocks: func(sqlmock.Sqlmock, *repoMocks.MockManager, *mockAnonReader) {},
			wantErr:    ErrInvalidShareToken,
		},
		{
			name:  "file deleted concurrently",
			token: token,
			at:    created,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager, files *mockAnonReader) {
				sm.ExpectBegin()
				repos.ShareRepo.On("FindByHash", mock.Anything, hash).Return(rec, nil)
				files.On("FindByAnyone", mock.Anything, mock.Anything, fileID).Return(nil, ErrNotFound)
				sm.ExpectRollback()
			},
			wantErr: ErrInvalidShareToken,
		},
		{
			name:  "object removed after commit",
			token: token,
			at:    created,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager, files *mockAnonReader) {
				sm.ExpectBegin()
				repos.ShareRepo.On("FindByHash", mock.Anything, hash).Return(rec, nil)
				files.On("FindByAnyone", mock.Anything, mock.Anything, fileID).Return(file, nil)
				sm.ExpectCommit()
				files.On("OpenByAnyone", mock.Anything, file).Return(nil, ErrNotFound)
			},
			wantErr: ErrInvalidShareToken,
		},
		{
			name:  "storage unavailable",
			token: token,
			at:    created,
			setupMocks: func(sm sqlmock.Sqlmock, repos *repoMocks.MockManager, files *mockAnonReader) {
				sm.ExpectBegin()
				repos.ShareRepo.On("FindByHash", mock.Anything, hash).Return(rec, nil)
				files.On("FindByAnyone", mock.Anything, mock.Anything, fileID).Return(file, nil)
				sm.ExpectCommit()
				files.On("OpenByAnyone", mock.Anything, file).Return(nil, ErrStorageUnavailable)
			},
			wantErr: ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, sm := newSQLMock(t)
			repos := repoMocks.NewMockManager()
			files := new(mockAnonReader)
			mgr := NewShareManager(db, repos, files, testPolicy, nil, zap.NewNop())
			at := tt.at
			mgr.now = func() time.Time { return at }
			tt.setupMocks(sm, repos, files)

			f, rc, err := mgr.Redeem(ctx, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, f)
				assert.Nil(t, rc)
			} else {
				require.NoError(t, err)
				body, _ := io.ReadAll(rc)
				assert.Equal(t, "0123456789", string(body))
				assert.Equal(t, "report.pdf", f.Name)
			}

			assert.NoError(t, sm.ExpectationsWereMet())
			repos.ShareRepo.AssertExpectations(t)
			files.AssertExpectations(t)
		})
	}
}

func TestShareManager_RedeemCommitFailureSkipsStorage(t *testing.T) {
	db, sm := newSQLMock(t)
	repos := repoMocks.NewMockManager()
	files := new(mockAnonReader)
	mgr := NewShareManager(db, repos, files, testPolicy, nil, zap.NewNop())

	token, err := security.NewShareToken()
	require.NoError(t, err)

	sm.ExpectBegin()
	repos.ShareRepo.On("FindByHash", mock.Anything, mock.Anything).
		Return(&model.ShareToken{FileID: fileID, ExpiresAt: time.Now().Add(time.Hour)}, nil)
	files.On("FindByAnyone", mock.Anything, mock.Anything, fileID).Return(&model.File{ID: fileID}, nil)
	sm.ExpectCommit().WillReturnError(errors.New("connection reset"))

	_, rc, err := mgr.Redeem(context.Background(), token)
	assert.Error(t, err)
	assert.Nil(t, rc)
	files.AssertNotCalled(t, "OpenByAnyone", mock.Anything, mock.Anything)
}

// txTrackingStore records whether content was read while a sqlmock transaction was still pending.
type txTrackingStore struct {
	storage.Storage
	sm           sqlmock.Sqlmock
	readDuringTx bool
}

func (s *txTrackingStore) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	if s.sm.ExpectationsWereMet() != nil {
		s.readDuringTx = true
	}
	return s.Storage.Get(ctx, key)
}

func TestShareManager_RedeemReadsStorageAfterCommit(t *testing.T) {
	ctx := context.Background()
	db, sm := newSQLMock(t)
	repos := newMemRepos()
	store := &txTrackingStore{Storage: storage.NewMemory(), sm: sm}
	files := NewFileRegistry(db, repos, store, nil, zap.NewNop())
	mgr := NewShareManager(db, repos, files, testPolicy, nil, zap.NewNop())

	_, err := repos.Users(db).Create(ctx, &model.User{ID: ownerA, Email: "a@x.com"})
	require.NoError(t, err)
	f, err := files.Store(ctx, ownerA, "notes.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)

	sm.ExpectBegin()
	sm.ExpectCommit()
	issued, err := mgr.Create(ctx, ownerA, f.ID, 0)
	require.NoError(t, err)

	sm.ExpectBegin()
	sm.ExpectCommit()
	_, rc, err := mgr.Redeem(ctx, issued.Token)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()

	assert.Equal(t, "hello", string(body))
	assert.False(t, store.readDuringTx, "content opened before the redeem transaction committed")
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestShareManager_SweepExpired(t *testing.T) {
	db, _ := newSQLMock(t)
	repos := repoMocks.NewMockManager()
	mgr := NewShareManager(db, repos, new(mockAnonReader), testPolicy, nil, zap.NewNop())
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return now }

	repos.ShareRepo.On("DeleteExpired", mock.Anything, now).Return(int64(3), nil).Once()
	n, err := mgr.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	repos.ShareRepo.On("DeleteExpired", mock.Anything, now).Return(int64(0), errors.New("db fail")).Once()
	_, err = mgr.SweepExpired(context.Background())
	assert.Error(t, err)
}

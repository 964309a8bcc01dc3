package mocks

import (
	"context"
	"time"

	"filevault/internal/dbx"
	"filevault/internal/model"
	"filevault/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockManager hands out the same mock repositories regardless of the DBTX,
// so expectations hold for calls made inside or outside a transaction.
type MockManager struct {
	UserRepo  *MockUserRepository
	FileRepo  *MockFileRepository
	ShareRepo *MockShareTokenRepository
}

func NewMockManager() *MockManager {
	return &MockManager{
		UserRepo:  new(MockUserRepository),
		FileRepo:  new(MockFileRepository),
		ShareRepo: new(MockShareTokenRepository),
	}
}

func (m *MockManager) Users(dbx.DBTX) repository.UserRepository { return m.UserRepo }

func (m *MockManager) Files(dbx.DBTX) repository.FileRepository { return m.FileRepo }

func (m *MockManager) ShareTokens(dbx.DBTX) repository.ShareTokenRepository { return m.ShareRepo }

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *model.File) (*model.File, error) {
	args := m.Called(ctx, f)
	if fn, ok := args.Get(0).(func(context.Context, *model.File) *model.File); ok {
		return fn(ctx, f), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id string, lock repository.Lock) (*model.File, error) {
	args := m.Called(ctx, id, lock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) FindByStoragePath(ctx context.Context, path string) (*model.File, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.File, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockShareTokenRepository struct {
	mock.Mock
}

func (m *MockShareTokenRepository) Create(ctx context.Context, t *model.ShareToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockShareTokenRepository) FindByHash(ctx context.Context, hash []byte) (*model.ShareToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareToken), args.Error(1)
}

func (m *MockShareTokenRepository) DeleteByFile(ctx context.Context, fileID string) (int64, error) {
	args := m.Called(ctx, fileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShareTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

package mocks

import (
	"context"
	"io"
	"time"

	"filevault/internal/model"
	"filevault/internal/service"
	"filevault/internal/session"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, header string) (*model.User, error) {
	args := m.Called(ctx, header)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Store(ctx context.Context, ownerID, name string, r io.Reader, size int64, contentType string) (*model.File, error) {
	args := m.Called(ctx, ownerID, name, r, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, ownerID string) ([]model.File, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileService) Fetch(ctx context.Context, ownerID, fileID string) (*model.File, io.ReadCloser, error) {
	args := m.Called(ctx, ownerID, fileID)
	return fileResult(args)
}

func (m *MockFileService) FetchByLocator(ctx context.Context, ownerID, locator string) (*model.File, io.ReadCloser, error) {
	args := m.Called(ctx, ownerID, locator)
	return fileResult(args)
}

func (m *MockFileService) Delete(ctx context.Context, ownerID, fileID string) error {
	args := m.Called(ctx, ownerID, fileID)
	return args.Error(0)
}

type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) Create(ctx context.Context, ownerID, fileID string, ttl time.Duration) (*service.IssuedShareToken, error) {
	args := m.Called(ctx, ownerID, fileID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssuedShareToken), args.Error(1)
}

func (m *MockShareService) Redeem(ctx context.Context, token string) (*model.File, io.ReadCloser, error) {
	args := m.Called(ctx, token)
	return fileResult(args)
}

func fileResult(args mock.Arguments) (*model.File, io.ReadCloser, error) {
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.File), args.Get(1).(io.ReadCloser), args.Error(2)
}

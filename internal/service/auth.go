package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"filevault/internal/dbx"
	"filevault/internal/metrics"
	"filevault/internal/model"
	"filevault/internal/repository"
	"filevault/internal/security"
	"filevault/internal/session"
)

// MaxPasswordLength bounds the work a single login can cost.
const MaxPasswordLength = 255

// SessionIssuer mints and validates session tokens. *session.Issuer implements it.
type SessionIssuer interface {
	Issue(userID string) (*session.Session, error)
	Validate(token string) (string, error)
}

// AuthService is the credential store plus session handling used by the gateway.
type AuthService interface {
	// Register creates an account. Of concurrent registrations of one email exactly one succeeds.
	Register(ctx context.Context, email, password string) (*model.User, error)

	// Verify checks credentials, failing with ErrInvalidCredentials for unknown email and wrong password alike.
	Verify(ctx context.Context, email, password string) (*model.User, error)

	// Login verifies credentials and issues a session.
	Login(ctx context.Context, email, password string) (*session.Session, error)

	// Authenticate resolves an Authorization header value to a live user.
	// Credential failures are session errors; anything else is an infrastructure failure.
	Authenticate(ctx context.Context, header string) (*model.User, error)
}

type authService struct {
	minPwLen  int
	db        dbx.DBTX
	repos     repository.Manager
	hasher    security.PasswordHasher
	issuer    SessionIssuer
	metrics   *metrics.Domain
	log       *zap.Logger
	dummyHash string
}

// NewAuthService constructs an AuthService. It hashes a throwaway password once so that
// Verify spends the same work on unknown emails.
func NewAuthService(db dbx.DBTX, repos repository.Manager, hasher security.PasswordHasher, issuer SessionIssuer, minPasswordLen int, m *metrics.Domain, log *zap.Logger) (AuthService, error) {
	if minPasswordLen < 1 {
		minPasswordLen = 1
	}
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &authService{
		minPwLen:  minPasswordLen,
		db:        db,
		repos:     repos,
		hasher:    hasher,
		issuer:    issuer,
		metrics:   m,
		log:       log,
		dummyHash: dummy,
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *authService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		s.metrics.Registration(false)
		return nil, err
	}
	if len(password) < s.minPwLen || len(password) > MaxPasswordLength {
		s.metrics.Registration(false)
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repos.Users(s.db).Create(ctx, &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		s.metrics.Registration(false)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.Registration(true)
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

func (s *authService) Verify(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	u, err := s.repos.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		s.log.Error("stored password hash unreadable", zap.String("user_id", u.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	u, err := s.Verify(ctx, email, password)
	if err != nil {
		s.metrics.Login(false)
		return nil, err
	}
	sess, err := s.issuer.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.Login(true)
	return sess, nil
}

func (s *authService) Authenticate(ctx context.Context, header string) (*model.User, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}

	userID, err := s.issuer.Validate(token)
	if err != nil {
		return nil, err
	}

	u, err := s.repos.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, session.ErrSessionUnknown
		}
		return nil, fmt.Errorf("find session user: %w", err)
	}
	return u, nil
}

// bearerToken extracts the credentials of a "Bearer <token>" header. The scheme is case-insensitive.
func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", session.ErrSessionMalformed
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", session.ErrSessionMalformed
	}
	return token, nil
}

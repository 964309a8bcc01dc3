package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"filevault/internal/dbx"
	"filevault/internal/model"
	"filevault/internal/repository"
	"filevault/internal/security"
)

// memRepos is an in-memory repository.Manager with the same constraint behavior as the Postgres schema.
type memRepos struct {
	mu     sync.Mutex
	users  map[string]model.User
	files  map[string]model.File
	tokens map[string]model.ShareToken
}

func newMemRepos() *memRepos {
	return &memRepos{
		users:  map[string]model.User{},
		files:  map[string]model.File{},
		tokens: map[string]model.ShareToken{},
	}
}

func (m *memRepos) Users(dbx.DBTX) repository.UserRepository { return memUsers{m} }

func (m *memRepos) Files(dbx.DBTX) repository.FileRepository { return memFiles{m} }

func (m *memRepos) ShareTokens(dbx.DBTX) repository.ShareTokenRepository { return memTokens{m} }

type memUsers struct{ *memRepos }

func (r memUsers) Create(_ context.Context, u *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, repository.ErrDuplicate
		}
	}
	r.users[u.ID] = *u
	out := *u
	return &out, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type memFiles struct{ *memRepos }

func (r memFiles) Create(_ context.Context, f *model.File) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[f.OwnerID]; !ok {
		return nil, repository.ErrReferenceMissing
	}
	r.files[f.ID] = *f
	out := *f
	return &out, nil
}

func (r memFiles) FindByID(_ context.Context, id string, _ repository.Lock) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (r memFiles) FindByStoragePath(_ context.Context, path string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.StoragePath == path {
			out := f
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memFiles) ListByOwner(_ context.Context, ownerID string) ([]model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.File
	for _, f := range r.files {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memFiles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.files, id)
	for k, t := range r.tokens {
		if t.FileID == id {
			delete(r.tokens, k)
		}
	}
	return nil
}

type memTokens struct{ *memRepos }

func (r memTokens) Create(_ context.Context, t *model.ShareToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[t.FileID]; !ok {
		return repository.ErrReferenceMissing
	}
	r.tokens[string(t.TokenHash)] = *t
	return nil
}

func (r memTokens) FindByHash(_ context.Context, hash []byte) (*model.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[string(hash)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r memTokens) DeleteByFile(_ context.Context, fileID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if t.FileID == fileID {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

// cheapHasher keeps argon2id but with parameters small enough for unit tests.
func cheapHasher() *security.Argon2id {
	return &security.Argon2id{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

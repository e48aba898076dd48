// Package memory implements the domain repositories on top of process memory.
// It backs STORE_DRIVER=memory and the HTTP and service tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User)}
}

// cloneUser copies u without its avatar bytes, matching what the database stores return.
func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Avatar = nil
	c.Tokens = slices.Clone(u.Tokens)
	return &c
}

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return repository.ErrDuplicateEmail
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Tokens == nil {
		u.Tokens = []string{}
	}
	stored := cloneUser(u)
	stored.Avatar = slices.Clone(u.Avatar)
	r.users[u.ID] = stored
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok || !u.HasToken(token) {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) Update(ctx context.Context, id string, ch repository.UserChanges) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ch.Email != nil && r.emailTaken(*ch.Email, id) {
		return nil, repository.ErrDuplicateEmail
	}
	if ch.Name != nil {
		u.Name = *ch.Name
	}
	if ch.Email != nil {
		u.Email = *ch.Email
	}
	if ch.Password != nil {
		u.Password = *ch.Password
	}
	if ch.Age != nil {
		u.Age = *ch.Age
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

// mutate runs fn on the stored user under the write lock.
func (r *UserRepository) mutate(id string, fn func(u *entity.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) AddToken(ctx context.Context, id, token string) error {
	return r.mutate(id, func(u *entity.User) { u.Tokens = append(u.Tokens, token) })
}

func (r *UserRepository) RemoveToken(ctx context.Context, id, token string) error {
	return r.mutate(id, func(u *entity.User) {
		u.Tokens = slices.DeleteFunc(u.Tokens, func(t string) bool { return t == token })
	})
}

func (r *UserRepository) ClearTokens(ctx context.Context, id string) error {
	return r.mutate(id, func(u *entity.User) { u.Tokens = []string{} })
}

func (r *UserRepository) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	return r.mutate(id, func(u *entity.User) { u.Avatar = slices.Clone(avatar) })
}

func (r *UserRepository) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok || len(u.Avatar) == 0 {
		return nil, repository.ErrNotFound
	}
	return slices.Clone(u.Avatar), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)

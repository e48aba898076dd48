package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserChanges carries the profile fields to overwrite; nil fields are left untouched.
// Password must already be hashed.
type UserChanges struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

// UserRepository defines the interface for user-related database operations.
// Reads never return the avatar bytes; use GetAvatar for that.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByIDAndToken returns the user only while token is in its active list.
	GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error)
	Update(ctx context.Context, id string, ch UserChanges) (*entity.User, error)
	AddToken(ctx context.Context, id, token string) error
	RemoveToken(ctx context.Context, id, token string) error
	ClearTokens(ctx context.Context, id string) error
	// SetAvatar stores the avatar bytes; nil removes them.
	SetAvatar(ctx context.Context, id string, avatar []byte) error
	GetAvatar(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

package application

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/imaging"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

// MaxAvatarBytes is the largest avatar upload accepted.
const MaxAvatarBytes = 1_000_000

var avatarExtensions = []string{".png", ".jpg", ".jpeg"}

// Notifier sends account lifecycle emails.
type Notifier interface {
	Welcome(ctx context.Context, email, name string) error
	Cancellation(ctx context.Context, email, name string) error
}

// AvatarMirror keeps a copy of normalized avatars outside the primary store.
type AvatarMirror interface {
	Put(ctx context.Context, userID string, png []byte) error
	Remove(ctx context.Context, userID string) error
}

type SignupInput struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,userpwd"`
	Age      int    `json:"age" validate:"gte=0"`
}

type profileChanges struct {
	Name     *string `json:"name" validate:"omitnil,notblank"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Password *string `json:"password" validate:"omitnil,userpwd"`
	Age      *int    `json:"age" validate:"omitnil,gte=0"`
}

var profileFields = []string{"name", "email", "password", "age"}

type UserService struct {
	Users    repository.UserRepository
	Tasks    repository.TaskRepository
	Tokens   *TokenService
	Notifier Notifier
	Logger   logrus.FieldLogger

	// Optional side channels; nil disables them.
	Mirror AvatarMirror
	Index  TaskIndex
}

func NewUserService(users repository.UserRepository, tasks repository.TaskRepository, tokens *TokenService, notifier Notifier, logger logrus.FieldLogger) *UserService {
	return &UserService{
		Users:    users,
		Tasks:    tasks,
		Tokens:   tokens,
		Notifier: notifier,
		Logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func duplicateEmail() *ValidationError {
	return invalid("invalid user", map[string]string{"email": "is already in use"})
}

// Create registers a new account and issues its first token.
func (s *UserService) Create(ctx context.Context, in SignupInput) (*entity.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if details := validation.Struct(in); details != nil {
		return nil, "", invalid("invalid user", details)
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, "", internalErr("hash password", err)
	}
	u := &entity.User{Name: in.Name, Email: in.Email, Password: hash, Age: in.Age, Tokens: []string{}}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", duplicateEmail()
		}
		return nil, "", storeErr("create user", err)
	}
	token, err := s.Tokens.Issue(ctx, u)
	if err != nil {
		return nil, "", err
	}
	s.notify(ctx, notifyWelcome, u)
	return u, token, nil
}

// Authenticate checks credentials. Unknown email and wrong password are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			helpers.BurnCompare(password)
			return nil, ErrAuthentication
		}
		return nil, storeErr("find user", err)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrAuthentication
	}
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.Tokens.Issue(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *UserService) Logout(ctx context.Context, u *entity.User, token string) error {
	return s.Tokens.Revoke(ctx, u, token)
}

func (s *UserService) LogoutAll(ctx context.Context, u *entity.User) error {
	return s.Tokens.RevokeAll(ctx, u)
}

func (s *UserService) GetProfile(u *entity.User) *entity.User {
	return u
}

// UpdateProfile applies an allow-listed partial update as one store write.
func (s *UserService) UpdateProfile(ctx context.Context, u *entity.User, patch Patch) (*entity.User, error) {
	if err := patch.checkAllowed(profileFields...); err != nil {
		return nil, err
	}
	var in profileChanges
	if err := patch.decode(&in); err != nil {
		return nil, err
	}
	if in.Name != nil {
		*in.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		*in.Email = normalizeEmail(*in.Email)
	}
	if details := validation.Struct(in); details != nil {
		return nil, invalid("invalid update", details)
	}

	ch := repository.UserChanges{Name: in.Name, Email: in.Email, Age: in.Age}
	if in.Password != nil {
		hash, err := helpers.HashPassword(*in.Password)
		if err != nil {
			return nil, internalErr("hash password", err)
		}
		ch.Password = &hash
	}
	updated, err := s.Users.Update(ctx, u.ID, ch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, duplicateEmail()
		}
		return nil, storeErr("update user", err)
	}
	return updated, nil
}

// DeleteAccount removes the user and, best-effort, everything hanging off it.
func (s *UserService) DeleteAccount(ctx context.Context, u *entity.User) error {
	fields := logrus.Fields{"user_id": u.ID}
	if n, err := s.Tasks.DeleteByOwner(ctx, u.ID); err != nil {
		helpers.LogWarn(s.Logger, "delete owned tasks failed", err, fields)
	} else {
		s.Logger.WithFields(fields).WithField("tasks", n).Debug("owned tasks deleted")
	}
	if err := s.Users.Delete(ctx, u.ID); err != nil {
		return storeErr("delete user", err)
	}
	if s.Index != nil {
		if err := s.Index.RemoveOwner(ctx, u.ID); err != nil {
			helpers.LogWarn(s.Logger, "remove owner from search index failed", err, fields)
		}
	}
	if s.Mirror != nil {
		if err := s.Mirror.Remove(ctx, u.ID); err != nil {
			helpers.LogWarn(s.Logger, "remove mirrored avatar failed", err, fields)
		}
	}
	s.notify(ctx, notifyCancellation, u)
	return nil
}

// SetAvatar checks size and extension before decoding, then stores a 250x250 PNG.
func (s *UserService) SetAvatar(ctx context.Context, u *entity.User, filename string, data []byte) error {
	if len(data) > MaxAvatarBytes {
		return invalid("file too large", map[string]string{"avatar": "must be at most 1000000 bytes"})
	}
	if !hasAvatarExtension(filename) {
		return invalid("please upload an image", map[string]string{"avatar": "must be a .png, .jpg or .jpeg file"})
	}
	png, err := imaging.NormalizeAvatar(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUndecodable) {
			return invalid("please upload an image", map[string]string{"avatar": "could not be decoded"})
		}
		return internalErr("normalize avatar", err)
	}
	if err := s.Users.SetAvatar(ctx, u.ID, png); err != nil {
		return storeErr("store avatar", err)
	}
	if s.Mirror != nil {
		if err := s.Mirror.Put(ctx, u.ID, png); err != nil {
			helpers.LogWarn(s.Logger, "mirror avatar failed", err, logrus.Fields{"user_id": u.ID})
		}
	}
	return nil
}

func (s *UserService) ClearAvatar(ctx context.Context, u *entity.User) error {
	if err := s.Users.SetAvatar(ctx, u.ID, nil); err != nil {
		return storeErr("clear avatar", err)
	}
	if s.Mirror != nil {
		if err := s.Mirror.Remove(ctx, u.ID); err != nil {
			helpers.LogWarn(s.Logger, "remove mirrored avatar failed", err, logrus.Fields{"user_id": u.ID})
		}
	}
	return nil
}

// GetAvatar returns the stored PNG; malformed IDs are simply not found.
func (s *UserService) GetAvatar(ctx context.Context, userID string) ([]byte, error) {
	avatar, err := s.Users.GetAvatar(ctx, userID)
	if err != nil {
		return nil, storeErr("get avatar", err)
	}
	return avatar, nil
}

const (
	notifyWelcome      = "welcome"
	notifyCancellation = "cancellation"
)

// notify is best-effort: a failed email never fails the account operation.
func (s *UserService) notify(ctx context.Context, kind string, u *entity.User) {
	if s.Notifier == nil {
		return
	}
	var err error
	switch kind {
	case notifyWelcome:
		err = s.Notifier.Welcome(ctx, u.Email, u.Name)
	case notifyCancellation:
		err = s.Notifier.Cancellation(ctx, u.Email, u.Name)
	}
	if err != nil {
		helpers.LogWarn(s.Logger, "notification failed", err, logrus.Fields{"kind": kind, "user_id": u.ID})
	}
}

func hasAvatarExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range avatarExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

package application

import (
	"context"
	"errors"
	"slices"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

// TokenService issues and revokes bearer tokens. A token is valid while its
// signature checks out and it is still in the owner's token list.
type TokenService struct {
	users repository.UserRepository
	jwt   *helpers.JWTManager
}

func NewTokenService(users repository.UserRepository, jwt *helpers.JWTManager) *TokenService {
	return &TokenService{users: users, jwt: jwt}
}

// Issue signs a new token for u and appends it to u's active list.
func (s *TokenService) Issue(ctx context.Context, u *entity.User) (string, error) {
	token, err := s.jwt.Sign(u.ID)
	if err != nil {
		return "", internalErr("sign token", err)
	}
	if err := s.users.AddToken(ctx, u.ID, token); err != nil {
		return "", storeErr("add token", err)
	}
	u.Tokens = append(u.Tokens, token)
	return token, nil
}

// Revoke removes exactly token from u's active list.
func (s *TokenService) Revoke(ctx context.Context, u *entity.User, token string) error {
	if err := s.users.RemoveToken(ctx, u.ID, token); err != nil {
		return storeErr("remove token", err)
	}
	u.Tokens = slices.DeleteFunc(u.Tokens, func(t string) bool { return t == token })
	return nil
}

func (s *TokenService) RevokeAll(ctx context.Context, u *entity.User) error {
	if err := s.users.ClearTokens(ctx, u.ID); err != nil {
		return storeErr("clear tokens", err)
	}
	u.Tokens = []string{}
	return nil
}

// Verify checks the signature and returns the user ID the token was issued for.
func (s *TokenService) Verify(token string) (string, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// Authenticate resolves a presented token to its live owner.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	uid, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByIDAndToken(ctx, uid, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, storeErr("find session", err)
	}
	return u, nil
}

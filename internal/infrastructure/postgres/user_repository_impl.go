package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, age, tokens, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var id uuid.UUID
	if err := row.Scan(&id, &u.Name, &u.Email, &u.Password, &u.Age, &u.Tokens, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.ID = id.String()
	if u.Tokens == nil {
		u.Tokens = []string{}
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	if u.Tokens == nil {
		u.Tokens = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, age, avatar, tokens)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, id, u.Name, u.Email, u.Password, u.Age, u.Avatar, u.Tokens)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id.String()
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uid))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND $2 = ANY(tokens)`, uid, token))
}

func (r *UserRepository) Update(ctx context.Context, id string, ch repository.UserChanges) (*entity.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    password_hash = COALESCE($4, password_hash),
		    age = COALESCE($5, age),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		uid, ch.Name, ch.Email, ch.Password, ch.Age))
	if err != nil && isUniqueViolation(err) {
		return nil, repository.ErrDuplicateEmail
	}
	return u, err
}

func (r *UserRepository) exec(ctx context.Context, id, sql string, args ...any) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, sql, append([]any{uid}, args...)...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, id, `UPDATE users SET tokens = array_append(tokens, $2), updated_at = now() WHERE id = $1`, token)
}

func (r *UserRepository) RemoveToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, id, `UPDATE users SET tokens = array_remove(tokens, $2), updated_at = now() WHERE id = $1`, token)
}

func (r *UserRepository) ClearTokens(ctx context.Context, id string) error {
	return r.exec(ctx, id, `UPDATE users SET tokens = '{}', updated_at = now() WHERE id = $1`)
}

func (r *UserRepository) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	return r.exec(ctx, id, `UPDATE users SET avatar = $2, updated_at = now() WHERE id = $1`, avatar)
}

func (r *UserRepository) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var avatar []byte
	if err := r.pool.QueryRow(ctx, `SELECT avatar FROM users WHERE id = $1`, uid).Scan(&avatar); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(avatar) == 0 {
		return nil, repository.ErrNotFound
	}
	return avatar, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, id, `DELETE FROM users WHERE id = $1`)
}

var _ repository.UserRepository = (*UserRepository)(nil)

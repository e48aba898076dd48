package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

const taskColumns = `id, description, completed, owner, created_at, updated_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	t := &entity.Task{}
	var id, owner uuid.UUID
	if err := row.Scan(&id, &t.Description, &t.Completed, &owner, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	t.ID, t.Owner = id.String(), owner.String()
	return t, nil
}

func parseOwned(id, owner string) (uuid.UUID, uuid.UUID, bool) {
	tid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	oid, err := uuid.Parse(owner)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return tid, oid, true
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	owner, err := uuid.Parse(t.Owner)
	if err != nil {
		return fmt.Errorf("insert task: invalid owner %q", t.Owner)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, description, completed, owner)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, id, t.Description, t.Completed, owner)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	t.ID = id.String()
	return nil
}

func (r *TaskRepository) List(ctx context.Context, owner string, q repository.TaskQuery) ([]*entity.Task, error) {
	oid, err := uuid.Parse(owner)
	if err != nil {
		return []*entity.Task{}, nil
	}
	sql, args := taskListSQL(oid, q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	out := []*entity.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TaskRepository) GetForOwner(ctx context.Context, id, owner string) (*entity.Task, error) {
	tid, oid, ok := parseOwned(id, owner)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner = $2`, tid, oid))
}

func (r *TaskRepository) UpdateForOwner(ctx context.Context, id, owner string, ch repository.TaskChanges) (*entity.Task, error) {
	tid, oid, ok := parseOwned(id, owner)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET description = COALESCE($3, description),
		    completed = COALESCE($4, completed),
		    updated_at = now()
		WHERE id = $1 AND owner = $2
		RETURNING `+taskColumns,
		tid, oid, ch.Description, ch.Completed))
}

func (r *TaskRepository) DeleteForOwner(ctx context.Context, id, owner string) (*entity.Task, error) {
	tid, oid, ok := parseOwned(id, owner)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return scanTask(r.pool.QueryRow(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner = $2 RETURNING `+taskColumns, tid, oid))
}

func (r *TaskRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	oid, err := uuid.Parse(owner)
	if err != nil {
		return 0, nil
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE owner = $1`, oid)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return res.RowsAffected(), nil
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

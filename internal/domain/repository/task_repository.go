package repository

import (
	"context"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// Sortable task fields.
const (
	SortDescription = "description"
	SortCompleted   = "completed"
	SortCreatedAt   = "createdAt"
	SortUpdatedAt   = "updatedAt"
)

// SortableTaskFields lists the fields a task listing may be ordered by.
var SortableTaskFields = []string{SortDescription, SortCompleted, SortCreatedAt, SortUpdatedAt}

// TaskQuery selects and orders a page of one owner's tasks.
// Zero Limit means no limit and zero Skip means no skip. An empty SortField
// falls back to creation order. Ties are always broken by ID ascending so
// pages stay stable.
type TaskQuery struct {
	Completed *bool
	SortField string
	SortDesc  bool
	Limit     int64
	Skip      int64
}

// TaskChanges carries the task fields to overwrite; nil fields are left untouched.
type TaskChanges struct {
	Description *string
	Completed   *bool
}

// TaskRepository stores tasks. Every per-task method is scoped by owner:
// a task owned by someone else behaves exactly like a missing one.
type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	List(ctx context.Context, owner string, q TaskQuery) ([]*entity.Task, error)
	GetForOwner(ctx context.Context, id, owner string) (*entity.Task, error)
	UpdateForOwner(ctx context.Context, id, owner string, ch TaskChanges) (*entity.Task, error)
	DeleteForOwner(ctx context.Context, id, owner string) (*entity.Task, error)
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}

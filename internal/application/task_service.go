package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// TaskIndex is a full-text index over task descriptions.
type TaskIndex interface {
	Index(ctx context.Context, t *entity.Task) error
	Remove(ctx context.Context, id string) error
	RemoveOwner(ctx context.Context, owner string) error
	// Search returns matching task IDs for owner, best match first.
	Search(ctx context.Context, owner, query string, limit int) ([]string, error)
}

type TaskInput struct {
	Description string `json:"description" validate:"notblank"`
	Completed   bool   `json:"completed"`
}

type taskChanges struct {
	Description *string `json:"description" validate:"omitnil,notblank"`
	Completed   *bool   `json:"completed"`
}

var taskFields = []string{"description", "completed"}

type TaskService struct {
	Tasks  repository.TaskRepository
	Logger logrus.FieldLogger

	// Index is optional; nil disables search.
	Index TaskIndex
}

func NewTaskService(tasks repository.TaskRepository, logger logrus.FieldLogger) *TaskService {
	return &TaskService{Tasks: tasks, Logger: logger}
}

// Create stores a task owned by owner regardless of what the input claims.
func (s *TaskService) Create(ctx context.Context, owner string, in TaskInput) (*entity.Task, error) {
	in.Description = strings.TrimSpace(in.Description)
	if details := validation.Struct(in); details != nil {
		return nil, invalid("invalid task", details)
	}
	t := &entity.Task{Description: in.Description, Completed: in.Completed, Owner: owner}
	if err := s.Tasks.Create(ctx, t); err != nil {
		return nil, storeErr("create task", err)
	}
	s.index(ctx, t)
	return t, nil
}

func (s *TaskService) List(ctx context.Context, owner string, q repository.TaskQuery) ([]*entity.Task, error) {
	tasks, err := s.Tasks.List(ctx, owner, q)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, owner, id string) (*entity.Task, error) {
	t, err := s.Tasks.GetForOwner(ctx, id, owner)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	return t, nil
}

// Update applies an allow-listed partial update to one of owner's tasks.
func (s *TaskService) Update(ctx context.Context, owner, id string, patch Patch) (*entity.Task, error) {
	if err := patch.checkAllowed(taskFields...); err != nil {
		return nil, err
	}
	var in taskChanges
	if err := patch.decode(&in); err != nil {
		return nil, err
	}
	if in.Description != nil {
		*in.Description = strings.TrimSpace(*in.Description)
	}
	if details := validation.Struct(in); details != nil {
		return nil, invalid("invalid update", details)
	}
	t, err := s.Tasks.UpdateForOwner(ctx, id, owner, repository.TaskChanges{
		Description: in.Description,
		Completed:   in.Completed,
	})
	if err != nil {
		return nil, storeErr("update task", err)
	}
	s.index(ctx, t)
	return t, nil
}

// Delete removes one of owner's tasks and returns it.
func (s *TaskService) Delete(ctx context.Context, owner, id string) (*entity.Task, error) {
	t, err := s.Tasks.DeleteForOwner(ctx, id, owner)
	if err != nil {
		return nil, storeErr("delete task", err)
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, t.ID); err != nil {
			helpers.LogWarn(s.Logger, "remove task from search index failed", err, logrus.Fields{"task_id": t.ID})
		}
	}
	return t, nil
}

// Search finds owner's tasks whose description matches query. Without an
// index it returns no results.
func (s *TaskService) Search(ctx context.Context, owner, query string, limit int) ([]*entity.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("invalid search", map[string]string{"q": "is required"})
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)
	out := []*entity.Task{}
	if s.Index == nil {
		return out, nil
	}
	ids, err := s.Index.Search(ctx, owner, query, limit)
	if err != nil {
		return nil, internalErr("search tasks", err)
	}
	for _, id := range ids {
		t, err := s.Tasks.GetForOwner(ctx, id, owner)
		if errors.Is(err, repository.ErrNotFound) {
			// stale index entry
			continue
		}
		if err != nil {
			return nil, storeErr("load search hit", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *TaskService) index(ctx context.Context, t *entity.Task) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, t); err != nil {
		helpers.LogWarn(s.Logger, "index task failed", err, logrus.Fields{"task_id": t.ID})
	}
}

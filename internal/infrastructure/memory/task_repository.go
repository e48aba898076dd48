package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*entity.Task
	seq   map[string]int64 // insertion order, stands in for an ordered id
	next  int64
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]*entity.Task), seq: make(map[string]int64)}
}

func cloneTask(t *entity.Task) *entity.Task {
	c := *t
	return &c
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	r.tasks[t.ID] = cloneTask(t)
	r.next++
	r.seq[t.ID] = r.next
	return nil
}

func compareTasks(field string, a, b *entity.Task) int {
	switch field {
	case repository.SortDescription:
		return cmp.Compare(a.Description, b.Description)
	case repository.SortCompleted:
		return cmp.Compare(boolRank(a.Completed), boolRank(b.Completed))
	case repository.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *TaskRepository) List(ctx context.Context, owner string, q repository.TaskQuery) ([]*entity.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Task, 0)
	for _, t := range r.tasks {
		if t.Owner != owner {
			continue
		}
		if q.Completed != nil && t.Completed != *q.Completed {
			continue
		}
		out = append(out, cloneTask(t))
	}
	slices.SortFunc(out, func(a, b *entity.Task) int {
		c := compareTasks(q.SortField, a, b)
		if q.SortDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(r.seq[a.ID], r.seq[b.ID])
	})
	if q.Skip > 0 {
		if q.Skip >= int64(len(out)) {
			return []*entity.Task{}, nil
		}
		out = out[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(out)) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *TaskRepository) GetForOwner(ctx context.Context, id, owner string) (*entity.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok || t.Owner != owner {
		return nil, repository.ErrNotFound
	}
	return cloneTask(t), nil
}

func (r *TaskRepository) UpdateForOwner(ctx context.Context, id, owner string, ch repository.TaskChanges) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Owner != owner {
		return nil, repository.ErrNotFound
	}
	if ch.Description != nil {
		t.Description = *ch.Description
	}
	if ch.Completed != nil {
		t.Completed = *ch.Completed
	}
	t.UpdatedAt = time.Now().UTC()
	return cloneTask(t), nil
}

func (r *TaskRepository) DeleteForOwner(ctx context.Context, id, owner string) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Owner != owner {
		return nil, repository.ErrNotFound
	}
	delete(r.tasks, id)
	delete(r.seq, id)
	return t, nil
}

func (r *TaskRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tasks {
		if t.Owner == owner {
			delete(r.tasks, id)
			delete(r.seq, id)
			n++
		}
	}
	return n, nil
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

func TestTaskService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	task, err := f.taskSvc.Create(ctx, "owner-1", TaskInput{Description: "  water plants  "})
	require.NoError(t, err)
	assert.Equal(t, "water plants", task.Description)
	assert.Equal(t, "owner-1", task.Owner)
	assert.False(t, task.Completed)
	assert.Contains(t, f.index.docs, task.ID)

	_, err = f.taskSvc.Create(ctx, "owner-1", TaskInput{Description: "   "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTaskService_OwnerIsolation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	task, err := f.taskSvc.Create(ctx, "alice", TaskInput{Description: "secret"})
	require.NoError(t, err)

	_, err = f.taskSvc.Get(ctx, "bob", task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.taskSvc.Update(ctx, "bob", task.ID, Patch{"completed": json.RawMessage(`true`)})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.taskSvc.Delete(ctx, "bob", task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.taskSvc.Get(ctx, "alice", "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.taskSvc.Get(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
}

func TestTaskService_Update(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	task, err := f.taskSvc.Create(ctx, "alice", TaskInput{Description: "draft"})
	require.NoError(t, err)

	updated, err := f.taskSvc.Update(ctx, "alice", task.ID, Patch{"completed": json.RawMessage(`true`)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "draft", updated.Description)

	for name, patch := range map[string]Patch{
		"owner key":         {"owner": json.RawMessage(`"bob"`)},
		"mixed keys":        {"description": json.RawMessage(`"x"`), "priority": json.RawMessage(`1`)},
		"null description":  {"description": json.RawMessage(`null`)},
		"blank description": {"description": json.RawMessage(`"  "`)},
		"string completed":  {"completed": json.RawMessage(`"yes"`)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.taskSvc.Update(ctx, "alice", task.ID, patch)
			require.ErrorIs(t, err, ErrValidation)
			got, err := f.taskSvc.Get(ctx, "alice", task.ID)
			require.NoError(t, err)
			assert.Equal(t, "draft", got.Description)
			assert.Equal(t, "alice", got.Owner)
		})
	}
}

func TestTaskService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	task, err := f.taskSvc.Create(ctx, "alice", TaskInput{Description: "done soon"})
	require.NoError(t, err)

	deleted, err := f.taskSvc.Delete(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)
	assert.NotContains(t, f.index.docs, task.ID)

	_, err = f.taskSvc.Delete(ctx, "alice", task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_List(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, d := range []string{"b", "a", "c"} {
		_, err := f.taskSvc.Create(ctx, "alice", TaskInput{Description: d, Completed: d == "a"})
		require.NoError(t, err)
	}
	_, err := f.taskSvc.Create(ctx, "bob", TaskInput{Description: "z"})
	require.NoError(t, err)

	tasks, err := f.taskSvc.List(ctx, "alice", ParseTaskQuery("", "description:desc", "2", ""))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "c", tasks[0].Description)
	assert.Equal(t, "b", tasks[1].Description)

	done, err := f.taskSvc.List(ctx, "alice", ParseTaskQuery("true", "", "", ""))
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "a", done[0].Description)
}

func TestTaskService_Search(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	mine, err := f.taskSvc.Create(ctx, "alice", TaskInput{Description: "Buy milk"})
	require.NoError(t, err)
	_, err = f.taskSvc.Create(ctx, "alice", TaskInput{Description: "walk dog"})
	require.NoError(t, err)
	_, err = f.taskSvc.Create(ctx, "bob", TaskInput{Description: "milk the cow"})
	require.NoError(t, err)

	hits, err := f.taskSvc.Search(ctx, "alice", "milk", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, mine.ID, hits[0].ID)

	_, err = f.taskSvc.Search(ctx, "alice", "  ", 10)
	assert.ErrorIs(t, err, ErrValidation)

	// an index entry whose task is gone is skipped
	require.NoError(t, f.index.Index(ctx, mine))
	_, err = f.tasks.DeleteForOwner(ctx, mine.ID, "alice")
	require.NoError(t, err)
	hits, err = f.taskSvc.Search(ctx, "alice", "milk", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	f.taskSvc.Index = nil
	hits, err = f.taskSvc.Search(ctx, "alice", "dog", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTaskService_IndexFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.index.err = errSideChannel
	task, err := f.taskSvc.Create(context.Background(), "alice", TaskInput{Description: "still saved"})
	require.NoError(t, err)
	_, err = f.taskSvc.Get(context.Background(), "alice", task.ID)
	assert.NoError(t, err)
}

func TestParseTaskQuery(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name                         string
		completed, sortBy, lim, skip string
		want                         repository.TaskQuery
	}{
		{name: "empty", want: repository.TaskQuery{}},
		{name: "completed true", completed: "true", want: repository.TaskQuery{Completed: &yes}},
		{name: "completed false", completed: "false", want: repository.TaskQuery{Completed: &no}},
		{name: "completed junk", completed: "maybe", want: repository.TaskQuery{}},
		{name: "sort desc", sortBy: "createdAt:desc", want: repository.TaskQuery{SortField: repository.SortCreatedAt, SortDesc: true}},
		{name: "sort default asc", sortBy: "description", want: repository.TaskQuery{SortField: repository.SortDescription}},
		{name: "sort odd direction", sortBy: "updatedAt:down", want: repository.TaskQuery{SortField: repository.SortUpdatedAt}},
		{name: "sort unknown field", sortBy: "owner:desc", want: repository.TaskQuery{}},
		{name: "paging", lim: "10", skip: "20", want: repository.TaskQuery{Limit: 10, Skip: 20}},
		{name: "paging invalid", lim: "ten", skip: "-5", want: repository.TaskQuery{}},
		{name: "limit clamped", lim: "50000", want: repository.TaskQuery{Limit: MaxTaskLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTaskQuery(tt.completed, tt.sortBy, tt.lim, tt.skip))
		})
	}
}

package application

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/memory"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

type sent struct{ kind, email, name string }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeNotifier) Welcome(_ context.Context, email, name string) error {
	return f.record("welcome", email, name)
}

func (f *fakeNotifier) Cancellation(_ context.Context, email, name string) error {
	return f.record("cancellation", email, name)
}

func (f *fakeNotifier) record(kind, email, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{kind, email, name})
	return f.err
}

type fakeMirror struct {
	put     map[string][]byte
	removed []string
	err     error
}

func (f *fakeMirror) Put(_ context.Context, userID string, png []byte) error {
	if f.put == nil {
		f.put = map[string][]byte{}
	}
	f.put[userID] = png
	return f.err
}

func (f *fakeMirror) Remove(_ context.Context, userID string) error {
	f.removed = append(f.removed, userID)
	return f.err
}

// fakeIndex matches tasks whose description contains the query, case-insensitively.
type fakeIndex struct {
	docs          map[string]*entity.Task
	removedOwners []string
	err           error
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[string]*entity.Task{}} }

func (f *fakeIndex) Index(_ context.Context, t *entity.Task) error {
	cp := *t
	f.docs[t.ID] = &cp
	return f.err
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	delete(f.docs, id)
	return f.err
}

func (f *fakeIndex) RemoveOwner(_ context.Context, owner string) error {
	f.removedOwners = append(f.removedOwners, owner)
	for id, t := range f.docs {
		if t.Owner == owner {
			delete(f.docs, id)
		}
	}
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, owner, query string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []string
	for id, t := range f.docs {
		if t.Owner == owner && strings.Contains(strings.ToLower(t.Description), strings.ToLower(query)) {
			ids = append(ids, id)
		}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

var errSideChannel = errors.New("side channel down")

type fixture struct {
	users    *memory.UserRepository
	tasks    *memory.TaskRepository
	tokens   *TokenService
	notifier *fakeNotifier
	mirror   *fakeMirror
	index    *fakeIndex
	userSvc  *UserService
	taskSvc  *TaskService
}

func newFixture() *fixture {
	f := &fixture{
		users:    memory.NewUserRepository(),
		tasks:    memory.NewTaskRepository(),
		notifier: &fakeNotifier{},
		mirror:   &fakeMirror{},
		index:    newFakeIndex(),
	}
	log := helpers.NewNopLogger()
	f.tokens = NewTokenService(f.users, helpers.NewJWTManager("test-secret"))
	f.userSvc = NewUserService(f.users, f.tasks, f.tokens, f.notifier, log)
	f.userSvc.Mirror = f.mirror
	f.userSvc.Index = f.index
	f.taskSvc = NewTaskService(f.tasks, log)
	f.taskSvc.Index = f.index
	return f
}

func (f *fixture) signup(t *testing.T, name, email string) (*entity.User, string) {
	t.Helper()
	u, token, err := f.userSvc.Create(context.Background(), SignupInput{Name: name, Email: email, Password: "Pass123$"})
	require.NoError(t, err)
	return u, token
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

package application

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/imaging"
)

func TestUserService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u, token, err := f.userSvc.Create(ctx, SignupInput{Name: " John Egbert ", Email: " JohnE@Mail.com", Password: "Pass123$"})
	require.NoError(t, err)
	assert.Equal(t, "John Egbert", u.Name)
	assert.Equal(t, "johne@mail.com", u.Email)
	assert.NotEqual(t, "Pass123$", u.Password)
	assert.Equal(t, []string{token}, u.Tokens)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{token}, stored.Tokens)
	assert.Equal(t, []sent{{"welcome", "johne@mail.com", "John Egbert"}}, f.notifier.sent)
}

func TestUserService_CreateRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	f.signup(t, "Rose", "rose@mail.com")

	tests := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{name: "blank name", in: SignupInput{Name: "  ", Email: "a@mail.com", Password: "Pass123$"}, field: "name"},
		{name: "bad email", in: SignupInput{Name: "A", Email: "not-an-email", Password: "Pass123$"}, field: "email"},
		{name: "short password", in: SignupInput{Name: "A", Email: "a@mail.com", Password: "abc"}, field: "password"},
		{name: "password contains password", in: SignupInput{Name: "A", Email: "a@mail.com", Password: "MyPassword1"}, field: "password"},
		{name: "negative age", in: SignupInput{Name: "A", Email: "a@mail.com", Password: "Pass123$", Age: -3}, field: "age"},
		{name: "duplicate email any case", in: SignupInput{Name: "R2", Email: "ROSE@mail.com", Password: "Pass123$"}, field: "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.userSvc.Create(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
	assert.Len(t, f.notifier.sent, 1, "only the first signup is welcomed")
}

func TestUserService_CreateSurvivesNotifierFailure(t *testing.T) {
	f := newFixture()
	f.notifier.err = errSideChannel
	u, token, err := f.userSvc.Create(context.Background(), SignupInput{Name: "Jade", Email: "jade@mail.com", Password: "Pass123$"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEmpty(t, token)
}

func TestUserService_Login(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, first := f.signup(t, "Dave", "dave@mail.com")

	got, second, err := f.userSvc.Login(ctx, "DAVE@mail.com", "Pass123$")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEqual(t, first, second)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, stored.Tokens)

	for _, tok := range []string{first, second} {
		_, err := f.tokens.Authenticate(ctx, tok)
		assert.NoError(t, err)
	}
}

func TestUserService_LoginFailuresLookTheSame(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, token := f.signup(t, "Dave", "dave@mail.com")

	_, _, errWrongPwd := f.userSvc.Login(ctx, "dave@mail.com", "wrong-pass")
	_, _, errNoUser := f.userSvc.Login(ctx, "ghost@mail.com", "Pass123$")
	assert.ErrorIs(t, errWrongPwd, ErrAuthentication)
	assert.ErrorIs(t, errNoUser, ErrAuthentication)
	assert.Equal(t, errWrongPwd.Error(), errNoUser.Error())

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{token}, stored.Tokens)
}

func TestUserService_Logout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, first := f.signup(t, "Karkat", "karkat@mail.com")
	_, second, err := f.userSvc.Login(ctx, "karkat@mail.com", "Pass123$")
	require.NoError(t, err)

	require.NoError(t, f.userSvc.Logout(ctx, u, first))
	_, err = f.tokens.Authenticate(ctx, first)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = f.tokens.Authenticate(ctx, second)
	assert.NoError(t, err)

	require.NoError(t, f.userSvc.LogoutAll(ctx, u))
	_, err = f.tokens.Authenticate(ctx, second)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, u.Tokens)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, _ := f.signup(t, "Terezi", "terezi@mail.com")

	updated, err := f.userSvc.UpdateProfile(ctx, u, Patch{
		"name":     json.RawMessage(`"Terezi Pyrope"`),
		"age":      json.RawMessage(`13`),
		"password": json.RawMessage(`"Scales413"`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Terezi Pyrope", updated.Name)
	assert.Equal(t, 13, updated.Age)

	_, _, err = f.userSvc.Login(ctx, "terezi@mail.com", "Scales413")
	assert.NoError(t, err)
	_, _, err = f.userSvc.Login(ctx, "terezi@mail.com", "Pass123$")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestUserService_UpdateProfileRejectsWithoutApplying(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, _ := f.signup(t, "Vriska", "vriska@mail.com")
	f.signup(t, "Other", "other@mail.com")

	tests := []struct {
		name  string
		patch Patch
	}{
		{name: "unknown key", patch: Patch{"name": json.RawMessage(`"V"`), "phoneNumber": json.RawMessage(`"####"`)}},
		{name: "tokens key", patch: Patch{"tokens": json.RawMessage(`[]`)}},
		{name: "null value", patch: Patch{"name": json.RawMessage(`null`)}},
		{name: "wrong type", patch: Patch{"age": json.RawMessage(`"eight"`)}},
		{name: "bad password", patch: Patch{"password": json.RawMessage(`"password123"`)}},
		{name: "taken email", patch: Patch{"email": json.RawMessage(`"Other@mail.com"`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.userSvc.UpdateProfile(ctx, u, tt.patch)
			require.ErrorIs(t, err, ErrValidation)

			stored, err := f.users.GetByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "Vriska", stored.Name)
			assert.Equal(t, "vriska@mail.com", stored.Email)
			assert.Equal(t, 0, stored.Age)
		})
	}
}

func TestUserService_DeleteAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, token := f.signup(t, "Sollux", "sollux@mail.com")
	other, _ := f.signup(t, "Aradia", "aradia@mail.com")
	for _, d := range []string{"a", "b"} {
		_, err := f.taskSvc.Create(ctx, u.ID, TaskInput{Description: d})
		require.NoError(t, err)
	}
	_, err := f.taskSvc.Create(ctx, other.ID, TaskInput{Description: "keep"})
	require.NoError(t, err)

	f.notifier.err = errSideChannel
	require.NoError(t, f.userSvc.DeleteAccount(ctx, u))

	_, err = f.users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	left, err := f.tasks.List(ctx, u.ID, repository.TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, left)
	kept, err := f.tasks.List(ctx, other.ID, repository.TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	_, err = f.tokens.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, []string{u.ID}, f.index.removedOwners)
	assert.Contains(t, f.mirror.removed, u.ID)
	assert.Equal(t, sent{"cancellation", "sollux@mail.com", "Sollux"}, f.notifier.sent[len(f.notifier.sent)-1])
}

func TestUserService_SetAvatar(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, _ := f.signup(t, "Nepeta", "nepeta@mail.com")

	require.NoError(t, f.userSvc.SetAvatar(ctx, u, "cat.JPG", pngBytes(t, 600, 300)))

	avatar, err := f.userSvc.GetAvatar(ctx, u.ID)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(avatar))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, imaging.AvatarSize, cfg.Width)
	assert.Equal(t, imaging.AvatarSize, cfg.Height)
	assert.Equal(t, avatar, f.mirror.put[u.ID])

	require.NoError(t, f.userSvc.ClearAvatar(ctx, u))
	_, err = f.userSvc.GetAvatar(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_SetAvatarRejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, _ := f.signup(t, "Equius", "equius@mail.com")

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "too large", filename: "big.png", data: make([]byte, MaxAvatarBytes+1)},
		{name: "bad extension", filename: "notes.pdf", data: []byte("%PDF-1.4")},
		{name: "no extension", filename: "png", data: []byte("x")},
		{name: "undecodable", filename: "fake.png", data: []byte("not really a png")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.userSvc.SetAvatar(ctx, u, tt.filename, tt.data)
			require.ErrorIs(t, err, ErrValidation)
			_, err = f.userSvc.GetAvatar(ctx, u.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
	assert.Empty(t, f.mirror.put)
}

func TestUserService_GetAvatarMissing(t *testing.T) {
	f := newFixture()
	_, err := f.userSvc.GetAvatar(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenService_Authenticate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, token := f.signup(t, "Gamzee", "gamzee@mail.com")

	got, err := f.tokens.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	uid, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	_, err = f.tokens.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, f.users.Delete(ctx, u.ID))
	_, err = f.tokens.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NesmitC/project-webmath/internal/db/dbtest"
	"github.com/NesmitC/project-webmath/internal/user"
)

func newStore(t *testing.T) *user.Store {
	t.Helper()
	return user.NewStore(dbtest.Open(t))
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u, err := s.Create(ctx, user.NewUser{Username: "masha", Email: "Masha@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, u.Role)
	assert.Equal(t, "masha@example.com", u.Email)
	assert.False(t, u.Confirmed)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	got, err := s.Authenticate(ctx, "masha", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.LastLogin)

	got, err = s.Authenticate(ctx, "masha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "masha", "wrong")
	assert.ErrorIs(t, err, user.ErrBadCredentials)
	_, err = s.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, user.ErrBadCredentials)
}

func TestCreateDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Create(ctx, user.NewUser{Username: "a", Email: "a@x.ru", Password: "secret1"})
	require.NoError(t, err)

	_, err = s.Create(ctx, user.NewUser{Username: "a", Email: "b@x.ru", Password: "secret1"})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
	_, err = s.Create(ctx, user.NewUser{Username: "b", Email: "A@x.ru", Password: "secret1"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
	_, err = s.Create(ctx, user.NewUser{Username: "c", Email: "c@x.ru", Password: "123"})
	assert.ErrorIs(t, err, user.ErrPasswordTooWeak)
	_, err = s.Create(ctx, user.NewUser{Username: "d", Email: "d@x.ru", Password: "secret1", Role: "root"})
	assert.ErrorIs(t, err, user.ErrInvalidRole)
}

func TestConfirmationRequired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.RequireConfirmation = true

	u, err := s.Create(ctx, user.NewUser{Username: "petya", Email: "p@x.ru", Password: "secret1"})
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "petya", "secret1")
	require.ErrorIs(t, err, user.ErrNotConfirmed)

	require.NoError(t, s.Confirm(ctx, u.ID))
	require.NoError(t, s.Confirm(ctx, u.ID), "confirming twice is a no-op")

	got, err := s.Authenticate(ctx, "petya", "secret1")
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
	assert.NotNil(t, got.ConfirmedAt)

	assert.ErrorIs(t, s.Confirm(ctx, "missing"), user.ErrNotFound)
}

func TestSetRoleGuardsLastAdmin(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a, err := s.Create(ctx, user.NewUser{Username: "admin", Email: "admin@x.ru", Password: "secret1", Role: user.RoleAdmin})
	require.NoError(t, err)
	b, err := s.Create(ctx, user.NewUser{Username: "teacher", Email: "t@x.ru", Password: "secret1"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetRole(ctx, a.ID, user.RoleStudent), user.ErrLastAdmin)
	assert.ErrorIs(t, s.SetRole(ctx, b.ID, "boss"), user.ErrInvalidRole)
	assert.ErrorIs(t, s.SetRole(ctx, "ghost", user.RoleTeacher), user.ErrNotFound)

	require.NoError(t, s.SetRole(ctx, "teacher", user.RoleTeacher))
	role, err := s.Role(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, role)

	promoted, err := s.MakeAdmin(ctx, "teacher")
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())
	require.NoError(t, s.SetRole(ctx, a.ID, user.RoleStudent))

	admins, err := s.List(ctx, user.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "teacher", admins[0].Username)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u, err := s.Create(ctx, user.NewUser{Username: "ivan", Email: "i@x.ru", Password: "secret1"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, u.ID, "nope", "secret2"), user.ErrWrongPassword)
	assert.ErrorIs(t, s.ChangePassword(ctx, u.ID, "secret1", "x"), user.ErrPasswordTooWeak)
	require.NoError(t, s.ChangePassword(ctx, u.ID, "secret1", "secret2"))

	_, err = s.Authenticate(ctx, "ivan", "secret2")
	require.NoError(t, err)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, name := range []string{"u1", "u2", "u3"} {
		_, err := s.Create(ctx, user.NewUser{Username: name, Email: name + "@x.ru", Password: "secret1"})
		require.NoError(t, err)
	}
	n, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

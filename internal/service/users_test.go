package service

import (
	"testing"
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.db)
	users.now = func() time.Time { return day(2) }

	_, err := users.Create(f.pm, UserInput{Username: "x", Email: "x@example.com", Password: "password1", Role: models.RoleEmployee})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = users.Create(f.admin, UserInput{Username: "x", Email: "x@example.com", Password: "short", Role: models.RoleEmployee})
	v, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "password", v.Field)

	_, err = users.Create(f.admin, UserInput{Username: "emp", Email: "new@example.com", Password: "password1", Role: models.RoleEmployee})
	v, ok = apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "username", v.Field)

	_, err = users.Create(f.admin, UserInput{Username: "x", Email: "x@example.com", Password: "password1", Role: "Owner"})
	v, ok = apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "role", v.Field)

	created, err := users.Create(f.admin, UserInput{Username: "x", Email: "x@example.com", Password: "password1", Role: models.RoleEmployee})
	require.NoError(t, err)
	assert.NotEqual(t, "password1", created.Password)

	_, err = users.Authenticate("x", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Authenticate("nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := users.Authenticate("x@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, user.LastLogin.Equal(day(2)))

	_, err = users.Archive(f.admin, created.ID)
	require.NoError(t, err)
	_, err = users.Authenticate("x", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Archive(f.admin, f.admin.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	listed, err := users.List(f.admin, nil)
	require.NoError(t, err)
	for _, u := range listed {
		assert.NotEqual(t, created.ID, u.ID)
	}
}

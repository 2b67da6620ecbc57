package service

import (
	"testing"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(users []models.User) []uint {
	out := make([]uint, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestAllowedRecipientsPerRole(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.projects.AddTeamMember(f.pm, f.project.ID, f.emp.ID))
	require.NoError(t, f.projects.AddTeamMember(f.pm, f.project.ID, f.emp2.ID))
	loner := f.user(t, "loner", models.RoleEmployee)

	cases := []struct {
		actor *models.User
		want  []uint
	}{
		{f.client, []uint{f.pm.ID}},
		{f.pm, []uint{f.client.ID, f.emp.ID, f.emp2.ID}},
		{f.emp, []uint{f.pm.ID, f.emp2.ID}},
		{f.admin, []uint{f.client.ID, f.pm.ID, f.emp.ID, f.emp2.ID, loner.ID}},
		{loner, []uint{}},
	}
	for _, tc := range cases {
		t.Run(tc.actor.Username, func(t *testing.T) {
			users, err := f.messages.AllowedRecipients(tc.actor)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(users))
		})
	}
}

func TestEmployeeCannotMessageClient(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.projects.AddTeamMember(f.pm, f.project.ID, f.emp.ID))

	_, err := f.messages.Send(f.emp, f.client.ID, "hello", nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// Even when the client is enrolled in the team.
	_, err = f.db.AddTeamMember(f.project.ID, f.client.ID, models.TeamRoleMember, day(1))
	require.NoError(t, err)
	_, err = f.messages.Send(f.emp, f.client.ID, "hello", nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.messages.Send(f.emp, f.pm.ID, "hello", nil)
	assert.NoError(t, err)
}

func TestArchivedProjectsDoNotGrantMessaging(t *testing.T) {
	f := newFixture(t)
	_, err := f.projects.Archive(f.admin, f.project.ID)
	require.NoError(t, err)

	_, err = f.messages.Send(f.client, f.pm.ID, "hello", nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.messages.Send(f.client, f.client.ID, "me", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.messages.Send(f.client, f.pm.ID, "  ", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.messages.Send(f.client, 9999, "hi", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	unrelated := uint(9999)
	_, err = f.messages.Send(f.client, f.pm.ID, "hi", &unrelated)
	_, ok := apperr.IsValidation(err)
	assert.True(t, ok)

	sent, err := f.messages.Send(f.client, f.pm.ID, "When is the launch?", &f.project.ID)
	require.NoError(t, err)
	_, err = f.messages.Send(f.pm, f.client.ID, "Next week", nil)
	require.NoError(t, err)

	inbox, err := f.messages.Inbox(f.pm)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, sent.ID, inbox[0].ID)

	convo, err := f.messages.Conversation(f.client, f.pm.ID, nil)
	require.NoError(t, err)
	assert.Len(t, convo, 2)
	convo, err = f.messages.Conversation(f.client, f.pm.ID, &f.project.ID)
	require.NoError(t, err)
	assert.Len(t, convo, 1)

	assert.ErrorIs(t, f.messages.MarkRead(f.client, sent.ID), apperr.ErrNotFound)
	f.setClock(day(9))
	require.NoError(t, f.messages.MarkRead(f.pm, sent.ID))
	inbox, err = f.messages.Inbox(f.pm)
	require.NoError(t, err)
	assert.True(t, inbox[0].IsRead)
	require.NotNil(t, inbox[0].ReadAt)
	assert.True(t, inbox[0].ReadAt.Equal(day(9)))
}

func TestSharedProjects(t *testing.T) {
	f := newFixture(t)
	second, err := f.projects.Create(f.admin, ProjectInput{Name: "App", ClientID: f.client.ID, StartDate: day(1)})
	require.NoError(t, err)
	require.NoError(t, f.projects.AddTeamMember(f.admin, second.ID, f.emp.ID))

	shared, err := f.messages.SharedProjects(f.client, f.pm.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, f.project.ID, shared[0].ID)

	shared, err = f.messages.SharedProjects(f.client, f.emp.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, second.ID, shared[0].ID)

	shared, err = f.messages.SharedProjects(f.admin, f.client.ID)
	require.NoError(t, err)
	assert.Len(t, shared, 2)

	shared, err = f.messages.SharedProjects(f.pm, f.emp.ID)
	require.NoError(t, err)
	assert.Empty(t, shared)
}

package policy

import (
	"testing"

	"github.com/headless-pm/taskflow/internal/models"
	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }

var (
	admin    = Subject{UserID: 1, Role: models.RoleAdmin}
	client   = Subject{UserID: 2, Role: models.RoleClient}
	manager  = Subject{UserID: 3, Role: models.RoleProjectManager}
	member   = Subject{UserID: 4, Role: models.RoleEmployee}
	assignee = Subject{UserID: 5, Role: models.RoleEmployee}
	stranger = Subject{UserID: 6, Role: models.RoleEmployee}
	otherPM  = Subject{UserID: 7, Role: models.RoleProjectManager}
	otherCl  = Subject{UserID: 8, Role: models.RoleClient}
)

func sampleProject() ProjectResource {
	return ProjectResource{
		ProjectID:        10,
		ClientID:         client.UserID,
		ProjectManagerID: uintPtr(manager.UserID),
		TeamMemberIDs:    []uint{member.UserID},
	}
}

func sampleTask() TaskResource {
	return TaskResource{Project: sampleProject(), AssigneeIDs: []uint{assignee.UserID}}
}

func TestTaskAccess(t *testing.T) {
	task := sampleTask()

	tests := []struct {
		name    string
		subject Subject
		action  Action
		want    bool
	}{
		{"admin views", admin, ActionView, true},
		{"manager views", manager, ActionView, true},
		{"client views", client, ActionView, true},
		{"team member views", member, ActionView, true},
		{"assignee views", assignee, ActionView, true},
		{"stranger cannot view", stranger, ActionView, false},
		{"other manager cannot view", otherPM, ActionView, false},
		{"other client cannot view", otherCl, ActionView, false},

		{"client comments", client, ActionComment, true},
		{"assignee comments", assignee, ActionComment, true},
		{"stranger cannot comment", stranger, ActionComment, false},

		{"admin edits", admin, ActionEdit, true},
		{"manager edits", manager, ActionEdit, true},
		{"client cannot edit", client, ActionEdit, false},
		{"assignee cannot edit", assignee, ActionEdit, false},
		{"other manager cannot delete", otherPM, ActionDelete, false},

		{"admin approves", admin, ActionApprove, true},
		{"manager approves", manager, ActionApprove, true},
		{"member cannot approve", member, ActionApprove, false},

		{"assignee submits proof", assignee, ActionSubmitProof, true},
		{"admin cannot submit proof", admin, ActionSubmitProof, false},
		{"team member cannot submit proof", member, ActionSubmitProof, false},
		{"assignee starts", assignee, ActionStart, true},
		{"manager cannot start", manager, ActionStart, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.subject, tt.action, task))
		})
	}
}

func TestProjectAccess(t *testing.T) {
	project := sampleProject()

	assert.True(t, Can(admin, ActionView, project))
	assert.True(t, Can(client, ActionView, project))
	assert.True(t, Can(manager, ActionView, project))
	assert.True(t, Can(member, ActionView, project))
	assert.False(t, Can(assignee, ActionView, project), "assignees see the project only through team membership")
	assert.False(t, Can(otherCl, ActionView, project))
	assert.False(t, Can(otherPM, ActionView, project))

	assert.True(t, Can(manager, ActionUpdateStatus, project))
	assert.False(t, Can(client, ActionUpdateStatus, project))
	assert.True(t, Can(admin, ActionArchive, project))
	assert.False(t, Can(manager, ActionArchive, project))
	assert.True(t, Can(manager, ActionManageTeam, project))
}

func TestProjectClientRoleMustMatch(t *testing.T) {
	// A manager whose id happens to equal the client id is not granted the
	// client path.
	project := ProjectResource{ClientID: manager.UserID}
	assert.False(t, Can(manager, ActionView, project))
}

func TestTicketAccess(t *testing.T) {
	ticket := TicketResource{
		CreatedByID:      client.UserID,
		AssignedToID:     uintPtr(assignee.UserID),
		ProjectManagerID: uintPtr(manager.UserID),
	}

	assert.True(t, Can(client, ActionCreate, TicketResource{}))
	assert.False(t, Can(admin, ActionCreate, TicketResource{}))
	assert.False(t, Can(manager, ActionCreate, TicketResource{}))
	assert.False(t, Can(member, ActionCreate, TicketResource{}))

	assert.True(t, Can(admin, ActionView, ticket))
	assert.True(t, Can(manager, ActionView, ticket))
	assert.True(t, Can(client, ActionView, ticket))
	assert.True(t, Can(assignee, ActionView, ticket))
	assert.False(t, Can(otherPM, ActionView, ticket))
	assert.False(t, Can(otherCl, ActionView, ticket))
	assert.False(t, Can(stranger, ActionView, ticket))

	assert.True(t, Can(admin, ActionUpdateStatus, ticket))
	assert.True(t, Can(manager, ActionAssign, ticket))
	assert.False(t, Can(otherPM, ActionUpdateStatus, ticket))
	assert.False(t, Can(client, ActionUpdateStatus, ticket))
	assert.False(t, Can(assignee, ActionAssign, ticket))

	unlinked := TicketResource{CreatedByID: client.UserID}
	assert.False(t, Can(manager, ActionView, unlinked))
	assert.True(t, Can(admin, ActionUpdateStatus, unlinked))
}

func TestAdminIsReflexive(t *testing.T) {
	for _, r := range []Resource{ProjectResource{}, TaskResource{}, TicketResource{}} {
		assert.True(t, Can(admin, ActionView, r))
	}
}

func TestFailsClosed(t *testing.T) {
	for _, r := range []Resource{sampleProject(), sampleTask(), TicketResource{CreatedByID: client.UserID}} {
		for _, a := range []Action{ActionView, ActionComment, ActionEdit, ActionDelete, ActionApprove, ActionUpdateStatus, ActionAssign} {
			assert.False(t, Can(stranger, a, r), "stranger %s", a)
		}
	}

	assert.False(t, Can(Subject{}, ActionView, sampleProject()))
	assert.False(t, Can(Subject{UserID: 9, Role: "Guest"}, ActionView, sampleProject()))
	assert.False(t, Can(admin, ActionView, nil))
	assert.False(t, Can(admin, "teleport", sampleTask()))
}

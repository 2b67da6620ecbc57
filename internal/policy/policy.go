// Package policy decides whether a user may perform an action on a project,
// task or ticket. Every decision is an OR of independent grants; anything not
// granted is denied.
package policy

import (
	"slices"

	"github.com/headless-pm/taskflow/internal/models"
)

type Action string

const (
	ActionView         Action = "view"
	ActionComment      Action = "comment"
	ActionCreate       Action = "create"
	ActionEdit         Action = "edit"
	ActionDelete       Action = "delete"
	ActionArchive      Action = "archive"
	ActionApprove      Action = "approve"
	ActionStart        Action = "start"
	ActionSubmitProof  Action = "submit_proof"
	ActionUpdateStatus Action = "update_status"
	ActionAssign       Action = "assign"
	ActionAttach       Action = "attach"
	ActionManageTeam   Action = "manage_team"
)

// Subject is the acting user as seen by the policy.
type Subject struct {
	UserID uint
	Role   models.Role
}

func SubjectOf(u *models.User) Subject {
	if u == nil {
		return Subject{}
	}
	return Subject{UserID: u.ID, Role: u.Role}
}

func (s Subject) IsAdmin() bool { return s.Role == models.RoleAdmin }

// Resource is one of ProjectResource, TaskResource or TicketResource.
type Resource interface {
	resource()
}

// ProjectResource carries the relationships of a project that grant access.
type ProjectResource struct {
	ProjectID        uint
	ClientID         uint
	ProjectManagerID *uint
	TeamMemberIDs    []uint
}

func (ProjectResource) resource() {}

func (p ProjectResource) managedBy(id uint) bool {
	return p.ProjectManagerID != nil && *p.ProjectManagerID == id && id != 0
}

func (p ProjectResource) ownedByClient(id uint) bool {
	return p.ClientID != 0 && p.ClientID == id
}

func (p ProjectResource) hasMember(id uint) bool {
	return id != 0 && slices.Contains(p.TeamMemberIDs, id)
}

type TaskResource struct {
	Project     ProjectResource
	AssigneeIDs []uint
}

func (TaskResource) resource() {}

func (t TaskResource) assigned(id uint) bool {
	return id != 0 && slices.Contains(t.AssigneeIDs, id)
}

// TicketResource describes a ticket. ProjectManagerID is the manager of the
// linked project, nil when the ticket has no project or the project has no
// manager. A zero value is used for ActionCreate.
type TicketResource struct {
	CreatedByID      uint
	AssignedToID     *uint
	ProjectManagerID *uint
}

func (TicketResource) resource() {}

// Can reports whether s may perform a on r.
func Can(s Subject, a Action, r Resource) bool {
	if s.UserID == 0 || !s.Role.Valid() {
		return false
	}
	switch res := r.(type) {
	case ProjectResource:
		return canProject(s, a, res)
	case *ProjectResource:
		return res != nil && canProject(s, a, *res)
	case TaskResource:
		return canTask(s, a, res)
	case *TaskResource:
		return res != nil && canTask(s, a, *res)
	case TicketResource:
		return canTicket(s, a, res)
	case *TicketResource:
		return res != nil && canTicket(s, a, *res)
	}
	return false
}

func canProject(s Subject, a Action, p ProjectResource) bool {
	switch a {
	case ActionView:
		return s.IsAdmin() ||
			(s.Role == models.RoleClient && p.ownedByClient(s.UserID)) ||
			(s.Role == models.RoleProjectManager && p.managedBy(s.UserID)) ||
			p.hasMember(s.UserID)
	case ActionEdit, ActionUpdateStatus, ActionManageTeam:
		return s.IsAdmin() || p.managedBy(s.UserID)
	case ActionCreate, ActionArchive, ActionDelete:
		return s.IsAdmin()
	}
	return false
}

func canTask(s Subject, a Action, t TaskResource) bool {
	switch a {
	case ActionView, ActionComment:
		return s.IsAdmin() ||
			t.Project.managedBy(s.UserID) ||
			t.Project.ownedByClient(s.UserID) ||
			t.Project.hasMember(s.UserID) ||
			t.assigned(s.UserID)
	case ActionCreate, ActionEdit, ActionDelete, ActionArchive, ActionApprove, ActionUpdateStatus, ActionAssign:
		return s.IsAdmin() || t.Project.managedBy(s.UserID)
	case ActionStart, ActionSubmitProof:
		return t.assigned(s.UserID)
	}
	return false
}

func canTicket(s Subject, a Action, t TicketResource) bool {
	switch a {
	case ActionCreate:
		return s.Role == models.RoleClient
	case ActionView, ActionComment, ActionAttach:
		return canViewTicket(s, t)
	case ActionUpdateStatus, ActionAssign:
		return s.IsAdmin() ||
			(s.Role == models.RoleProjectManager && managesTicket(s, t))
	}
	return false
}

func canViewTicket(s Subject, t TicketResource) bool {
	switch s.Role {
	case models.RoleAdmin:
		return true
	case models.RoleProjectManager:
		return managesTicket(s, t)
	case models.RoleClient:
		return t.CreatedByID != 0 && t.CreatedByID == s.UserID
	case models.RoleEmployee:
		return t.AssignedToID != nil && *t.AssignedToID == s.UserID
	}
	return false
}

func managesTicket(s Subject, t TicketResource) bool {
	return t.ProjectManagerID != nil && *t.ProjectManagerID == s.UserID
}

package service

import (
	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/internal/policy"
)

// Helpers that load the relationships the policy needs. Every authorization
// decision in this package goes through policy.Can.

func projectResource(db *database.Database, project *models.Project) (policy.ProjectResource, error) {
	members, err := db.GetTeamMemberIDs(project.ID)
	if err != nil {
		return policy.ProjectResource{}, err
	}
	return policy.ProjectResource{
		ProjectID:        project.ID,
		ClientID:         project.ClientID,
		ProjectManagerID: project.ProjectManagerID,
		TeamMemberIDs:    members,
	}, nil
}

func taskResource(db *database.Database, task *models.Task) (policy.TaskResource, *models.Project, error) {
	project, err := db.GetProjectIncludingArchived(task.ProjectID)
	if err != nil {
		return policy.TaskResource{}, nil, err
	}
	pres, err := projectResource(db, project)
	if err != nil {
		return policy.TaskResource{}, nil, err
	}
	assignees, err := db.GetAssigneeIDs(task.ID)
	if err != nil {
		return policy.TaskResource{}, nil, err
	}
	return policy.TaskResource{Project: pres, AssigneeIDs: assignees}, project, nil
}

func ticketResource(db *database.Database, ticket *models.Ticket) (policy.TicketResource, error) {
	res := policy.TicketResource{
		CreatedByID:  ticket.CreatedByID,
		AssignedToID: ticket.AssignedToID,
	}
	if ticket.ProjectID != nil {
		project, err := db.GetProjectIncludingArchived(*ticket.ProjectID)
		if err != nil {
			return res, err
		}
		res.ProjectManagerID = project.ProjectManagerID
	}
	return res, nil
}

func authorize(actor *models.User, action policy.Action, res policy.Resource, what string) error {
	if !policy.Can(policy.SubjectOf(actor), action, res) {
		return apperr.Forbidden("%s may not %s", actorName(actor), what)
	}
	return nil
}

func actorName(actor *models.User) string {
	if actor == nil {
		return "anonymous"
	}
	return actor.Username
}

// accessibleProjects returns the active projects a user can reach through
// their role: all for admins, owned for clients, managed for project
// managers, team memberships for employees.
func accessibleProjects(db *database.Database, user *models.User) ([]models.Project, error) {
	filter := database.ProjectFilter{}
	switch user.Role {
	case models.RoleAdmin:
	case models.RoleClient:
		filter.ClientID = &user.ID
	case models.RoleProjectManager:
		filter.ManagerID = &user.ID
	case models.RoleEmployee:
		filter.MemberID = &user.ID
	default:
		return nil, nil
	}
	return db.ListProjects(filter)
}

func requireRole(db *database.Database, userID uint, role models.Role, field string) (*models.User, error) {
	user, err := db.GetActiveUser(userID)
	if err != nil {
		return nil, apperr.Validation(field, "user does not exist", userID)
	}
	if user.Role != role {
		return nil, apperr.Validation(field, "user must have role "+string(role), userID)
	}
	return user, nil
}

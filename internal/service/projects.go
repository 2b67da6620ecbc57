package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/internal/policy"
)

type ProjectService struct {
	db       *database.Database
	notifier *Notifier
	now      func() time.Time
}

func NewProjectService(db *database.Database, notifier *Notifier) *ProjectService {
	return &ProjectService{db: db, notifier: notifier, now: time.Now}
}

type ProjectInput struct {
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	ClientID         uint                 `json:"client_id"`
	ProjectManagerID *uint                `json:"project_manager_id"`
	Status           models.ProjectStatus `json:"status"`
	StartDate        time.Time            `json:"start_date"`
	EndDate          *time.Time           `json:"end_date"`
}

type ProjectDetail struct {
	Project models.Project       `json:"project"`
	Team    []models.ProjectTeam `json:"team"`
}

func (s *ProjectService) Create(actor *models.User, in ProjectInput) (*models.Project, error) {
	if err := authorize(actor, policy.ActionCreate, policy.ProjectResource{}, "create projects"); err != nil {
		return nil, err
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		Status:           in.Status,
		ClientID:         in.ClientID,
		ProjectManagerID: in.ProjectManagerID,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
	}
	if err := s.db.CreateProject(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	log.Printf("Project %d created by user %d", project.ID, actor.ID)
	return project, nil
}

// Update changes the descriptive fields, dates and people of a project.
// Status changes go through UpdateStatus so the client is told.
func (s *ProjectService) Update(actor *models.User, projectID uint, in ProjectInput) (*models.Project, error) {
	project, err := s.db.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionEdit, res, "edit this project"); err != nil {
		return nil, err
	}
	in.Status = project.Status
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	if err := s.checkTaskEnvelope(project.ID, &in); err != nil {
		return nil, err
	}

	project.Name = strings.TrimSpace(in.Name)
	project.Description = in.Description
	project.ClientID = in.ClientID
	project.ProjectManagerID = in.ProjectManagerID
	project.StartDate = in.StartDate
	project.EndDate = in.EndDate
	project.UpdatedAt = s.now()
	if err := s.db.UpdateProject(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// checkTaskEnvelope rejects new dates that would leave an existing task
// outside the project's date range.
func (s *ProjectService) checkTaskEnvelope(projectID uint, in *ProjectInput) error {
	tasks, err := s.db.ListAllProjectTasks(projectID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.StartDate.Before(in.StartDate) {
			return apperr.Validation("start_date",
				fmt.Sprintf("task %d %q starts on %s", task.ID, task.Title, task.StartDate.Format(dateLayout)), in.StartDate)
		}
		if in.EndDate != nil && task.DueDate.After(*in.EndDate) {
			return apperr.Validation("end_date",
				fmt.Sprintf("task %d %q is due on %s", task.ID, task.Title, task.DueDate.Format(dateLayout)), *in.EndDate)
		}
	}
	return nil
}

func (s *ProjectService) validate(in *ProjectInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name", "name is required", in.Name)
	}
	if in.Status == "" {
		in.Status = models.ProjectStatusNotStarted
	}
	if !in.Status.Valid() {
		return apperr.Validation("status", "unknown project status", in.Status)
	}
	if in.StartDate.IsZero() {
		return apperr.Validation("start_date", "start date is required", in.StartDate)
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return apperr.Validation("end_date", "end date is before the start date", *in.EndDate)
	}
	if _, err := requireRole(s.db, in.ClientID, models.RoleClient, "client_id"); err != nil {
		return err
	}
	if in.ProjectManagerID != nil {
		if _, err := requireRole(s.db, *in.ProjectManagerID, models.RoleProjectManager, "project_manager_id"); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectService) UpdateStatus(actor *models.User, projectID uint, status models.ProjectStatus) (*models.Project, error) {
	if !status.Valid() {
		return nil, apperr.Validation("status", "unknown project status", status)
	}
	project, err := s.db.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionUpdateStatus, res, "change the status of this project"); err != nil {
		return nil, err
	}
	if project.Status == status {
		return project, nil
	}

	old := project.Status
	project.Status = status
	project.UpdatedAt = s.now()

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateProject(project); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:      EventProjectStatusChanged,
			ProjectID: project.ID,
			Title:     "Project status changed",
			Message:   fmt.Sprintf("%s moved from %s to %s", project.Name, old, status),
			Link:      projectLink(project.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)
	return project, nil
}

func (s *ProjectService) Archive(actor *models.User, projectID uint) (*models.Project, error) {
	return s.setArchived(actor, projectID, true)
}

func (s *ProjectService) Unarchive(actor *models.User, projectID uint) (*models.Project, error) {
	return s.setArchived(actor, projectID, false)
}

func (s *ProjectService) setArchived(actor *models.User, projectID uint, archived bool) (*models.Project, error) {
	project, err := s.db.GetProjectIncludingArchived(projectID)
	if err != nil {
		return nil, err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionArchive, res, "archive this project"); err != nil {
		return nil, err
	}
	if project.IsArchived == archived {
		return project, nil
	}

	project.IsArchived = archived
	project.UpdatedAt = s.now()
	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateProject(project); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:      EventProjectStatusChanged,
			ProjectID: project.ID,
			Archival:  true,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)
	log.Printf("Project %d archived=%t by user %d", project.ID, archived, actor.ID)
	return project, nil
}

func (s *ProjectService) Delete(actor *models.User, projectID uint) error {
	project, err := s.db.GetProjectIncludingArchived(projectID)
	if err != nil {
		return err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return err
	}
	if err := authorize(actor, policy.ActionDelete, res, "delete this project"); err != nil {
		return err
	}
	if err := s.db.DeleteProject(project.ID); err != nil {
		return err
	}
	log.Printf("Project %d deleted by user %d", project.ID, actor.ID)
	return nil
}

func (s *ProjectService) Get(actor *models.User, projectID uint) (*ProjectDetail, error) {
	project, err := s.db.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionView, res, "view this project"); err != nil {
		return nil, err
	}
	team, err := s.db.ListTeam(project.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{Project: *project, Team: team}, nil
}

// List returns the active projects visible to the actor.
func (s *ProjectService) List(actor *models.User) ([]models.Project, error) {
	return accessibleProjects(s.db, actor)
}

func (s *ProjectService) AddTeamMember(actor *models.User, projectID, userID uint) error {
	project, err := s.db.GetProject(projectID)
	if err != nil {
		return err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return err
	}
	if err := authorize(actor, policy.ActionManageTeam, res, "manage this project's team"); err != nil {
		return err
	}
	if _, err := requireRole(s.db, userID, models.RoleEmployee, "user_id"); err != nil {
		return err
	}
	if _, err := s.db.AddTeamMember(project.ID, userID, models.TeamRoleMember, s.now()); err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (s *ProjectService) RemoveTeamMember(actor *models.User, projectID, userID uint) error {
	project, err := s.db.GetProject(projectID)
	if err != nil {
		return err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return err
	}
	if err := authorize(actor, policy.ActionManageTeam, res, "manage this project's team"); err != nil {
		return err
	}
	return s.db.RemoveTeamMember(project.ID, userID)
}

func projectLink(projectID uint) func(models.Role) string {
	return func(role models.Role) string {
		if role == models.RoleClient {
			return fmt.Sprintf("/client/projects/%d", projectID)
		}
		return fmt.Sprintf("/projects/%d", projectID)
	}
}

// Stats summarizes the project's active tasks for anyone who can view it.
func (s *ProjectService) Stats(actor *models.User, projectID uint) (*database.ProjectStats, error) {
	project, err := s.db.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionView, res, "view this project"); err != nil {
		return nil, err
	}
	return s.db.GetProjectStats(project.ID, s.now())
}

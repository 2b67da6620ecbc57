package database

import (
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/models"
	"gorm.io/gorm/clause"
)

type ProjectFilter struct {
	ClientID        *uint
	ManagerID       *uint
	MemberID        *uint
	IncludeArchived bool
}

func (db *Database) CreateProject(project *models.Project) error {
	return db.Create(project).Error
}

func (db *Database) GetProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := db.Scopes(Active).First(&project, id).Error; err != nil {
		return nil, notFound(err, "project", id)
	}
	return &project, nil
}

// GetProjectIncludingArchived is used by unarchive, which must see archived rows.
func (db *Database) GetProjectIncludingArchived(id uint) (*models.Project, error) {
	var project models.Project
	if err := db.First(&project, id).Error; err != nil {
		return nil, notFound(err, "project", id)
	}
	return &project, nil
}

func (db *Database) ListProjects(filter ProjectFilter) ([]models.Project, error) {
	var projects []models.Project
	query := db.DB.Model(&models.Project{})
	if !filter.IncludeArchived {
		query = query.Scopes(Active)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ManagerID != nil {
		query = query.Where("project_manager_id = ?", *filter.ManagerID)
	}
	if filter.MemberID != nil {
		query = query.Where("id IN (?)",
			db.DB.Model(&models.ProjectTeam{}).Select("project_id").Where("user_id = ?", *filter.MemberID))
	}
	err := query.Order("id").Find(&projects).Error
	return projects, err
}

func (db *Database) UpdateProject(project *models.Project) error {
	return db.Save(project).Error
}

// DeleteProject removes the project together with its tasks, their
// assignments, comments and activity, and its team rows.
func (db *Database) DeleteProject(id uint) error {
	return db.InTx(func(tx *Database) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectTeam{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Ticket{}).Where("project_id = ?", id).Update("project_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Message{}).Where("project_id = ?", id).Update("project_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("project", id)
		}
		return nil
	})
}

// Team membership

func (db *Database) GetTeamMemberIDs(projectID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&models.ProjectTeam{}).
		Where("project_id = ?", projectID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (db *Database) ListTeam(projectID uint) ([]models.ProjectTeam, error) {
	var team []models.ProjectTeam
	err := db.Where("project_id = ?", projectID).Order("joined_at, id").Find(&team).Error
	return team, err
}

func (db *Database) IsTeamMember(projectID, userID uint) (bool, error) {
	var count int64
	err := db.Model(&models.ProjectTeam{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// AddTeamMember enrolls userID in the project team. It reports whether a new
// row was created; an existing membership is left untouched.
func (db *Database) AddTeamMember(projectID, userID uint, role string, joinedAt time.Time) (bool, error) {
	if role == "" {
		role = models.TeamRoleMember
	}
	member := models.ProjectTeam{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		JoinedAt:  joinedAt,
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (db *Database) RemoveTeamMember(projectID, userID uint) error {
	return db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectTeam{}).Error
}

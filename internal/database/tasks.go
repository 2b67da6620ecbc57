package database

import (
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/models"
)

func (db *Database) CreateTask(task *models.Task) error {
	return db.Create(task).Error
}

func (db *Database) GetTask(id uint) (*models.Task, error) {
	var task models.Task
	if err := db.Scopes(Active).First(&task, id).Error; err != nil {
		return nil, notFound(err, "task", id)
	}
	return &task, nil
}

func (db *Database) GetTaskIncludingArchived(id uint) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, id).Error; err != nil {
		return nil, notFound(err, "task", id)
	}
	return &task, nil
}

// ListProjectTasks returns the project's active tasks ordered by start date.
func (db *Database) ListProjectTasks(projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Scopes(Active).
		Where("project_id = ?", projectID).
		Order("start_date, id").
		Find(&tasks).Error
	return tasks, err
}

// ListAllProjectTasks includes archived tasks, which can be restored into the
// project's date range.
func (db *Database) ListAllProjectTasks(projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Where("project_id = ?", projectID).Order("start_date, id").Find(&tasks).Error
	return tasks, err
}

func (db *Database) ListTasksForAssignee(employeeID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Scopes(Active).
		Where("id IN (?)", db.Model(&models.TaskAssignment{}).Select("task_id").Where("employee_id = ?", employeeID)).
		Order("due_date, id").
		Find(&tasks).Error
	return tasks, err
}

func (db *Database) UpdateTask(task *models.Task) error {
	return db.Save(task).Error
}

func (db *Database) UpdateTaskDates(id uint, start, due, updatedAt time.Time) error {
	return db.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
		"start_date": start,
		"due_date":   due,
		"updated_at": updatedAt,
	}).Error
}

// DeleteTask removes the task with its assignments, comments and activity.
func (db *Database) DeleteTask(id uint) error {
	return db.InTx(func(tx *Database) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("task", id)
		}
		return nil
	})
}

// Assignments

func (db *Database) GetAssigneeIDs(taskID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&models.TaskAssignment{}).
		Where("task_id = ?", taskID).
		Order("employee_id").
		Pluck("employee_id", &ids).Error
	return ids, err
}

func (db *Database) ListTaskAssignments(taskID uint) ([]models.TaskAssignment, error) {
	var assignments []models.TaskAssignment
	err := db.Where("task_id = ?", taskID).Order("employee_id").Find(&assignments).Error
	return assignments, err
}

// ReplaceTaskAssignments deletes every assignment of the task and inserts one
// row per employee id. Previous AssignedAt values are not kept.
func (db *Database) ReplaceTaskAssignments(taskID uint, employeeIDs []uint, assignedAt time.Time) error {
	return db.InTx(func(tx *Database) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if len(employeeIDs) == 0 {
			return nil
		}
		rows := make([]models.TaskAssignment, 0, len(employeeIDs))
		for _, id := range employeeIDs {
			rows = append(rows, models.TaskAssignment{TaskID: taskID, EmployeeID: id, AssignedAt: assignedAt})
		}
		return tx.Create(&rows).Error
	})
}

// Comments

func (db *Database) AddTaskComment(comment *models.TaskComment) error {
	return db.Create(comment).Error
}

func (db *Database) ListTaskComments(taskID uint) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	err := db.Where("task_id = ?", taskID).Order("created_at, id").Find(&comments).Error
	return comments, err
}
